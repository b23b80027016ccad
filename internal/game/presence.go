package game

import (
	"sort"
	"sync"
	"time"
)

// Player is a connected player as seen by others.
type Player struct {
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	LastSeen time.Time `json:"last_seen"`
}

// Presence tracks when each player name was last heard from.
// Reads never evict; Sweep does.
type Presence struct {
	mu      sync.Mutex
	window  time.Duration
	players map[string]Player
}

func NewPresence(window time.Duration) *Presence {
	return &Presence{window: window, players: make(map[string]Player)}
}

func (p *Presence) Touch(name, role string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.players[name] = Player{Name: name, Role: role, LastSeen: now}
}

func (p *Presence) live(pl Player, now time.Time) bool {
	return now.Sub(pl.LastSeen) <= p.window
}

// Active returns players seen within the liveness window, sorted by name.
func (p *Presence) Active(now time.Time) []Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Player, 0, len(p.players))
	for _, pl := range p.players {
		if p.live(pl, now) {
			out = append(out, pl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *Presence) ActiveCount(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, pl := range p.players {
		if p.live(pl, now) {
			n++
		}
	}
	return n
}

// Sweep evicts stale players and reports how many were removed.
func (p *Presence) Sweep(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for name, pl := range p.players {
		if !p.live(pl, now) {
			delete(p.players, name)
			n++
		}
	}
	return n
}

// Len counts tracked players, stale or not.
func (p *Presence) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.players)
}
