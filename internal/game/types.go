package game

import (
	"context"
	"time"

	"github.com/kiliankoe/chroniques/internal/deck"
	"github.com/kiliankoe/chroniques/internal/story"
)

// Narrator is the display name and role of entries no player wrote.
const Narrator = "Narrateur"

type StoryEntry struct {
	ID        string      `json:"id"`
	Player    string      `json:"player"`
	Role      string      `json:"role"`
	Text      string      `json:"text"`
	Card      *deck.Card  `json:"card,omitempty"`
	Effect    deck.Effect `json:"effect,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ImagePath string      `json:"image_path,omitempty"`
	AudioPath string      `json:"audio_path,omitempty"`
}

// SpecialCardRecord is the audit trail that enforces one use per player.
type SpecialCardRecord struct {
	Player    string    `json:"player"`
	Role      string    `json:"role"`
	Card      int       `json:"card"`
	Target    *int      `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State is what polling clients see.
type State struct {
	Story            []StoryEntry `json:"story"`
	Score            int          `json:"score"`
	PlayedCards      []int        `json:"played_cards"`
	ActivePlayers    []Player     `json:"active_players"`
	Started          bool         `json:"started"`
	GameEnded        bool         `json:"game_ended"`
	TotalCards       int          `json:"total_cards"`
	ProcessingPlayer string       `json:"processing_player,omitempty"`
	ProcessingCard   string       `json:"processing_card,omitempty"`
}

// Outcome describes what a Play call did.
type Outcome struct {
	Kind        MoveKind
	Entry       *StoryEntry
	Effect      deck.Effect
	Regenerated int
}

// Generator produces story text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type MediaRequest struct {
	EntryID string
	Player  string
	CardID  int
	Text    string
}

// Media holds references produced for an entry. Empty fields mean nothing was produced.
type Media struct {
	ImagePath string
	AudioPath string
}

func (m Media) Empty() bool { return m.ImagePath == "" && m.AudioPath == "" }

// Enricher turns a finished entry into media. It must absorb its own failures.
type Enricher interface {
	Enrich(ctx context.Context, req MediaRequest) Media
}

// Fallbacks replace generated text when the narrator cannot answer.
type Fallbacks struct {
	Unavailable string
	BadResponse string
	Failure     string
}

var DefaultFallbacks = Fallbacks{
	Unavailable: "L'histoire continue avec des événements mystérieux...",
	BadResponse: "L'histoire continue mystérieusement...",
	Failure:     "L'histoire continue dans l'ombre...",
}

type Options struct {
	Introduction     string
	// ScoreFloor is the lowest opening score. Nil means 2; zero is a valid floor.
	ScoreFloor       *int
	CardsPerPlayer   int
	LivenessWindow   time.Duration
	AutoResetTimeout time.Duration
	GenerateTimeout  time.Duration
	Fallbacks        Fallbacks
	Clock            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Introduction == "" {
		o.Introduction = story.DefaultIntroduction
	}
	if o.ScoreFloor == nil {
		floor := 2
		o.ScoreFloor = &floor
	}
	if o.CardsPerPlayer <= 0 {
		o.CardsPerPlayer = 4
	}
	if o.LivenessWindow <= 0 {
		o.LivenessWindow = 5 * time.Second
	}
	if o.AutoResetTimeout <= 0 {
		o.AutoResetTimeout = 10 * time.Minute
	}
	if o.GenerateTimeout <= 0 {
		o.GenerateTimeout = 8 * time.Second
	}
	if o.Fallbacks.Unavailable == "" {
		o.Fallbacks.Unavailable = DefaultFallbacks.Unavailable
	}
	if o.Fallbacks.BadResponse == "" {
		o.Fallbacks.BadResponse = DefaultFallbacks.BadResponse
	}
	if o.Fallbacks.Failure == "" {
		o.Fallbacks.Failure = DefaultFallbacks.Failure
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
