package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
)

var ErrInvalidEffect = errors.New("invalid effect symbol")

// Effect is how a card plays out for a role.
type Effect string

const (
	Positive Effect = "+"
	Negative Effect = "-"
	Neutral  Effect = "="
)

func (e Effect) Valid() bool {
	return e == Positive || e == Negative || e == Neutral
}

// Delta is the score change this effect applies.
func (e Effect) Delta() int {
	switch e {
	case Positive:
		return 1
	case Negative:
		return -1
	}
	return 0
}

// Label is the French word used in prompts.
func (e Effect) Label() string {
	switch e {
	case Positive:
		return "positif"
	case Negative:
		return "négatif"
	}
	return "neutre"
}

// Effects maps role -> card number -> effect, as in evaluations.json.
type Effects struct {
	byRole map[string]map[int]Effect
}

func NewEffects(table map[string]map[string]string) (*Effects, error) {
	e := &Effects{byRole: make(map[string]map[int]Effect, len(table))}
	for role, cards := range table {
		m := make(map[int]Effect, len(cards))
		for key, sym := range cards {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("role %q: card key %q is not a number", role, key)
			}
			eff := Effect(sym)
			if !eff.Valid() {
				return nil, fmt.Errorf("%w: role %q card %d: %q", ErrInvalidEffect, role, id, sym)
			}
			m[id] = eff
		}
		e.byRole[role] = m
	}
	return e, nil
}

func LoadEffects(path string) (*Effects, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read effects: %w", err)
	}
	return ParseEffects(b)
}

func ParseEffects(b []byte) (*Effects, error) {
	var table map[string]map[string]string
	if err := json.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("decode effects: %w", err)
	}
	return NewEffects(table)
}

// Resolve never fails: unknown roles or cards are neutral.
func (e *Effects) Resolve(cardID int, role string) Effect {
	if e == nil {
		return Neutral
	}
	if eff, ok := e.byRole[role][cardID]; ok {
		return eff
	}
	return Neutral
}

// Roles lists the roles present in the table, sorted.
func (e *Effects) Roles() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.byRole))
	for role := range e.byRole {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// UnknownCards reports card numbers referenced by the table but absent from the catalog.
func (e *Effects) UnknownCards(c *Catalog) map[string][]int {
	if e == nil {
		return nil
	}
	out := map[string][]int{}
	for role, cards := range e.byRole {
		for id := range cards {
			if !c.Contains(id) {
				out[role] = append(out[role], id)
			}
		}
		if ids, ok := out[role]; ok {
			sort.Ints(ids)
		}
	}
	return out
}
