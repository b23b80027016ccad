package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Special cards live outside the catalog.
const (
	InversionCard   = 100
	SuppressionCard = 101
)

var (
	ErrDuplicateCard = errors.New("duplicate card number")
	ErrReservedCard  = errors.New("card number reserved for special cards")
	ErrInvalidCard   = errors.New("invalid card")
)

// Card is one playable card. Field names follow deck.json.
type Card struct {
	ID          int    `json:"numero"`
	Name        string `json:"mot"`
	Description string `json:"descriptif"`
	Phrase      string `json:"phrase,omitempty"`
}

// UnmarshalJSON accepts "numero" as either a JSON number or a numeric string.
func (c *Card) UnmarshalJSON(b []byte) error {
	var raw struct {
		Numero     json.RawMessage `json:"numero"`
		Mot        string          `json:"mot"`
		Descriptif string          `json:"descriptif"`
		Phrase     string          `json:"phrase"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := parseNumero(raw.Numero)
	if err != nil {
		return err
	}
	*c = Card{ID: id, Name: raw.Mot, Description: raw.Descriptif, Phrase: raw.Phrase}
	return nil
}

func parseNumero(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing numero", ErrInvalidCard)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("%w: numero %q", ErrInvalidCard, s)
		}
		return n, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: numero %s", ErrInvalidCard, raw)
	}
	return n, nil
}

// Catalog is the immutable, ordered deck loaded at startup.
type Catalog struct {
	cards []Card
	byID  map[int]int
}

// NewCatalog validates cards and keeps them in the given order.
func NewCatalog(cards []Card) (*Catalog, error) {
	c := &Catalog{cards: make([]Card, 0, len(cards)), byID: make(map[int]int, len(cards))}
	for _, card := range cards {
		if card.ID <= 0 {
			return nil, fmt.Errorf("%w: numero %d must be positive", ErrInvalidCard, card.ID)
		}
		if card.ID == InversionCard || card.ID == SuppressionCard {
			return nil, fmt.Errorf("%w: %d", ErrReservedCard, card.ID)
		}
		if strings.TrimSpace(card.Name) == "" {
			return nil, fmt.Errorf("%w: card %d has no name", ErrInvalidCard, card.ID)
		}
		if _, dup := c.byID[card.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateCard, card.ID)
		}
		c.byID[card.ID] = len(c.cards)
		c.cards = append(c.cards, card)
	}
	return c, nil
}

// LoadCatalog reads a deck.json file.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var cards []Card
	if err := json.Unmarshal(b, &cards); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	return NewCatalog(cards)
}

func (c *Catalog) Lookup(id int) (Card, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Card{}, false
	}
	return c.cards[i], true
}

func (c *Catalog) Contains(id int) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Catalog) Len() int { return len(c.cards) }

// Cards returns a copy in catalog order.
func (c *Catalog) Cards() []Card {
	out := make([]Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// IDs returns every card number, ascending.
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.cards))
	for _, card := range c.cards {
		ids = append(ids, card.ID)
	}
	sort.Ints(ids)
	return ids
}
