package game

import (
	"strconv"
	"strings"

	"github.com/kiliankoe/chroniques/internal/deck"
)

type MoveKind int

const (
	MoveInvalid MoveKind = iota
	MoveConclusion
	MoveOrdinary
	MoveInversion
	MoveSuppression
)

func (k MoveKind) String() string {
	switch k {
	case MoveConclusion:
		return "conclusion"
	case MoveOrdinary:
		return "ordinary"
	case MoveInversion:
		return "inversion"
	case MoveSuppression:
		return "suppression"
	}
	return "invalid"
}

// Move is one parsed player input. Card is set for ordinary plays,
// Target for suppressions, Err for invalid input.
type Move struct {
	Kind   MoveKind
	Card   int
	Target int
	Err    error
}

// ParseMove reads "0", "<card>", "100" or "101 <target>".
func ParseMove(input string) Move {
	fields := strings.Fields(input)
	if len(fields) == 0 || len(fields) > 2 {
		return Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}
	}

	if n == deck.SuppressionCard {
		if len(fields) != 2 {
			return Move{Kind: MoveInvalid, Err: ErrMissingTarget}
		}
		target, err := strconv.Atoi(fields[1])
		if err != nil {
			return Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}
		}
		return Move{Kind: MoveSuppression, Card: n, Target: target}
	}
	if len(fields) != 1 {
		return Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}
	}

	switch n {
	case 0:
		return Move{Kind: MoveConclusion}
	case deck.InversionCard:
		return Move{Kind: MoveInversion, Card: n}
	}
	return Move{Kind: MoveOrdinary, Card: n}
}
