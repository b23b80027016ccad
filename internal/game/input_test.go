package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMove(t *testing.T) {
	cases := []struct {
		input string
		want  Move
	}{
		{"0", Move{Kind: MoveConclusion}},
		{" 12 ", Move{Kind: MoveOrdinary, Card: 12}},
		{"100", Move{Kind: MoveInversion, Card: 100}},
		{"101 7", Move{Kind: MoveSuppression, Card: 101, Target: 7}},
		{"101   7", Move{Kind: MoveSuppression, Card: 101, Target: 7}},
		{"101", Move{Kind: MoveInvalid, Err: ErrMissingTarget}},
		{"101 sept", Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}},
		{"101 7 8", Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}},
		{"3 4", Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}},
		{"trois", Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}},
		{"", Move{Kind: MoveInvalid, Err: ErrInvalidCardNumber}},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseMove(tc.input))
		})
	}
}

func TestMoveKindString(t *testing.T) {
	assert.Equal(t, "suppression", MoveSuppression.String())
	assert.Equal(t, "invalid", MoveKind(42).String())
}
