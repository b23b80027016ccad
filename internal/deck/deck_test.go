package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDeck = `[
  {"numero": "1", "mot": "Lanterne", "descriptif": "Une lanterne vacillante", "phrase": "La lumière tremble."},
  {"numero": 2, "mot": "Corbeau", "descriptif": "Un corbeau messager"},
  {"numero": "3", "mot": "Épée", "descriptif": "Une lame ancienne"}
]`

const sampleEffects = `{
  "Soldat": {"1": "=", "2": "-", "3": "+"},
  "Moine":  {"1": "+", "2": "+", "3": "-"}
}`

func TestParseCatalogAcceptsStringAndNumericIDs(t *testing.T) {
	c, err := ParseCatalog([]byte(sampleDeck))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []int{1, 2, 3}, c.IDs())

	card, ok := c.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, "Épée", card.Name)
	assert.Equal(t, "Une lame ancienne", card.Description)

	_, ok = c.Lookup(42)
	assert.False(t, ok)
}

func TestNewCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]Card{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}})
	assert.ErrorIs(t, err, ErrDuplicateCard)

	_, err = NewCatalog([]Card{{ID: InversionCard, Name: "x"}})
	assert.ErrorIs(t, err, ErrReservedCard)

	_, err = NewCatalog([]Card{{ID: 0, Name: "x"}})
	assert.ErrorIs(t, err, ErrInvalidCard)

	_, err = NewCatalog([]Card{{ID: 4, Name: "  "}})
	assert.ErrorIs(t, err, ErrInvalidCard)

	_, err = ParseCatalog([]byte(`[{"numero": "douze", "mot": "x"}]`))
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDeck), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestResolveDefaultsToNeutral(t *testing.T) {
	e, err := ParseEffects([]byte(sampleEffects))
	require.NoError(t, err)

	assert.Equal(t, Positive, e.Resolve(3, "Soldat"))
	assert.Equal(t, Negative, e.Resolve(2, "Soldat"))
	assert.Equal(t, Neutral, e.Resolve(1, "Soldat"))
	assert.Equal(t, Neutral, e.Resolve(99, "Soldat"))
	assert.Equal(t, Neutral, e.Resolve(3, "Inconnu"))

	var nilTable *Effects
	assert.Equal(t, Neutral, nilTable.Resolve(3, "Soldat"))
}

func TestParseEffectsRejectsBadSymbols(t *testing.T) {
	_, err := ParseEffects([]byte(`{"Soldat": {"1": "++"}}`))
	assert.ErrorIs(t, err, ErrInvalidEffect)

	_, err = ParseEffects([]byte(`{"Soldat": {"un": "+"}}`))
	assert.Error(t, err)
}

func TestEffectDeltaAndLabel(t *testing.T) {
	assert.Equal(t, 1, Positive.Delta())
	assert.Equal(t, -1, Negative.Delta())
	assert.Equal(t, 0, Neutral.Delta())
	assert.Equal(t, 0, Effect("").Delta())

	assert.Equal(t, "positif", Positive.Label())
	assert.Equal(t, "négatif", Negative.Label())
	assert.Equal(t, "neutre", Neutral.Label())
}

func TestRankByPositives(t *testing.T) {
	c, err := ParseCatalog([]byte(sampleDeck))
	require.NoError(t, err)
	e, err := ParseEffects([]byte(sampleEffects))
	require.NoError(t, err)

	ranked := RankByPositives(c, e)
	require.Len(t, ranked, 3)
	// card 1: Moine+, card 2: Moine+, card 3: Soldat+ -> all tie at 1, ordered by number
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].ID, ranked[1].ID, ranked[2].ID})
	assert.Len(t, Top(ranked), 3)

	e2, err := NewEffects(map[string]map[string]string{
		"Soldat": {"2": "+"},
		"Moine":  {"2": "+", "3": "+"},
	})
	require.NoError(t, err)
	ranked = RankByPositives(c, e2)
	assert.Equal(t, 2, ranked[0].ID)
	assert.Equal(t, 2, ranked[0].Positives)
	assert.Equal(t, 0, ranked[2].Positives)
	assert.Len(t, Top(ranked), 1)
	assert.Nil(t, Top(nil))
}

func TestUnknownCards(t *testing.T) {
	c, err := ParseCatalog([]byte(sampleDeck))
	require.NoError(t, err)
	e, err := NewEffects(map[string]map[string]string{
		"Soldat": {"1": "+", "7": "-", "5": "="},
		"Moine":  {"2": "+"},
	})
	require.NoError(t, err)

	unknown := e.UnknownCards(c)
	assert.Equal(t, map[string][]int{"Soldat": {5, 7}}, unknown)
}

func TestNilEffectsAreNeutral(t *testing.T) {
	var e *Effects
	assert.Equal(t, Neutral, e.Resolve(1, "Soldat"))
	assert.Empty(t, e.Roles())
	assert.Empty(t, e.UnknownCards(nil))
}
