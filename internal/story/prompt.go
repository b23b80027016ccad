package story

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/kiliankoe/chroniques/internal/deck"
)

//go:embed prompts/continuation.txt
var continuationPrompt string

//go:embed prompts/conclusion.txt
var conclusionPrompt string

var (
	continuationTmpl = template.Must(template.New("continuation").Parse(continuationPrompt))
	conclusionTmpl   = template.Must(template.New("conclusion").Parse(conclusionPrompt))
)

// DefaultIntroduction opens every session.
const DefaultIntroduction = "Vous habitez un village dans les temps médiévaux, vous entendez depuis plusieurs nuits des bruits étranges comme des bêtes fouillant la terre. Une nuit, un enfant disparaît, vous trouvez un grand trou dans la cave de sa maison"

// Reading tells the narrator why an entry is being (re)written.
type Reading int

const (
	Forward Reading = iota
	Reversed
	AfterSuppression
)

// Instruction is the extra tag sent with a regenerated entry. Forward has none.
func (r Reading) Instruction() string {
	switch r {
	case Reversed:
		return "Cet événement est rejoué dans l'ordre inverse : raconte-le comme si la chronologie s'était retournée, sans contredire les faits du contexte."
	case AfterSuppression:
		return "Cet événement est réinterprété après suppression : un événement antérieur n'a jamais eu lieu, n'y fais plus référence."
	}
	return ""
}

func (r Reading) String() string {
	switch r {
	case Reversed:
		return "reversed"
	case AfterSuppression:
		return "after-suppression"
	}
	return "forward"
}

// Move is everything the narrator needs to continue the story.
type Move struct {
	History string
	Card    deck.Card
	Effect  deck.Effect
	Role    string
	Reading Reading
}

// Continuation builds the prompt for one played card.
func Continuation(m Move) (string, error) {
	var buf bytes.Buffer
	if err := continuationTmpl.Execute(&buf, m); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Victory reports whether the final score holds the line set at start.
func Victory(final, initial int) bool {
	return final >= initial
}

// Conclusion builds the closing prompt. Only the score comparison picks the tone.
func Conclusion(history string, final, initial int) (string, error) {
	var buf bytes.Buffer
	data := struct {
		History string
		Victory bool
	}{
		History: strings.TrimSpace(history),
		Victory: Victory(final, initial),
	}
	if err := conclusionTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Narrative joins entry texts into the running story used as prompt context.
func Narrative(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
