package ai

import (
	"context"
	"fmt"
)

// Narrator binds a provider to one model and system prompt so it can be
// handed to the game as its text generator.
type Narrator struct {
	Provider     Provider
	Model        string
	SystemPrompt string
}

func (n Narrator) Generate(ctx context.Context, prompt string) (string, error) {
	if n.Provider == nil {
		return "", fmt.Errorf("no provider: %w", ErrMissingKey)
	}
	return n.Provider.CompleteWithSystem(ctx, n.Model, n.SystemPrompt, prompt)
}
