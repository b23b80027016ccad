package ai

import (
	"context"
	"errors"
)

var (
	// ErrMissingKey means the provider is not configured.
	ErrMissingKey = errors.New("missing api key")
	// ErrEmptyResponse means the provider answered without usable text.
	ErrEmptyResponse = errors.New("empty response")
)

type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}
