package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiliankoe/chroniques/internal/game"
	"github.com/stretchr/testify/assert"
)

type paintFunc func(ctx context.Context, player string, card int, text string) (string, error)

func (f paintFunc) Paint(ctx context.Context, player string, card int, text string) (string, error) {
	return f(ctx, player, card, text)
}

type speakFunc func(ctx context.Context, entryID, text string) (string, error)

func (f speakFunc) Speak(ctx context.Context, entryID, text string) (string, error) {
	return f(ctx, entryID, text)
}

func TestPipelineRunsBoth(t *testing.T) {
	p := &Pipeline{
		Painter: paintFunc(func(_ context.Context, player string, card int, _ string) (string, error) {
			assert.Equal(t, "Alice", player)
			assert.Equal(t, 3, card)
			return "img.jpg", nil
		}),
		Speaker: speakFunc(func(_ context.Context, id, text string) (string, error) {
			assert.Equal(t, "e1", id)
			assert.Equal(t, "Il pleut.", text)
			return "speech_e1.mp3", nil
		}),
	}

	m := p.Enrich(context.Background(), game.MediaRequest{EntryID: "e1", Player: "Alice", CardID: 3, Text: "Il pleut."})
	assert.Equal(t, game.Media{ImagePath: "img.jpg", AudioPath: "speech_e1.mp3"}, m)
}

func TestPipelineFailureIsIsolated(t *testing.T) {
	p := &Pipeline{
		Painter: paintFunc(func(context.Context, string, int, string) (string, error) {
			return "", errors.New("boom")
		}),
		Speaker: speakFunc(func(context.Context, string, string) (string, error) {
			return "speech.mp3", nil
		}),
	}
	m := p.Enrich(context.Background(), game.MediaRequest{EntryID: "e1"})
	assert.Empty(t, m.ImagePath)
	assert.Equal(t, "speech.mp3", m.AudioPath)
}

func TestPipelineTimeout(t *testing.T) {
	p := &Pipeline{
		Timeout: 10 * time.Millisecond,
		Painter: paintFunc(func(ctx context.Context, _ string, _ int, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}),
	}
	assert.True(t, p.Enrich(context.Background(), game.MediaRequest{}).Empty())
}

func TestEmptyPipeline(t *testing.T) {
	assert.True(t, (&Pipeline{}).Enrich(context.Background(), game.MediaRequest{}).Empty())
}
