package media

import (
	"context"
	"errors"
	"time"

	"github.com/kiliankoe/chroniques/internal/game"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Pipeline produces an image and a narration for each entry in parallel.
// Either half may be nil. Failures are logged and leave that half empty.
type Pipeline struct {
	Painter Painter
	Speaker Speaker
	Timeout time.Duration
}

func (p *Pipeline) Enrich(ctx context.Context, req game.MediaRequest) game.Media {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	var m game.Media
	var g errgroup.Group

	if p.Painter != nil {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			name, err := p.Painter.Paint(ctx, req.Player, req.CardID, req.Text)
			if err != nil {
				logFailure(err, "image", req)
				return nil
			}
			m.ImagePath = name
			return nil
		})
	}
	if p.Speaker != nil {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			name, err := p.Speaker.Speak(ctx, req.EntryID, req.Text)
			if err != nil {
				logFailure(err, "speech", req)
				return nil
			}
			m.AudioPath = name
			return nil
		})
	}
	_ = g.Wait()
	return m
}

func logFailure(err error, kind string, req game.MediaRequest) {
	ev := log.Error()
	if errors.Is(err, ErrNotConfigured) {
		ev = log.Debug()
	}
	ev.Err(err).Str("kind", kind).Str("entry", req.EntryID).Int("card", req.CardID).Msg("media generation failed")
}
