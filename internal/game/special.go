package game

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/kiliankoe/chroniques/internal/deck"
	"github.com/kiliankoe/chroniques/internal/story"
	"github.com/rs/zerolog/log"
)

func (s *Session) usedSpecialLocked(player string, card int) bool {
	for _, r := range s.specials {
		if r.Player == player && r.Card == card {
			return true
		}
	}
	return false
}

// PlayInversion replays every card entry in reverse order. Each one is
// rewritten against the story as it stood before the inversion, so all
// rewrites share the same facts. Returns how many entries were rewritten.
func (s *Session) PlayInversion(ctx context.Context, player, role string) (int, error) {
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return 0, ErrGameEnded
	}
	if s.usedSpecialLocked(player, deck.InversionCard) {
		s.mu.Unlock()
		return 0, ErrSpecialCardUsed
	}
	if len(s.story) <= 1 {
		s.mu.Unlock()
		return 0, ErrNothingToInvert
	}
	history := narrative(s.story)
	rest := append([]StoryEntry(nil), s.story[1:]...)
	s.processingPlayer, s.processingCard = player, strconv.Itoa(deck.InversionCard)
	s.mu.Unlock()
	s.notify()
	defer s.clearProcessing()

	reversed := make([]StoryEntry, 0, len(rest))
	for i := len(rest) - 1; i >= 0; i-- {
		reversed = append(reversed, rest[i])
	}

	var fresh []StoryEntry
	for i := range reversed {
		e := &reversed[i]
		if e.Card == nil {
			continue
		}
		prompt, err := story.Continuation(story.Move{
			History: history,
			Card:    *e.Card,
			Effect:  e.Effect,
			Role:    e.Role,
			Reading: story.Reversed,
		})
		if err != nil {
			log.Error().Err(err).Int("card", e.Card.ID).Msg("build inversion prompt")
			return 0, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		rewrite(e, s.generate(ctx, prompt))
		fresh = append(fresh, *e)
	}

	rewritten := len(fresh)
	now := s.now()
	s.mu.Lock()
	if len(s.story) != len(rest)+1 {
		s.mu.Unlock()
		log.Error().Int("before", len(rest)+1).Int("now", len(s.story)).Msg("story changed during inversion")
		return 0, ErrInternal
	}
	keepMedia(reversed, s.story)
	s.story = append([]StoryEntry{s.story[0]}, reversed...)
	s.specials = append(s.specials, SpecialCardRecord{Player: player, Role: role, Card: deck.InversionCard, Timestamp: now})
	s.lastCardPlay = now
	s.record(fmt.Sprintf("%s (%s) a joué la carte %d - Inversion (%d passages réécrits)", player, role, deck.InversionCard, rewritten))
	s.mu.Unlock()

	log.Info().Str("player", player).Int("rewritten", rewritten).Msg("story inverted")
	for _, e := range fresh {
		s.enrich(e)
	}
	s.notify()
	return rewritten, nil
}

// PlaySuppression removes the entry for target, undoes its effect on the
// score, frees the card, and rewrites every later card entry left to right,
// each against the already rewritten prefix. Returns how many were rewritten.
func (s *Session) PlaySuppression(ctx context.Context, player, role string, target int) (int, error) {
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return 0, ErrGameEnded
	}
	if s.usedSpecialLocked(player, deck.SuppressionCard) {
		s.mu.Unlock()
		return 0, ErrSpecialCardUsed
	}
	pos := -1
	for i := 1; i < len(s.story); i++ {
		if c := s.story[i].Card; c != nil && c.ID == target {
			pos = i
			break
		}
	}
	if pos < 0 {
		s.mu.Unlock()
		return 0, ErrTargetNotPlayed
	}
	removed := s.story[pos]
	working := make([]StoryEntry, 0, len(s.story)-1)
	working = append(working, s.story[:pos]...)
	working = append(working, s.story[pos+1:]...)
	s.processingPlayer, s.processingCard = player, fmt.Sprintf("%d %d", deck.SuppressionCard, target)
	s.mu.Unlock()
	s.notify()
	defer s.clearProcessing()

	var fresh []StoryEntry
	for i := pos; i < len(working); i++ {
		e := &working[i]
		if e.Card == nil {
			continue
		}
		prompt, err := story.Continuation(story.Move{
			History: narrative(working[:i]),
			Card:    *e.Card,
			Effect:  e.Effect,
			Role:    e.Role,
			Reading: story.AfterSuppression,
		})
		if err != nil {
			log.Error().Err(err).Int("card", e.Card.ID).Msg("build suppression prompt")
			return 0, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		rewrite(e, s.generate(ctx, prompt))
		fresh = append(fresh, *e)
	}

	rewritten := len(fresh)
	now := s.now()
	s.mu.Lock()
	if pos >= len(s.story) || s.story[pos].ID != removed.ID {
		s.mu.Unlock()
		log.Error().Int("card", target).Msg("suppression target moved during rewrite")
		return 0, ErrInternal
	}
	keepMedia(working, s.story)
	s.story = working
	s.score -= removed.Effect.Delta()
	if s.catalog.Contains(removed.Card.ID) {
		delete(s.played, removed.Card.ID)
	}
	t := target
	s.specials = append(s.specials, SpecialCardRecord{Player: player, Role: role, Card: deck.SuppressionCard, Target: &t, Timestamp: now})
	s.lastCardPlay = now
	score := s.score
	s.record(fmt.Sprintf("%s (%s) a joué la carte %d - Suppression de la carte %d (%d passages réécrits)", player, role, deck.SuppressionCard, target, rewritten))
	s.mu.Unlock()

	log.Info().Str("player", player).Int("target", target).Int("rewritten", rewritten).Int("score", score).Msg("story entry suppressed")
	for _, e := range fresh {
		s.enrich(e)
	}
	s.notify()
	return rewritten, nil
}

// rewrite gives e new text under a new ID. Media made for the old text is
// dropped, and late results for the old ID no longer find the entry.
func rewrite(e *StoryEntry, text string) {
	e.ID = uuid.NewString()
	e.Text = text
	e.ImagePath, e.AudioPath = "", ""
}

// keepMedia copies media attached to live entries while a rewrite was
// running. Rewritten entries carry fresh IDs and are left alone.
func keepMedia(dst, live []StoryEntry) {
	byID := make(map[string]StoryEntry, len(live))
	for _, e := range live {
		byID[e.ID] = e
	}
	for i := range dst {
		if cur, ok := byID[dst[i].ID]; ok {
			if dst[i].ImagePath == "" {
				dst[i].ImagePath = cur.ImagePath
			}
			if dst[i].AudioPath == "" {
				dst[i].AudioPath = cur.AudioPath
			}
		}
	}
}
