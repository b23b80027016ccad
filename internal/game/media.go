package game

import (
	"context"

	"github.com/rs/zerolog/log"
)

// enrich asks for media in the background. The story never waits on it.
func (s *Session) enrich(e StoryEntry) {
	if s.enricher == nil {
		return
	}
	req := MediaRequest{EntryID: e.ID, Player: e.Player, Text: e.Text}
	if e.Card != nil {
		req.CardID = e.Card.ID
	}
	go func() {
		m := s.enricher.Enrich(context.Background(), req)
		if m.Empty() {
			return
		}
		if !s.AttachMedia(req.EntryID, m) {
			log.Debug().Str("entry", req.EntryID).Msg("media dropped, entry no longer in story")
		}
	}()
}

// AttachMedia sets media references on an entry still in the story.
func (s *Session) AttachMedia(entryID string, m Media) bool {
	s.mu.Lock()
	found := false
	for i := range s.story {
		if s.story[i].ID != entryID {
			continue
		}
		if m.ImagePath != "" {
			s.story[i].ImagePath = m.ImagePath
		}
		if m.AudioPath != "" {
			s.story[i].AudioPath = m.AudioPath
		}
		found = true
		break
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}
