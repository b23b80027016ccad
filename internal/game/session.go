package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiliankoe/chroniques/internal/ai"
	"github.com/kiliankoe/chroniques/internal/deck"
	"github.com/kiliankoe/chroniques/internal/story"
	"github.com/rs/zerolog/log"
)

var (
	ErrIdentityRequired  = errors.New("player name and role required")
	ErrInvalidCardNumber = errors.New("invalid card number")
	ErrMissingTarget     = errors.New("suppression requires a target card")
	ErrCardNotFound      = errors.New("card not found")
	ErrCardAlreadyPlayed = errors.New("card already played")
	ErrTargetNotPlayed   = errors.New("target card not yet played")
	ErrSpecialCardUsed   = errors.New("special card already used by this player")
	ErrNothingToInvert   = errors.New("nothing to invert")
	ErrGameEnded         = errors.New("game already ended")
	ErrInternal          = errors.New("internal error")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrIdentityRequired, "Nom et rôle requis"},
	{ErrInvalidCardNumber, "Numéro de carte invalide"},
	{ErrMissingTarget, "Indiquez la carte à supprimer (101 <numéro>)"},
	{ErrCardNotFound, "Carte non trouvée"},
	{ErrCardAlreadyPlayed, "Carte déjà jouée"},
	{ErrTargetNotPlayed, "Cette carte n'a pas encore été jouée"},
	{ErrSpecialCardUsed, "Carte spéciale déjà utilisée"},
	{ErrNothingToInvert, "Aucune carte à inverser"},
	{ErrGameEnded, "Le jeu est terminé"},
}

// Message is the text shown to players for err.
func Message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Erreur interne du serveur"
}

// Session is the one shared story. Mutating operations are serialized by
// turn for their whole duration, generator calls included; mu guards the
// fields and is only held briefly, so polling never waits on the narrator.
type Session struct {
	turn sync.Mutex
	mu   sync.Mutex

	catalog  *deck.Catalog
	effects  *deck.Effects
	gen      Generator
	opts     Options
	presence *Presence
	audit    *AuditLog
	enricher Enricher
	onChange []func()

	story        []StoryEntry
	score        int
	played       map[int]struct{}
	specials     []SpecialCardRecord
	started      bool
	initialScore int
	totalCards   int
	ended        bool

	processingPlayer string
	processingCard   string

	lastActivity time.Time
	lastCardPlay time.Time
}

func New(catalog *deck.Catalog, effects *deck.Effects, gen Generator, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		catalog:  catalog,
		effects:  effects,
		gen:      gen,
		opts:     opts,
		presence: NewPresence(opts.LivenessWindow),
	}
	s.resetLocked(opts.Clock())
	return s
}

func (s *Session) SetAudit(a *AuditLog)   { s.audit = a }
func (s *Session) SetEnricher(e Enricher) { s.enricher = e }

// OnChange registers fn to run after every state change, outside any lock.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Session) notify() {
	s.mu.Lock()
	fns := make([]func(), len(s.onChange))
	copy(fns, s.onChange)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Session) now() time.Time { return s.opts.Clock() }

func (s *Session) Presence() *Presence { return s.presence }

// Touch records that a player is around.
func (s *Session) Touch(player, role string) {
	now := s.now()
	s.presence.Touch(player, role, now)
	s.mu.Lock()
	s.lastActivity = now
	s.mu.Unlock()
}

// Play parses a raw player input and runs the matching operation.
func (s *Session) Play(ctx context.Context, player, role, input string) (Outcome, error) {
	player, role = strings.TrimSpace(player), strings.TrimSpace(role)
	if player == "" || role == "" {
		return Outcome{}, ErrIdentityRequired
	}
	s.Touch(player, role)

	mv := ParseMove(input)
	out := Outcome{Kind: mv.Kind}
	switch mv.Kind {
	case MoveConclusion:
		entry, err := s.RequestConclusion(ctx, player)
		out.Entry = entry
		return out, err
	case MoveOrdinary:
		entry, err := s.PlayOrdinaryCard(ctx, mv.Card, player, role)
		if err != nil {
			return out, err
		}
		out.Entry = &entry
		out.Effect = entry.Effect
		return out, nil
	case MoveInversion:
		n, err := s.PlayInversion(ctx, player, role)
		out.Regenerated = n
		return out, err
	case MoveSuppression:
		n, err := s.PlaySuppression(ctx, player, role, mv.Target)
		out.Regenerated = n
		return out, err
	}
	return out, mv.Err
}

// PlayOrdinaryCard appends one narrated entry for a catalog card.
func (s *Session) PlayOrdinaryCard(ctx context.Context, cardID int, player, role string) (StoryEntry, error) {
	arrived := s.now()
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return StoryEntry{}, ErrGameEnded
	}
	card, ok := s.catalog.Lookup(cardID)
	if !ok {
		s.mu.Unlock()
		return StoryEntry{}, ErrCardNotFound
	}
	if _, dup := s.played[cardID]; dup {
		s.mu.Unlock()
		return StoryEntry{}, ErrCardAlreadyPlayed
	}
	effect := s.effects.Resolve(cardID, role)
	history := narrative(s.story)
	// Start values use the table as it was when the card arrived.
	active := 0
	if !s.started {
		active = s.presence.ActiveCount(arrived)
	}
	s.processingPlayer, s.processingCard = player, strconv.Itoa(cardID)
	s.mu.Unlock()
	s.notify()
	defer s.clearProcessing()

	prompt, err := story.Continuation(story.Move{History: history, Card: card, Effect: effect, Role: role})
	if err != nil {
		log.Error().Err(err).Int("card", cardID).Msg("build continuation prompt")
		return StoryEntry{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	text := s.generate(ctx, prompt)

	now := s.now()
	entry := StoryEntry{
		ID:        uuid.NewString(),
		Player:    player,
		Role:      role,
		Text:      text,
		Card:      &card,
		Effect:    effect,
		Timestamp: now,
	}

	s.mu.Lock()
	if !s.started {
		s.setOpeningScoreLocked(active)
		s.started = true
		s.initialScore = s.score
		s.totalCards = s.target(active)
		s.record("Jeu commencé - Première carte jouée")
	}
	s.story = append(s.story, entry)
	s.played[cardID] = struct{}{}
	s.score += effect.Delta()
	s.lastCardPlay = now
	score := s.score
	var ending string
	switch {
	case score <= 0:
		ending = "Jeu terminé - Score atteint 0"
	case len(s.played) >= s.totalCards:
		ending = "Jeu terminé - Toutes les cartes jouées"
	}
	s.record(fmt.Sprintf("%s (%s) a joué la carte %d - %s (effet %s)", player, role, cardID, card.Name, effect))
	s.mu.Unlock()

	log.Info().Str("player", player).Str("role", role).Int("card", cardID).Str("effect", string(effect)).Int("score", score).Msg("card played")
	s.enrich(entry)

	if ending != "" {
		s.record(ending)
		s.concludeTurn(ctx)
	}
	s.notify()
	return entry, nil
}

// RequestConclusion closes the story. Once ended it does nothing, and a story
// with only its introduction has nothing to conclude.
func (s *Session) RequestConclusion(ctx context.Context, player string) (*StoryEntry, error) {
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	if s.ended || len(s.story) <= 1 {
		s.mu.Unlock()
		return nil, nil
	}
	s.processingPlayer, s.processingCard = player, "0"
	s.mu.Unlock()
	s.notify()
	defer s.clearProcessing()

	entry := s.concludeTurn(ctx)
	s.record(fmt.Sprintf("Conclusion demandée par %s", player))
	s.notify()
	return entry, nil
}

// concludeTurn generates and appends the conclusion. Callers hold turn.
func (s *Session) concludeTurn(ctx context.Context) *StoryEntry {
	s.mu.Lock()
	history := narrative(s.story)
	final, initial := s.score, s.initialScore
	s.mu.Unlock()

	prompt, err := story.Conclusion(history, final, initial)
	var text string
	if err != nil {
		log.Error().Err(err).Msg("build conclusion prompt")
		text = s.opts.Fallbacks.Failure
	} else {
		text = s.generate(ctx, prompt)
	}

	entry := StoryEntry{
		ID:        uuid.NewString(),
		Player:    Narrator,
		Role:      Narrator,
		Text:      text,
		Timestamp: s.now(),
	}
	s.mu.Lock()
	s.story = append(s.story, entry)
	s.ended = true
	s.mu.Unlock()

	log.Info().Int("score", final).Int("initial", initial).Bool("victory", story.Victory(final, initial)).Msg("story concluded")
	s.enrich(entry)
	return &entry
}

// Reset discards the story and starts over.
func (s *Session) Reset(reason string) {
	s.turn.Lock()
	s.mu.Lock()
	s.resetLocked(s.now())
	s.record(reason)
	s.mu.Unlock()
	s.turn.Unlock()
	log.Info().Str("reason", reason).Msg("session reset")
	s.notify()
}

func (s *Session) resetLocked(now time.Time) {
	s.story = []StoryEntry{{
		ID:        uuid.NewString(),
		Player:    Narrator,
		Role:      Narrator,
		Text:      s.opts.Introduction,
		Timestamp: now,
	}}
	s.score = s.openingScore(now)
	s.played = make(map[int]struct{})
	s.specials = nil
	s.started = false
	s.initialScore = 0
	s.totalCards = 0
	s.ended = false
	s.processingPlayer, s.processingCard = "", ""
	s.lastActivity = now
	s.lastCardPlay = now
}

// Refresh is the polling call: presence upkeep, opening score, lazy auto-reset.
func (s *Session) Refresh(player, role string) State {
	player, role = strings.TrimSpace(player), strings.TrimSpace(role)
	if player != "" && role != "" {
		s.Touch(player, role)
	}
	now := s.now()
	s.presence.Sweep(now)

	s.mu.Lock()
	changed := s.adjustOpeningScoreLocked(now)
	s.mu.Unlock()

	// A held turn lock means a card is being played, which is activity.
	if s.ShouldAutoReset() && s.turn.TryLock() {
		if s.ShouldAutoReset() {
			s.mu.Lock()
			s.resetLocked(s.now())
			s.record("Jeu réinitialisé automatiquement après inactivité")
			s.mu.Unlock()
			log.Info().Msg("session auto-reset after inactivity")
			changed = true
		}
		s.turn.Unlock()
	}
	if changed {
		s.notify()
	}
	return s.Snapshot()
}

// ShouldAutoReset is true once the story has moved and no card was played
// for longer than the configured timeout. Connected players do not matter.
func (s *Session) ShouldAutoReset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.story) > 1 && s.now().Sub(s.lastCardPlay) > s.opts.AutoResetTimeout
}

func (s *Session) openingScore(now time.Time) int {
	return max(*s.opts.ScoreFloor, 2*s.presence.ActiveCount(now))
}

// adjustOpeningScoreLocked keeps the pre-start score in line with the players present.
func (s *Session) adjustOpeningScoreLocked(now time.Time) bool {
	if s.started {
		return false
	}
	return s.setOpeningScoreLocked(s.presence.ActiveCount(now))
}

func (s *Session) setOpeningScoreLocked(active int) bool {
	score := max(*s.opts.ScoreFloor, 2*active)
	if score == s.score {
		return false
	}
	s.score = score
	s.record(fmt.Sprintf("Score ajusté à %d pour %d joueurs actifs", score, active))
	return true
}

// target is the number of cards the story runs for, given the players at the table.
func (s *Session) target(active int) int {
	return min(max(1, active)*s.opts.CardsPerPlayer, s.catalog.Len())
}

func (s *Session) clearProcessing() {
	s.mu.Lock()
	s.processingPlayer, s.processingCard = "", ""
	s.mu.Unlock()
}

func narrative(entries []StoryEntry) string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return story.Narrative(texts)
}

// generate never fails: collaborator errors become fallback text.
func (s *Session) generate(ctx context.Context, prompt string) string {
	if s.gen == nil {
		return s.opts.Fallbacks.Unavailable
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.GenerateTimeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, prompt)
	switch {
	case errors.Is(err, ai.ErrMissingKey):
		log.Warn().Err(err).Msg("narrator not configured, using placeholder")
		return s.opts.Fallbacks.Unavailable
	case errors.Is(err, ai.ErrEmptyResponse):
		log.Error().Err(err).Msg("unexpected narrator response")
		return s.opts.Fallbacks.BadResponse
	case err != nil:
		log.Error().Err(err).Msg("narrator call failed")
		return s.opts.Fallbacks.Failure
	}
	if text = strings.TrimSpace(text); text == "" {
		return s.opts.Fallbacks.BadResponse
	}
	return text
}

func (s *Session) record(action string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(action); err != nil {
		log.Error().Err(err).Msg("audit log write failed")
	}
}

// Snapshot copies the current state.
func (s *Session) Snapshot() State {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.totalCards
	if !s.started {
		total = s.catalog.Len()
	}
	return State{
		Story:            append([]StoryEntry(nil), s.story...),
		Score:            s.score,
		PlayedCards:      s.playedLocked(),
		ActivePlayers:    s.presence.Active(now),
		Started:          s.started,
		GameEnded:        s.ended,
		TotalCards:       total,
		ProcessingPlayer: s.processingPlayer,
		ProcessingCard:   s.processingCard,
	}
}

func (s *Session) playedLocked() []int {
	out := make([]int, 0, len(s.played))
	for id := range s.played {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// AvailableCards lists catalog cards nobody has played yet.
func (s *Session) AvailableCards() []deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []deck.Card
	for _, c := range s.catalog.Cards() {
		if _, ok := s.played[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// SpecialCards returns the special card audit trail.
func (s *Session) SpecialCards() []SpecialCardRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpecialCardRecord(nil), s.specials...)
}

// InitialScore is the score captured when the first card was played.
func (s *Session) InitialScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialScore
}

// LastActivity is the last time any player was heard from.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}
