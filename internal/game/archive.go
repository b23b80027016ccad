package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AuditLog appends timestamped, human-readable lines to a text file.
type AuditLog struct {
	mu    sync.Mutex
	path  string
	clock func() time.Time
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path, clock: time.Now}
}

func (a *AuditLog) Path() string { return a.path }

func (a *AuditLog) Record(action string) error {
	if a == nil || a.path == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	line := fmt.Sprintf("[%s] %s\n", a.clock().Format("2006-01-02 15:04:05"), action)
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

// SavedSession is the on-disk shape written by Save.
type SavedSession struct {
	Timestamp   string       `json:"timestamp"`
	Story       []StoryEntry `json:"story"`
	Score       int          `json:"score"`
	PlayedCards []int        `json:"played_cards"`
	GameEnded   bool         `json:"game_ended"`
}

// SavePrefix starts every saved story filename.
const SavePrefix = "histoire_"

// Save writes the current story to dir and returns the file name.
func (s *Session) Save(dir string) (string, error) {
	st := s.Snapshot()
	stamp := s.now().Format("20060102_150405")
	saved := SavedSession{
		Timestamp:   stamp,
		Story:       st.Story,
		Score:       st.Score,
		PlayedCards: st.PlayedCards,
		GameEnded:   st.GameEnded,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(saved); err != nil {
		return "", fmt.Errorf("failed to encode story: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	name := SavePrefix + stamp + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write story: %w", err)
	}
	s.record(fmt.Sprintf("Jeu sauvegardé dans %s", name))
	return name, nil
}

// IsSaveName reports whether name is a bare saved-story filename.
func IsSaveName(name string) bool {
	return name == filepath.Base(name) &&
		strings.HasPrefix(name, SavePrefix) &&
		strings.HasSuffix(name, ".json") &&
		!strings.ContainsAny(name, `/\`)
}

func ReadSaved(path string) (SavedSession, error) {
	var saved SavedSession
	b, err := os.ReadFile(path)
	if err != nil {
		return saved, err
	}
	if err := json.Unmarshal(b, &saved); err != nil {
		return saved, fmt.Errorf("failed to decode story: %w", err)
	}
	return saved, nil
}
