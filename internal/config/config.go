package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kiliankoe/chroniques/internal/game"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string `env:"PORT" envDefault:"8080"`
	DefaultProvider string `env:"DEFAULT_PROVIDER" envDefault:"mistral"`
	DefaultModel    string `env:"DEFAULT_MODEL"`
	SystemPrompt    string `env:"SYSTEM_PROMPT"`

	MistralKey     string `env:"MISTRAL_API_KEY"`
	MistralBaseURL string `env:"MISTRAL_BASE_URL"`
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `env:"OPENAI_BASE_URL"`
	OllamaHost     string `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	GeminiKey      string `env:"GEMINI_API_KEY"`

	ReplicateToken string `env:"REPLICATE_API_TOKEN"`
	ImageModel     string `env:"IMAGE_MODEL"`
	ImageReference string `env:"IMAGE_REFERENCE"`
	GoogleAPIKey   string `env:"GOOGLE_API_KEY"`

	DeckFile    string `env:"DECK_FILE" envDefault:"deck.json"`
	EffectsFile string `env:"EFFECTS_FILE" envDefault:"evaluations.json"`
	GameConfig  string `env:"GAME_CONFIG" envDefault:"game.yaml"`
	AuditLog    string `env:"AUDIT_LOG" envDefault:"game_log.txt"`
	SaveDir     string `env:"SAVE_DIR" envDefault:"."`
	ResultDir   string `env:"RESULT_DIR" envDefault:"result"`
}

func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

// Game is the tuning file. Every field is optional.
type Game struct {
	Introduction     string        `yaml:"introduction"`
	ScoreFloor       int           `yaml:"score_floor"`
	CardsPerPlayer   int           `yaml:"cards_per_player"`
	LivenessWindow   time.Duration `yaml:"liveness_window"`
	AutoResetTimeout time.Duration `yaml:"auto_reset_timeout"`
	GenerateTimeout  time.Duration `yaml:"generate_timeout"`
	MediaTimeout     time.Duration `yaml:"media_timeout"`

	Narrator struct {
		Enabled   bool `yaml:"enabled"`
		Fallbacks struct {
			Unavailable string `yaml:"unavailable"`
			BadResponse string `yaml:"bad_response"`
			Failure     string `yaml:"failure"`
		} `yaml:"fallbacks"`
	} `yaml:"narrator"`

	Images struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"images"`

	Speech struct {
		Enabled bool   `yaml:"enabled"`
		Voice   string `yaml:"voice"`
	} `yaml:"speech"`
}

func DefaultGame() Game {
	var g Game
	g.ScoreFloor = 2
	g.CardsPerPlayer = 4
	g.LivenessWindow = 5 * time.Second
	g.AutoResetTimeout = 10 * time.Minute
	g.GenerateTimeout = 8 * time.Second
	g.MediaTimeout = 90 * time.Second
	g.Narrator.Enabled = true
	g.Images.Enabled = true
	g.Speech.Enabled = true
	g.Speech.Voice = "fr-FR-Wavenet-C"
	return g
}

// LoadGame reads path over the defaults. A missing file is not an error.
func LoadGame(path string) (Game, error) {
	g := DefaultGame()
	if path == "" {
		return g, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return g, fmt.Errorf("read game config: %w", err)
	}
	if err := yaml.Unmarshal(b, &g); err != nil {
		return g, fmt.Errorf("parse game config %s: %w", path, err)
	}
	if g.ScoreFloor < 0 || g.CardsPerPlayer < 0 {
		return g, fmt.Errorf("game config %s: score_floor and cards_per_player must not be negative", path)
	}
	return g, nil
}

func (g Game) SessionOptions() game.Options {
	floor := g.ScoreFloor
	return game.Options{
		Introduction:     g.Introduction,
		ScoreFloor:       &floor,
		CardsPerPlayer:   g.CardsPerPlayer,
		LivenessWindow:   g.LivenessWindow,
		AutoResetTimeout: g.AutoResetTimeout,
		GenerateTimeout:  g.GenerateTimeout,
		Fallbacks: game.Fallbacks{
			Unavailable: g.Narrator.Fallbacks.Unavailable,
			BadResponse: g.Narrator.Fallbacks.BadResponse,
			Failure:     g.Narrator.Fallbacks.Failure,
		},
	}
}
