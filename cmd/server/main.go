package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/chroniques/internal/ai"
	"github.com/kiliankoe/chroniques/internal/ai/gemini"
	"github.com/kiliankoe/chroniques/internal/ai/ollama"
	"github.com/kiliankoe/chroniques/internal/ai/openai"
	"github.com/kiliankoe/chroniques/internal/config"
	"github.com/kiliankoe/chroniques/internal/deck"
	"github.com/kiliankoe/chroniques/internal/game"
	"github.com/kiliankoe/chroniques/internal/httpapi"
	"github.com/kiliankoe/chroniques/internal/media"
	"github.com/kiliankoe/chroniques/internal/ws"
	staticserver "github.com/kiliankoe/chroniques/static"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var version = "dev" // Set at build time via -ldflags

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Chroniques - collaborative medieval storytelling card game

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)
  --debug         Enable debug logging

Environment Variables:
  PORT                 Port to listen on (default: 8080)
  DEFAULT_PROVIDER     Narrator: "mistral", "openai", "ollama" or "gemini" (default: mistral)
  DEFAULT_MODEL        Model name (default depends on provider)
  SYSTEM_PROMPT        Optional system prompt sent with every request
  MISTRAL_API_KEY      Mistral API key
  MISTRAL_BASE_URL     Custom Mistral API base URL (optional)
  OPENAI_API_KEY       OpenAI API key
  OPENAI_BASE_URL      Custom OpenAI API base URL (optional)
  OLLAMA_HOST          Ollama host URL (default: http://localhost:11434)
  GEMINI_API_KEY       Gemini API key
  REPLICATE_API_TOKEN  Replicate token for illustrations (optional)
  IMAGE_MODEL          Replicate model (default: black-forest-labs/flux-kontext-pro)
  IMAGE_REFERENCE      Reference image URL for the kontext model
  GOOGLE_API_KEY       Google Text-to-Speech key (optional)
  DECK_FILE            Card deck (default: deck.json)
  EFFECTS_FILE         Role/card effects (default: evaluations.json)
  GAME_CONFIG          Game tuning file (default: game.yaml)
  AUDIT_LOG            Action log (default: game_log.txt)
  SAVE_DIR             Where saved stories go (default: .)
  RESULT_DIR           Where images and audio go (default: result)

Visit http://localhost:8080 after starting the server.
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Chroniques %s\n", version)
		return
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(cw)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}
	tuning, err := config.LoadGame(cfg.GameConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("game config")
	}

	catalog, err := deck.LoadCatalog(cfg.DeckFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.DeckFile).Msg("load deck")
	}
	effects, err := deck.LoadEffects(cfg.EffectsFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("file", cfg.EffectsFile).Msg("no effects file, every card is neutral")
	case err != nil:
		log.Fatal().Err(err).Str("file", cfg.EffectsFile).Msg("load effects")
	}
	for role, ids := range effects.UnknownCards(catalog) {
		log.Warn().Str("role", role).Ints("cards", ids).Msg("effects reference cards missing from deck")
	}
	log.Info().Int("cards", catalog.Len()).Int("roles", len(effects.Roles())).Msg("deck loaded")

	ctx := context.Background()
	var gen game.Generator
	if tuning.Narrator.Enabled {
		narrator, closeFn, err := newNarrator(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("narrator")
		}
		defer closeFn()
		gen = narrator
		log.Info().Str("provider", cfg.DefaultProvider).Str("model", narrator.Model).Msg("narrator ready")
	}

	sess := game.New(catalog, effects, gen, tuning.SessionOptions())
	audit := game.NewAuditLog(cfg.AuditLog)
	sess.SetAudit(audit)
	if err := audit.Record("Début"); err != nil {
		log.Error().Err(err).Str("file", cfg.AuditLog).Msg("audit log")
	}

	if p := newPipeline(ctx, cfg, tuning); p != nil {
		sess.SetEnricher(p)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") || path == "/refresh" {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		log.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	sock := ws.New(sess)
	io := sock.Mount(r)
	defer io.Close()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC(), "sockets": sock.Online()})
	})

	api := &httpapi.API{Session: sess, SaveDir: cfg.SaveDir, ResultDir: cfg.ResultDir}
	api.Mount(r)

	// Serve the player page for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	log.Info().Str("port", port).Msg("listening")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

func newNarrator(ctx context.Context, cfg config.Config) (ai.Narrator, func(), error) {
	n := ai.Narrator{Model: cfg.DefaultModel, SystemPrompt: cfg.SystemPrompt}
	closeFn := func() {}
	switch strings.ToLower(cfg.DefaultProvider) {
	case "mistral":
		n.Provider = openai.NewMistral(cfg.MistralKey, cfg.MistralBaseURL)
		if n.Model == "" {
			n.Model = "mistral-large-latest"
		}
	case "openai":
		n.Provider = openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
		if n.Model == "" {
			n.Model = "gpt-4o-mini"
		}
	case "ollama":
		n.Provider = ollama.New(cfg.OllamaHost)
		if n.Model == "" {
			n.Model = "llama3.1"
		}
	case "gemini":
		c, err := gemini.New(ctx, cfg.GeminiKey)
		if err != nil {
			return n, closeFn, err
		}
		n.Provider = c
		if n.Model == "" {
			n.Model = gemini.DefaultModel
		}
		closeFn = func() { _ = c.Close() }
	default:
		return n, closeFn, fmt.Errorf("unknown provider %q", cfg.DefaultProvider)
	}
	return n, closeFn, nil
}

func newPipeline(ctx context.Context, cfg config.Config, tuning config.Game) *media.Pipeline {
	p := &media.Pipeline{Timeout: tuning.MediaTimeout}
	if tuning.Images.Enabled && cfg.ReplicateToken != "" {
		p.Painter = media.NewReplicate(cfg.ReplicateToken, cfg.ImageModel, cfg.ImageReference, cfg.ResultDir)
	}
	if tuning.Speech.Enabled && cfg.GoogleAPIKey != "" {
		sp, err := media.NewGoogleSpeech(ctx, cfg.GoogleAPIKey, tuning.Speech.Voice, cfg.ResultDir)
		if err != nil {
			log.Error().Err(err).Msg("speech disabled")
		} else {
			p.Speaker = sp
		}
	}
	if p.Painter == nil && p.Speaker == nil {
		return nil
	}
	log.Info().Bool("images", p.Painter != nil).Bool("speech", p.Speaker != nil).Msg("media enrichment enabled")
	return p
}
