package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"
)

const (
	DefaultVoice = "fr-FR-Wavenet-C"
	maxSpeechLen = 5000
)

// Speaker reads a story fragment aloud and returns the audio file name.
type Speaker interface {
	Speak(ctx context.Context, entryID, text string) (string, error)
}

// GoogleSpeech writes MP3 files using Google Cloud Text-to-Speech.
type GoogleSpeech struct {
	svc   *texttospeech.Service
	Voice string
	Dir   string
}

// NewGoogleSpeech returns a speaker that reports ErrNotConfigured when apiKey
// is empty and no client option supplies credentials.
func NewGoogleSpeech(ctx context.Context, apiKey, voice, dir string, opts ...option.ClientOption) (*GoogleSpeech, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	g := &GoogleSpeech{Voice: voice, Dir: dir}
	if apiKey == "" && len(opts) == 0 {
		return g, nil
	}
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("texttospeech: %w", err)
	}
	g.svc = svc
	return g, nil
}

func (g *GoogleSpeech) Speak(ctx context.Context, entryID, text string) (string, error) {
	if g.svc == nil {
		return "", fmt.Errorf("texttospeech: %w", ErrNotConfigured)
	}
	text = clip(text)
	if text == "" {
		return "", fmt.Errorf("texttospeech: no text")
	}
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{LanguageCode: "fr-FR", Name: g.Voice},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   "MP3",
			SampleRateHertz: 24000,
			SpeakingRate:    1.0,
		},
	}
	resp, err := g.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("texttospeech: %w", err)
	}
	if resp.AudioContent == "" {
		return "", fmt.Errorf("texttospeech: no audio content in response")
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return "", fmt.Errorf("texttospeech: decode audio: %w", err)
	}

	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	name := "speech_" + fileSafe(entryID) + ".mp3"
	if err := os.WriteFile(filepath.Join(g.Dir, name), audio, 0644); err != nil {
		return "", err
	}
	return name, nil
}

// clip keeps text within the synthesis limit.
func clip(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) <= maxSpeechLen {
		return string(r)
	}
	return string(r[:maxSpeechLen-3]) + "..."
}
