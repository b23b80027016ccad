package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("media service not configured")

const (
	KontextModel     = "black-forest-labs/flux-kontext-pro"
	SchnellModel     = "black-forest-labs/flux-schnell"
	DefaultReference = "http://www.barbason.be/public/mariee.jpg"
	replicateBaseURL = "https://api.replicate.com"
)

// Painter turns a story fragment into an image file and returns its name.
type Painter interface {
	Paint(ctx context.Context, player string, card int, text string) (string, error)
}

// Replicate runs a flux model on replicate.com and downloads the result.
type Replicate struct {
	Token     string
	Model     string
	Reference string
	BaseURL   string
	Dir       string
	Poll      time.Duration
	http      *http.Client
	now       func() time.Time
}

func NewReplicate(token, model, reference, dir string) *Replicate {
	if model == "" {
		model = KontextModel
	}
	if reference == "" {
		reference = DefaultReference
	}
	return &Replicate{
		Token:     token,
		Model:     model,
		Reference: reference,
		BaseURL:   replicateBaseURL,
		Dir:       dir,
		Poll:      time.Second,
		http:      &http.Client{Timeout: 60 * time.Second},
		now:       time.Now,
	}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (r *Replicate) input(prompt string) map[string]any {
	if r.Model == KontextModel {
		return map[string]any{
			"prompt":            prompt,
			"input_image":       r.Reference,
			"aspect_ratio":      "match_input_image",
			"output_format":     "jpg",
			"safety_tolerance":  2,
			"prompt_upsampling": false,
		}
	}
	return map[string]any{
		"prompt":                 prompt,
		"output_quality":         90,
		"num_outputs":            1,
		"output_format":          "webp",
		"disable_safety_checker": true,
	}
}

func (r *Replicate) ext() string {
	if r.Model == KontextModel {
		return "jpg"
	}
	return "webp"
}

func (r *Replicate) Paint(ctx context.Context, player string, card int, text string) (string, error) {
	if r.Token == "" {
		return "", fmt.Errorf("replicate: %w", ErrNotConfigured)
	}
	b, err := json.Marshal(map[string]any{"input": r.input(text)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/v1/models/"+r.Model+"/predictions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Prefer", "wait")
	var p prediction
	if err := r.do(req, &p); err != nil {
		return "", err
	}

	for p.Status == "starting" || p.Status == "processing" {
		if p.URLs.Get == "" {
			return "", fmt.Errorf("replicate: prediction %s has no poll url", p.ID)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.Poll):
		}
		req, err := http.NewRequestWithContext(ctx, "GET", p.URLs.Get, nil)
		if err != nil {
			return "", err
		}
		if err := r.do(req, &p); err != nil {
			return "", err
		}
	}
	if p.Status != "succeeded" {
		return "", fmt.Errorf("replicate: prediction %s %s: %v", p.ID, p.Status, p.Error)
	}

	url, err := firstOutput(p.Output)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("image_%s_card%d_%s.%s", fileSafe(player), card, r.now().Format("20060102_150405"), r.ext())
	if err := r.download(ctx, url, filepath.Join(r.Dir, name)); err != nil {
		return "", err
	}
	return name, nil
}

func (r *Replicate) do(req *http.Request, out *prediction) error {
	req.Header.Set("Authorization", "Bearer "+r.Token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("replicate status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// firstOutput accepts both a single URL and a list of URLs.
func firstOutput(raw json.RawMessage) (string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return one, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}
	return "", fmt.Errorf("replicate: no output in %s", raw)
}

func (r *Replicate) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download status %d", resp.StatusCode)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

func fileSafe(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "anonyme"
	}
	return s
}
