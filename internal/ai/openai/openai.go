package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kiliankoe/chroniques/internal/ai"
)

const (
	OpenAIBaseURL  = "https://api.openai.com"
	MistralBaseURL = "https://api.mistral.ai"
)

// Client speaks the OpenAI chat completions dialect, which Mistral shares.
type Client struct {
	Name        string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	http        *http.Client
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	return &Client{Name: "openai", APIKey: apiKey, BaseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 20 * time.Second}}
}

func NewMistral(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = MistralBaseURL
	}
	c := New(apiKey, baseURL)
	c.Name = "mistral"
	return c
}

func (c *Client) Complete(ctx context.Context, model string, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, model, "", prompt)
}

func (c *Client) CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("%s: %w", c.Name, ai.ErrMissingKey)
	}
	if strings.HasSuffix(model, "-instruct") {
		return c.textComplete(ctx, model, prompt)
	}
	return c.chatCompleteWithSystem(ctx, model, systemPrompt, prompt)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

func (c *Client) chatCompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	payload := chatRequest{Model: model, Temperature: c.Temperature, MaxTokens: c.MaxTokens}
	if systemPrompt != "" {
		payload.Messages = append(payload.Messages, message{Role: "system", Content: systemPrompt})
	}
	payload.Messages = append(payload.Messages, message{Role: "user", Content: prompt})

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "/v1/chat/completions", payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices: %w", c.Name, ai.ErrEmptyResponse)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *Client) textComplete(ctx context.Context, model string, prompt string) (string, error) {
	payload := map[string]any{
		"model":  model,
		"prompt": prompt,
	}
	if c.Temperature > 0 {
		payload["temperature"] = c.Temperature
	}
	if c.MaxTokens > 0 {
		payload["max_tokens"] = c.MaxTokens
	}
	var out struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "/v1/completions", payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices: %w", c.Name, ai.ErrEmptyResponse)
	}
	return strings.TrimSpace(out.Choices[0].Text), nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s status %d", c.Name, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %v: %w", c.Name, err, ai.ErrEmptyResponse)
	}
	return nil
}
