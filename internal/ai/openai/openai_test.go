package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiliankoe/chroniques/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Le vent se lève.  "}}]}`))
	}))
	defer srv.Close()

	c := NewMistral("secret", srv.URL+"/")
	text, err := c.CompleteWithSystem(context.Background(), "mistral-large-latest", "", "Raconte")
	require.NoError(t, err)
	assert.Equal(t, "Le vent se lève.", text)
	assert.Equal(t, "mistral-large-latest", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Raconte", got.Messages[0].Content)
}

func TestSystemPromptIsSent(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL)
	c.MaxTokens = 80
	_, err := c.CompleteWithSystem(context.Background(), "gpt-4o-mini", "Tu es un barde.", "Raconte")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, 80, got.MaxTokens)
}

func TestInstructModelsUseTextCompletions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		_, _ = w.Write([]byte(`{"choices":[{"text":" suite "}]}`))
	}))
	defer srv.Close()

	text, err := New("k", srv.URL).Complete(context.Background(), "gpt-3.5-turbo-instruct", "Raconte")
	require.NoError(t, err)
	assert.Equal(t, "suite", text)
}

func TestErrors(t *testing.T) {
	_, err := NewMistral("", "").Complete(context.Background(), "m", "p")
	assert.ErrorIs(t, err, ai.ErrMissingKey)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()
	_, err = New("k", empty.URL).Complete(context.Background(), "m", "p")
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer failing.Close()
	_, err = NewMistral("k", failing.URL).Complete(context.Background(), "m", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ai.ErrEmptyResponse)
	assert.Contains(t, err.Error(), "mistral status 429")
}
