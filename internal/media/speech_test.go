package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestGoogleSpeech(t *testing.T) {
	var body struct {
		Input struct {
			Text string `json:"text"`
		} `json:"input"`
		Voice struct {
			LanguageCode string `json:"languageCode"`
			Name         string `json:"name"`
		} `json:"voice"`
		AudioConfig struct {
			AudioEncoding string `json:"audioEncoding"`
		} `json:"audioConfig"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "text:synthesize"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"audioContent":"` + base64.StdEncoding.EncodeToString([]byte("ID3MP3")) + `"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	sp, err := NewGoogleSpeech(context.Background(), "", "", dir,
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	name, err := sp.Speak(context.Background(), "entry-1", "  Le dragon dort.  ")
	require.NoError(t, err)
	assert.Equal(t, "speech_entry-1.mp3", name)
	assert.Equal(t, "Le dragon dort.", body.Input.Text)
	assert.Equal(t, "fr-FR", body.Voice.LanguageCode)
	assert.Equal(t, DefaultVoice, body.Voice.Name)
	assert.Equal(t, "MP3", body.AudioConfig.AudioEncoding)

	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "ID3MP3", string(b))
}

func TestGoogleSpeechWithoutKey(t *testing.T) {
	sp, err := NewGoogleSpeech(context.Background(), "", "", t.TempDir())
	require.NoError(t, err)
	_, err = sp.Speak(context.Background(), "e", "texte")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "court", clip(" court "))
	long := strings.Repeat("é", maxSpeechLen+10)
	got := []rune(clip(long))
	assert.Len(t, got, maxSpeechLen)
	assert.True(t, strings.HasSuffix(string(got), "..."))
}
