package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC) }

func TestReplicatePaint(t *testing.T) {
	var srv *httptest.Server
	var input map[string]any
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models/" + KontextModel + "/predictions":
			assert.Equal(t, "wait", r.Header.Get("Prefer"))
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			var body struct {
				Input map[string]any `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			input = body.Input
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":"` + srv.URL + `/out/p1.jpg"}`))
		case "/out/p1.jpg":
			_, _ = w.Write([]byte("JPEGDATA"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	r := NewReplicate("tok", "", "", dir)
	r.BaseURL = srv.URL
	r.now = fixedNow

	name, err := r.Paint(context.Background(), "Jean Luc", 3, "Le château brûle.")
	require.NoError(t, err)
	assert.Equal(t, "image_Jean_Luc_card3_20250301_200000.jpg", name)
	assert.Equal(t, "Le château brûle.", input["prompt"])
	assert.Equal(t, DefaultReference, input["input_image"])

	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(b))
}

func TestReplicatePollsUntilDone(t *testing.T) {
	var srv *httptest.Server
	polls := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models/" + SchnellModel + "/predictions":
			_, _ = w.Write([]byte(`{"id":"p2","status":"starting","urls":{"get":"` + srv.URL + `/v1/predictions/p2"}}`))
		case "/v1/predictions/p2":
			polls++
			if polls < 2 {
				_, _ = w.Write([]byte(`{"id":"p2","status":"processing","urls":{"get":"` + srv.URL + `/v1/predictions/p2"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"p2","status":"succeeded","output":["` + srv.URL + `/out/p2.webp"]}`))
		case "/out/p2.webp":
			_, _ = w.Write([]byte("WEBP"))
		}
	}))
	defer srv.Close()

	r := NewReplicate("tok", SchnellModel, "", t.TempDir())
	r.BaseURL = srv.URL
	r.Poll = time.Millisecond
	r.now = fixedNow

	name, err := r.Paint(context.Background(), "Alice", 7, "Une ombre passe.")
	require.NoError(t, err)
	assert.Equal(t, "image_Alice_card7_20250301_200000.webp", name)
	assert.Equal(t, 2, polls)
}

func TestReplicateFailures(t *testing.T) {
	_, err := NewReplicate("", "", "", t.TempDir()).Paint(context.Background(), "Alice", 1, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p3","status":"failed","error":"NSFW"}`))
	}))
	defer srv.Close()
	r := NewReplicate("tok", "", "", t.TempDir())
	r.BaseURL = srv.URL
	_, err = r.Paint(context.Background(), "Alice", 1, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}

func TestFileSafe(t *testing.T) {
	assert.Equal(t, "Chloé", fileSafe("Chloé"))
	assert.Equal(t, "_etc_passwd", fileSafe("../etc/passwd"))
	assert.Equal(t, "anonyme", fileSafe("  "))
}
