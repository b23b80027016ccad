package static

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerServesIndexForAppRoutes(t *testing.T) {
	for _, p := range []string{"/", "/partie", "/joueur/alice"} {
		w := httptest.NewRecorder()
		Handler().ServeHTTP(w, httptest.NewRequest("GET", p, nil))
		assert.Equal(t, http.StatusOK, w.Code, p)
		assert.Contains(t, w.Body.String(), "Chroniques", p)
		assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	}
}

func TestHandlerServesAssets(t *testing.T) {
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "player:refresh")

	w = httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/missing.css", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
