package httpapi

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/chroniques/internal/deck"
	"github.com/kiliankoe/chroniques/internal/game"
	"github.com/rs/zerolog/log"
)

// API exposes the session over the JSON routes the player page polls.
type API struct {
	Session   *game.Session
	SaveDir   string
	ResultDir string
}

type identity struct {
	PlayerName string `json:"player_name"`
	PlayerRole string `json:"player_role"`
}

type playRequest struct {
	identity
	Prompt string `json:"prompt"`
}

func (a *API) Mount(r gin.IRouter) {
	r.POST("/envoyer", a.play)
	r.POST("/refresh", a.refresh)
	r.POST("/reset", a.reset)
	r.POST("/sauver", a.save)
	r.GET("/download/:filename", a.download)
	r.GET("/cards", a.cards)
	if a.ResultDir != "" {
		r.Static("/result", a.ResultDir)
	}
}

func (a *API) play(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}
	out, err := a.Session.Play(c.Request.Context(), req.PlayerName, req.PlayerRole, req.Prompt)
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("player", req.PlayerName).Str("prompt", req.Prompt).Msg("play failed")
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	switch out.Kind {
	case game.MoveConclusion:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Conclusion générée"})
	case game.MoveInversion:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Histoire inversée", "regenerated": out.Regenerated})
	case game.MoveSuppression:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Passage supprimé", "regenerated": out.Regenerated})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "Carte jouée avec succès",
			"story_text": out.Entry.Text,
			"effect":     out.Effect,
		})
	}
}

func (a *API) refresh(c *gin.Context) {
	var who identity
	// an empty body is a spectator poll
	_ = c.ShouldBindJSON(&who)
	c.JSON(http.StatusOK, a.Session.Refresh(who.PlayerName, who.PlayerRole))
}

func (a *API) reset(c *gin.Context) {
	a.Session.Reset("Jeu réinitialisé manuellement")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Jeu réinitialisé"})
}

func (a *API) save(c *gin.Context) {
	name, err := a.Session.Save(a.SaveDir)
	if err != nil {
		log.Error().Err(err).Str("dir", a.SaveDir).Msg("save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la sauvegarde"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "filename": name})
}

func (a *API) download(c *gin.Context) {
	name := c.Param("filename")
	if !game.IsSaveName(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fichier non trouvé"})
		return
	}
	path := filepath.Join(a.SaveDir, name)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fichier non trouvé"})
		return
	}
	c.FileAttachment(path, name)
}

func (a *API) cards(c *gin.Context) {
	cards := a.Session.AvailableCards()
	if cards == nil {
		cards = []deck.Card{}
	}
	c.JSON(http.StatusOK, cards)
}

// errorStatus maps session errors to a status and the message shown to players.
func errorStatus(err error) (int, string) {
	msg := game.Message(err)
	switch {
	case errors.Is(err, game.ErrCardNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, game.ErrGameEnded):
		return http.StatusConflict, msg
	case msg == game.Message(game.ErrInternal):
		return http.StatusInternalServerError, msg
	}
	return http.StatusBadRequest, msg
}
