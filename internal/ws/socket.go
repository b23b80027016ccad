package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/chroniques/internal/game"
	"github.com/rs/zerolog/log"
)

// Room is the socket.io room every table member joins.
const Room = "story"

type ConnCtx struct {
	Player string
	Role   string
}

type identity struct {
	PlayerName string `json:"player_name"`
	PlayerRole string `json:"player_role"`
}

type Server struct {
	Session     *game.Session
	PlayTimeout time.Duration

	mu      sync.Mutex
	members map[string]socketio.Conn
	io      *socketio.Server
}

func New(sess *game.Session) *Server {
	return &Server{Session: sess, PlayTimeout: 5 * time.Minute, members: make(map[string]socketio.Conn)}
}

// Mount attaches the Socket.IO server to the given Gin engine and pushes
// game:state to the room on every session change.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		s.Join(Room)
		srv.addMember(s)
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// player:refresh
	io.OnEvent("/", "player:refresh", func(s socketio.Conn, payload identity) game.State {
		srv.remember(s, payload)
		return srv.Session.Refresh(payload.PlayerName, payload.PlayerRole)
	})

	// card:play
	io.OnEvent("/", "card:play", func(s socketio.Conn, payload struct {
		identity
		Prompt string `json:"prompt"`
	}) map[string]any {
		srv.remember(s, payload.identity)
		ctx, cancel := context.WithTimeout(context.Background(), srv.PlayTimeout)
		defer cancel()
		out, err := srv.Session.Play(ctx, payload.PlayerName, payload.PlayerRole, payload.Prompt)
		if err != nil {
			log.Info().Str("sid", s.ID()).Str("player", payload.PlayerName).Err(err).Msg("card:play rejected")
			return srv.err(s, err)
		}
		log.Info().Str("sid", s.ID()).Str("player", payload.PlayerName).Str("kind", out.Kind.String()).Msg("card:play")
		res := map[string]any{"ok": true, "kind": out.Kind.String(), "regenerated": out.Regenerated}
		if out.Entry != nil {
			res["story_text"] = out.Entry.Text
		}
		if out.Effect != "" {
			res["effect"] = out.Effect
		}
		return res
	})

	// game:reset
	io.OnEvent("/", "game:reset", func(s socketio.Conn) map[string]any {
		srv.Session.Reset("Jeu réinitialisé manuellement")
		log.Info().Str("sid", s.ID()).Msg("game:reset")
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			log.Error().Err(e).Msg("socket error")
			return
		}
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.removeMember(s)
		ev := log.Info().Str("sid", s.ID()).Str("reason", reason)
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Player != "" {
			ev = ev.Str("player", ctx.Player)
		}
		ev.Msg("socket disconnected")
	})

	srv.Session.OnChange(srv.broadcastState)

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// Online is the number of open sockets.
func (srv *Server) Online() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.members)
}

func (srv *Server) broadcastState() {
	if srv.io == nil {
		return
	}
	srv.io.BroadcastToRoom("/", Room, "game:state", srv.Session.Snapshot())
}

func (srv *Server) remember(s socketio.Conn, who identity) {
	if who.PlayerName == "" {
		return
	}
	if ctx, ok := s.Context().(*ConnCtx); ok {
		ctx.Player, ctx.Role = who.PlayerName, who.PlayerRole
	}
}

func (srv *Server) addMember(c socketio.Conn) {
	srv.mu.Lock()
	srv.members[c.ID()] = c
	srv.mu.Unlock()
}

func (srv *Server) removeMember(c socketio.Conn) {
	srv.mu.Lock()
	delete(srv.members, c.ID())
	srv.mu.Unlock()
}

func (srv *Server) err(s socketio.Conn, err error) map[string]any {
	message := game.Message(err)
	s.Emit("error", map[string]any{"message": message})
	return map[string]any{"error": message}
}
