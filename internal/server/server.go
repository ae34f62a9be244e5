// Package server exposes the tutoring sketchpad over HTTP: one websocket
// session per connection on /ws, a health probe and the static client.
package server

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"pkt.systems/pslog"

	"tutor-sketchpad/internal/session"
)

// Config configures the HTTP surface.
type Config struct {
	// StaticDir holds the browser client; served when it exists.
	StaticDir       string
	CORSOrigins     []string
	MaxMessageBytes int64
	Session         session.Config
}

// Server owns the gin engine and the open sessions.
type Server struct {
	cfg      Config
	selector session.Selector
	hub      *Hub
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// New builds the server. selector answers every user turn.
func New(selector session.Selector, cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		selector: selector,
		hub:      NewHub(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(cfg.CORSOrigins, origin)
		},
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), withRequestLogging(), withCORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", s.handleWebSocket)

	if dir := cfg.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			files := http.FileServer(http.Dir(dir))
			r.NoRoute(func(c *gin.Context) {
				if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
					c.Status(http.StatusNotFound)
					return
				}
				files.ServeHTTP(c.Writer, c.Request)
			})
		}
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	return s.hub.Len()
}

// CloseSessions ends every open session.
func (s *Server) CloseSessions() int {
	return s.hub.CloseAll()
}

func (s *Server) handleWebSocket(c *gin.Context) {
	log := pslog.Ctx(c.Request.Context()).With("remote", clientIP(c.Request))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	if s.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(pslog.ContextWithLogger(c.Request.Context(), log))
	defer cancel()

	s.hub.Add(id, conn, cancel)
	defer s.hub.Remove(id)

	session.New(id, conn, s.selector, s.cfg.Session).Run(ctx)
}
