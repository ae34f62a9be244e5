package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGrace = time.Second

// member is one live websocket session.
type member struct {
	conn   *websocket.Conn
	cancel func()
}

// Hub tracks every open session so they can be closed together.
type Hub struct {
	sessions map[string]member
	mu       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]member)}
}

// Add registers a session under id.
func (h *Hub) Add(id string, conn *websocket.Conn, cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[id] = member{conn: conn, cancel: cancel}
}

// Remove forgets a session.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll sends a going-away close frame to every session and stops its loop.
// It returns how many sessions were closed.
func (h *Hub) CloseAll() int {
	h.mu.RLock()
	members := make([]member, 0, len(h.sessions))
	for _, m := range h.sessions {
		members = append(members, m)
	}
	h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, m := range members {
		_ = m.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		m.cancel()
	}
	return len(members)
}
