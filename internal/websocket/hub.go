package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is a live notification pushed to watching clients, e.g. a check-in
// landing while the session's QR page is on the projector.
type Event struct {
	Type           string    `json:"type"`
	ClassSessionID int64     `json:"class_session_id"`
	RollNumber     string    `json:"roll_number,omitempty"`
	StudentName    string    `json:"student_name,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

const (
	EventAttendanceRecorded = "attendance_recorded"
	EventTokenIssued        = "token_issued"
)

// Hub tracks connected clients and fans events out to the ones watching
// the event's class session.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers the event to every client watching its class session.
// A client watching session 0 receives everything.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.sessionID != 0 && c.sessionID != ev.ClassSessionID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop rather than block the check-in path
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
