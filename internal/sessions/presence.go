package sessions

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/pkg/logging"
)

// PresenceEvent is what the hub relays to everyone in a session room.
type PresenceEvent struct {
	Type      string   `json:"type"` // "joined", "left", "roster", "pong", "error"
	SessionID string   `json:"session_id,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Present   []string `json:"present,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

type presenceConn struct {
	conn   *websocket.Conn
	userID string
	name   string
}

// PresenceHub tracks which participants hold an open websocket per session
// and relays join/leave events between them.
type PresenceHub struct {
	service *Service
	logger  *logging.Logger

	mu    sync.RWMutex
	rooms map[string]map[*presenceConn]struct{} // sessionID -> connections
}

func NewPresenceHub(service *Service, logger *logging.Logger) *PresenceHub {
	if logger == nil {
		logger = logging.Default()
	}
	return &PresenceHub{
		service: service,
		logger:  logger,
		rooms:   make(map[string]map[*presenceConn]struct{}),
	}
}

// HandleWebSocket upgrades GET /sessions/{sessionID}/presence to a
// websocket. The request passes the usual auth middleware first, so claims
// are already in the context.
func (h *PresenceHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *PresenceHub) serveWS(conn *websocket.Conn, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		_ = websocket.JSON.Send(conn, PresenceEvent{Type: "error"})
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		_ = websocket.JSON.Send(conn, PresenceEvent{Type: "error"})
		return
	}
	// Participant check runs through the same path as the REST endpoints.
	if _, err := h.service.Get(r.Context(), claims.Subject, claims.Role, sessionID); err != nil {
		_ = websocket.JSON.Send(conn, PresenceEvent{Type: "error"})
		return
	}

	pc := &presenceConn{conn: conn, userID: claims.Subject, name: claims.Name}
	h.register(sessionID, pc)
	h.logger.Info("presence: participant connected", "session_id", sessionID, "user_id", pc.userID)

	_ = websocket.JSON.Send(conn, PresenceEvent{
		Type:      "roster",
		SessionID: sessionID,
		Present:   h.Roster(sessionID),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	h.broadcast(sessionID, PresenceEvent{
		Type:      "joined",
		SessionID: sessionID,
		UserID:    pc.userID,
		Name:      pc.name,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, pc)

	defer func() {
		h.unregister(sessionID, pc)
		h.broadcast(sessionID, PresenceEvent{
			Type:      "left",
			SessionID: sessionID,
			UserID:    pc.userID,
			Name:      pc.name,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, nil)
		h.logger.Debug("presence: participant disconnected", "session_id", sessionID, "user_id", pc.userID)
	}()

	for {
		var msg PresenceEvent
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, PresenceEvent{Type: "pong"})
		}
	}
}

// Roster lists the user ids currently connected to a session room.
func (h *PresenceHub) Roster(sessionID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[sessionID]
	present := make([]string, 0, len(room))
	for pc := range room {
		present = append(present, pc.userID)
	}
	return present
}

// CloseSession drops every connection in a session room, used when the
// session ends.
func (h *PresenceHub) CloseSession(sessionID string) {
	h.mu.Lock()
	room := h.rooms[sessionID]
	delete(h.rooms, sessionID)
	h.mu.Unlock()
	for pc := range room {
		_ = pc.conn.Close()
	}
}

func (h *PresenceHub) register(sessionID string, pc *presenceConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[sessionID]
	if room == nil {
		room = make(map[*presenceConn]struct{})
		h.rooms[sessionID] = room
	}
	room[pc] = struct{}{}
}

func (h *PresenceHub) unregister(sessionID string, pc *presenceConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[sessionID]
	delete(room, pc)
	if len(room) == 0 {
		delete(h.rooms, sessionID)
	}
}

func (h *PresenceHub) broadcast(sessionID string, event PresenceEvent, skip *presenceConn) {
	h.mu.RLock()
	conns := make([]*presenceConn, 0)
	for pc := range h.rooms[sessionID] {
		if pc != skip {
			conns = append(conns, pc)
		}
	}
	h.mu.RUnlock()
	for _, pc := range conns {
		_ = websocket.JSON.Send(pc.conn, event)
	}
}
