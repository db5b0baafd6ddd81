// Package stream pushes incident lifecycle updates to connected dashboard
// clients over WebSocket.
package stream

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/threatsim/threatsim/internal/metrics"
)

// UpdateType identifies the kind of live update being broadcast.
type UpdateType string

const (
	UpdateTypeIncidentStatus UpdateType = "incident_status"
	UpdateTypeSeedCompleted  UpdateType = "seed_completed"
)

// Update is a message pushed to every connected dashboard client.
type Update struct {
	Type       UpdateType `json:"type"`
	IncidentID string     `json:"incident_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	ActionType string     `json:"action_type,omitempty"`
	Message    string     `json:"message,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Hub fans out updates to connected WebSocket clients. Clients that cannot
// keep up are dropped rather than blocking the broadcast path.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[string]*client
}

type client struct {
	conn *websocket.Conn
	send chan Update
}

// NewHub creates a new broadcast hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS enforcement happens at the HTTP layer
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string]*client),
	}
}

// SetupRoutes configures WebSocket routes
func (h *Hub) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/incidents", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and registers the client until it
// disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return
	}

	id := uuid.New().String()
	c := &client{conn: conn, send: make(chan Update, 16)}

	h.mu.Lock()
	h.clients[id] = c
	count := len(h.clients)
	h.mu.Unlock()
	metrics.SetStreamClients(count)

	log.Printf("Dashboard client %s connected from %s", id, r.RemoteAddr)

	go h.writeLoop(id, c)
	h.readLoop(id, c)
}

// writeLoop drains the client's send channel onto the wire.
func (h *Hub) writeLoop(id string, c *client) {
	for update := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(update); err != nil {
			log.Printf("Dashboard client %s write failed: %v", id, err)
			h.drop(id)
			return
		}
	}
}

// readLoop consumes and discards inbound frames so pings and close frames
// are processed, unregistering the client when the connection dies.
func (h *Hub) readLoop(id string, c *client) {
	defer h.drop(id)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.SetStreamClients(count)
	}

	if ok {
		close(c.send)
		c.conn.Close()
	}
}

// Broadcast queues an update for every connected client. Slow clients whose
// buffers are full are disconnected.
func (h *Hub) Broadcast(update Update) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	stale := []string{}
	for id, c := range h.clients {
		select {
		case c.send <- update:
		default:
			stale = append(stale, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range stale {
		log.Printf("Dropping slow dashboard client %s", id)
		h.drop(id)
	}
}

// BroadcastIncidentUpdate announces an incident status change.
func (h *Hub) BroadcastIncidentUpdate(incidentID, status, actionType string) {
	h.Broadcast(Update{
		Type:       UpdateTypeIncidentStatus,
		IncidentID: incidentID,
		Status:     status,
		ActionType: actionType,
	})
}

// BroadcastSeedCompleted announces that a fresh simulation dataset is ready.
func (h *Hub) BroadcastSeedCompleted(message string) {
	h.Broadcast(Update{
		Type:    UpdateTypeSeedCompleted,
		Message: message,
	})
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
