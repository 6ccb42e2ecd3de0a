// README: WebSocket hub pushing ride status changes to connected users.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cityride/internal/modules/ride"
	"cityride/internal/types"
)

const writeWait = 5 * time.Second

// RideUpdate is the status payload pushed to a ride's participants on
// every transition.
type RideUpdate struct {
	Type          string  `json:"type"`
	RideID        string  `json:"ride_id"`
	Status        string  `json:"status"`
	DriverID      string  `json:"driver_id,omitempty"`
	EstimatedTime *int    `json:"estimated_time_minutes,omitempty"`
	EstimatedFare float64 `json:"estimated_fare"`
}

// client wraps one socket with its write lock. The websocket package
// allows at most one concurrent writer per connection, and transitions for
// the same user can land from several request goroutines at once.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(update RideUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(update)
}

// Hub tracks one or more sockets per user id. It implements the lifecycle
// engine's Notifier interface; a user with no open socket is skipped.
type Hub struct {
	mu      sync.RWMutex
	clients map[types.ID]map[*websocket.Conn]*client
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[types.ID]map[*websocket.Conn]*client),
		log:     log,
	}
}

func (h *Hub) Add(userID types.ID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*websocket.Conn]*client)
		h.clients[userID] = set
	}
	set[conn] = &client{conn: conn}
}

func (h *Hub) Remove(userID types.ID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
	_ = conn.Close()
}

// RideChanged notifies the ride's passenger and, when bound, its driver.
func (h *Hub) RideChanged(r *ride.Ride) {
	update := RideUpdate{
		Type:          "ride_update",
		RideID:        string(r.ID),
		Status:        string(r.Status),
		EstimatedTime: r.EstimatedTime,
		EstimatedFare: r.EstimatedFare,
	}
	if r.DriverID != nil {
		update.DriverID = string(*r.DriverID)
	}

	h.send(r.PassengerID, update)
	if r.DriverID != nil {
		h.send(*r.DriverID, update)
	}
}

func (h *Hub) send(userID types.ID, update RideUpdate) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(update); err != nil {
			if h.log != nil {
				h.log.Debug("dropping dead websocket", "user_id", userID, "err", err)
			}
			h.Remove(userID, c.conn)
		}
	}
}
