package broadcast

import (
	"log"
	"sync"

	"github.com/smukkama/fleetzone-server/internal/metrics"
)

var ErrMaxObserversReached = &BroadcastError{"maximum observers reached"}

// BroadcastError represents a broadcaster error
type BroadcastError struct {
	msg string
}

func (e *BroadcastError) Error() string {
	return e.msg
}

// Hub tracks connected websocket observers and fans messages out to them.
// Delivery is best-effort: an observer whose send buffer is full is dropped
// and disconnected, never waited on. There is no replay; observers that
// connect late catch up through the history read path.
type Hub struct {
	mu         sync.Mutex
	clients    map[string]*Client
	maxClients int
}

func NewHub(maxClients int) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		maxClients: maxClients,
	}
}

// Register adds an observer. Fails when the hub is at capacity.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) >= h.maxClients {
		return ErrMaxObserversReached
	}
	h.clients[c.ID] = c
	metrics.ConnectedObservers.Set(float64(len(h.clients)))
	return nil
}

// Unregister removes an observer and closes its send channel. Safe to call
// more than once for the same id.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(id)
}

func (h *Hub) dropLocked(id string) {
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.Send)
		metrics.ConnectedObservers.Set(float64(len(h.clients)))
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// SendTo delivers one message to a single observer, best effort. Returns
// false when the observer is gone or its buffer is full.
func (h *Hub) SendTo(id string, message []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// Name implements Sink.
func (h *Hub) Name() string {
	return "websocket"
}

// Send implements Sink: a non-blocking fan-out to every observer. A client
// that cannot accept the message immediately is dropped.
func (h *Hub) Send(topic string, message []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		select {
		case c.Send <- message:
		default:
			log.Printf("Observer %s send buffer full, dropping client", id)
			metrics.BroadcastDropped.WithLabelValues(h.Name()).Inc()
			h.dropLocked(id)
		}
	}
	return nil
}
