package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-floor/metrics"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// Event types
const (
	EventTableCreated     = "table_created"
	EventTableUpdated     = "table_updated"
	EventTableDeleted     = "table_deleted"
	EventOrderItemCreated = "order_item_created"
	EventOrderItemUpdated = "order_item_updated"
	EventOrderItemDeleted = "order_item_deleted"
)

const (
	defaultBufferSize = 64
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
)

// Message is the frame written to every observer.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Broadcaster hands an event to observers. Publish never blocks the caller and
// never fails it; delivery problems are logged by the sink.
type Broadcaster interface {
	Publish(event string, data interface{})
}

// Fanout publishes every event to each of its sinks in order.
type Fanout []Broadcaster

func (f Fanout) Publish(event string, data interface{}) {
	for _, b := range f {
		if b != nil {
			b.Publish(event, data)
		}
	}
}

type client struct {
	conn *websocket.Conn
	role string
	send chan []byte
}

// Hub holds the connected observers (kitchen display, floor staff, customer
// devices). Each observer gets its own buffered queue drained by a writer
// goroutine; an observer whose queue is full is dropped.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	bufferSize int
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		bufferSize: bufferSize,
	}
}

// Serve registers conn and blocks until the observer goes away.
func (h *Hub) Serve(conn *websocket.Conn, role string) {
	c := h.register(conn, role)
	defer h.unregister(c)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Observers do not send anything meaningful; reading keeps control frames flowing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.InfoLogger.WithError(err).WithField("role", role).Debug("observer read error")
			}
			return
		}
	}
}

func (h *Hub) register(conn *websocket.Conn, role string) *client {
	c := &client{conn: conn, role: role, send: make(chan []byte, h.bufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.ConnectedObservers.Inc()
	utils.InfoLogger.WithField("role", role).Info("observer connected")

	go h.writePump(c)
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked removes c once; closing send stops its writer, which closes the conn.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.ConnectedObservers.Dec()
	utils.InfoLogger.WithField("role", c.role).Info("observer disconnected")
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				utils.InfoLogger.WithError(err).WithField("role", c.role).Debug("observer write failed")
				h.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// Publish queues the event for every observer without waiting on any of them.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", event).Error("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			utils.ErrorLogger.WithField("role", c.role).Warn("observer too slow, dropping connection")
			h.dropLocked(c)
		}
	}
	metrics.EventsPublishedTotal.WithLabelValues("websocket", event).Inc()
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every observer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}
