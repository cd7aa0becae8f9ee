// Package websocket pushes order page updates to browser tabs that share a
// page state.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type MessageType string

const (
	MessageSnapshot   MessageType = "snapshot"
	MessageUpdated    MessageType = "updated"
	MessageCheckedIn  MessageType = "checked_in"
	MessageCancelled  MessageType = "cancelled"
	MessageSessionEnd MessageType = "session_end"
)

type Message struct {
	Type      MessageType `json:"type"`
	OrderID   int64       `json:"order_id"`
	ItemID    int64       `json:"item_id,omitempty"`
	Payload   any         `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

// Hub fans messages out to the connections subscribed to a topic. Slow
// connections are dropped instead of blocking the broadcaster.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
		now:    time.Now,
	}
}

// Serve upgrades the request, sends first as the opening message and keeps
// the connection subscribed to topic until the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string, first Message) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), topic: topic}

	data, err := h.encode(first)
	if err != nil {
		conn.Close()
		return err
	}
	c.send <- data
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Broadcast delivers msg to every connection on topic.
func (h *Hub) Broadcast(topic string, msg Message) {
	data, err := h.encode(msg)
	if err != nil {
		h.logger.Warn("encode websocket message", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[topic] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow websocket client", "topic", topic)
			h.removeLocked(c)
		}
	}
}

// Close disconnects every connection on topic.
func (h *Hub) Close(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[topic] {
		h.removeLocked(c)
	}
}

func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) encode(msg Message) ([]byte, error) {
	if msg.Timestamp == 0 {
		msg.Timestamp = h.now().UnixMilli()
	}
	return json.Marshal(msg)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.topic] == nil {
		h.clients[c.topic] = make(map[*client]struct{})
	}
	h.clients[c.topic][c] = struct{}{}
	h.logger.Debug("websocket client registered", "clients", len(h.clients[c.topic]))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	clients, ok := h.clients[c.topic]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.topic)
	}
}

// readPump discards inbound frames; it only exists to observe pongs and
// the close of the connection.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
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
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
