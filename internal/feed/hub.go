// ABOUTME: WebSocket hub broadcasting driver events to remote renderers
// ABOUTME: Each connection gets an ID, a hello and a bounded send queue
package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Path is where the feed is served
const Path = "/feed"

const writeDeadline = 10 * time.Second

// Config holds hub configuration
type Config struct {
	Name      string
	DriverID  string
	Version   string
	Bins      int
	QueueSize int // per connection (default: 64)
}

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected client.
// Slow clients drop messages rather than stall the frame loop.
type Hub struct {
	config   Config
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*conn
	closed  bool
	wg      sync.WaitGroup

	dropped atomic.Int64
}

// NewHub creates a hub
func NewHub(config Config) *Hub {
	if config.QueueSize == 0 {
		config.QueueSize = 64
	}

	return &Hub{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Renderers are typically browser pages served from elsewhere on the LAN
				origin := r.Header.Get("Origin")
				if origin != "" {
					log.Printf("Accepting feed connection from origin: %s", origin)
				}
				return true
			},
		},
		clients: make(map[string]*conn),
	}
}

// ServeHTTP upgrades the request and streams messages until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	c := &conn{
		id:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, h.config.QueueSize),
	}

	hello, err := json.Marshal(Message{Type: TypeHello, Payload: Hello{
		ConnectionID: c.id,
		DriverID:     h.config.DriverID,
		Name:         h.config.Name,
		Version:      h.config.Version,
		Bins:         h.config.Bins,
	}})
	if err != nil {
		log.Printf("Error marshaling hello: %v", err)
		ws.Close()
		return
	}
	c.send <- hello

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ws.Close()
		return
	}
	h.clients[c.id] = c
	h.wg.Add(1)
	h.mu.Unlock()

	log.Printf("Feed client connected: %s from %s", c.id, r.RemoteAddr)

	go h.writer(c)
	h.reader(c)
}

// reader drains inbound frames so control messages are processed
func (h *Hub) reader(c *conn) {
	defer h.remove(c)

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Feed client %s error: %v", c.id, err)
			}
			return
		}
	}
}

func (h *Hub) writer(c *conn) {
	defer h.wg.Done()
	defer c.ws.Close()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing to feed client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
		log.Printf("Feed client disconnected: %s", c.id)
	}
}

// Broadcast sends a message to every client without blocking
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded for slow clients
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close disconnects every client and waits for their writers to finish
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
