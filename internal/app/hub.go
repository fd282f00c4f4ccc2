package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/monitor"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from the same box
	},
}

// wsCommand is what a browser may send: {"type":"select","side":"right"}
// or {"type":"clear"}.
type wsCommand struct {
	Type string `json:"type"`
	Side string `json:"side,omitempty"`
}

type wsMessage struct {
	Type  string                  `json:"type"`
	Data  *monitor.DeviceSnapshot `json:"data,omitempty"`
	Error string                  `json:"error,omitempty"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes the selected device's snapshot to every websocket client
// whenever it changed since the last tick.
type Hub struct {
	m        *monitor.Monitor
	interval time.Duration
	onCount  func(int)

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewHub(m *monitor.Monitor, interval time.Duration, onCount func(int)) *Hub {
	if onCount == nil {
		onCount = func(int) {}
	}
	return &Hub{
		m:        m,
		interval: interval,
		onCount:  onCount,
		clients:  make(map[*wsClient]struct{}),
	}
}

// Run broadcasts until ctx is cancelled, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastSide earable.Side
	var lastVersion uint64

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			side := h.m.Selected()
			d, err := h.m.Device(side)
			if err != nil {
				continue
			}
			if side == lastSide && d.Version() == lastVersion {
				continue
			}
			snap := d.Snapshot()
			lastSide, lastVersion = side, snap.Version
			h.broadcast(wsMessage{Type: "snapshot", Data: &snap})
		}
	}
}

// ServeHTTP upgrades the connection and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	c := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	n := h.register(c)
	log.Printf("ws: client %s connected from %s (%d total)", c.id, r.RemoteAddr, n)

	go h.writePump(c)
	go h.readPump(c)

	if d, err := h.m.Device(h.m.Selected()); err == nil {
		snap := d.Snapshot()
		h.sendTo(c, wsMessage{Type: "snapshot", Data: &snap})
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *wsClient) int {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.onCount(n)
	return n
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.onCount(n)
		log.Printf("ws: client %s disconnected (%d total)", c.id, n)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.onCount(0)
}

func (h *Hub) broadcast(msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: json marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow reader; it gets the next change instead.
		}
	}
}

func (h *Hub) sendTo(c *wsClient, msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: json marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: client %s read error: %v", c.id, err)
			}
			return
		}
		h.handleCommand(c, payload)
	}
}

func (h *Hub) handleCommand(c *wsClient, payload []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		h.sendTo(c, wsMessage{Type: "error", Error: "invalid command"})
		return
	}

	switch cmd.Type {
	case "select":
		side, err := earable.ParseSide(cmd.Side)
		if err == nil {
			err = h.m.Select(side)
		}
		if err != nil {
			h.sendTo(c, wsMessage{Type: "error", Error: err.Error()})
			return
		}
		log.Printf("ws: client %s selected %s device", c.id, side)
	case "clear":
		d, err := h.m.Resolve(cmd.Side)
		if err != nil {
			h.sendTo(c, wsMessage{Type: "error", Error: err.Error()})
			return
		}
		d.Clear()
	default:
		h.sendTo(c, wsMessage{Type: "error", Error: "unknown command " + cmd.Type})
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
