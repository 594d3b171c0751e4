// Package live pushes sensor readings to browsers over websockets.
package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/sensor"
)

// Message types sent to clients.
const (
	TypeStatus       = "status"
	TypeSensorUpdate = "sensor_update"
)

// ConnectedMsg greets every new client.
const ConnectedMsg = "Connected to IoT monitoring system"

const (
	sendQueue  = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the envelope of every frame.
type Message struct {
	Type string `json:"event"`
	Data any    `json:"data"`
}

// StatusData is the payload of a status message.
type StatusData struct {
	Msg string `json:"msg"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans messages out to connected websocket clients. Clients that fall
// behind are disconnected rather than slowing the others.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	observe  func(clients int)

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

// NewHub creates a Hub. observe, if set, is called with the client count
// whenever it changes.
func NewHub(logger *zap.Logger, observe func(clients int)) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		log:     logger,
		observe: observe,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard may be served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}

	greeting, _ := json.Marshal(Message{Type: TypeStatus, Data: StatusData{Msg: ConnectedMsg}})
	c.send <- greeting

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.wg.Add(2)
	h.mu.Unlock()

	h.log.Info("client connected", zap.String("remote", r.RemoteAddr), zap.Int("clients", n))
	h.notify(n)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) notify(n int) {
	if h.observe != nil {
		h.observe(n)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	if ok {
		h.log.Info("client disconnected", zap.Int("clients", n))
		h.notify(n)
	}
}

// readPump discards client frames and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.wg.Done()
	defer h.remove(c)
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
		h.wg.Done()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Broadcast sends a message of type typ to every client.
func (h *Hub) Broadcast(typ string, data any) {
	payload, err := json.Marshal(Message{Type: typ, Data: data})
	if err != nil {
		h.log.Warn("encode live message", zap.String("type", typ), zap.Error(err))
		return
	}

	var slow []*client
	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client")
		h.remove(c)
	}
}

// HandleReading broadcasts r as a sensor update. It implements sensor.Sink.
func (h *Hub) HandleReading(r sensor.Reading) {
	h.Broadcast(TypeSensorUpdate, r)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	if len(clients) > 0 {
		h.notify(0)
	}
	h.wg.Wait()
}
