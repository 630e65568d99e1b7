package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"dog-scout/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// FeedMessage is the JSON frame pushed to feed subscribers.
type FeedMessage struct {
	Type      string `json:"type"` // hello | alert
	Text      string `json:"text,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub keeps the set of live feed clients and broadcasts alert text to them.
// It satisfies Notifier so it can be used as a Fanout mirror.
type Hub struct {
	register   chan *feedClient
	unregister chan *feedClient
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*feedClient]struct{}

	log logrus.FieldLogger
}

type feedClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	closeOnce sync.Once
}

// NewHub creates an idle hub; call Run to start it.
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		clients:    make(map[*feedClient]struct{}),
		log:        log.WithField("component", "feed"),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				c.close()
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.log.WithField("client_id", c.id).Info("feed client connected")
			if data, err := json.Marshal(FeedMessage{Type: "hello", ClientID: c.id, Timestamp: time.Now().UnixMilli()}); err == nil {
				c.trySend(data)
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.log.WithField("client_id", c.id).Info("feed client disconnected")
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.trySend(data) {
					delete(h.clients, c)
					c.close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send implements Notifier. A full broadcast queue drops the frame.
func (h *Hub) Send(ctx context.Context, message string) Result {
	data, err := json.Marshal(FeedMessage{Type: "alert", Text: message, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return Result{Status: domain.DeliveryFailed}
	}
	select {
	case h.broadcast <- data:
		return Result{Sent: true, Status: domain.DeliverySent}
	case <-ctx.Done():
		return Result{Status: domain.DeliveryFailed}
	default:
		h.log.Warn("feed broadcast queue full, dropping message")
		return Result{Status: domain.DeliveryFailed}
	}
}

// ServeWS upgrades the request and attaches a feed client.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := &feedClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		id:   uuid.NewString(),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *feedClient) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *feedClient) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump drains client frames so pongs and close frames are processed.
func (c *feedClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Debug("feed read error")
			}
			return
		}
	}
}

func (c *feedClient) writePump() {
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
