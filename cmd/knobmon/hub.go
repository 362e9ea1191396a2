package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans broadcast frames out to the connected WebSocket clients.
// Each client writes from its own buffered queue so one slow client
// never blocks the rest; a client whose queue fills is dropped.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	mu      sync.Mutex
	clients map[*client]struct{}

	sendBuf int

	// snapshot renders the greeting frame for a client that just
	// connected; nil disables the greeting.
	snapshot func() []byte
}

func NewHub(logger *slog.Logger, sendBuf int, snapshot func() []byte) *Hub {
	if sendBuf <= 0 {
		sendBuf = 32
	}
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, 128),
		register:   make(chan *client, 8),
		unregister: make(chan *client, 8),
		clients:    make(map[*client]struct{}),
		sendBuf:    sendBuf,
		snapshot:   snapshot,
	}
}

// Run processes hub events until ctx is canceled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				if c.conn != nil {
					_ = c.conn.Close()
				}
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client connected", "remote", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.drop(c, "disconnect")

		case msg := <-h.broadcast:
			// Collect slow clients first; dropping them needs the
			// lock the range already holds.
			var slow []*client
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()
			for _, c := range slow {
				h.drop(c, "slow client")
			}
		}
	}
}

func (h *Hub) drop(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	close(c.send)
	h.logger.Info("ws client dropped", "remote", c.remoteAddr, "reason", reason, "clients", n)
}

// BroadcastBytes enqueues one frame for every client. It never blocks;
// with the hub queue full the frame is dropped.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws broadcast queue full, dropping frame", "bytes", len(msg))
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and attaches the client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}

	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, h.sendBuf),
		remoteAddr: r.RemoteAddr,
		logger:     h.logger,
	}
	h.register <- c

	// The pumps outlive the handler; net/http cancels r.Context()
	// when it returns, so they run off the background context and
	// die with the connection instead.
	go c.writePump()
	go c.readPump()

	if h.snapshot != nil {
		if msg := h.snapshot(); msg != nil {
			select {
			case c.send <- msg:
			default:
				h.unregister <- c
			}
		}
	}
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	logger     *slog.Logger
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// writePump drains the send queue onto the wire, pinging through idle
// stretches. It exits on write error or when the hub closes the queue.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("ws write failed", "remote", c.remoteAddr, "err", err)
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("ws ping failed", "remote", c.remoteAddr, "err", err)
				}
				return
			}
		}
	}
}

// readPump discards inbound traffic; it exists to spot disconnects and
// keep the pong deadline fresh.
func (c *client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}
