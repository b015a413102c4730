package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/game"
)

// Message is the envelope for every frame sent to spectators.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EventMessage wraps a gameplay event for the wire.
func EventMessage(ev game.Event) Message {
	return Message{Type: "event", Data: ev}
}

func SnapshotMessage(s game.MatchSnapshot) Message {
	return Message{Type: "snapshot", Data: s}
}

// Hub maintains the set of connected clients watching the table.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *logrus.Entry
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.WithField("component", "ws"),
	}
}

// Run processes registrations until ctx is cancelled. On shutdown the send
// channels stay open: a reader may still queue replies, and each writePump
// exits on done and closes its own connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			n := len(h.clients)
			clear(h.clients)
			h.mu.Unlock()
			h.log.WithField("clients", n).Info("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"client": c.id, "clients": n}).Info("client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"client": c.id, "clients": n}).Info("client disconnected")
		}
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast marshals message once and queues it for every client.
func (h *Hub) Broadcast(message any) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Error("marshal broadcast")
		return
	}
	h.BroadcastRaw(data)
}

// BroadcastRaw queues an already encoded frame. Clients with a full buffer
// miss the frame.
func (h *Hub) BroadcastRaw(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.WithField("client", id).Warn("send buffer full, dropping message")
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StreamSnapshots broadcasts the table state every interval while anyone is
// watching.
func (h *Hub) StreamSnapshots(ctx context.Context, source func() game.MatchSnapshot, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			h.Broadcast(SnapshotMessage(source()))
		}
	}
}
