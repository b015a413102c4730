package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/arena"
	"github.com/playmatatu/eightball/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 4096
	sendBuffer = 256
)

// Controller is the table a client watches and steers.
type Controller interface {
	HandleInput(arena.Input) error
	Snapshot() game.MatchSnapshot
}

// WSMessage is an inbound frame. Data carries the pointer or power payload.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client represents a connected WebSocket client
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ctrl Controller
	log  *logrus.Entry
}

// Handler upgrades requests and attaches them to the hub.
type Handler struct {
	hub      *Hub
	ctrl     Controller
	upgrader websocket.Upgrader
}

// NewHandler builds a handler. A nil checkOrigin accepts every origin.
func NewHandler(hub *Hub, ctrl Controller, checkOrigin func(*http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub:  hub,
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.WithError(err).Warn("upgrade failed")
		return
	}

	id := uuid.NewString()
	c := &Client{
		id:   id,
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		ctrl: h.ctrl,
		log:  h.hub.log.WithField("client", id),
	}
	c.queue(SnapshotMessage(h.ctrl.Snapshot()))
	if !h.hub.join(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Gin adapts Serve for a gin route.
func (h *Handler) Gin(c *gin.Context) {
	h.Serve(c.Writer, c.Request)
}

func (c *Client) queue(message any) {
	data, err := json.Marshal(message)
	if err != nil {
		c.log.WithError(err).Error("marshal message")
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping message")
	}
}

func (c *Client) sendError(message string) {
	c.queue(Message{Type: "error", Data: message})
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}

		case <-c.hub.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	if msg.Type == "get_state" {
		c.queue(SnapshotMessage(c.ctrl.Snapshot()))
		return
	}

	var in arena.Input
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			c.sendError("invalid input data")
			return
		}
	}
	in.Type = msg.Type

	if err := c.ctrl.HandleInput(in); err != nil {
		if errors.Is(err, arena.ErrUnknownInput) {
			c.sendError("unknown message type")
			return
		}
		c.log.WithError(err).Warn("input rejected")
		c.sendError(err.Error())
	}
}
