package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/eightball/internal/arena"
	"github.com/playmatatu/eightball/internal/game"
)

type fakeController struct {
	mu     sync.Mutex
	inputs []arena.Input
}

func (f *fakeController) HandleInput(in arena.Input) error {
	switch in.Type {
	case "pointer_down", "pointer_move", "pointer_up", "power_drag", "power_release":
	default:
		return arena.ErrUnknownInput
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return nil
}

func (f *fakeController) Snapshot() game.MatchSnapshot {
	return game.MatchSnapshot{MatchID: "m-1", Active: game.Player1, Player1Turn: true}
}

func (f *fakeController) received() []arena.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]arena.Input(nil), f.inputs...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (*Hub, *fakeController, *websocket.Conn) {
	t.Helper()
	hub, ctrl, conn, _ := startStoppableServer(t)
	return hub, ctrl, conn
}

func startStoppableServer(t *testing.T) (*Hub, *fakeController, *websocket.Conn, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(quietLogger())
	go hub.Run(ctx)

	ctrl := &fakeController{}
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, ctrl, nil).Serve))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		resp.Body.Close()
	})
	return hub, ctrl, conn, cancel
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestClientReceivesSnapshotOnConnect(t *testing.T) {
	_, _, conn := startServer(t)

	f := readFrame(t, conn)
	assert.Equal(t, "snapshot", f.Type)

	var snap game.MatchSnapshot
	require.NoError(t, json.Unmarshal(f.Data, &snap))
	assert.Equal(t, "m-1", snap.MatchID)
	assert.True(t, snap.Player1Turn)
}

func TestBroadcastReachesClient(t *testing.T) {
	hub, _, conn := startServer(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(EventMessage(game.Event{Type: game.EventScoreUpdated, MatchID: "m-1", Player: game.Player2, BallID: 11}))

	f := readFrame(t, conn)
	assert.Equal(t, "event", f.Type)
	var ev game.Event
	require.NoError(t, json.Unmarshal(f.Data, &ev))
	assert.Equal(t, game.EventScoreUpdated, ev.Type)
	assert.Equal(t, 11, ev.BallID)
}

func TestInputMessagesReachController(t *testing.T) {
	_, ctrl, conn := startServer(t)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "pointer_down",
		"data": map[string]float64{"x": 1.5, "y": -0.5},
	}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "pointer_up"}))

	require.Eventually(t, func() bool { return len(ctrl.received()) == 2 }, time.Second, 10*time.Millisecond)
	got := ctrl.received()
	assert.Equal(t, arena.Input{Type: "pointer_down", X: 1.5, Y: -0.5}, got[0])
	assert.Equal(t, "pointer_up", got[1].Type)
}

func TestUnknownMessageReturnsError(t *testing.T) {
	_, _, conn := startServer(t)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "take_shot"}))

	f := readFrame(t, conn)
	assert.Equal(t, "error", f.Type)
	assert.JSONEq(t, `"unknown message type"`, string(f.Data))
}

func TestGetStateReturnsSnapshot(t *testing.T) {
	_, _, conn := startServer(t)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "get_state"}))
	assert.Equal(t, "snapshot", readFrame(t, conn).Type)
}

func TestClientUnregistersOnClose(t *testing.T) {
	hub, _, conn := startServer(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownWithClientStillSending(t *testing.T) {
	hub, _, conn, stop := startStoppableServer(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	stop()
	// replies queued by the reader after shutdown must not hit a closed channel
	for i := 0; i < 20; i++ {
		if conn.WriteJSON(map[string]any{"type": "get_state"}) != nil {
			break
		}
		if conn.WriteMessage(websocket.TextMessage, []byte("{not json")) != nil {
			break
		}
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var err error
	for i := 0; i < 100 && err == nil; i++ {
		_, _, err = conn.ReadMessage()
	}
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should be closed by the server, not time out")
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestJoinAfterShutdownRefused(t *testing.T) {
	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := &Client{id: "late", hub: hub, send: make(chan []byte, 1), log: hub.log}
	assert.False(t, hub.join(c))
	assert.NotPanics(t, func() {
		hub.leave(c)
		c.queue(Message{Type: "error", Data: "late"})
	})
}

func TestPublisherDropsWhenQueueFull(t *testing.T) {
	p := NewRedisPublisher(nil, "match_events", quietLogger())
	for i := 0; i < publishQueue+10; i++ {
		p.Publish(game.Event{Type: game.EventBallPocketed, BallID: 3})
	}
	assert.Len(t, p.queue, publishQueue)

	var msg Message
	raw := <-p.queue
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "event", msg.Type)
}

func TestRelayWithoutRedisIsNoop(t *testing.T) {
	hub := NewHub(quietLogger())
	assert.NotPanics(t, func() { StartRelay(context.Background(), nil, "match_events", hub) })
}
