package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
	"github.com/rakshit0960/PeerTalk/errors"
	"github.com/rakshit0960/PeerTalk/runtime"
)

const maxFrameSize = 64 * 1024

// Conn wraps one authenticated WebSocket. The read pump processes inbound
// events in arrival order; a single writer goroutine drains the FIFO send
// channel, which is what preserves per-target delivery ordering.
type Conn struct {
	id   domain.ConnID
	user domain.UserID
	ws   *websocket.Conn
	send chan []byte
	// done is closed after the connection has been removed from the
	// registry; the send channel itself is never closed, so a racing
	// Consume from another connection's read loop stays safe.
	done chan struct{}
	log  *slog.Logger

	writeWait time.Duration
	pongWait  time.Duration
}

func newConn(id domain.ConnID, user domain.UserID, ws *websocket.Conn,
	log *slog.Logger, bufferSize int, writeWait, pongWait time.Duration) *Conn {
	return &Conn{
		id:        id,
		user:      user,
		ws:        ws,
		send:      make(chan []byte, bufferSize),
		done:      make(chan struct{}),
		log:       log,
		writeWait: writeWait,
		pongWait:  pongWait,
	}
}

// Consume enqueues one outbound event. It never blocks: a connection whose
// buffer is full loses this delivery and only this connection is affected.
func (c *Conn) Consume(_ context.Context, e event.Outbound) error {
	frame, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// readPump owns inbound processing for this connection. It exits on any
// read error; the deferred teardown removes the connection from the
// registry before anything else happens, so no late event can reach it.
func (c *Conn) readPump(ctx context.Context, s *Server) {
	defer func() {
		s.coordinator.ConnectionClosed(ctx, c.id)
		s.metrics.OpenConnections.Dec()
		close(c.done)
		_ = c.ws.Close()
		c.log.Info("connection closed", "conn", c.id, "user", c.user)
	}()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	origin := runtime.Origin{Conn: c.id, User: c.user, Sink: c}
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected close", "conn", c.id, "error", err)
			}
			return
		}
		s.router.Dispatch(ctx, origin, raw)
	}
}

// writePump is the only goroutine writing to the socket.
func (c *Conn) writePump() {
	pingPeriod := c.pongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
