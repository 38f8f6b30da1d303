package gateway

import (
	"chat-relay/domain"
	"chat-relay/sink"
	"log/slog"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// client ties one websocket to its connection id, sink, and inbound queue.
// The read pump feeds commands to the lifecycle handler; the write pump
// drains the sink. Both exit when the peer goes away.
type client struct {
	id      domain.ConnID
	ws      *websocket.Conn
	sink    *sink.WsSink
	inbound chan domain.Command
	log     *slog.Logger
}

func newClient(log *slog.Logger, id domain.ConnID, ws *websocket.Conn,
	wsSink *sink.WsSink, inboundBufferSize int) *client {
	return &client{
		id:      id,
		ws:      ws,
		sink:    wsSink,
		inbound: make(chan domain.Command, inboundBufferSize),
		log:     log,
	}
}

// readPump reads frames in arrival order and turns them into commands.
// Malformed frames are dropped, not fatal. Returning closes the inbound
// channel, which is the disconnect signal for the lifecycle handler.
func (c *client) readPump() {
	defer func() {
		c.sink.Close()
		close(c.inbound)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				c.log.Debug("Peer closed", "conn_id", c.id)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.log.Debug("Read timeout", "conn_id", c.id)
			} else {
				c.log.Debug("Read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		cmd, err := ParseCommand(c.id, data)
		if err != nil {
			c.log.Debug("Dropping frame", "conn_id", c.id, "error", err)
			continue
		}
		c.inbound <- cmd
	}
}

// writePump serializes sink events onto the wire and keeps the connection
// alive with pings. A write error ends the pump; the read pump then notices
// the closed socket and runs the disconnect path.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.sink.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case e := <-c.sink.Events:
			data, err := EncodeEvent(e)
			if err != nil {
				c.log.Warn("Skipping unencodable event", "event", e.Kind(), "error", err)
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("Write failed", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
