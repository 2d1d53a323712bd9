package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer    = 16
	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
	readLimit     = 4 * 1024
)

// Conn wraps a WebSocket connection with a buffered outbound queue so
// fanout never blocks on a slow client.
type Conn struct {
	ws   *websocket.Conn
	log  *zap.Logger
	send chan []byte

	AccountID snowflake.ID
	TenantID  snowflake.ID
	Role      string

	closeOnce sync.Once
	done      chan struct{}
}

func NewConn(ws *websocket.Conn, log *zap.Logger, accountID, tenantID snowflake.ID, role string) *Conn {
	ws.SetReadLimit(readLimit)
	return &Conn{
		ws:        ws,
		log:       log,
		send:      make(chan []byte, sendBuffer),
		AccountID: accountID,
		TenantID:  tenantID,
		Role:      role,
		done:      make(chan struct{}),
	}
}

// TrySend queues a frame for delivery, reporting false when the
// outbound buffer is full or the connection is closing.
func (c *Conn) TrySend(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// SendFrame marshals and queues a server frame.
func (c *Conn) SendFrame(frame ServerFrame) bool {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.log.Error("failed to marshal frame", zap.Error(err))
		return false
	}
	return c.TrySend(payload)
}

// ReadFrame blocks for the next client command.
func (c *Conn) ReadFrame() (*ClientFrame, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

// WritePump drains the outbound queue and keeps the connection alive
// with periodic pings. It returns once the connection is unusable.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeDeadline)); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close tears the connection down. Safe to call multiple times.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// Done is closed when the connection is shutting down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
