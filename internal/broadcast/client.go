// Package broadcast fans caption payloads out to every connected
// viewer websocket.
package broadcast

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
)

// writeWait bounds how long a single client write may stall before the
// hub gives up on the connection.
const writeWait = 10 * time.Second

// Conn is the subset of *websocket.Conn the hub needs.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connected viewer. Writes go through the hub's run loop,
// so they never race.
type Client struct {
	id   string
	conn Conn
	once sync.Once
}

func NewClient(conn Conn) *Client {
	return &Client{id: xid.New().String(), conn: conn}
}

// ID returns the client's connection id, used in logs.
func (c *Client) ID() string { return c.id }

func (c *Client) send(payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) close() {
	c.once.Do(func() { _ = c.conn.Close() })
}
