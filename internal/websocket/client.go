package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	// outboxSize bounds how far a slow tab can fall behind before the hub
	// starts dropping sync messages for it.
	outboxSize = 16
	// keepAlivePeriod paces pings that detect half-dead tabs.
	keepAlivePeriod = 45 * time.Second
)

// Client is one connected browser tab.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	outbox chan []byte
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
	}
}

// Run registers the client and pumps messages until the connection closes,
// then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards inbound frames; sync is one-way, server to tab. A read
// error means the tab went away.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump drains the outbox onto the wire and keeps the connection alive.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(keepAlivePeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.outbox:
			if !ok {
				// Unregister closed the outbox.
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
