// ABOUTME: WebSocket client for consuming a pulse feed
// ABOUTME: Connects, reads the hello and yields decoded envelopes
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Client reads messages from a feed
type Client struct {
	conn  *websocket.Conn
	hello Hello
}

// Dial connects to a feed at host:port and waits for its hello
func Dial(ctx context.Context, addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &Client{conn: conn}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	env, err := c.Next()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if env.Type != TypeHello {
		conn.Close()
		return nil, fmt.Errorf("expected %s, got %s", TypeHello, env.Type)
	}
	if err := env.Decode(&c.hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to parse hello: %w", err)
	}

	log.Printf("Connected to feed %q (connection %s)", c.hello.Name, c.hello.ConnectionID)
	return c, nil
}

// Hello returns the handshake the server sent
func (c *Client) Hello() Hello {
	return c.hello
}

// Next blocks until the next message arrives
func (c *Client) Next() (Envelope, error) {
	var env Envelope
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("failed to parse message: %w", err)
	}
	return env, nil
}

// Close sends a close frame and closes the connection
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
