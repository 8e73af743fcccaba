package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is one viewer connection. It only receives; anything the browser
// sends besides control frames is ignored.
type Client struct {
	ID       string          // Unique client ID
	PollID   uuid.UUID       // Poll being watched
	Conn     *websocket.Conn // WebSocket connection
	Send     chan []byte     // Outbound message channel
	channels map[string]bool // Subscribed channels
	mu       sync.RWMutex    // Protects channels map and conn writes

	sendMu sync.Mutex
	sent   int64 // Version of the last queued tally, -1 before the first
}

func NewClient(conn *websocket.Conn, pollID uuid.UUID, channels ...string) *Client {
	c := &Client{
		ID:       uuid.New().String(),
		PollID:   pollID,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		channels: make(map[string]bool, len(channels)),
		sent:     -1,
	}
	for _, ch := range channels {
		c.channels[ch] = true
	}
	return c
}

// Subscribe adds a channel to the client's subscriptions (internal use only)
func (c *Client) Subscribe(channel string) {
	c.mu.Lock()
	c.channels[channel] = true
	c.mu.Unlock()
}

// Unsubscribe removes a channel from the client's subscriptions (internal use only)
func (c *Client) Unsubscribe(channel string) {
	c.mu.Lock()
	delete(c.channels, channel)
	c.mu.Unlock()
}

func (c *Client) IsSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[channel]
}

// GetChannels returns a copy of all subscribed channels
func (c *Client) GetChannels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	channels := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		channels = append(channels, ch)
	}
	return channels
}

// WriteLoop handles outbound messages from the Send channel
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.close()
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(messageType, data)
}

// ReadLoop drains inbound frames so pongs and close frames are processed. It
// returns when the connection fails or the peer goes quiet for pongWait.
func (c *Client) ReadLoop() {
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// close closes the WebSocket connection
func (c *Client) close() {
	c.mu.Lock()
	_ = c.Conn.Close()
	c.mu.Unlock()
}

// SendResults queues a tally without blocking. A tally whose version is not
// above the last queued one is dropped, so the viewer never steps back to an
// older count. A slow viewer misses intermediate tallies; the next one
// supersedes them anyway.
func (c *Client) SendResults(version int64, msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if version <= c.sent {
		return false
	}
	select {
	case c.Send <- msg:
		c.sent = version
		return true
	default:
		return false
	}
}
