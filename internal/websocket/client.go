package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MB
	sendBufferSize = 256
)

// Client is one live connection's transport side: buffered outbound queue,
// read/write pumps, ping/pong keep-alive.
type Client struct {
	ID          string
	UserID      uint
	UserName    string
	RoomID      string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	seenMu   sync.RWMutex
	lastSeen time.Time

	// onMessage receives every inbound text frame, in arrival order.
	onMessage func([]byte)
	// onClose runs exactly once after the read pump exits, on every exit
	// path.
	onClose func()
}

func NewClient(id string, userID uint, userName, roomID string, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Client{
		ID:          id,
		UserID:      userID,
		UserName:    userName,
		RoomID:      roomID,
		Conn:        conn,
		Send:        make(chan []byte, sendBufferSize),
		ConnectedAt: now,
		ctx:         ctx,
		cancel:      cancel,
		lastSeen:    now,
	}
}

// Start launches both pumps. onMessage and onClose must be set before.
func (c *Client) Start() {
	c.StartWriter()
	c.StartReader()
}

// StartWriter launches only the write pump, so replayed state can be
// queued before any inbound command is read.
func (c *Client) StartWriter() {
	go c.writePump()
}

func (c *Client) StartReader() {
	go c.readPump()
}

func (c *Client) IsClientActive() bool {
	return c.ctx.Err() == nil
}

func (c *Client) GetLastSeen() time.Time {
	c.seenMu.RLock()
	defer c.seenMu.RUnlock()
	return c.lastSeen
}

func (c *Client) touch() {
	c.seenMu.Lock()
	c.lastSeen = time.Now()
	c.seenMu.Unlock()
}

// SendMessage queues an already-encoded frame, dropping it if the client
// is closing or its buffer is full.
func (c *Client) SendMessage(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	case <-c.ctx.Done():
		return false
	default:
		log.Warn().Str("clientID", c.ID).Msg("ws: client buffer full, dropping message")
		return false
	}
}

// SendEvent marshals and queues one event for this client only.
func (c *Client) SendEvent(event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("clientID", c.ID).Msg("ws: failed to marshal event")
		return false
	}
	return c.SendMessage(data)
}

// SendEventBlocking marshals and queues one event, waiting for buffer
// space instead of dropping. Used on the join replay, where every frame
// must reach the new connection; a slow writer stalls only its own
// session.
func (c *Client) SendEventBlocking(event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("clientID", c.ID).Msg("ws: failed to marshal event")
		return false
	}

	select {
	case c.Send <- data:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// Close is safe to call multiple times and from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

// writePump drains c.Send onto the socket and keeps the connection alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			if _, err := w.Write(msg); err != nil {
				_ = w.Close()
				return
			}

			_ = w.Close()

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound frames and hands them to the session in order.
// Cleanup runs on every exit path, error or graceful.
func (c *Client) readPump() {
	defer func() {
		c.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.touch()
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("clientID", c.ID).Msg("ws: unexpected close")
			}
			return
		}

		c.touch()
		if c.onMessage != nil {
			c.onMessage(data)
		}
	}
}
