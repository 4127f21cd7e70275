package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionState is the client's view of the channel.
type ConnectionState int

const (
	Connecting ConnectionState = iota
	Connected
	Disconnected
	Errored
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Errored:
		return "errored"
	}
	return "unknown"
}

const (
	writeWait    = 10 * time.Second
	pingInterval = 54 * time.Second
	pongWait     = 300 * time.Second
	sendBuffer   = 256
)

// Client holds one websocket connection to a fixed endpoint. Callbacks run on
// the client's reader goroutine. There is no reconnect: once the connection
// ends the client stays Disconnected or Errored.
type Client struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	onState   func(ConnectionState)
	onMessage func(Message)

	mu    sync.Mutex
	conn  *websocket.Conn
	state ConnectionState
	send  chan []byte
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewClient creates a client for url. A nil logger discards output.
func NewClient(url string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		logger: logger.With("component", "live-client", "endpoint", url),
		state:  Connecting,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// URL returns the endpoint the client dials.
func (c *Client) URL() string { return c.url }

// OnState sets the connection state handler. Set it before Connect.
func (c *Client) OnState(handler func(ConnectionState)) {
	c.onState = handler
}

// OnMessage sets the handler for decoded peer messages. Set it before Connect.
func (c *Client) OnMessage(handler func(Message)) {
	c.onMessage = handler
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the endpoint and starts the reader and writer goroutines.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(Connecting)
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.logger.Warn("dial failed", "error", err)
		c.setState(Errored)
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("connected")
	c.setState(Connected)

	c.wg.Add(2)
	go c.writer(conn)
	go c.reader(conn)
	return nil
}

// TrySend queues m without blocking. It reports false when the client is not
// connected, the buffer is full or m cannot be encoded.
func (c *Client) TrySend(m Message) bool {
	if c.State() != Connected {
		return false
	}
	data, err := Encode(m)
	if err != nil {
		c.logger.Warn("dropping unencodable message", "error", err)
		return false
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("send buffer full, dropping message", "type", m.Type())
		return false
	}
}

// Close shuts the connection down and waits for the goroutines to exit.
func (c *Client) Close() error {
	c.shutdown()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	var err error
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = conn.Close()
	}
	c.wg.Wait()
	return err
}

func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) reader(conn *websocket.Conn) {
	defer c.wg.Done()
	defer c.shutdown()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				c.logger.Info("connection closed")
				c.setState(Disconnected)
				return
			default:
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("unexpected close", "error", err)
				c.setState(Errored)
			} else {
				c.logger.Info("disconnected", "error", err)
				c.setState(Disconnected)
			}
			return
		}

		msg, err := Decode(data)
		if err != nil {
			c.logger.Warn("failed to decode message", "error", err, "size", len(data))
			continue
		}
		if u, ok := msg.(Unknown); ok {
			c.logger.Debug("ignoring unknown message", "type", u.MessageType)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

func (c *Client) writer(conn *websocket.Conn) {
	defer c.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("failed to write message", "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.onState != nil {
		c.onState(s)
	}
}
