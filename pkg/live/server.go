package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// Error texts sent to clients.
const (
	MsgInternalError = "Internal server error"
	MsgRateLimited   = "Rate limit exceeded"
)

// Sender delivers messages to one connected client, in call order.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Handler answers calculate requests. Replies go through out; a returned
// error means delivery failed part way.
type Handler interface {
	Handle(ctx context.Context, req Calculate, out Sender) error
}

// ServerOptions tunes connection handling. Zero values pick the defaults.
type ServerOptions struct {
	// RateLimit is the per-connection inbound message rate; 0 disables it.
	RateLimit float64
	RateBurst int

	SendBuffer int
	Logger     *slog.Logger
	Meter      metric.Meter
}

// Server upgrades HTTP requests to websocket sessions and dispatches their
// messages.
type Server struct {
	upgrader websocket.Upgrader
	handler  Handler
	opts     ServerOptions
	logger   *slog.Logger
	metrics  serverMetrics

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

type serverMetrics struct {
	requests metric.Int64Counter
	points   metric.Int64Counter
	errors   metric.Int64Counter
}

// NewServer creates a server that hands calculate requests to handler.
func NewServer(handler Handler, opts ServerOptions) (*Server, error) {
	if handler == nil {
		return nil, errors.New("live: nil handler")
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = sendBuffer
	}
	if opts.RateLimit > 0 && opts.RateBurst <= 0 {
		opts.RateBurst = int(opts.RateLimit) + 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		upgrader: websocket.Upgrader{
			// any origin; there is no browser-facing surface
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		handler:  handler,
		opts:     opts,
		logger:   logger.With("component", "live-server"),
		sessions: make(map[string]*Session),
	}
	if opts.Meter != nil {
		var err error
		if s.metrics.requests, err = opts.Meter.Int64Counter("quadplot.requests",
			metric.WithDescription("Calculate requests received")); err != nil {
			return nil, fmt.Errorf("failed to create requests counter: %w", err)
		}
		if s.metrics.points, err = opts.Meter.Int64Counter("quadplot.points",
			metric.WithDescription("Sample points sent")); err != nil {
			return nil, fmt.Errorf("failed to create points counter: %w", err)
		}
		if s.metrics.errors, err = opts.Meter.Int64Counter("quadplot.errors",
			metric.WithDescription("Error messages sent")); err != nil {
			return nil, fmt.Errorf("failed to create errors counter: %w", err)
		}
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleWebSocket(w, r)
}

// HandleWebSocket upgrades the request and serves the session until the
// client goes away.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", "error", err, "remote", r.RemoteAddr)
		return
	}

	session := s.newSession(conn, r.RemoteAddr)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		session.handleConnection()
		s.removeSession(session.ID)
	}()
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close disconnects every session and waits for them to finish.
func (s *Server) Close() {
	s.mu.RLock()
	for _, session := range s.sessions {
		session.close()
	}
	s.mu.RUnlock()
	s.wg.Wait()
}

func (s *Server) newSession(conn *websocket.Conn, remote string) *Session {
	id := uuid.NewString()
	session := &Session{
		ID:        id,
		server:    s,
		conn:      conn,
		logger:    s.logger.With("session", id, "remote", remote),
		sendChan:  make(chan []byte, s.opts.SendBuffer),
		closeChan: make(chan struct{}),
	}
	if s.opts.RateLimit > 0 {
		session.limiter = rate.NewLimiter(rate.Limit(s.opts.RateLimit), s.opts.RateBurst)
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()
	return session
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) count(ctx context.Context, c metric.Int64Counter, n int64) {
	if c != nil {
		c.Add(ctx, n)
	}
}

// Session is one client connection.
type Session struct {
	ID string

	server    *Server
	conn      *websocket.Conn
	logger    *slog.Logger
	limiter   *rate.Limiter
	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

// Send queues m for the writer goroutine. It blocks while the buffer is full
// and fails once the session is closed or ctx is done.
func (s *Session) Send(ctx context.Context, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-s.closeChan:
		return fmt.Errorf("session %s: %w", s.ID, ErrNotConnected)
	default:
	}
	select {
	case s.sendChan <- data:
	case <-s.closeChan:
		return fmt.Errorf("session %s: %w", s.ID, ErrNotConnected)
	case <-ctx.Done():
		return ctx.Err()
	}
	switch m.(type) {
	case NewDot:
		s.server.count(ctx, s.server.metrics.points, 1)
	case Error:
		s.server.count(ctx, s.server.metrics.errors, 1)
	}
	return nil
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		_ = s.conn.Close()
	})
}

func (s *Session) handleConnection() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer s.close()

	s.logger.Info("client connected")
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writer()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("unexpected close", "error", err)
			} else {
				s.logger.Info("client disconnected")
			}
			break
		}
		s.handleMessage(ctx, data)
	}

	cancel()
	s.close()
	<-writerDone
}

func (s *Session) handleMessage(ctx context.Context, data []byte) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Warn("rate limit exceeded")
		s.reply(ctx, Error{Message: MsgRateLimited})
		return
	}

	msg, err := Decode(data)
	if err != nil {
		s.logger.Warn("failed to decode message", "error", err, "size", len(data))
		s.reply(ctx, Error{Message: MsgInternalError})
		return
	}

	switch m := msg.(type) {
	case Calculate:
		s.server.count(ctx, s.server.metrics.requests, 1)
		s.logger.Debug("calculate", "number", string(m.Number), "involutions", string(m.Involutions))
		if err := s.server.handler.Handle(ctx, m, s); err != nil {
			s.logger.Warn("failed to handle calculate", "error", err)
			s.reply(ctx, Error{Message: MsgInternalError})
		}
	case Selection:
		s.logger.Info("selection reported", "selected", m.Selected)
	case Unknown:
		s.logger.Debug("ignoring unknown message", "type", m.MessageType)
	default:
		s.logger.Debug("ignoring peer-bound message", "type", m.Type())
	}
}

func (s *Session) reply(ctx context.Context, m Message) {
	if err := s.Send(ctx, m); err != nil {
		s.logger.Debug("failed to queue reply", "error", err)
	}
}

func (s *Session) writer() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.sendChan:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("failed to write message", "error", err)
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.closeChan:
			return
		}
	}
}
