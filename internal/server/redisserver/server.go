package redisserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// Admission errors. They only affect the connection being admitted.
var (
	ErrPermitTimeout = errors.New("redisserver: timed out waiting for a connection slot")
	ErrPoolClosed    = errors.New("redisserver: connection pool closed")
)

// Handler executes the request bytes of one read and returns the reply bytes.
type Handler interface {
	Handle(ctx context.Context, req []byte) ([]byte, error)
}

// Config holds the RESP server configuration.
type Config struct {
	// Address is the listen address.
	Address string
	// MaxConnections is the number of connections served at once.
	MaxConnections int
	// PermitTimeout bounds the wait for a free connection slot.
	PermitTimeout time.Duration
	// ReadBufferSize is the largest request accepted in one read.
	ReadBufferSize int
	// RateLimit is the number of requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit int
	// ReplyErrors sends "-ERR <message>" before closing a connection on a
	// request error. When false the connection is just closed.
	ReplyErrors bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:        "127.0.0.1:6379",
		MaxConnections: 100,
		PermitTimeout:  5000 * time.Millisecond,
		ReadBufferSize: 4096,
		ReplyErrors:    true,
	}
}

// Server is the RESP protocol server.
type Server struct {
	cfg     *Config
	handler Handler
	logger  *slog.Logger
	metrics *metric.Registry

	slots   *semaphore.Weighted
	limiter *ipLimiter

	// baseCtx is cancelled by Shutdown; slot waits derive from it.
	baseCtx context.Context
	cancel  context.CancelFunc

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records connection metrics in m.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server. Zero fields in cfg take their default values.
func New(cfg *Config, handler Handler, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}
	c := *cfg
	if c.Address == "" {
		c.Address = def.Address
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = def.MaxConnections
	}
	if c.PermitTimeout <= 0 {
		c.PermitTimeout = def.PermitTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     &c,
		handler: handler,
		logger:  slog.Default(),
		slots:   semaphore.NewWeighted(int64(c.MaxConnections)),
		baseCtx: ctx,
		cancel:  cancel,
		conns:   make(map[net.Conn]struct{}),
	}
	if c.RateLimit > 0 {
		s.limiter = newIPLimiter(c.RateLimit)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and starts accepting connections in the
// background. A bind failure is returned.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("redisserver: listen on %s: %w", s.cfg.Address, err)
	}
	s.ln = ln
	s.running.Store(true)

	s.logger.Info("listening",
		"address", ln.Addr().String(),
		"max_connections", s.cfg.MaxConnections,
		"permit_timeout", s.cfg.PermitTimeout,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx); err != nil {
			s.logger.Error("accept loop stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes open connections and waits for their
// goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()

	var firstErr error
	if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		firstErr = err
	}

	s.connsMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context) error {
	var backoff time.Duration
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0

		if err := s.acquire(); err != nil {
			reason := metric.RejectPermitTimeout
			if errors.Is(err, ErrPoolClosed) {
				reason = metric.RejectShuttingDown
			}
			s.metrics.ConnRejected(reason)
			s.logger.Warn("connection dropped", "remote", c.RemoteAddr().String(), "error", err)
			_ = c.Close()
			continue
		}

		if !s.track(c) {
			s.slots.Release(1)
			_ = c.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.slots.Release(1)
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

// acquire waits up to PermitTimeout for a connection slot.
func (s *Server) acquire() error {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.PermitTimeout)
	defer cancel()

	if err := s.slots.Acquire(ctx, 1); err != nil {
		if s.baseCtx.Err() != nil {
			return ErrPoolClosed
		}
		return ErrPermitTimeout
	}
	return nil
}

// track registers an admitted connection. It fails once shutdown has begun.
func (s *Server) track(c net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, c)
	s.connsMu.Unlock()
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
