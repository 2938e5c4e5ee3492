package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yndnr/redikv/internal/core/command"
	"github.com/yndnr/redikv/pkg/resp"
)

// DefaultTimeout bounds dialing and each round trip when ctx has no deadline.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNoCommand is returned when the words hold no command the server
	// would answer.
	ErrNoCommand = errors.New("connection: no command")

	// ErrMultipleCommands is returned by Do when the words hold more than
	// one command.
	ErrMultipleCommands = errors.New("connection: more than one command")
)

// Client is a RESP client for a single server.
type Client struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
	br   *bufio.Reader
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the dial and round-trip timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for addr. No connection is made until Connect
// or the first Do.
func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect dials the server if not already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	c.conn = conn
	c.br = bufio.NewReader(conn)
	return nil
}

// Do sends one command and returns the server's reply. A RESP error reply is
// returned as a Value of KindError with a nil error; err is reserved for
// transport and protocol failures.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	switch n := len(command.Split(args)); {
	case n == 0:
		return resp.Value{}, ErrNoCommand
	case n > 1:
		return resp.Value{}, fmt.Errorf("%w: %q", ErrMultipleCommands, args)
	}
	replies, err := c.DoLine(ctx, args...)
	if err != nil {
		return resp.Value{}, err
	}
	return replies[0], nil
}

// DoLine sends args as a single request and returns one reply per command the
// server finds in it. The server answers a failing request with one error
// reply, so reading stops at the first error reply.
func (c *Client) DoLine(ctx context.Context, args ...string) ([]resp.Value, error) {
	cmds := command.Split(args)
	if len(cmds) == 0 {
		return nil, ErrNoCommand
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.resetLocked()
		return nil, err
	}

	if _, err := c.conn.Write(resp.EncodeCommand(args...)); err != nil {
		c.resetLocked()
		return nil, fmt.Errorf("send %s: %w", cmds[0][0], err)
	}

	replies := make([]resp.Value, 0, len(cmds))
	for range cmds {
		v, err := resp.ReadValue(c.br)
		if err != nil {
			c.resetLocked()
			return nil, fmt.Errorf("read reply: %w", err)
		}
		replies = append(replies, v)
		if v.Kind == resp.KindError {
			break
		}
	}

	// Unread bytes or an error reply leave the stream out of step.
	if replies[len(replies)-1].Kind == resp.KindError || c.br.Buffered() > 0 {
		c.resetLocked()
	}
	return replies, nil
}

// Close closes the connection. The client may be reused afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

func (c *Client) resetLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.br = nil
}
