package redisserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/redikv/internal/core/command"
	"github.com/yndnr/redikv/internal/storage/memory"
	"github.com/yndnr/redikv/internal/telemetry/metric"
	"github.com/yndnr/redikv/pkg/resp"
)

// ============================================================
// Helpers
// ============================================================

func startTestServer(t *testing.T, cfg *Config, opts ...Option) *Server {
	t.Helper()
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:0"
	}
	srv := New(cfg, command.NewRouter(memory.New()), opts...)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	br   *bufio.Reader
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, br: bufio.NewReader(conn)}
}

func (c *testClient) send(raw string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(raw)); err != nil {
		c.t.Fatalf("Write() error = %v", err)
	}
}

func (c *testClient) read() (resp.Value, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return resp.ReadValue(c.br)
}

func (c *testClient) do(args ...string) resp.Value {
	c.t.Helper()
	c.send(string(resp.EncodeCommand(args...)))
	v, err := c.read()
	if err != nil {
		c.t.Fatalf("%q: read reply error = %v", args, err)
	}
	return v
}

// expectClosed waits for the server to close the connection. Closing with
// unread input makes the kernel send a reset, so any error but a timeout
// counts as closed.
func (c *testClient) expectClosed() {
	c.t.Helper()
	v, err := c.read()
	if err == nil {
		c.t.Fatalf("expected the connection to close, got %v", v)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		c.t.Fatalf("connection still open: %v", err)
	}
}

// ============================================================
// Commands over TCP
// ============================================================

func TestServer_Commands(t *testing.T) {
	srv := startTestServer(t, &Config{})
	c := dial(t, srv)

	tests := []struct {
		args []string
		want resp.Value
	}{
		{[]string{"PING"}, resp.SimpleString("PONG")},
		{[]string{"PING", "Hello"}, resp.BulkFromString("Hello")},
		{[]string{"ECHO", "Hey"}, resp.BulkFromString("Hey")},
		{[]string{"GET", "k"}, resp.NullBulkString()},
		{[]string{"SET", "k", "v"}, resp.SimpleString("OK")},
		{[]string{"GET", "k"}, resp.BulkFromString("v")},
	}
	for _, tt := range tests {
		if got := c.do(tt.args...); !got.Equal(tt.want) {
			t.Errorf("%q = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestServer_Pipeline(t *testing.T) {
	srv := startTestServer(t, &Config{})
	c := dial(t, srv)

	c.send("*3\r\n$4\r\nPING\r\n$4\r\nPING\r\n$4\r\nPING\r\n")
	for i := 0; i < 3; i++ {
		v, err := c.read()
		if err != nil {
			t.Fatalf("reply %d: error = %v", i, err)
		}
		if !v.Equal(resp.SimpleString("PONG")) {
			t.Errorf("reply %d = %v, want PONG", i, v)
		}
	}
}

func TestServer_TTLExpiry(t *testing.T) {
	srv := startTestServer(t, &Config{})
	c := dial(t, srv)

	c.do("SET", "px", "v", "PX", "100")
	c.do("SET", "ex", "v", "EX", "1")

	if got := c.do("GET", "px"); !got.Equal(resp.BulkFromString("v")) {
		t.Errorf("GET px immediately = %v", got)
	}
	time.Sleep(150 * time.Millisecond)
	if got := c.do("GET", "px"); !got.IsNull() {
		t.Errorf("GET px after 150ms = %v, want (nil)", got)
	}
	if got := c.do("GET", "ex"); !got.Equal(resp.BulkFromString("v")) {
		t.Errorf("GET ex after 150ms = %v", got)
	}
	time.Sleep(1100 * time.Millisecond)
	if got := c.do("GET", "ex"); !got.IsNull() {
		t.Errorf("GET ex after 1.25s = %v, want (nil)", got)
	}
}

// ============================================================
// Request errors
// ============================================================

func TestServer_RequestErrorReply(t *testing.T) {
	srv := startTestServer(t, &Config{ReplyErrors: true})
	c := dial(t, srv)

	c.send("*1\r\n$4\r\nPING\r\nX")
	v, err := c.read()
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if v.Kind != resp.KindError || !strings.HasPrefix(string(v.Str), "ERR ") {
		t.Errorf("reply = %v, want an ERR error", v)
	}
	if !strings.Contains(string(v.Str), "CRLF") {
		t.Errorf("reply = %q should mention CRLF", v.Str)
	}
	c.expectClosed()
}

func TestServer_RequestErrorSilentClose(t *testing.T) {
	srv := startTestServer(t, &Config{ReplyErrors: false})
	c := dial(t, srv)

	c.send("*1\r\n$4\r\nPING\r\nX")
	c.expectClosed()
}

func TestErrorReply(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"request error", command.ErrEmptyArray, "-ERR request is an empty array\r\n"},
		{"wrapped request error", fmt.Errorf("x: %w", command.ErrMissingArg.WithDetails("'get' command")),
			"-ERR wrong number of arguments: 'get' command\r\n"},
		{"plain error", errors.New("bad\r\nthing"), "-ERR bad  thing\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(errorReply(tt.err)); got != tt.want {
				t.Errorf("errorReply() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================
// Concurrency and admission
// ============================================================

func TestServer_ConcurrentClients(t *testing.T) {
	srv := startTestServer(t, &Config{MaxConnections: 32})

	const clients = 20
	var wg sync.WaitGroup
	errs := make(chan error, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()
			br := bufio.NewReader(conn)

			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d-%d", i, j)
				val := fmt.Sprintf("val-%d-%d", i, j)
				if _, err := conn.Write(resp.EncodeCommand("SET", key, val, "GET", key)); err != nil {
					errs <- err
					return
				}
				ok, err := resp.ReadValue(br)
				if err != nil || !ok.Equal(resp.SimpleString("OK")) {
					errs <- fmt.Errorf("SET %s: %v %v", key, ok, err)
					return
				}
				got, err := resp.ReadValue(br)
				if err != nil || !got.Equal(resp.BulkFromString(val)) {
					errs <- fmt.Errorf("GET %s: %v %v", key, got, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestServer_MaxConnections(t *testing.T) {
	reg := metric.NewRegistry()
	srv := startTestServer(t, &Config{
		MaxConnections: 1,
		PermitTimeout:  200 * time.Millisecond,
	}, WithMetrics(reg))

	first := dial(t, srv)
	if got := first.do("PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Fatalf("first PING = %v", got)
	}

	// The second client is accepted by the kernel but never gets a slot.
	start := time.Now()
	second := dial(t, srv)
	second.send(string(resp.EncodeCommand("PING")))
	second.expectClosed()
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("second connection dropped after %v, want about the permit timeout", elapsed)
	}

	// Releasing the slot admits the next client.
	first.conn.Close()
	third := dial(t, srv)
	if got := third.do("PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Errorf("third PING = %v", got)
	}

	body := scrape(t, reg)
	for _, w := range []string{
		`redikv_connections_rejected_total{reason="permit_timeout"} 1`,
		`redikv_connections_accepted_total 2`,
	} {
		if !strings.Contains(body, w) {
			t.Errorf("metrics missing %q", w)
		}
	}
}

func TestServer_RateLimit(t *testing.T) {
	srv := startTestServer(t, &Config{RateLimit: 1})
	c := dial(t, srv)

	if got := c.do("PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Fatalf("first PING = %v", got)
	}
	got := c.do("PING")
	if got.Kind != resp.KindError || string(got.Str) != errRateLimited {
		t.Fatalf("second PING = %v, want rate limit error", got)
	}

	// The connection survives and recovers once the bucket refills.
	time.Sleep(1100 * time.Millisecond)
	if got := c.do("PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Errorf("PING after refill = %v", got)
	}
}

// ============================================================
// Lifecycle
// ============================================================

func TestServer_StartBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	srv := New(&Config{Address: ln.Addr().String()}, command.NewRouter(memory.New()))
	if err := srv.Start(context.Background()); err == nil {
		t.Error("Start() on a busy port should fail")
	}
	// Shutdown of a server that never started is a no-op.
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	srv := New(&Config{Address: "127.0.0.1:0"}, command.NewRouter(memory.New()))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c := dial(t, srv)
	c.do("PING")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	c.expectClosed()

	if _, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second); err == nil {
		t.Error("listener still accepting after Shutdown")
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	srv := New(&Config{}, nil)
	def := DefaultConfig()
	if srv.cfg.Address != def.Address || srv.cfg.MaxConnections != def.MaxConnections ||
		srv.cfg.PermitTimeout != def.PermitTimeout || srv.cfg.ReadBufferSize != def.ReadBufferSize {
		t.Errorf("cfg = %+v, want defaults %+v", srv.cfg, def)
	}
	if srv.limiter != nil {
		t.Error("rate limiter should be off by default")
	}
}

func scrape(t *testing.T, reg *metric.Registry) string {
	t.Helper()
	ts := httptest.NewServer(reg.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET metrics error = %v", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return string(body)
}
