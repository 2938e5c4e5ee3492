package command

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yndnr/redikv/internal/storage/memory"
	"github.com/yndnr/redikv/internal/telemetry/metric"
	"github.com/yndnr/redikv/pkg/resp"
)

// Command names as reported in metrics.
const (
	cmdPing = "ping"
	cmdEcho = "echo"
	cmdGet  = "get"
	cmdSet  = "set"
)

var commands = map[string]string{
	"PING": cmdPing,
	"ECHO": cmdEcho,
	"GET":  cmdGet,
	"SET":  cmdSet,
}

// lookup resolves a word to a command name, case-insensitively.
func lookup(word string) (string, bool) {
	if len(word) < 3 || len(word) > 4 {
		return "", false
	}
	name, ok := commands[strings.ToUpper(word)]
	return name, ok
}

func isCommand(word string) bool {
	_, ok := lookup(word)
	return ok
}

// span returns how many words the command at words[0] takes. A command short
// of arguments takes what is left, and its handler reports the error.
func span(name string, words []string) int {
	n := 2
	switch name {
	case cmdPing:
		if len(words) < 2 || isCommand(words[1]) {
			n = 1
		}
	case cmdSet:
		n = 3
		if len(words) >= 5 && !isCommand(words[3]) {
			n = 5
		}
	}
	return min(n, len(words))
}

// Split groups words into the commands a request made of them executes, in
// order. Words that are not commands and not claimed as arguments are
// dropped, so a request with no command yields no reply at all.
func Split(words []string) [][]string {
	var cmds [][]string
	for i := 0; i < len(words); {
		name, ok := lookup(words[i])
		if !ok {
			i++
			continue
		}
		n := span(name, words[i:])
		cmds = append(cmds, words[i:i+n])
		i += n
	}
	return cmds
}

// Store is the storage the router reads and writes.
type Store interface {
	Create(ctx context.Context, key, value string, expiresAt int64)
	Read(ctx context.Context, key string) (memory.Entry, bool)
	DeleteIfExpired(ctx context.Context, key string, nowMs int64) bool
}

// Router executes requests against a Store.
type Router struct {
	store   Store
	clock   Clock
	metrics *metric.Registry
}

// Option configures the Router.
type Option func(*Router)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(r *Router) {
		r.clock = c
	}
}

// WithMetrics records per-command counters in m.
func WithMetrics(m *metric.Registry) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// NewRouter creates a router over store.
func NewRouter(store Store, opts ...Option) *Router {
	r := &Router{
		store: store,
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var crlf = []byte("\r\n")

// Handle executes every command in req and returns the concatenated replies.
//
// Any error aborts the whole request; replies produced before the failure are
// discarded, while writes they performed stay applied.
func (r *Router) Handle(ctx context.Context, req []byte) ([]byte, error) {
	if len(req) < 2 {
		return nil, ErrInputTooShort.WithDetails("%d bytes", len(req))
	}
	if !bytes.HasSuffix(req, crlf) {
		return nil, ErrCRLFNotAtEnd
	}

	out := make([]byte, 0, 64)
	for off := 0; off < len(req); {
		words, n, err := parseRequest(req[off:])
		if err != nil {
			return nil, err
		}
		off += n

		if out, err = r.dispatch(ctx, out, words); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseRequest decodes one top-level array of bulk strings into its words.
func parseRequest(b []byte) ([]string, int, error) {
	msg, n, err := resp.Decode(b)
	if err != nil {
		return nil, 0, ErrMalformed.Wrap(err)
	}

	v := msg.Data
	switch v.Kind {
	case resp.KindArray:
	case resp.KindNullArray:
		return nil, 0, ErrNullArray
	default:
		return nil, 0, ErrNotArray.WithDetails("got %s", msg.Type)
	}
	if len(v.Elems) == 0 {
		return nil, 0, ErrEmptyArray
	}

	words := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		if e.Kind != resp.KindBulkString {
			return nil, 0, ErrNotAllBulk.WithDetails("element %d", i)
		}
		if !utf8.Valid(e.Str) {
			return nil, 0, ErrInvalidUTF8.WithDetails("element %d", i)
		}
		words[i] = string(e.Str)
	}
	return words, n, nil
}

func (r *Router) dispatch(ctx context.Context, out []byte, words []string) ([]byte, error) {
	for i := 0; i < len(words); {
		name, ok := lookup(words[i])
		if !ok {
			i++
			continue
		}

		n := span(name, words[i:])
		args := words[i : i+n]
		i += n

		start := time.Now()
		var err error
		switch name {
		case cmdPing:
			out = r.ping(out, args)
		case cmdEcho:
			out, err = r.echo(out, args)
		case cmdGet:
			out, err = r.get(ctx, out, args)
		case cmdSet:
			out, err = r.set(ctx, out, args)
		}
		if err != nil {
			r.metrics.CommandFailed(ErrorCode(err))
			return nil, err
		}
		r.metrics.CommandProcessed(name, time.Since(start).Seconds())
	}
	return out, nil
}

// now reads the clock, normalising failures to ErrClock.
func (r *Router) now() (int64, error) {
	ms, err := r.clock.NowMilli()
	if err != nil {
		if errors.Is(err, ErrClock) {
			return 0, err
		}
		return 0, ErrClock.Wrap(err)
	}
	if ms < 0 {
		return 0, ErrClock.WithDetails("%d ms", ms)
	}
	return ms, nil
}
