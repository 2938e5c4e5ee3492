package command

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	corecmd "github.com/yndnr/redikv/internal/core/command"
	"github.com/yndnr/redikv/internal/server/redisserver"
	"github.com/yndnr/redikv/internal/storage/memory"
)

// ============================================================
// Helpers
// ============================================================

func startServer(t *testing.T) string {
	t.Helper()
	srv := redisserver.New(&redisserver.Config{
		Address:     "127.0.0.1:0",
		ReplyErrors: true,
	}, corecmd.NewRouter(memory.New()))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

// runCLI runs the app against addr with stdin set to input and returns
// stdout.
func runCLI(t *testing.T, addr, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(input)

	argv := append([]string{"redikv-cli", "-s", addr}, args...)
	err := app.Run(argv)
	return out.String(), err
}

// ============================================================
// Command Tests
// ============================================================

func TestCommands(t *testing.T) {
	addr := startServer(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"ping", []string{"ping"}, "PONG\n"},
		{"ping message", []string{"ping", "hello"}, "\"hello\"\n"},
		{"echo", []string{"echo", "Hey"}, "\"Hey\"\n"},
		{"get missing", []string{"get", "nokey"}, "(nil)\n"},
		{"set", []string{"set", "k", "v"}, "OK\n"},
		{"get", []string{"get", "k"}, "\"v\"\n"},
		{"set ex", []string{"set", "--ex", "60", "t", "1"}, "OK\n"},
		{"json output", []string{"-o", "json", "get", "k"}, "\"v\"\n"},
		{"json nil", []string{"-o", "json", "get", "nokey"}, "null\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCLI(t, addr, "", tt.args...)
			if err != nil {
				t.Fatalf("run %v: error = %v (output %q)", tt.args, err, got)
			}
			if got != tt.want {
				t.Errorf("run %v = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestSet_PXExpires(t *testing.T) {
	addr := startServer(t)

	if _, err := runCLI(t, addr, "", "set", "--px", "50", "k", "v"); err != nil {
		t.Fatalf("set error = %v", err)
	}
	time.Sleep(120 * time.Millisecond)

	got, err := runCLI(t, addr, "", "get", "k")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if got != "(nil)\n" {
		t.Errorf("get after expiry = %q, want (nil)", got)
	}
}

func TestSet_ErrorReply(t *testing.T) {
	addr := startServer(t)

	got, err := runCLI(t, addr, "", "set", "--ex", "abc", "k", "v")
	if !errors.Is(err, ErrReply) {
		t.Fatalf("error = %v, want ErrReply", err)
	}
	if !strings.HasPrefix(got, "(error) ERR") {
		t.Errorf("output = %q, want an error reply", got)
	}
}

func TestArgumentValidation(t *testing.T) {
	addr := startServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{"ping too many", []string{"ping", "a", "b"}},
		{"ping a command word", []string{"ping", "get"}},
		{"echo missing", []string{"echo"}},
		{"get missing", []string{"get"}},
		{"set missing value", []string{"set", "k"}},
		{"set ex and px", []string{"set", "--ex", "1", "--px", "1", "k", "v"}},
		{"bad output", []string{"-o", "table", "ping"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, addr, "", tt.args...); err == nil {
				t.Errorf("run %v: expected error", tt.args)
			}
		})
	}
}

func TestInteractive(t *testing.T) {
	addr := startServer(t)

	got, err := runCLI(t, addr, "SET greeting \"hello world\"\nGET greeting\nexit\n")
	if err != nil {
		t.Fatalf("interactive error = %v", err)
	}
	prompt := addr + "> "
	want := prompt + "OK\n" + prompt + "\"hello world\"\n" + prompt
	if got != want {
		t.Errorf("interactive output = %q, want %q", got, want)
	}
}

// Lines with several commands or none keep the session in step.
func TestInteractive_MultiCommandLines(t *testing.T) {
	addr := startServer(t)

	got, err := runCLI(t, addr, "PING PING\nFOO\nSET a b GET a\nECHO hi\nexit\n")
	if err != nil {
		t.Fatalf("interactive error = %v", err)
	}
	prompt := addr + "> "
	want := prompt + "PONG\nPONG\n" +
		prompt + "(error) connection: no command\n" +
		prompt + "OK\n\"b\"\n" +
		prompt + "\"hi\"\n" +
		prompt
	if got != want {
		t.Errorf("interactive output = %q, want %q", got, want)
	}
}

func TestConnectionRefused(t *testing.T) {
	if _, err := runCLI(t, "127.0.0.1:1", "", "-t", "200ms", "ping"); err == nil {
		t.Error("ping against a closed port should fail")
	}
}
