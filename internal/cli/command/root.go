package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redikv/internal/cli/config"
	"github.com/yndnr/redikv/internal/cli/connection"
	"github.com/yndnr/redikv/internal/cli/output"
	"github.com/yndnr/redikv/internal/cli/repl"
	"github.com/yndnr/redikv/internal/infra/buildinfo"
	"github.com/yndnr/redikv/pkg/resp"
)

const sessionKey = "session"

// defaultTimeout is used when the config leaves Timeout at zero.
const defaultTimeout = 5 * time.Second

// ErrReply is returned when the server answers with an error reply. The reply
// itself has already been printed.
var ErrReply = errors.New("server returned an error")

// Session is the per-invocation state shared by all commands.
type Session struct {
	Config    *config.CLIConfig
	Client    *connection.Client
	Formatter output.Formatter
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "redikv-cli",
		Usage:     "command-line client for redikv",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Metadata:  map[string]any{},
		ArgsUsage: " ",
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			GetCommand(),
			SetCommand(),
		},
		Before: setup,
		After:  teardown,
		Action: interactive,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address (default from config, 127.0.0.1:6379)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: raw, json",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "dial and command timeout",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default ~/.redikv/cli.yaml)",
		},
	}
}

// setup loads the config, applies flag overrides and creates the session.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	c.App.Metadata[sessionKey] = &Session{
		Config:    cfg,
		Client:    connection.NewClient(cfg.Server, connection.WithTimeout(cfg.Timeout)),
		Formatter: output.NewFormatter(format),
	}
	return nil
}

func teardown(c *cli.Context) error {
	if s := GetSession(c); s != nil {
		return s.Client.Close()
	}
	return nil
}

// GetSession retrieves the session from context.
func GetSession(c *cli.Context) *Session {
	if s, ok := c.App.Metadata[sessionKey].(*Session); ok {
		return s
	}
	return nil
}

// run sends one command and prints the reply.
func run(c *cli.Context, args ...string) error {
	s := GetSession(c)
	if s == nil {
		return errors.New("session not initialised")
	}

	ctx, cancel := context.WithTimeout(c.Context, s.Config.Timeout)
	defer cancel()

	v, err := s.Client.Do(ctx, args...)
	if err != nil {
		return err
	}
	if err := s.Formatter.Format(c.App.Writer, v); err != nil {
		return err
	}
	if v.Kind == resp.KindError {
		return ErrReply
	}
	return nil
}

// interactive starts the prompt.
func interactive(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}
	s := GetSession(c)
	if s == nil {
		return errors.New("session not initialised")
	}

	exec := func(ctx context.Context, args []string) ([]resp.Value, error) {
		ctx, cancel := context.WithTimeout(ctx, s.Config.Timeout)
		defer cancel()
		return s.Client.DoLine(ctx, args...)
	}

	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}
	r := repl.New(exec,
		repl.WithIO(in, c.App.Writer),
		repl.WithPrompt(s.Config.Server+"> "),
		repl.WithFormatter(s.Formatter),
		repl.WithHistory(repl.NewHistoryFile(s.Config.History)),
	)
	return r.Run(c.Context)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
