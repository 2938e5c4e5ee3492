package command

import (
	"errors"

	"github.com/urfave/cli/v2"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check the server is alive",
		ArgsUsage: "[message]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return errors.New("ping takes at most one argument")
			}
			if c.NArg() == 1 {
				return run(c, "PING", c.Args().First())
			}
			return run(c, "PING")
		},
	}
}

// EchoCommand returns the echo command.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Have the server repeat a message",
		ArgsUsage: "<message>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("echo requires exactly one argument")
			}
			return run(c, "ECHO", c.Args().First())
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("get requires exactly one argument")
			}
			return run(c, "GET", c.Args().First())
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set the value of a key, optionally with a TTL",
		ArgsUsage: "<key> <value>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ex",
				Usage: "expire after `SECONDS`",
			},
			&cli.StringFlag{
				Name:  "px",
				Usage: "expire after `MILLISECONDS`",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("set requires <key> and <value>")
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			switch {
			case c.IsSet("ex") && c.IsSet("px"):
				return errors.New("--ex and --px are mutually exclusive")
			case c.IsSet("ex"):
				args = append(args, "EX", c.String("ex"))
			case c.IsSet("px"):
				args = append(args, "PX", c.String("px"))
			}
			return run(c, args...)
		},
	}
}
