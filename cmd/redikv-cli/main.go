// Package main provides the entry point for redikv-cli.
//
// redikv-cli sends single commands to a redikv server or, without a
// subcommand, opens an interactive prompt.
package main

import (
	"errors"
	"os"

	"github.com/yndnr/redikv/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		// The error reply has already been printed.
		if !errors.Is(err, command.ErrReply) {
			command.PrintError("%v", err)
		}
		os.Exit(1)
	}
}
