// Package command defines the redikv-cli application.
//
// Single commands run as subcommands (redikv-cli set --px 500 k v); with no
// subcommand the tool starts an interactive prompt. Replies are printed in
// redis-cli form or as JSON (-o json).
package command
