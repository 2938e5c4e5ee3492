package repl

import "strings"

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"PING [message]",
			"ECHO message",
			"GET key",
			"SET key value [EX seconds|PX milliseconds]",
			"help", "exit", "quit",
		},
	}
}

// Complete returns the entries starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToLower(cmd), prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
