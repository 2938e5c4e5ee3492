package config

import "time"

// CLIConfig is the configuration for redikv-cli.
type CLIConfig struct {
	// Server is the default server address (host:port).
	Server string `koanf:"server"`
	// Output is the reply format: raw or json.
	Output string `koanf:"output"`
	// Timeout bounds dialing and each command round trip.
	Timeout time.Duration `koanf:"timeout"`
	// History is the REPL history file. Empty disables persistence.
	History string `koanf:"history"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "127.0.0.1:6379",
		Output:  "raw",
		Timeout: 5 * time.Second,
		History: defaultPath("history"),
	}
}
