package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yndnr/redikv/internal/infra/confloader"
)

// EnvPrefix is the environment variable prefix for CLI settings.
const EnvPrefix = "REDIKV_CLI_"

func defaultPath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".redikv", name)
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return defaultPath("cli.yaml")
}

// Load reads the configuration. With an empty path the default file is used
// if it exists; an explicit path must exist.
func Load(path string) (*CLIConfig, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	opts := []confloader.Option{confloader.WithEnvPrefix(EnvPrefix)}
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			opts = append(opts, confloader.WithConfigFile(path))
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("cli config: %w", err)
		}
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("cli config: %w", err)
	}
	return cfg, nil
}
