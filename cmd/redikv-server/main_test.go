package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redikv/internal/infra/shutdown"
)

// captureOverrides runs the app with a stub action and returns the
// overrides built from args.
func captureOverrides(t *testing.T, args ...string) map[string]any {
	t.Helper()
	app := newApp()
	var got map[string]any
	app.Action = func(c *cli.Context) error {
		got = overrides(c)
		return nil
	}
	if err := app.Run(append([]string{"redikv-server"}, args...)); err != nil {
		t.Fatalf("Run(%v) error = %v", args, err)
	}
	return got
}

func TestOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]any
	}{
		{"none", nil, map[string]any{}},
		{"port and max-conn", []string{"-p", "7000", "-m", "5"}, map[string]any{
			"server.port":            7000,
			"server.max_connections": 5,
		}},
		{"long names", []string{"--host", "0.0.0.0", "--log-level", "debug"}, map[string]any{
			"server.host": "0.0.0.0",
			"log.level":   "debug",
		}},
		{"metrics", []string{"--metrics-addr", "127.0.0.1:9999"}, map[string]any{
			"metrics.enabled": true,
			"metrics.addr":    "127.0.0.1:9999",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := captureOverrides(t, tt.args...); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("overrides = %v, want %v", got, tt.want)
			}
		})
	}
}

// Flags beat the environment, which beats the file.
func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redikv.yaml")
	content := "server:\n  port: 7001\n  max_connections: 7\nlog:\n  level: warn\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REDIKV_SERVER_MAX_CONNECTIONS", "8")

	app := newApp()
	app.Action = func(c *cli.Context) error {
		cfg, loader, err := loadConfig(c)
		if err != nil {
			return err
		}
		if loader.FilePath() != path {
			t.Errorf("FilePath() = %q, want %q", loader.FilePath(), path)
		}
		if cfg.Server.Port != 7002 {
			t.Errorf("Port = %d, want flag value 7002", cfg.Server.Port)
		}
		if cfg.Server.MaxConnections != 8 {
			t.Errorf("MaxConnections = %d, want env value 8", cfg.Server.MaxConnections)
		}
		if cfg.Log.Level != "warn" {
			t.Errorf("Log.Level = %q, want file value warn", cfg.Log.Level)
		}
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("Host = %q, want default", cfg.Server.Host)
		}
		return nil
	}
	if err := app.Run([]string{"redikv-server", "-c", path, "-p", "7002"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRun_StartupFailure(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"port out of range", []string{"--port", "70000"}},
		{"zero connections", []string{"--max-conn", "0"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"missing config file", []string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(append([]string{"redikv-server"}, tt.args...)); code != shutdown.ExitError {
				t.Errorf("run(%v) = %d, want %d", tt.args, code, shutdown.ExitError)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	if code := run([]string{"redikv-server", "--version"}); code != shutdown.ExitOK {
		t.Errorf("run(--version) = %d, want %d", code, shutdown.ExitOK)
	}
}
