package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server != "127.0.0.1:6379" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Output != "raw" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "server: 10.0.0.1:7000\noutput: json\ntimeout: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server != "10.0.0.1:7000" || cfg.Output != "json" || cfg.Timeout != 2*time.Second {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.History != Default().History {
		t.Errorf("History = %q, want default", cfg.History)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REDIKV_CLI_SERVER", "127.0.0.1:6380")
	t.Setenv("REDIKV_CLI_TIMEOUT", "250ms")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server != "127.0.0.1:6380" {
		t.Errorf("Server = %q, want env value", cfg.Server)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", cfg.Timeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// The default file is optional.
	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") error = %v", err)
	}

	// An explicit file is not.
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing explicit file should fail")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got, want := DefaultConfigPath(), filepath.Join(home, ".redikv", "cli.yaml"); got != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
	}
}
