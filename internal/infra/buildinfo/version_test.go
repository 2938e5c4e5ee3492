package buildinfo

import (
	"bytes"
	"log/slog"
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s field should not be empty", tt.name)
			}
		})
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestString(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	s := String()
	if !strings.HasPrefix(s, "v9.9.9 (") {
		t.Errorf("String() = %q, want version prefix", s)
	}
	if !strings.Contains(s, "built at "+BuildTime) {
		t.Errorf("String() = %q, missing build time", s)
	}
}

func TestInfo_LogValue(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	l.Info("starting", "build", Get())

	out := buf.String()
	for _, want := range []string{"build.version=", "build.commit=", "build.go_version="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
