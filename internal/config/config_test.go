package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Session.Name != "main" {
		t.Errorf("Session.Name = %q, want %q", cfg.Session.Name, "main")
	}
	if cfg.Tmux.Socket != "" {
		t.Errorf("Tmux.Socket = %q, want empty (default server)", cfg.Tmux.Socket)
	}
	if cfg.Server.MaxAttempts != 5 {
		t.Errorf("Server.MaxAttempts = %d, want 5", cfg.Server.MaxAttempts)
	}
	if cfg.Service.Unit != "muxkeep.service" {
		t.Errorf("Service.Unit = %q, want %q", cfg.Service.Unit, "muxkeep.service")
	}
	if !cfg.Service.User {
		t.Error("Service.User should default to true")
	}
	if cfg.Logging.Verbosity != 0 {
		t.Errorf("Logging.Verbosity = %d, want 0", cfg.Logging.Verbosity)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config should validate cleanly, got: %v", ValidationErrors(errs))
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()

	if got := cfg.Service.Settle(); got != 3*time.Second {
		t.Errorf("Settle() = %v, want 3s", got)
	}
	if got := cfg.Server.RetryDelay(); got != 400*time.Millisecond {
		t.Errorf("RetryDelay() = %v, want 400ms", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	s := SnapshotConfig{}
	want := filepath.Join("/data", "muxkeep", "snapshots")
	if got := s.ResolveDir(); got != want {
		t.Errorf("ResolveDir() = %q, want %q", got, want)
	}
}

func TestResolveDirExplicit(t *testing.T) {
	s := SnapshotConfig{Dir: "/var/lib/muxkeep"}
	if got := s.ResolveDir(); got != "/var/lib/muxkeep" {
		t.Errorf("ResolveDir() = %q, want %q", got, "/var/lib/muxkeep")
	}
}

func TestResolveDirTildeExpansion(t *testing.T) {
	s := SnapshotConfig{Dir: "~/snapshots"}
	got := s.ResolveDir()
	if got == "~/snapshots" {
		t.Error("ResolveDir() should expand leading ~")
	}
	if filepath.Base(got) != "snapshots" {
		t.Errorf("ResolveDir() = %q, want path ending in snapshots", got)
	}
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg-config")

	want := filepath.Join("/xdg-config", "muxkeep")
	if got := ConfigDir(); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
	if got := ConfigFile(); got != filepath.Join(want, "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}
