package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete muxkeep configuration
type Config struct {
	Session  SessionConfig  `mapstructure:"session"`
	Tmux     TmuxConfig     `mapstructure:"tmux"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Service  ServiceConfig  `mapstructure:"service"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SessionConfig identifies the one designated work session and how a fresh
// copy of it is materialized when no snapshot can be restored
type SessionConfig struct {
	// Name is the target session name, unique within the server (default: "main")
	Name string `mapstructure:"name"`
	// Template is a named layout passed to the template command when creating
	// a fresh session. Empty disables templated creation; the reconciler falls
	// straight through to a basic create.
	Template string `mapstructure:"template"`
	// TemplateCommand is the external tool that materializes a session from a
	// template. Placeholders: {session}, {template}.
	// Example: ["tmuxinator", "start", "{template}", "-n", "{session}", "--no-attach"]
	TemplateCommand []string `mapstructure:"template_command"`
}

// TmuxConfig controls how the tmux control surface is reached
type TmuxConfig struct {
	// Socket is the tmux socket name (-L). Empty uses the default server.
	Socket string `mapstructure:"socket"`
}

// SnapshotConfig controls session snapshot persistence.
// The snapshot document format is owned by the external serializer; muxkeep
// only owns the canonical path convention.
type SnapshotConfig struct {
	// Dir is the snapshot storage directory.
	// Empty defaults to $XDG_DATA_HOME/muxkeep/snapshots.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
	// SaveCommand serializes a live session to the snapshot document.
	// Placeholders: {session}, {file}. Empty disables saving.
	SaveCommand []string `mapstructure:"save_command"`
	// RestoreCommand rebuilds a session from the snapshot document.
	// Placeholders: {session}, {file}. Empty disables restoring.
	RestoreCommand []string `mapstructure:"restore_command"`
}

// ServiceConfig describes the optional systemd unit hosting the tmux server
type ServiceConfig struct {
	// Unit is the service unit name (default: "muxkeep.service")
	Unit string `mapstructure:"unit"`
	// User selects the user service manager (systemctl --user, default: true)
	User bool `mapstructure:"user"`
	// SettleSeconds is how long to wait after a unit restart before probing
	// the server. systemd reports success before tmux binds its socket.
	SettleSeconds int `mapstructure:"settle_seconds"`
}

// ServerConfig controls the bounded retry policy for server startup
type ServerConfig struct {
	// MaxAttempts is the number of liveness probes after issuing a start (default: 5)
	MaxAttempts int `mapstructure:"max_attempts"`
	// RetryDelayMs is the fixed delay between probes in milliseconds (default: 400)
	RetryDelayMs int `mapstructure:"retry_delay_ms"`
}

// LoggingConfig controls diagnostic output volume
type LoggingConfig struct {
	// Verbosity gates diagnostic output: 0 = warnings only, 1 = reconciliation
	// steps, 2+ = every probe and recovered fallback (default: 0)
	Verbosity int `mapstructure:"verbosity"`
	// Dir, when set, redirects logs from stderr to {dir}/muxkeep.log.
	// Watch mode requires this so the dashboard stays readable.
	Dir string `mapstructure:"dir"`
}

// Settle returns the service settling period as a time.Duration
func (c *ServiceConfig) Settle() time.Duration {
	return time.Duration(c.SettleSeconds) * time.Second
}

// RetryDelay returns the probe delay as a time.Duration
func (c *ServerConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// ResolveDir returns the resolved snapshot directory. If Dir is empty it
// falls back to the XDG data directory; a leading ~ expands to the user's
// home directory.
func (s *SnapshotConfig) ResolveDir() string {
	path := s.Dir
	if path == "" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "muxkeep", "snapshots")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".muxkeep", "snapshots")
		}
		return filepath.Join(home, ".local", "share", "muxkeep", "snapshots")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Name:            "main",
			Template:        "",
			TemplateCommand: []string{},
		},
		Tmux: TmuxConfig{
			Socket: "", // default tmux server
		},
		Snapshot: SnapshotConfig{
			Dir:            "", // resolved to XDG data dir
			SaveCommand:    []string{},
			RestoreCommand: []string{},
		},
		Service: ServiceConfig{
			Unit:          "muxkeep.service",
			User:          true,
			SettleSeconds: 3,
		},
		Server: ServerConfig{
			MaxAttempts:  5,
			RetryDelayMs: 400,
		},
		Logging: LoggingConfig{
			Verbosity: 0,
			Dir:       "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("session.name", defaults.Session.Name)
	viper.SetDefault("session.template", defaults.Session.Template)
	viper.SetDefault("session.template_command", defaults.Session.TemplateCommand)

	viper.SetDefault("tmux.socket", defaults.Tmux.Socket)

	viper.SetDefault("snapshot.dir", defaults.Snapshot.Dir)
	viper.SetDefault("snapshot.save_command", defaults.Snapshot.SaveCommand)
	viper.SetDefault("snapshot.restore_command", defaults.Snapshot.RestoreCommand)

	viper.SetDefault("service.unit", defaults.Service.Unit)
	viper.SetDefault("service.user", defaults.Service.User)
	viper.SetDefault("service.settle_seconds", defaults.Service.SettleSeconds)

	viper.SetDefault("server.max_attempts", defaults.Server.MaxAttempts)
	viper.SetDefault("server.retry_delay_ms", defaults.Server.RetryDelayMs)

	viper.SetDefault("logging.verbosity", defaults.Logging.Verbosity)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "muxkeep")
	}
	// Fall back to ~/.config/muxkeep
	home, err := os.UserHomeDir()
	if err != nil {
		return ".muxkeep"
	}
	return filepath.Join(home, ".config", "muxkeep")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
