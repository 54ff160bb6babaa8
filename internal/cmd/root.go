// Package cmd is the front controller: it resolves the raw argument list
// into exactly one mode, wires the reconcilers from configuration and maps
// failures to process exit codes.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muxkeep/muxkeep/internal/config"
	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "muxkeep [mode] [tmux arguments]",
	Short: "Keep a tmux server and its work session always available",
	Long: `Muxkeep supervises one designated tmux session: invoking it guarantees
the tmux server is running and the session exists, restoring it from a
saved snapshot when possible, and then attaches. Arguments muxkeep does
not recognize are forwarded to tmux verbatim with the exit code
propagated unchanged.

Modes:
  (none)        ensure server and session, then attach
  status        print server, session, snapshot and service state
  --restart     restart the server, then re-ensure the session
  --save        snapshot the session
  --ensure      reconcile without attaching
  --watch       continuous reconciliation with a live dashboard`,
	// The argument list is parsed once into a tagged mode so unknown tmux
	// flags pass through untouched; cobra's own flag parsing would reject
	// them.
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE:               runRoot,
}

// Execute runs the root command, printing unrecoverable failures for the
// operator. Exit codes are mapped by ExitCode in main.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "muxkeep: %v\n", err)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(config.ConfigDir())
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MUXKEEP")
	// Replace dots with underscores for nested keys in env vars
	// e.g., MUXKEEP_SESSION_NAME for session.name
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

func runRoot(cmd *cobra.Command, args []string) error {
	inv := ParseInvocation(args)
	if inv.Mode == ModeHelp {
		return cmd.Help()
	}

	if inv.ConfigFile != "" {
		viper.SetConfigFile(inv.ConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("cannot read config file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, inv)
	if err != nil {
		return err
	}
	defer log.Close()

	// An interrupt aborts mid-retry cleanly; every reconciliation step is
	// idempotent, so a killed invocation is safe to re-run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, log)

	switch inv.Mode {
	case ModeStatus:
		return app.Status(ctx)
	case ModeRestart:
		return app.Restart(ctx)
	case ModeSave:
		return app.Save(ctx)
	case ModeEnsure:
		result, err := app.Ensure(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", result.Session, result.Outcome)
		return nil
	case ModeWatch:
		return app.Watch(ctx, inv.SaveEvery)
	case ModePassthrough:
		return app.Passthrough(ctx, inv.Passthrough)
	default:
		return app.Default(ctx)
	}
}

// newLogger builds the invocation logger. Watch mode logs to a file so
// records don't tear the dashboard; everything else goes to stderr.
func newLogger(cfg *config.Config, inv Invocation) (*logging.Logger, error) {
	verbosity := cfg.Logging.Verbosity + inv.Verbosity

	if inv.Mode == ModeWatch {
		dir := cfg.Logging.Dir
		if dir == "" {
			dir = config.ConfigDir()
		}
		return logging.NewFileLogger(dir, verbosity)
	}
	return logging.New(verbosity), nil
}
