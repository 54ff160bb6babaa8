package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/muxkeep/muxkeep/internal/config"
	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
	"github.com/muxkeep/muxkeep/internal/server"
	"github.com/muxkeep/muxkeep/internal/service"
	"github.com/muxkeep/muxkeep/internal/session"
	"github.com/muxkeep/muxkeep/internal/snapshot"
	"github.com/muxkeep/muxkeep/internal/tmux"
)

// App wires the reconcilers, the snapshot manager and the service controller
// around one tmux client. One App serves one invocation.
type App struct {
	cfg      *config.Config
	log      *logging.Logger
	client   *tmux.Client
	svc      *service.Controller
	srv      *server.Reconciler
	sess     *session.Reconciler
	snapshot *snapshot.Manager
}

// NewApp builds the full wiring from configuration.
func NewApp(cfg *config.Config, log *logging.Logger) *App {
	client := tmux.NewClient(cfg.Tmux.Socket)
	svc := service.NewController(cfg.Service.Unit, cfg.Service.User, cfg.Service.Settle(), log)
	snap := snapshot.NewManager(cfg.Snapshot, client, log)

	policy := server.FixedPolicy(cfg.Server.MaxAttempts, cfg.Server.RetryDelay())
	srv := server.NewReconciler(client, svc, policy, log)

	templater := session.NewTemplateRunner(cfg.Session, log)
	sess := session.NewReconciler(cfg.Session.Name, client, &restoreAdapter{snap}, templater, log)

	return &App{
		cfg:      cfg,
		log:      log,
		client:   client,
		svc:      svc,
		srv:      srv,
		sess:     sess,
		snapshot: snap,
	}
}

// restoreAdapter narrows the snapshot manager to the session reconciler's
// Restorer interface.
type restoreAdapter struct {
	m *snapshot.Manager
}

func (a *restoreAdapter) Restore(ctx context.Context, name string) error {
	return a.m.Restore(ctx, name)
}

// Ensure guarantees server and session exist, without attaching.
func (a *App) Ensure(ctx context.Context) (session.Result, error) {
	if err := a.srv.EnsureRunning(ctx); err != nil {
		return session.Result{Session: a.cfg.Session.Name, Outcome: session.OutcomeFailed}, err
	}
	return a.sess.Ensure(ctx)
}

// Default is the attach-or-create flow: reconcile, then hand the terminal
// to the session. A failed attach gets one last-resort bare create before
// giving up, so a racing kill between ensure and attach is absorbed.
func (a *App) Default(ctx context.Context) error {
	result, err := a.Ensure(ctx)
	if err != nil {
		return err
	}
	a.log.Debug("reconciled before attach", "outcome", result.Outcome.String())

	if err := a.client.Attach(a.cfg.Session.Name); err == nil {
		return nil
	}

	a.log.Warn("attach failed, recreating session once")
	if err := a.client.NewSession(ctx, a.cfg.Session.Name); err != nil && !errors.Is(err, errors.ErrSessionExists) {
		return err
	}
	return a.client.Attach(a.cfg.Session.Name)
}

// Restart restarts the server, then re-ensures the session so a restart
// never strands the operator with an empty server. On the direct path the
// session's pane processes get a graceful stop before the server dies.
func (a *App) Restart(ctx context.Context) error {
	if !a.svc.Registered(ctx) && a.client.ServerAlive(ctx) {
		a.client.ShutdownServer(a.cfg.Session.Name, tmux.DefaultGracefulStopTimeout)
	}

	if err := a.srv.Restart(ctx); err != nil {
		return err
	}
	_, err := a.sess.Ensure(ctx)
	return err
}

// Save snapshots the designated session.
func (a *App) Save(ctx context.Context) error {
	if err := a.snapshot.Save(ctx, a.cfg.Session.Name); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", a.snapshot.Path(a.cfg.Session.Name))
	return nil
}

// Status prints the diagnostic report. Always succeeds: status is
// read-only and a down server is a valid answer, not an error.
func (a *App) Status(ctx context.Context) error {
	name := a.cfg.Session.Name

	serverState := "down"
	sessionState := "absent"
	if a.client.ServerAlive(ctx) {
		serverState = "up"
		if a.client.HasSession(ctx, name) {
			sessionState = "present"
		}
	}

	socket := a.client.Socket()
	if socket == "" {
		socket = "default"
	}
	if path := tmux.SocketPath(a.client.Socket()); path != "" {
		socket = socket + ", " + path
	}

	fmt.Printf("server:   %s (socket %s)\n", serverState, socket)
	fmt.Printf("session:  %s %s\n", name, sessionState)

	if info, err := a.snapshot.Latest(name); err == nil {
		fmt.Printf("snapshot: %s (age %s)\n", info.Path, formatAge(info.Age()))
	} else {
		fmt.Printf("snapshot: none (%s)\n", a.snapshot.Dir())
	}

	fmt.Printf("service:  %s\n", a.svc.Status(ctx))
	return nil
}

// Passthrough forwards the arguments to tmux verbatim and surfaces the
// child's exit code through an ExitError.
func (a *App) Passthrough(ctx context.Context, args []string) error {
	code, err := a.client.Passthrough(ctx, args)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// formatAge renders a duration the way an operator reads it: coarse units,
// no sub-second noise.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%02dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}
