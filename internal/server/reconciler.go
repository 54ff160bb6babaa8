// Package server reconciles the multiplexer server process: it guarantees
// the tmux control socket is answering before any session reconciliation
// runs, preferring the OS service manager when a unit is registered and
// falling back to a direct server start otherwise.
package server

import (
	"context"
	"time"

	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
)

// unreachableHint is shown to the operator when every start attempt failed.
const unreachableHint = "check that tmux is installed and the socket directory is writable"

// ControlSurface is the subset of multiplexer operations the server
// reconciler needs.
type ControlSurface interface {
	// ServerAlive reports whether the server's control socket answers.
	ServerAlive(ctx context.Context) bool
	// StartServer starts a detached server process. Idempotent.
	StartServer(ctx context.Context) error
	// KillServer terminates the server and all of its sessions.
	KillServer(ctx context.Context) error
}

// ServiceManager is the optional OS-level supervisor for the unit hosting
// the server. A nil ServiceManager means direct control only.
type ServiceManager interface {
	// Registered reports whether the unit is known to the service manager.
	Registered(ctx context.Context) bool
	// Restart restarts the unit.
	Restart(ctx context.Context) error
	// Settle is how long to wait after Restart before probing the server.
	Settle() time.Duration
}

// Reconciler ensures the tmux server is reachable. All waiting is plain
// bounded sleeping; reconciliation is inherently sequential.
type Reconciler struct {
	surface ControlSurface
	svc     ServiceManager
	policy  Policy
	log     *logging.Logger

	// sleep is swapped for a recording fake in tests. It must return early
	// when the context is canceled.
	sleep func(ctx context.Context, d time.Duration)
}

// NewReconciler creates a Reconciler. svc may be nil when no service manager
// integration is configured.
func NewReconciler(surface ControlSurface, svc ServiceManager, policy Policy, log *logging.Logger) *Reconciler {
	return &Reconciler{
		surface: surface,
		svc:     svc,
		policy:  policy,
		log:     log.WithComponent("server"),
		sleep:   sleepContext,
	}
}

// EnsureRunning guarantees the server is reachable, starting it if needed.
// Idempotent: an already-running server returns immediately with no
// mutating calls. Exhausting the retry policy returns an unreachable
// ServerError, which is fatal for the invocation.
func (r *Reconciler) EnsureRunning(ctx context.Context) error {
	if r.surface.ServerAlive(ctx) {
		r.log.Debug("server already up")
		return nil
	}

	if err := r.startPreferringService(ctx); err != nil {
		return err
	}
	return r.awaitReady(ctx)
}

// Restart restarts the server: through the service manager when the unit is
// registered, else a direct kill and re-ensure. Safe to re-invoke; a
// half-started server is simply started again.
func (r *Reconciler) Restart(ctx context.Context) error {
	if r.svc != nil && r.svc.Registered(ctx) {
		if err := r.svc.Restart(ctx); err != nil {
			return err
		}
		r.sleep(ctx, r.svc.Settle())
		return r.awaitReady(ctx)
	}

	r.log.Info("no service unit registered, restarting server directly")
	_ = r.surface.KillServer(ctx)
	if err := r.surface.StartServer(ctx); err != nil {
		return err
	}
	return r.awaitReady(ctx)
}

// startPreferringService issues a start through the service manager when the
// unit is registered, falling back to a direct start. Service failures are
// recovered here; only a failed direct start propagates.
func (r *Reconciler) startPreferringService(ctx context.Context) error {
	if r.svc != nil && r.svc.Registered(ctx) {
		r.log.Info("starting server via service unit")
		if err := r.svc.Restart(ctx); err == nil {
			// The manager reports success before the server binds its
			// control socket; give it the settling period.
			r.sleep(ctx, r.svc.Settle())
			return nil
		} else {
			r.log.Debug("service restart failed, falling back to direct start", "err", err)
		}
	}

	r.log.Info("starting server directly")
	return r.surface.StartServer(ctx)
}

// awaitReady polls server liveness under the bounded retry policy. Startup
// is asynchronous, so a single probe right after the start command would
// race the server's socket bind.
func (r *Reconciler) awaitReady(ctx context.Context) error {
	attempts := 0
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		attempts = attempt
		if r.surface.ServerAlive(ctx) {
			r.log.Debug("server up", "attempt", attempt)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return errors.NewServerError("canceled while waiting for server", err).WithAttempts(attempt)
		}
		if attempt < r.policy.MaxAttempts {
			r.sleep(ctx, r.policy.Delay(attempt))
		}
	}

	return errors.NewServerError("server did not come up", errors.ErrUnreachable).
		WithAttempts(attempts).
		WithHint(unreachableHint)
}

// sleepContext is a plain timed wait that returns early on cancellation so
// an external signal can abort mid-retry.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
