// Package session reconciles the designated work session. The reconciler
// walks a fixed recovery ladder until the session exists: already present,
// restored from snapshot, materialized from a template, or a bare create as
// the last resort. Only the final tier failing is fatal, so a reachable
// server never ends an ensure invocation with zero sessions.
package session

import (
	"context"

	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
)

// ControlSurface is the subset of multiplexer operations the session
// reconciler needs. The server must already be reachable when Ensure runs.
type ControlSurface interface {
	// HasSession reports whether a session with exactly the given name exists.
	HasSession(ctx context.Context, name string) bool
	// NewSession creates a bare detached session. Returns ErrSessionExists
	// when the name is already taken.
	NewSession(ctx context.Context, name string) error
}

// Restorer rebuilds the session from its persisted snapshot. Recoverable
// failures (no snapshot, no serializer, restore error) let the ladder
// continue.
type Restorer interface {
	Restore(ctx context.Context, session string) error
}

// Templater materializes a fresh session from a configured layout.
type Templater interface {
	Configured() bool
	Materialize(ctx context.Context, session string) error
}

// Reconciler drives the recovery ladder for one named session.
type Reconciler struct {
	name      string
	surface   ControlSurface
	restorer  Restorer
	templater Templater
	log       *logging.Logger
}

// NewReconciler creates a Reconciler for the named session. restorer and
// templater may be nil, which skips their tiers.
func NewReconciler(name string, surface ControlSurface, restorer Restorer, templater Templater, log *logging.Logger) *Reconciler {
	return &Reconciler{
		name:      name,
		surface:   surface,
		restorer:  restorer,
		templater: templater,
		log:       log.WithSession(name),
	}
}

// Name returns the designated session name.
func (r *Reconciler) Name() string {
	return r.name
}

// Ensure guarantees the designated session exists, walking the recovery
// ladder top down. Idempotent: an existing session is left completely
// untouched. The returned Result reports which tier produced the session;
// err is non-nil only when every tier failed.
func (r *Reconciler) Ensure(ctx context.Context) (Result, error) {
	result := Result{Session: r.name}

	if r.surface.HasSession(ctx, r.name) {
		r.log.Debug("session present, nothing to do")
		result.Outcome = OutcomeSatisfied
		return result, nil
	}

	if r.tryRestore(ctx) {
		result.Outcome = OutcomeRestored
		return result, nil
	}

	if r.tryTemplate(ctx) {
		result.Outcome = OutcomeCreatedFresh
		return result, nil
	}

	if err := r.surface.NewSession(ctx, r.name); err != nil {
		if errors.Is(err, errors.ErrSessionExists) {
			// Another invocation won the race; the goal state holds.
			r.log.Debug("session appeared concurrently")
			result.Outcome = OutcomeSatisfied
			return result, nil
		}
		result.Outcome = OutcomeFailed
		return result, errors.NewSessionError("all recovery tiers failed", err).WithSession(r.name)
	}

	r.log.Info("created bare session")
	result.Outcome = OutcomeCreatedBasic
	return result, nil
}

// tryRestore attempts the snapshot tier. Every restore failure is treated
// as a fall-through; the document is never the only path to a session.
func (r *Reconciler) tryRestore(ctx context.Context) bool {
	if r.restorer == nil {
		return false
	}

	if err := r.restorer.Restore(ctx, r.name); err != nil {
		if errors.Is(err, errors.ErrSnapshotAbsent) {
			// Expected on first run; not worth a warning.
			r.log.Debug("no snapshot to restore")
		} else {
			r.log.Warn("snapshot restore failed, falling through", "err", err)
		}
		return false
	}

	// Trust but verify: a serializer can exit zero without actually
	// producing the session, e.g. when the document names a different one.
	if !r.surface.HasSession(ctx, r.name) {
		r.log.Warn("restore reported success but session is absent, falling through")
		return false
	}

	r.log.Info("session restored from snapshot")
	return true
}

// tryTemplate attempts the template tier.
func (r *Reconciler) tryTemplate(ctx context.Context) bool {
	if r.templater == nil || !r.templater.Configured() {
		return false
	}

	if err := r.templater.Materialize(ctx, r.name); err != nil {
		r.log.Warn("template materialization failed, falling through", "err", err)
		return false
	}

	if !r.surface.HasSession(ctx, r.name) {
		r.log.Warn("template tool reported success but session is absent, falling through")
		return false
	}

	r.log.Info("session created from template")
	return true
}
