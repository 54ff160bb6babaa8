package session

import (
	"context"
	"testing"

	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
)

// fakeSurface is an in-memory session table. Restores and template runs
// mutate it through the sibling fakes so post-tier verification sees the
// same state a real server would show.
type fakeSurface struct {
	sessions  map[string]bool
	creates   int
	createErr error
}

func newFakeSurface(existing ...string) *fakeSurface {
	s := &fakeSurface{sessions: map[string]bool{}}
	for _, name := range existing {
		s.sessions[name] = true
	}
	return s
}

func (f *fakeSurface) HasSession(ctx context.Context, name string) bool {
	return f.sessions[name]
}

func (f *fakeSurface) NewSession(ctx context.Context, name string) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if f.sessions[name] {
		return errors.ErrSessionExists
	}
	f.sessions[name] = true
	return nil
}

// fakeRestorer scripts the snapshot tier.
type fakeRestorer struct {
	surface *fakeSurface
	err     error
	// ghost makes Restore report success without creating the session.
	ghost bool
	calls int
}

func (f *fakeRestorer) Restore(ctx context.Context, session string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if !f.ghost {
		f.surface.sessions[session] = true
	}
	return nil
}

// fakeTemplater scripts the template tier.
type fakeTemplater struct {
	surface    *fakeSurface
	configured bool
	err        error
	calls      int
}

func (f *fakeTemplater) Configured() bool { return f.configured }

func (f *fakeTemplater) Materialize(ctx context.Context, session string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.surface.sessions[session] = true
	return nil
}

func TestEnsureSatisfiedIsReadOnly(t *testing.T) {
	surface := newFakeSurface("main")
	restorer := &fakeRestorer{surface: surface}
	templater := &fakeTemplater{surface: surface, configured: true}
	r := NewReconciler("main", surface, restorer, templater, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if result.Outcome != OutcomeSatisfied {
		t.Errorf("Outcome = %v, want OutcomeSatisfied", result.Outcome)
	}
	if restorer.calls != 0 || templater.calls != 0 || surface.creates != 0 {
		t.Error("an existing session must not trigger any mutating tier")
	}
}

func TestEnsureIdempotent(t *testing.T) {
	surface := newFakeSurface()
	r := NewReconciler("main", surface, nil, nil, logging.Nop())

	first, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("first Ensure failed: %v", err)
	}
	if first.Outcome != OutcomeCreatedBasic {
		t.Errorf("first Outcome = %v, want OutcomeCreatedBasic", first.Outcome)
	}

	second, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if second.Outcome != OutcomeSatisfied {
		t.Errorf("second Outcome = %v, want OutcomeSatisfied", second.Outcome)
	}
	if surface.creates != 1 {
		t.Errorf("creates = %d, want exactly 1 across both runs", surface.creates)
	}
}

func TestEnsureRestorePrecedesCreation(t *testing.T) {
	surface := newFakeSurface()
	restorer := &fakeRestorer{surface: surface}
	templater := &fakeTemplater{surface: surface, configured: true}
	r := NewReconciler("main", surface, restorer, templater, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if result.Outcome != OutcomeRestored {
		t.Errorf("Outcome = %v, want OutcomeRestored", result.Outcome)
	}
	if templater.calls != 0 || surface.creates != 0 {
		t.Error("a successful restore must preempt every creation tier")
	}
}

func TestEnsureFallsThroughAbsentSnapshot(t *testing.T) {
	surface := newFakeSurface()
	restorer := &fakeRestorer{
		surface: surface,
		err:     errors.NewSnapshotError("no snapshot on disk", errors.ErrSnapshotAbsent),
	}
	templater := &fakeTemplater{surface: surface, configured: true}
	r := NewReconciler("main", surface, restorer, templater, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if result.Outcome != OutcomeCreatedFresh {
		t.Errorf("Outcome = %v, want OutcomeCreatedFresh", result.Outcome)
	}
}

func TestEnsureFallsThroughFailedRestore(t *testing.T) {
	surface := newFakeSurface()
	restorer := &fakeRestorer{
		surface: surface,
		err:     errors.NewSnapshotError("restore command failed", errors.ErrRestoreFailed),
	}
	r := NewReconciler("main", surface, restorer, nil, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("failed restore must not fail the invocation: %v", err)
	}
	if result.Outcome != OutcomeCreatedBasic {
		t.Errorf("Outcome = %v, want OutcomeCreatedBasic", result.Outcome)
	}
	if !surface.sessions["main"] {
		t.Error("the session must exist after Ensure")
	}
}

func TestEnsureVerifiesRestoreActuallyProducedSession(t *testing.T) {
	surface := newFakeSurface()
	restorer := &fakeRestorer{surface: surface, ghost: true}
	r := NewReconciler("main", surface, restorer, nil, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if result.Outcome != OutcomeCreatedBasic {
		t.Errorf("Outcome = %v, want fall-through to OutcomeCreatedBasic", result.Outcome)
	}
	if !surface.sessions["main"] {
		t.Error("the session must exist after Ensure")
	}
}

func TestEnsureFallsThroughFailedTemplate(t *testing.T) {
	surface := newFakeSurface()
	templater := &fakeTemplater{
		surface:    surface,
		configured: true,
		err:        errors.New("template exited 2"),
	}
	r := NewReconciler("main", surface, nil, templater, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("failed template must not fail the invocation: %v", err)
	}
	if result.Outcome != OutcomeCreatedBasic {
		t.Errorf("Outcome = %v, want OutcomeCreatedBasic", result.Outcome)
	}
}

func TestEnsureSkipsUnconfiguredTemplate(t *testing.T) {
	surface := newFakeSurface()
	templater := &fakeTemplater{surface: surface, configured: false}
	r := NewReconciler("main", surface, nil, templater, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if templater.calls != 0 {
		t.Error("an unconfigured templater must not run")
	}
	if result.Outcome != OutcomeCreatedBasic {
		t.Errorf("Outcome = %v, want OutcomeCreatedBasic", result.Outcome)
	}
}

func TestEnsureConcurrentWinnerIsSatisfied(t *testing.T) {
	surface := newFakeSurface()
	surface.createErr = errors.ErrSessionExists
	r := NewReconciler("main", surface, nil, nil, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err != nil {
		t.Fatalf("losing a create race must not fail: %v", err)
	}
	if result.Outcome != OutcomeSatisfied {
		t.Errorf("Outcome = %v, want OutcomeSatisfied", result.Outcome)
	}
}

func TestEnsureAllTiersFailed(t *testing.T) {
	surface := newFakeSurface()
	surface.createErr = errors.NewSessionError("server refused", nil)
	r := NewReconciler("main", surface, nil, nil, logging.Nop())

	result, err := r.Ensure(context.Background())
	if err == nil {
		t.Fatal("a failed bare create must fail the invocation")
	}
	if result.Outcome != OutcomeFailed {
		t.Errorf("Outcome = %v, want OutcomeFailed", result.Outcome)
	}

	var sessErr *errors.SessionError
	if !errors.As(err, &sessErr) {
		t.Fatalf("error should be a SessionError: %v", err)
	}
	if sessErr.Session != "main" {
		t.Errorf("Session = %q, want %q", sessErr.Session, "main")
	}
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		OutcomeSatisfied:    "already running",
		OutcomeRestored:     "restored from snapshot",
		OutcomeCreatedFresh: "created from template",
		OutcomeCreatedBasic: "created fresh",
		OutcomeFailed:       "failed",
	}
	for outcome, want := range cases {
		if got := outcome.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", outcome, got, want)
		}
	}
}
