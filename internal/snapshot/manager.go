// Package snapshot persists and restores session snapshots. The snapshot
// document format is owned by external serializer tools (tmuxp, tmux-
// resurrect and friends); muxkeep owns only the canonical path convention
// and the orchestration around the configured commands.
package snapshot

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/muxkeep/muxkeep/internal/config"
	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
)

// serializerTimeout bounds every external serializer run. Restoring a large
// session spawns real processes, so this is deliberately generous.
const serializerTimeout = 60 * time.Second

// Extension is the suffix of every snapshot document muxkeep manages.
const Extension = ".snapshot"

// ControlSurface is the subset of multiplexer operations save preconditions
// need.
type ControlSurface interface {
	ServerAlive(ctx context.Context) bool
	HasSession(ctx context.Context, name string) bool
}

// Info describes one snapshot document on disk.
type Info struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Age returns how long ago the snapshot was written.
func (i Info) Age() time.Duration {
	return time.Since(i.ModTime)
}

// Manager orchestrates the external serializer commands around the snapshot
// directory.
type Manager struct {
	dir     string
	save    []string
	restore []string
	surface ControlSurface
	log     *logging.Logger
}

// NewManager returns a Manager for the given snapshot configuration.
func NewManager(cfg config.SnapshotConfig, surface ControlSurface, log *logging.Logger) *Manager {
	return &Manager{
		dir:     cfg.ResolveDir(),
		save:    cfg.SaveCommand,
		restore: cfg.RestoreCommand,
		surface: surface,
		log:     log.WithComponent("snapshot"),
	}
}

// Dir returns the resolved snapshot directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the canonical snapshot path for a session:
// <dir>/<session>.snapshot.
func (m *Manager) Path(session string) string {
	return filepath.Join(m.dir, session+Extension)
}

// CanSave reports whether a save serializer command is configured.
func (m *Manager) CanSave() bool {
	return len(m.save) > 0
}

// CanRestore reports whether a restore serializer command is configured.
func (m *Manager) CanRestore() bool {
	return len(m.restore) > 0
}

// Latest returns the snapshot document for the session, or ErrSnapshotAbsent
// when none exists. Absence is the expected first-run condition.
func (m *Manager) Latest(session string) (*Info, error) {
	path := m.Path(session)
	st, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewSnapshotError("no snapshot on disk", errors.ErrSnapshotAbsent).
			WithSession(session).
			WithPath(path)
	}
	return &Info{Path: path, ModTime: st.ModTime(), Size: st.Size()}, nil
}

// Save serializes the live session to its canonical snapshot path. The
// serializer writes to a temporary file which replaces the previous snapshot
// only on success, so a failed save never clobbers a good snapshot.
//
// Preconditions: the server must be up and the session must exist. A save
// against a missing session fails with ErrSessionMissingForSave and writes
// nothing.
func (m *Manager) Save(ctx context.Context, session string) error {
	if !m.CanSave() {
		return errors.NewSnapshotError("no save command configured", errors.ErrSerializerUnavailable).
			WithSession(session).
			WithRecoverable(false)
	}
	if !m.surface.ServerAlive(ctx) || !m.surface.HasSession(ctx, session) {
		return errors.NewSnapshotError("cannot snapshot a session that is not running", errors.ErrSessionMissingForSave).
			WithSession(session).
			WithRecoverable(false)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.NewSnapshotError("cannot create snapshot directory", err).
			WithPath(m.dir).
			WithRecoverable(false)
	}

	path := m.Path(session)
	tmp := path + ".tmp"
	defer os.Remove(tmp)

	output, err := m.runSerializer(ctx, m.save, session, tmp)
	if err != nil {
		return errors.NewSnapshotError("serializer failed", err).
			WithSession(session).
			WithPath(path).
			WithOutput(output).
			WithRecoverable(false)
	}
	if _, err := os.Stat(tmp); err != nil {
		return errors.NewSnapshotError("serializer exited cleanly but wrote no document", errors.ErrSerializerUnavailable).
			WithSession(session).
			WithPath(path).
			WithOutput(output).
			WithRecoverable(false)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.NewSnapshotError("cannot move snapshot into place", err).
			WithPath(path).
			WithRecoverable(false)
	}

	m.log.Info("snapshot saved", "session", session, "path", path)
	return nil
}

// Restore rebuilds the session from its snapshot document. Both failure
// modes are recoverable: the session reconciler falls through to fresh
// creation on either.
func (m *Manager) Restore(ctx context.Context, session string) error {
	info, err := m.Latest(session)
	if err != nil {
		return err
	}
	if !m.CanRestore() {
		return errors.NewSnapshotError("no restore command configured", errors.ErrSerializerUnavailable).
			WithSession(session).
			WithPath(info.Path)
	}

	output, err := m.runSerializer(ctx, m.restore, session, info.Path)
	if err != nil {
		// A corrupt or stale document surfaces here as a serializer failure.
		// Keep the document for inspection; the reconciler moves on.
		m.log.Warn("snapshot restore failed", "session", session, "output", output)
		return errors.NewSnapshotError("restore command failed", errors.ErrRestoreFailed).
			WithSession(session).
			WithPath(info.Path).
			WithOutput(output)
	}

	m.log.Info("snapshot restored", "session", session, "path", info.Path, "age", info.Age().Round(time.Second))
	return nil
}

// runSerializer executes one configured serializer command with the
// {session} and {file} placeholders expanded, returning its combined output.
func (m *Manager) runSerializer(ctx context.Context, command []string, session, file string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, serializerTimeout)
	defer cancel()

	args := expandArgs(command, session, file)
	m.log.Debug("running serializer", "args", args)

	output, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	return string(output), err
}

// expandArgs substitutes the {session} and {file} placeholders in every
// argument of a configured serializer command.
func expandArgs(command []string, session, file string) []string {
	expanded := make([]string, len(command))
	for i, arg := range command {
		arg = strings.ReplaceAll(arg, "{session}", session)
		arg = strings.ReplaceAll(arg, "{file}", file)
		expanded[i] = arg
	}
	return expanded
}
