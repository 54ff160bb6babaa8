package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muxkeep/muxkeep/internal/tui"
)

// watchInterval is the periodic re-check cadence of the dashboard. Snapshot
// writes trigger an immediate extra check through the fsnotify watcher.
const watchInterval = 15 * time.Second

// Watch runs continuous reconciliation behind a live dashboard until the
// operator quits. When saveEvery is positive and a serializer is configured,
// the session is also snapshotted on that cadence.
func (a *App) Watch(ctx context.Context, saveEvery time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	name := a.cfg.Session.Name

	refresh := func(ctx context.Context) tui.State {
		st := tui.State{Session: name, LastCheck: time.Now()}

		result, err := a.Ensure(ctx)
		if err != nil {
			st.Err = err
		} else {
			st.Outcome = result.Outcome.String()
		}

		st.ServerUp = a.client.ServerAlive(ctx)
		st.SessionPresent = st.ServerUp && a.client.HasSession(ctx, name)
		if info, err := a.snapshot.Latest(name); err == nil {
			st.SnapshotPath = info.Path
			st.SnapshotAge = info.Age()
		}
		return st
	}

	var notify chan struct{}
	if watcher, err := a.snapshot.Watch(name); err == nil {
		defer watcher.Close()
		notify = make(chan struct{}, 1)
		go func() {
			for range watcher.Events() {
				select {
				case notify <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		a.log.Warn("snapshot watch unavailable", "err", err)
	}

	if saveEvery > 0 && a.snapshot.CanSave() {
		go a.autosave(ctx, saveEvery)
	}

	program := tea.NewProgram(tui.New(refresh, watchInterval, notify), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// autosave snapshots the session on a fixed cadence until the context ends.
// Failures are logged and the loop keeps going; a transiently absent session
// must not stop future saves.
func (a *App) autosave(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.snapshot.Save(ctx, a.cfg.Session.Name); err != nil {
				a.log.Warn("periodic save failed", "err", err)
			}
		}
	}
}
