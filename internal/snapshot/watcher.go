package snapshot

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/muxkeep/muxkeep/internal/logging"
)

// Watcher reports changes to one session's snapshot document. It watches the
// snapshot directory rather than the file itself, because serializers write
// through a temp file and rename, which replaces the watched inode.
type Watcher struct {
	fw     *fsnotify.Watcher
	path   string
	events chan Info
	done   chan struct{}
	log    *logging.Logger
}

// Watch starts watching the session's snapshot document for changes. The
// snapshot directory is created if missing so the watch can be established
// before the first save.
func (m *Manager) Watch(session string) (*Watcher, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(m.dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:     fw,
		path:   m.Path(session),
		events: make(chan Info, 1),
		done:   make(chan struct{}),
		log:    m.log,
	}
	go w.run()
	return w, nil
}

// Events delivers an Info per observed snapshot write. The channel holds one
// pending event; bursts coalesce rather than queue.
func (w *Watcher) Events() <-chan Info {
	return w.events
}

// Close stops the watcher and releases its inotify resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.notify()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("snapshot watch error", "err", err)
		}
	}
}

// notify refreshes the document stat and delivers it without blocking.
func (w *Watcher) notify() {
	info := Info{Path: w.path}
	if st, err := os.Stat(w.path); err == nil {
		info.ModTime = st.ModTime()
		info.Size = st.Size()
	}
	select {
	case w.events <- info:
	default:
	}
}
