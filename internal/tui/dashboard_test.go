package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func testState() State {
	return State{
		Session:        "main",
		ServerUp:       true,
		SessionPresent: true,
		Outcome:        "already running",
		SnapshotPath:   "/tmp/main.snapshot",
		SnapshotAge:    3 * time.Minute,
		LastCheck:      time.Now(),
	}
}

func TestUpdateStateMsgStopsChecking(t *testing.T) {
	m := New(func(context.Context) State { return testState() }, time.Minute, nil)
	if !m.checking {
		t.Fatal("a fresh model should start in the checking state")
	}

	updated, cmd := m.Update(stateMsg(testState()))
	model := updated.(Model)

	if model.checking {
		t.Error("a delivered state should end the checking spinner")
	}
	if model.state.Session != "main" {
		t.Errorf("state.Session = %q, want %q", model.state.Session, "main")
	}
	if cmd == nil {
		t.Error("a delivered state should schedule the next tick")
	}
}

func TestUpdateTickTriggersRefresh(t *testing.T) {
	m := New(func(context.Context) State { return testState() }, time.Minute, nil)
	m.checking = false

	updated, cmd := m.Update(tickMsg{})
	model := updated.(Model)

	if !model.checking {
		t.Error("a tick should start a new check")
	}
	if cmd == nil {
		t.Fatal("a tick should produce a refresh command")
	}
	if _, ok := cmd().(stateMsg); !ok {
		t.Error("the refresh command should deliver a stateMsg")
	}
}

func TestUpdateQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "esc", "ctrl+c"} {
		m := New(func(context.Context) State { return testState() }, time.Minute, nil)

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		if key != "q" {
			// esc and ctrl+c arrive as their own key types.
			var keyType tea.KeyType
			if key == "esc" {
				keyType = tea.KeyEsc
			} else {
				keyType = tea.KeyCtrlC
			}
			updated, cmd = m.Update(tea.KeyMsg{Type: keyType})
		}

		model := updated.(Model)
		if cmd == nil || !model.quitting {
			t.Errorf("key %q should quit", key)
		}
	}
}

func TestViewRendersState(t *testing.T) {
	m := New(func(context.Context) State { return testState() }, time.Minute, nil)
	m.state = testState()
	m.checking = false

	view := m.View()
	for _, want := range []string{"muxkeep", "main", "up", "present", "/tmp/main.snapshot", "already running"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestViewDownServer(t *testing.T) {
	m := New(func(context.Context) State { return testState() }, time.Minute, nil)
	m.state = State{Session: "main"}
	m.checking = false

	view := m.View()
	if !strings.Contains(view, "down") {
		t.Error("View() should report a down server")
	}
	if !strings.Contains(view, "absent") {
		t.Error("View() should report an absent session")
	}
	if !strings.Contains(view, "none") {
		t.Error("View() should report a missing snapshot")
	}
}
