// Package tmux is the control surface for the multiplexer server: socket-scoped
// command builders plus the query/create/attach operations muxkeep reconciles
// against.
//
// muxkeep supervises exactly one server. By default that is the user's default
// tmux server; a deployment can point it at a dedicated server by configuring
// a socket name, in which case every command carries "-L {socket}" so a crash
// of the supervised server never touches other servers on the machine.
package tmux

import (
	"context"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
)

// Command creates an exec.Cmd for tmux on the given socket. An empty socket
// targets the default tmux server (no -L flag).
func Command(socket string, args ...string) *exec.Cmd {
	return exec.Command("tmux", CommandArgs(socket, args...)...)
}

// CommandContext creates a context-aware exec.Cmd for tmux on the given
// socket. Use this for queries that must not hang on a wedged server.
func CommandContext(ctx context.Context, socket string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "tmux", CommandArgs(socket, args...)...)
}

// CommandArgs returns the argument list for a tmux command on the given
// socket. Use this when the command string is built elsewhere (e.g., for
// display in diagnostics).
func CommandArgs(socket string, args ...string) []string {
	if socket == "" {
		return args
	}
	return append([]string{"-L", socket}, args...)
}

// SocketPath returns the filesystem path of the server's control socket.
// Returns empty for the default server when the user cannot be determined.
func SocketPath(socket string) string {
	if socket == "" {
		socket = "default"
	}
	u, err := user.Current()
	if err != nil {
		return ""
	}
	// tmux uses /tmp/tmux-{uid}/ for sockets
	return filepath.Join("/tmp", "tmux-"+u.Uid, socket)
}

// InsideTmux reports whether the current process is running inside a tmux
// client. Attach becomes switch-client in that case, and arguments are
// forwarded rather than reconciled.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// ExactTarget returns the session target string for an exact-match lookup.
// The leading '=' stops tmux from prefix-matching session names, so ensuring
// "work" never accidentally finds "workshop".
func ExactTarget(name string) string {
	return "=" + name
}
