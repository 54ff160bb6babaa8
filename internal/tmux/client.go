package tmux

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/muxkeep/muxkeep/internal/errors"
)

// queryTimeout bounds every read-only probe so a wedged server cannot hang
// an invocation.
const queryTimeout = 2 * time.Second

// Client drives one tmux server through its command interface. The zero
// socket targets the user's default server.
type Client struct {
	socket string
}

// NewClient returns a Client for the given socket name. Empty means the
// default tmux server.
func NewClient(socket string) *Client {
	return &Client{socket: socket}
}

// Socket returns the socket name this client targets (empty for default).
func (c *Client) Socket() string {
	return c.socket
}

// ServerAlive reports whether the server's control socket is answering.
// A server that answers but hosts zero sessions still counts as alive.
func (c *Client) ServerAlive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// list-sessions succeeds against any answering server; "no server
	// running" and connection errors both exit non-zero.
	return CommandContext(ctx, c.socket, "list-sessions").Run() == nil
}

// StartServer asks tmux to start a detached server process for this socket.
// Idempotent: starting an already-running server is a no-op.
func (c *Client) StartServer(ctx context.Context) error {
	if err := CommandContext(ctx, c.socket, "start-server").Run(); err != nil {
		return errors.NewServerError("failed to start tmux server", err).WithSocket(c.socket)
	}
	return nil
}

// KillServer terminates the server and every session in it.
func (c *Client) KillServer(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return CommandContext(ctx, c.socket, "kill-server").Run()
}

// HasSession reports whether a session with exactly the given name exists.
func (c *Client) HasSession(ctx context.Context, name string) bool {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return CommandContext(ctx, c.socket, "has-session", "-t", ExactTarget(name)).Run() == nil
}

// NewSession issues the minimal create: a detached session with the given
// name and no further configuration. This is the reconciler's last-resort
// tier. tmux errors cleanly on a duplicate name, which is what makes
// concurrent ensure invocations safe.
func (c *Client) NewSession(ctx context.Context, name string) error {
	var stderr bytes.Buffer
	cmd := CommandContext(ctx, c.socket, "new-session", "-d", "-s", name)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "duplicate session") {
			return errors.ErrSessionExists
		}
		return errors.NewSessionError("failed to create session", err).WithSession(name)
	}
	return nil
}

// ListSessions returns the names of all sessions on the server.
// Returns an empty slice when the server is down.
func (c *Client) ListSessions(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	output, err := CommandContext(ctx, c.socket, "list-sessions", "-F", "#{session_name}").Output()
	if err != nil {
		return nil
	}

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// Attach hands the controlling terminal to the named session. Inside an
// existing tmux client it switches the client instead, since nested attach
// is refused by tmux.
func (c *Client) Attach(name string) error {
	var cmd *exec.Cmd
	if InsideTmux() {
		cmd = Command(c.socket, "switch-client", "-t", ExactTarget(name))
	} else {
		cmd = Command(c.socket, "attach-session", "-t", ExactTarget(name))
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Passthrough forwards raw arguments to tmux verbatim with inherited stdio
// and returns the child's exit code unchanged. Used for native flag
// forwarding; muxkeep adds nothing but the socket scope.
func (c *Client) Passthrough(ctx context.Context, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, "tmux", CommandArgs(c.socket, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	// The binary itself could not be run; distinct from a non-zero exit.
	return 1, err
}
