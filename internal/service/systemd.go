// Package service drives the optional OS service manager for the unit that
// hosts the tmux server. Every failure here is non-fatal to reconciliation:
// a machine without systemd, or without the unit installed, simply falls
// back to direct server control.
package service

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
)

// commandTimeout bounds every systemctl call; a hung service manager must
// not stall reconciliation.
const commandTimeout = 10 * time.Second

// Controller queries and drives one systemd unit.
type Controller struct {
	unit   string
	user   bool
	settle time.Duration
	log    *logging.Logger
}

// NewController returns a Controller for the given unit. When user is true,
// commands go through the per-user service manager (systemctl --user).
func NewController(unit string, user bool, settle time.Duration, log *logging.Logger) *Controller {
	return &Controller{
		unit:   unit,
		user:   user,
		settle: settle,
		log:    log.WithComponent("service"),
	}
}

// Unit returns the unit name this controller manages.
func (c *Controller) Unit() string {
	return c.unit
}

// Settle returns how long callers should wait after Restart before assuming
// the hosted server is ready. systemd reports success as soon as the unit is
// activated, before tmux finishes binding its control socket.
func (c *Controller) Settle() time.Duration {
	return c.settle
}

func (c *Controller) command(ctx context.Context, args ...string) *exec.Cmd {
	full := make([]string, 0, len(args)+1)
	if c.user {
		full = append(full, "--user")
	}
	full = append(full, args...)
	return exec.CommandContext(ctx, "systemctl", full...)
}

// Registered reports whether the unit is known to the service manager.
// Never fails the caller: absence is a valid, common outcome.
func (c *Controller) Registered(ctx context.Context) bool {
	if c.unit == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	// systemctl cat exits non-zero both when the unit is undefined and when
	// systemd itself is absent; either way there is nothing to drive.
	err := c.command(ctx, "cat", c.unit).Run()
	if err != nil {
		c.log.Debug("service unit not registered", "unit", c.unit, "err", err)
		return false
	}
	return true
}

// Restart issues a restart of the unit. On success the caller must wait
// Settle() before probing the server.
func (c *Controller) Restart(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := c.command(ctx, "restart", c.unit)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.NewServiceError("restart failed: "+stderr.String(), errors.ErrServiceUnavailable).
			WithUnit(c.unit)
	}

	c.log.Info("restarted service unit", "unit", c.unit)
	return nil
}

// Status returns a best-effort textual report of the unit's run state.
// Failures are swallowed: an uninstalled unit reports as such rather than
// erroring, because status is read-only diagnostics.
func (c *Controller) Status(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	output, err := c.command(ctx, "status", c.unit, "--no-pager").CombinedOutput()
	if len(output) == 0 || (err != nil && !c.Registered(ctx)) {
		return "no service file found for " + c.unit
	}
	// systemctl status exits 3 for inactive units; the text is still useful.
	return string(bytes.TrimSpace(output))
}
