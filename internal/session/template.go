package session

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/muxkeep/muxkeep/internal/config"
	"github.com/muxkeep/muxkeep/internal/errors"
	"github.com/muxkeep/muxkeep/internal/logging"
)

// templateTimeout bounds the external template tool. Materializing a layout
// spawns real shells, so this is deliberately generous.
const templateTimeout = 60 * time.Second

// TemplateRunner materializes a fresh session from a named layout using an
// external tool (tmuxinator, tmuxp and friends). The layout format belongs
// to that tool; muxkeep only expands the {session} and {template}
// placeholders in the configured command.
type TemplateRunner struct {
	template string
	command  []string
	log      *logging.Logger
}

// NewTemplateRunner returns a runner for the configured session template.
func NewTemplateRunner(cfg config.SessionConfig, log *logging.Logger) *TemplateRunner {
	return &TemplateRunner{
		template: cfg.Template,
		command:  cfg.TemplateCommand,
		log:      log.WithComponent("template"),
	}
}

// Configured reports whether a template and its command are both set.
func (r *TemplateRunner) Configured() bool {
	return r.template != "" && len(r.command) > 0
}

// Materialize runs the template tool to build the named session. Failures
// are recoverable; the reconciler falls through to a basic create.
func (r *TemplateRunner) Materialize(ctx context.Context, session string) error {
	if !r.Configured() {
		return errors.NewSessionError("no session template configured", nil).
			WithSession(session).
			WithRecoverable(true)
	}

	ctx, cancel := context.WithTimeout(ctx, templateTimeout)
	defer cancel()

	args := make([]string, len(r.command))
	for i, arg := range r.command {
		arg = strings.ReplaceAll(arg, "{session}", session)
		arg = strings.ReplaceAll(arg, "{template}", r.template)
		args[i] = arg
	}
	r.log.Debug("running template tool", "args", args)

	output, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		r.log.Warn("template tool failed", "template", r.template, "output", strings.TrimSpace(string(output)))
		return errors.NewSessionError("template tool failed", err).
			WithSession(session).
			WithRecoverable(true)
	}
	return nil
}
