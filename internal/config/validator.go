package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "session.name")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateSnapshot()...)
	errors = append(errors, c.validateService()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateSession validates the SessionConfig
func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError

	name := c.Session.Name
	if name == "" {
		errors = append(errors, ValidationError{
			Field:   "session.name",
			Value:   name,
			Message: "cannot be empty",
		})
	}

	// tmux target syntax reserves ':' (window) and '.' (pane) separators.
	if strings.ContainsAny(name, ":.") {
		errors = append(errors, ValidationError{
			Field:   "session.name",
			Value:   name,
			Message: "cannot contain ':' or '.' (reserved by tmux target syntax)",
		})
	}

	if c.Session.Template != "" && len(c.Session.TemplateCommand) == 0 {
		errors = append(errors, ValidationError{
			Field:   "session.template",
			Value:   c.Session.Template,
			Message: "requires session.template_command to be configured",
		})
	}

	return errors
}

// validateSnapshot validates the SnapshotConfig
func (c *Config) validateSnapshot() []ValidationError {
	var errors []ValidationError

	if strings.ContainsRune(c.Snapshot.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "snapshot.dir",
			Value:   c.Snapshot.Dir,
			Message: "path contains invalid null character",
		})
	}

	errors = append(errors, validateCommand(c.Snapshot.SaveCommand, "snapshot.save_command")...)
	errors = append(errors, validateCommand(c.Snapshot.RestoreCommand, "snapshot.restore_command")...)
	errors = append(errors, validateCommand(c.Session.TemplateCommand, "session.template_command")...)

	return errors
}

// validateCommand checks that a configured external command has a non-empty
// executable. An empty slice is valid (feature disabled).
func validateCommand(cmd []string, field string) []ValidationError {
	var errors []ValidationError

	if len(cmd) > 0 && strings.TrimSpace(cmd[0]) == "" {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   cmd,
			Message: "executable (first element) cannot be empty",
		})
	}

	return errors
}

// validateService validates the ServiceConfig
func (c *Config) validateService() []ValidationError {
	var errors []ValidationError

	if c.Service.SettleSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "service.settle_seconds",
			Value:   c.Service.SettleSeconds,
			Message: "must be non-negative",
		})
	}

	const maxSettleSeconds = 60
	if c.Service.SettleSeconds > maxSettleSeconds {
		errors = append(errors, ValidationError{
			Field:   "service.settle_seconds",
			Value:   c.Service.SettleSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxSettleSeconds),
		})
	}

	return errors
}

// validateServer validates the ServerConfig
func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	const minAttempts = 1
	const maxAttempts = 30

	if c.Server.MaxAttempts < minAttempts {
		errors = append(errors, ValidationError{
			Field:   "server.max_attempts",
			Value:   c.Server.MaxAttempts,
			Message: fmt.Sprintf("must be at least %d", minAttempts),
		})
	}
	if c.Server.MaxAttempts > maxAttempts {
		errors = append(errors, ValidationError{
			Field:   "server.max_attempts",
			Value:   c.Server.MaxAttempts,
			Message: fmt.Sprintf("exceeds maximum of %d", maxAttempts),
		})
	}

	const minRetryDelay = 50    // 50ms minimum
	const maxRetryDelay = 10000 // 10 seconds maximum

	if c.Server.RetryDelayMs < minRetryDelay {
		errors = append(errors, ValidationError{
			Field:   "server.retry_delay_ms",
			Value:   c.Server.RetryDelayMs,
			Message: fmt.Sprintf("must be at least %dms", minRetryDelay),
		})
	}
	if c.Server.RetryDelayMs > maxRetryDelay {
		errors = append(errors, ValidationError{
			Field:   "server.retry_delay_ms",
			Value:   c.Server.RetryDelayMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxRetryDelay),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Verbosity < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.verbosity",
			Value:   c.Logging.Verbosity,
			Message: "must be non-negative",
		})
	}

	return errors
}
