// Package errors provides centralized error definitions and error handling
// utilities for the muxkeep codebase. It defines the reconciliation error
// taxonomy as sentinel errors, domain-specific error types with context
// wrapping, and classification helpers that decide whether a failure is
// recoverable by falling through to the next fallback tier or must be
// surfaced to the operator.
//
// # Error Taxonomy
//
// The sentinels map directly onto reconciliation behavior:
//
//   - ErrUnreachable: the tmux control surface cannot be contacted even
//     after retries. Fatal for the current invocation.
//   - ErrServiceUnavailable: no service manager, or the unit is not
//     registered. Non-fatal; callers fall back to direct server control.
//   - ErrRestoreFailed: a snapshot exists but restoring it errored.
//     Non-fatal; falls through to fresh creation.
//   - ErrSnapshotAbsent: no snapshot to restore from. The expected
//     first-run condition, not logged as an error.
//   - ErrSessionMissingForSave: a save was requested but the target
//     session does not exist. Fatal for that invocation only.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewServerError("server not reachable", errors.ErrUnreachable)
//	err = err.WithSocket("muxkeep").WithAttempts(5)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrSnapshotAbsent) { ... }
//
//	var srvErr *errors.ServerError
//	if errors.As(err, &srvErr) { ... }
//
//	if errors.IsRecoverable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for conditions that are useful for debugging but expected.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational conditions that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for conditions that might indicate a problem but are recovered locally.
	SeverityWarning
	// SeverityError is for failures that end the current invocation.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnreachable indicates the tmux server could not be contacted even
	// after exhausting start retries.
	ErrUnreachable = New("tmux server unreachable")
	// ErrServiceUnavailable indicates the service manager is absent or the
	// unit is not registered.
	ErrServiceUnavailable = New("service unit unavailable")
	// ErrRestoreFailed indicates a snapshot was present but the restore
	// tool errored.
	ErrRestoreFailed = New("snapshot restore failed")
	// ErrSnapshotAbsent indicates there is no snapshot to restore from.
	ErrSnapshotAbsent = New("no snapshot found")
	// ErrSessionMissingForSave indicates a save was requested for a session
	// that does not currently exist.
	ErrSessionMissingForSave = New("session does not exist, nothing to save")
	// ErrSerializerUnavailable indicates no snapshot serializer command is
	// configured.
	ErrSerializerUnavailable = New("snapshot serializer not configured")
	// ErrSessionExists indicates the target session already exists.
	ErrSessionExists = New("session already exists")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// KeeperError is the base interface for all muxkeep errors. It extends the
// standard error interface with classification methods.
type KeeperError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRecoverable returns true if the reconciler may fall through to the
	// next fallback tier instead of surfacing this error.
	IsRecoverable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message     string
	cause       error
	severity    Severity
	recoverable bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) IsRecoverable() bool {
	return e.recoverable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ServerError represents a failure to reconcile the tmux server itself.
//
// Example:
//
//	err := errors.NewServerError("server did not come up", errors.ErrUnreachable)
//	err = err.WithSocket("muxkeep").WithAttempts(5)
type ServerError struct {
	baseError
	Socket   string
	Attempts int
	Hint     string
}

// NewServerError creates a new ServerError. Server errors are fatal for the
// current invocation.
func NewServerError(message string, cause error) *ServerError {
	return &ServerError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithSocket adds the tmux socket name to the error context.
func (e *ServerError) WithSocket(socket string) *ServerError {
	e.Socket = socket
	return e
}

// WithAttempts records how many liveness probes were made.
func (e *ServerError) WithAttempts(n int) *ServerError {
	e.Attempts = n
	return e
}

// WithHint attaches a remediation hint shown to the operator.
func (e *ServerError) WithHint(hint string) *ServerError {
	e.Hint = hint
	return e
}

// Error returns the formatted error message.
func (e *ServerError) Error() string {
	var parts []string
	if e.Socket != "" {
		parts = append(parts, fmt.Sprintf("socket=%s", e.Socket))
	}
	if e.Attempts > 0 {
		parts = append(parts, fmt.Sprintf("attempts=%d", e.Attempts))
	}

	prefix := "server error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("server error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Hint)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *ServerError) Is(target error) bool {
	if _, ok := target.(*ServerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SessionError represents a failure while reconciling the target session.
type SessionError struct {
	baseError
	Session string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithSession adds the session name to the error context.
func (e *SessionError) WithSession(name string) *SessionError {
	e.Session = name
	return e
}

// WithRecoverable marks the error as consumable by a fallback tier.
func (e *SessionError) WithRecoverable(r bool) *SessionError {
	e.recoverable = r
	if r {
		e.severity = SeverityWarning
	}
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	prefix := "session error"
	if e.Session != "" {
		prefix = fmt.Sprintf("session error [session=%s]", e.Session)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SnapshotError represents a failure in the snapshot save/restore contract.
type SnapshotError struct {
	baseError
	Session string
	Path    string
	Output  string // captured serializer output
}

// NewSnapshotError creates a new SnapshotError. Restore-side snapshot errors
// are recoverable: the session reconciler falls through to fresh creation.
func NewSnapshotError(message string, cause error) *SnapshotError {
	return &SnapshotError{
		baseError: baseError{
			message:     message,
			cause:       cause,
			severity:    SeverityWarning,
			recoverable: true,
		},
	}
}

// WithSession adds the session name to the error context.
func (e *SnapshotError) WithSession(name string) *SnapshotError {
	e.Session = name
	return e
}

// WithPath adds the snapshot document path to the error context.
func (e *SnapshotError) WithPath(path string) *SnapshotError {
	e.Path = path
	return e
}

// WithOutput attaches captured serializer output to the error context.
func (e *SnapshotError) WithOutput(output string) *SnapshotError {
	e.Output = strings.TrimSpace(output)
	return e
}

// WithRecoverable overrides the default recoverable classification.
// Save-side failures are not recoverable: there is no fallback tier for a
// failed save.
func (e *SnapshotError) WithRecoverable(r bool) *SnapshotError {
	e.recoverable = r
	if !r {
		e.severity = SeverityError
	}
	return e
}

// Error returns the formatted error message.
func (e *SnapshotError) Error() string {
	var parts []string
	if e.Session != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.Session))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	prefix := "snapshot error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("snapshot error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\nserializer output: %s", msg, e.Output)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *SnapshotError) Is(target error) bool {
	if _, ok := target.(*SnapshotError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ServiceError represents a failure while driving the OS service manager.
// Service errors are always recoverable: callers fall back to direct
// process control.
type ServiceError struct {
	baseError
	Unit string
}

// NewServiceError creates a new ServiceError.
func NewServiceError(message string, cause error) *ServiceError {
	return &ServiceError{
		baseError: baseError{
			message:     message,
			cause:       cause,
			severity:    SeverityInfo,
			recoverable: true,
		},
	}
}

// WithUnit adds the service unit name to the error context.
func (e *ServiceError) WithUnit(unit string) *ServiceError {
	e.Unit = unit
	return e
}

// Error returns the formatted error message.
func (e *ServiceError) Error() string {
	prefix := "service error"
	if e.Unit != "" {
		prefix = fmt.Sprintf("service error [unit=%s]", e.Unit)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ServiceError) Is(target error) bool {
	if _, ok := target.(*ServiceError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRecoverable returns true if the error represents a condition that the
// reconciler consumes locally by falling through to the next fallback tier.
//
// Example:
//
//	if errors.IsRecoverable(err) {
//	    log.Debug("falling through", "err", err)
//	    continue
//	}
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}

	var keeperErr KeeperError
	if As(err, &keeperErr) {
		return keeperErr.IsRecoverable()
	}

	// Known recoverable sentinels used bare.
	return Is(err, ErrServiceUnavailable) ||
		Is(err, ErrRestoreFailed) ||
		Is(err, ErrSnapshotAbsent) ||
		Is(err, ErrSerializerUnavailable)
}

// GetSeverity returns the severity level of the error. Unknown errors
// default to SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var keeperErr KeeperError
	if As(err, &keeperErr) {
		return keeperErr.Severity()
	}
	if Is(err, ErrSnapshotAbsent) {
		return SeverityDebug
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with an additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to restore session")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
