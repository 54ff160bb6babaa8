package cmd

import (
	"strconv"

	"github.com/muxkeep/muxkeep/internal/errors"
)

// ExitError carries a specific process exit code up to main. Used by
// passthrough mode, where muxkeep's exit code must equal the forwarded
// tmux command's exit code unchanged.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned from Execute to the process exit code.
// Only main calls this; everything below returns plain errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
