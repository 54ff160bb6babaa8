package cmd

import (
	"strings"
	"time"
)

// Mode is the resolved operator intent for one invocation.
type Mode int

const (
	// ModeDefault is the attach-or-create flow.
	ModeDefault Mode = iota
	// ModeStatus prints the diagnostic report.
	ModeStatus
	// ModeRestart restarts the server.
	ModeRestart
	// ModeSave snapshots the designated session.
	ModeSave
	// ModeEnsure reconciles server and session without attaching.
	ModeEnsure
	// ModeWatch runs the continuous reconciliation dashboard.
	ModeWatch
	// ModePassthrough forwards the arguments to tmux verbatim.
	ModePassthrough
	// ModeHelp prints usage.
	ModeHelp
)

// Invocation is the tagged result of parsing the raw argument list. The
// parse happens exactly once at entry; nothing downstream re-inspects
// argument strings.
type Invocation struct {
	Mode Mode
	// Passthrough holds the verbatim arguments for ModePassthrough.
	Passthrough []string
	// Verbosity counts -v occurrences; added to the configured verbosity.
	Verbosity int
	// ConfigFile overrides the config file location when non-empty.
	ConfigFile string
	// SaveEvery enables periodic autosave in watch mode when positive.
	SaveEvery time.Duration
}

// ParseInvocation resolves the raw arguments into exactly one Invocation.
// muxkeep's own flags may precede the mode; the first token muxkeep does not
// recognize switches the whole remainder to verbatim passthrough, so native
// tmux commands and flags work unchanged.
func ParseInvocation(args []string) Invocation {
	inv := Invocation{Mode: ModeDefault}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "status" || arg == "--status":
			inv.Mode = ModeStatus
			return inv
		case arg == "--restart":
			inv.Mode = ModeRestart
			return inv
		case arg == "--save":
			inv.Mode = ModeSave
			return inv
		case arg == "--ensure":
			inv.Mode = ModeEnsure
			return inv
		case arg == "watch" || arg == "--watch":
			inv.Mode = ModeWatch
			// Watch accepts trailing options of its own.
		case arg == "-h" || arg == "--help" || arg == "help":
			inv.Mode = ModeHelp
			return inv
		case arg == "-v" || arg == "--verbose":
			inv.Verbosity++
		case strings.HasPrefix(arg, "-v") && strings.Trim(arg, "-v") == "":
			// Collapsed counting form: -vv, -vvv.
			inv.Verbosity += strings.Count(arg, "v")
		case arg == "--config" && i+1 < len(args):
			inv.ConfigFile = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			inv.ConfigFile = strings.TrimPrefix(arg, "--config=")
		case arg == "--save-every" && i+1 < len(args):
			if d, err := time.ParseDuration(args[i+1]); err == nil {
				inv.SaveEvery = d
			}
			i++
		case strings.HasPrefix(arg, "--save-every="):
			if d, err := time.ParseDuration(strings.TrimPrefix(arg, "--save-every=")); err == nil {
				inv.SaveEvery = d
			}
		default:
			// Not ours. Hand everything from here to tmux untouched, unless
			// a watch invocation picked up an option it doesn't know.
			if inv.Mode == ModeWatch {
				return inv
			}
			inv.Mode = ModePassthrough
			inv.Passthrough = args[i:]
			return inv
		}
	}
	return inv
}
