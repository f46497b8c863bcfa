package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeAgent    = "agent"
	ModeWake     = "wake"
	ModeWatchdog = "watchdog"
	ModeStatus   = "status"
	ModeToken    = "token"
	ModeJournal  = "journal"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeAgent, "run", "a":
		return ModeAgent, true
	case ModeWake, "resume":
		return ModeWake, true
	case ModeWatchdog, "wd":
		return ModeWatchdog, true
	case ModeStatus, "st":
		return ModeStatus, true
	case ModeToken, "key":
		return ModeToken, true
	case ModeJournal, "events":
		return ModeJournal, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `wake --after=2s`
//
// Arguments that are not the mode are returned in order for the mode's own flag set.
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for _, arg := range args {
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<mode>")
	}

	m, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}
	return m, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  driver-link <mode> [flags]

Modes:
  agent       Run the driver agent: dispatch session, telemetry, trips, control API
  wake        One-shot resume check, used by dismissal and boot triggers
  watchdog    Periodic resume check that restarts a lost agent while online
  status      Print the persisted flags and the running agent's status
  token       Mint a DRIVER or OPERATOR token (dev only)
  journal     Tail the driver event journal from RabbitMQ

Examples:
  driver-link agent --config=./config/config.yaml
  driver-link wake --after=2s --reason=dismissed
  driver-link wake --reason=boot          # from @reboot
  driver-link watchdog --period=4m
  driver-link token --role=OPERATOR --subject=ops
  driver-link journal --prefetch=8`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: driver-link %s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
