package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driver-link/cmd/agent"
	"driver-link/internal/cli"
	supervisorservice "driver-link/internal/software/supervisor/service"
)

const defaultConfigPath = "./config/config.yaml"

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, modeArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// the agent reads signals itself to tell an operator stop from a dismissal
	ctx := context.Background()
	if mode != cli.ModeAgent && mode != cli.ModeWake {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
	}

	fs := flag.NewFlagSet(mode, flag.ContinueOnError)
	cli.AttachUsage(fs, mode)
	configPath := fs.String("config", defaultConfigPath, "Path to the YAML config file")

	switch mode {

	case cli.ModeAgent:
		reason := fs.String("reason", string(supervisorservice.ReasonManual), "What started the agent: manual | wake | boot | watchdog")
		parseOrExit(fs, modeArgs)
		r, err := parseReason(*reason)
		if err != nil {
			usageError(fs, err)
		}
		exitOnError(agent.Run(ctx, *configPath, r))

	case cli.ModeWake:
		after := fs.Duration("after", 0, "Delay before the resume check")
		reason := fs.String("reason", string(supervisorservice.ReasonWake), "Trigger name: wake | boot | watchdog | dismissed")
		parseOrExit(fs, modeArgs)
		if *after < 0 {
			usageError(fs, errors.New("--after must be >= 0"))
		}
		exitOnError(agent.RunWake(ctx, *configPath, *after, wakeReason(*reason)))

	case cli.ModeWatchdog:
		period := fs.Duration("period", 0, "Check period (default: supervisor.wake_period)")
		parseOrExit(fs, modeArgs)
		if *period < 0 {
			usageError(fs, errors.New("--period must be >= 0"))
		}
		exitOnError(agent.RunWatchdog(ctx, *configPath, *period))

	case cli.ModeStatus:
		parseOrExit(fs, modeArgs)
		exitOnError(agent.RunStatus(ctx, *configPath, os.Stdout))

	case cli.ModeJournal:
		prefetch := fs.Int("prefetch", 8, "RabbitMQ prefetch count for the journal consumer")
		parseOrExit(fs, modeArgs)
		if *prefetch <= 0 {
			usageError(fs, errors.New("--prefetch must be > 0"))
		}
		exitOnError(agent.RunJournal(ctx, *configPath, *prefetch, os.Stdout))

	case cli.ModeToken:
		subject := fs.String("subject", "driver", "Token subject")
		role := fs.String("role", "DRIVER", "Role: DRIVER | OPERATOR")
		secret := fs.String("secret", os.Getenv("DRIVER_LINK_JWT_SECRET"), "JWT HMAC secret (HS256)")
		ttl := fs.Duration("ttl", 12*time.Hour, "Token lifetime")
		parseOrExit(fs, modeArgs)
		token, claims, err := cli.GenerateToken(*secret, *subject, *role, *ttl)
		if err != nil {
			usageError(fs, err)
		}
		fmt.Print(cli.PrintToken(token, claims))

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}
}

func parseOrExit(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func usageError(fs *flag.FlagSet, err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	fs.Usage()
	os.Exit(2)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func parseReason(s string) (supervisorservice.Reason, error) {
	switch r := supervisorservice.Reason(s); r {
	case supervisorservice.ReasonManual, supervisorservice.ReasonWake, supervisorservice.ReasonBoot, supervisorservice.ReasonWatchdog:
		return r, nil
	default:
		return "", fmt.Errorf("unknown reason %q", s)
	}
}

// wakeReason maps a wake trigger name to a resuming reason. Dismissal is a plain wake.
func wakeReason(s string) supervisorservice.Reason {
	switch r := supervisorservice.Reason(s); r {
	case supervisorservice.ReasonBoot, supervisorservice.ReasonWatchdog:
		return r
	default:
		return supervisorservice.ReasonWake
	}
}
