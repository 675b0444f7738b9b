package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/tributary/tribute-ui-api/config"
	"github.com/tributary/tribute-ui-api/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrate,
		},
		"grant-role": {
			name:        "grant-role",
			description: "Assign a role to a principal (-principal, -role)",
			run:         runGrantRole,
		},
		"revoke-role": {
			name:        "revoke-role",
			description: "Remove a principal's role record (-principal)",
			run:         runRevokeRole,
		},
		"dump-roster": {
			name:        "dump-roster",
			description: "Fetch the user roster through the fallback chain and print it",
			run:         runDumpRoster,
		},
		"probe-tokens": {
			name:        "probe-tokens",
			description: "Inspect which session token surfaces hold a token",
			run:         runProbeTokens,
		},
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: tribute-admin <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-22s %s\n", name, cmds[name].description)
	}
}
