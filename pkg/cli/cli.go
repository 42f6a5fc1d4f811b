/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements the punchsync command-line tool.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"

	"github.com/carverauto/punchsync/pkg/config"
	"github.com/carverauto/punchsync/pkg/erp"
	"github.com/carverauto/punchsync/pkg/lifecycle"
	"github.com/carverauto/punchsync/pkg/sync"
	"github.com/carverauto/punchsync/pkg/version"
)

// invocation carries one parsed command line.
type invocation struct {
	args []string
	push bool
	out  *renderer
}

// command is one punchsync subcommand. flags may adjust cfg before the app is wired.
type command struct {
	usage   string
	minArgs int
	flags   func(fs *flag.FlagSet, cfg *AppConfig, inv *invocation)
	run     func(ctx context.Context, app *App, inv *invocation) error
}

func commands() map[string]command {
	return map[string]command{
		"scan": {
			usage: "scan [-subnet CIDR] [-timeout d]",
			flags: func(fs *flag.FlagSet, cfg *AppConfig, _ *invocation) {
				fs.StringVar(&cfg.Scan.Subnet, "subnet", cfg.Scan.Subnet, "IPv4 subnet to sweep (default: local /24)")
				fs.Func("timeout", "per-port connect timeout", func(s string) error {
					return cfg.Scan.Timeout.UnmarshalJSON([]byte(`"` + s + `"`))
				})
			},
			run: runScan,
		},
		"list":            {usage: "list", run: runList},
		"add":             {usage: "add <address>", minArgs: 1, run: runAdd},
		"remove":          {usage: "remove <terminal>", minArgs: 1, run: runRemove},
		"rename":          {usage: "rename <terminal> [name]", minArgs: 1, run: runRename},
		"select":          {usage: "select <terminal>...", minArgs: 1, run: runSelect},
		"deselect":        {usage: "deselect <terminal>...", minArgs: 1, run: runDeselect},
		"summaries":       {usage: "summaries [terminal...]", run: runSummaries},
		"push":            {usage: "push [terminal...]", run: runPush},
		"test-connection": {usage: "test-connection", run: runTestConnection},
		"sync": {
			usage: "sync [-push] [terminal...]",
			flags: func(fs *flag.FlagSet, _ *AppConfig, inv *invocation) {
				fs.BoolVar(&inv.push, "push", false, "push the reconciled records to the ERP after fetching")
			},
			run: runSync,
		},
	}
}

// Main runs one punchsync command line and returns the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("punchsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to punchsync.json")
	help := fs.Bool("help", false, "show help message")

	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}

	if *help || fs.NArg() == 0 {
		ShowHelp(stdout)

		return ExitOK
	}

	errOut := newRenderer(stderr)

	name := fs.Arg(0)
	if name == "version" {
		fmt.Fprintln(stdout, "punchsync "+version.GetFullVersion())

		return ExitOK
	}

	cmd, ok := commands()[name]
	if !ok {
		errOut.fail("%v: %s", errUnknownCommand, name)
		ShowHelp(stderr)

		return ExitError
	}

	var cfg AppConfig

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		errOut.fail("Failed to load config: %v", err)

		return ExitError
	}

	inv := &invocation{out: newRenderer(stdout)}

	sub := flag.NewFlagSet(name, flag.ContinueOnError)
	sub.SetOutput(stderr)
	sub.Usage = func() {
		fmt.Fprintf(stderr, "Usage: punchsync %s\n", cmd.usage)
		sub.PrintDefaults()
	}

	if cmd.flags != nil {
		cmd.flags(sub, &cfg, inv)
	}

	if err := sub.Parse(fs.Args()[1:]); err != nil {
		return parseExit(err)
	}

	inv.args = sub.Args()
	if len(inv.args) < cmd.minArgs {
		errOut.fail("%v: punchsync %s", errMissingArgument, cmd.usage)

		return ExitError
	}

	if err := cfg.Validate(); err != nil {
		errOut.fail("Invalid configuration: %v", err)

		return ExitError
	}

	return execute(ctx, &cfg, cmd, inv, errOut)
}

func execute(ctx context.Context, cfg *AppConfig, cmd command, inv *invocation, errOut *renderer) int {
	log, err := newLogger(ctx, cfg)
	if err != nil {
		errOut.fail("%v", err)

		return ExitError
	}

	defer func() { _ = lifecycle.ShutdownLogger() }()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		errOut.fail("%v", err)

		return ExitError
	}

	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	if err := cmd.run(ctx, app, inv); err != nil {
		return report(err, errOut)
	}

	return ExitOK
}

func report(err error, errOut *renderer) int {
	switch {
	case errors.Is(err, erp.ErrInvalidCredential), errors.Is(err, erp.ErrMissingAPIKey):
		errOut.fail("API key rejected: %v", err)
		errOut.muted("Update erp.api_key (or PUNCHSYNC_API_KEY) and try again.")

		return ExitCredential
	case errors.Is(err, sync.ErrNoTerminalsSelected):
		errOut.fail("%v", err)
		errOut.muted("Select terminals with 'punchsync select <terminal>' or name them on the command line.")
	case errors.Is(err, errSyncIncomplete):
		errOut.fail("%v", err)
	default:
		errOut.fail("Error: %v", err)
	}

	return ExitError
}

func parseExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}

	return ExitError
}

func commandNames() []string {
	cmds := commands()
	names := make([]string, 0, len(cmds))

	for name := range cmds {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
