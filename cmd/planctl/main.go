// Package main provides planctl, the operator command line for generating
// meal plans and moderating plans and recipes
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/nutriplan/planner/internal/infrastructure/config"
	"github.com/nutriplan/planner/internal/infrastructure/container"
	"github.com/nutriplan/planner/internal/ports/inbound"
	"github.com/nutriplan/planner/pkg/errors"
	"go.uber.org/fx"
)

const (
	exitCodeSuccess = 0
	exitCodeUsage   = 2
)

// services are the use cases a subcommand may drive
type services struct {
	cfg        *config.Config
	plans      inbound.PlanService
	moderation inbound.ModerationService
}

// action runs one parsed subcommand
type action func(ctx context.Context, svc *services) (any, error)

// command parses its own flags and returns the action to run
type command struct {
	summary string
	parse   func(fs *flag.FlagSet, args []string) (action, error)
}

var commands = map[string]command{
	"generate":        {"generate a plan for a consumer", parseGenerate},
	"plans":           {"list plans for a consumer or all plans", parsePlans},
	"plan":            {"show one plan", parsePlan},
	"approve":         {"approve a plan and its recipes", parseReview(true)},
	"reject":          {"reject a plan", parseReview(false)},
	"recipes-pending": {"list recipes awaiting review", parsePending},
	"recipe-review":   {"approve or reject one recipe", parseRecipeReview},
	"recipe-submit":   {"submit a draft recipe for review", parseRecipeSubmit},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one planctl invocation and returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("planctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "Configuration file path")
	global.Usage = func() { usage(stderr, global) }

	if err := global.Parse(args); err != nil {
		return exitCodeUsage
	}
	if global.NArg() == 0 {
		usage(stderr, global)
		return exitCodeUsage
	}

	name, rest := global.Arg(0), global.Args()[1:]

	if name == "migrate" {
		return runMigrate(ctx, *configPath, rest, stdout, stderr)
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "planctl: unknown command %q\n\n", name)
		usage(stderr, global)
		return exitCodeUsage
	}

	fs := flag.NewFlagSet("planctl "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	act, err := cmd.parse(fs, rest)
	if err != nil {
		if err == flag.ErrHelp {
			return exitCodeUsage
		}
		return fail(stdout, err)
	}

	svc := &services{}
	app := fx.New(
		container.Module,
		fx.Supply(container.ConfigPath(*configPath)),
		fx.NopLogger,
		fx.Populate(&svc.cfg, &svc.plans, &svc.moderation),
	)
	if err := app.Err(); err != nil {
		return fail(stdout, errors.NewConfigurationError(err.Error()))
	}

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fail(stdout, errors.NewConfigurationError(err.Error()))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	result, err := act(ctx, svc)
	if err != nil {
		return fail(stdout, err)
	}
	return succeed(stdout, result)
}

func usage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: planctl [-config path] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "  %-16s %s\n", "migrate", "apply or roll back the PostgreSQL schema (up|down|status)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	global.PrintDefaults()
}

// successResponse is the JSON envelope written for completed operations
type successResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

func succeed(w io.Writer, data any) int {
	writeJSON(w, successResponse{OK: true, Data: data})
	return exitCodeSuccess
}

func fail(w io.Writer, err error) int {
	appErr := errors.Wrap(err, "operation failed")
	writeJSON(w, errors.ToErrorResponse(appErr))
	return appErr.ExitCode()
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
