package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nutriplan/planner/internal/infrastructure/config"
	"github.com/nutriplan/planner/internal/infrastructure/persistence/migrations"
	"github.com/nutriplan/planner/pkg/errors"
	"github.com/nutriplan/planner/pkg/logger"
)

// runMigrate applies the embedded PostgreSQL migrations without starting
// the application graph
func runMigrate(ctx context.Context, configPath string, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Usage: planctl migrate up|down|status")
		return exitCodeUsage
	}
	direction := args[0]
	if direction != "up" && direction != "down" && direction != "status" {
		fmt.Fprintf(stderr, "planctl migrate: unknown direction %q\n", direction)
		return exitCodeUsage
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fail(stdout, errors.NewConfigurationError(err.Error()))
	}
	if cfg.Database.Driver != "postgres" {
		return fail(stdout, errors.NewConfigurationError("migrations apply to the postgres driver only; sqlite is migrated from the models"))
	}

	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	if err != nil {
		return fail(stdout, errors.NewConfigurationError(err.Error()))
	}
	defer func() { _ = log.Sync() }()

	db, err := migrations.Open(cfg.GetDSN())
	if err != nil {
		return fail(stdout, errors.NewPersistenceError("open database", err))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fail(stdout, errors.NewPersistenceError("connect to database", err))
	}

	m, err := migrations.New(db, cfg.Database.Database, log)
	if err != nil {
		_ = db.Close()
		return fail(stdout, errors.NewPersistenceError("prepare migrations", err))
	}
	defer func() { _ = m.Close() }()

	switch direction {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	}
	if err != nil {
		return fail(stdout, errors.NewPersistenceError("migrate "+direction, err))
	}

	status, err := m.Status()
	if err != nil {
		return fail(stdout, errors.NewPersistenceError("read migration status", err))
	}
	return succeed(stdout, status)
}
