// Package main provides a standalone health check command for NutriPlan.
// It probes the database, the sample cache and the model providers and is
// suitable for container health checks and monitoring scripts.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	aiinfra "github.com/nutriplan/planner/internal/infrastructure/ai"
	"github.com/nutriplan/planner/internal/infrastructure/config"
	"github.com/nutriplan/planner/internal/infrastructure/persistence/migrations"
	"github.com/nutriplan/planner/pkg/healthcheck"
	"github.com/nutriplan/planner/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const exitCodeError = 2

// options holds command-line configuration
type options struct {
	configPath string
	format     string
	timeout    time.Duration
	verbose    bool
	skipModel  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run performs one health check and returns 0 for healthy, 1 for degraded
// and 2 for unhealthy or when the check could not run
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return exitCodeError
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Debug,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitCodeError
	}
	defer func() { _ = log.Sync() }()

	metrics := healthcheck.NewHealthMetrics(healthcheck.DefaultMetricsConfig())
	runner := healthcheck.New(cfg.App.Version, log,
		healthcheck.WithTimeout(opts.timeout),
		healthcheck.WithMetrics(metrics),
	)

	cleanup, err := registerHealthChecks(ctx, runner, cfg, opts, log)
	defer cleanup()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to prepare health checks: %v\n", err)
		return exitCodeError
	}

	report := runner.Run(ctx)

	if cfg.Monitoring.EnableMetrics && cfg.Monitoring.PushgatewayURL != "" {
		if err := push.New(cfg.Monitoring.PushgatewayURL, "health-check").
			Gatherer(metrics.Registry()).
			PushContext(ctx); err != nil {
			log.Warn("Failed to push health metrics", zap.Error(err))
		}
	}

	if err := outputResult(stdout, report, opts); err != nil {
		fmt.Fprintf(stderr, "Failed to write result: %v\n", err)
		return exitCodeError
	}

	return report.Status.ExitCode()
}

// parseFlags parses command-line flags
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("health-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Configuration file path")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Timeout for each check")
	fs.BoolVar(&opts.verbose, "verbose", false, "List every check in text output")
	fs.BoolVar(&opts.skipModel, "skip-model", false, "Do not probe the model providers")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "unknown format %q\n", opts.format)
		return opts, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

// registerHealthChecks wires a probe per configured dependency. Redis is
// optional since the planner falls back to its in-process sample cache.
// The returned cleanup releases every opened connection.
func registerHealthChecks(ctx context.Context, runner *healthcheck.Runner, cfg *config.Config, opts options, log *zap.Logger) (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return cleanup, err
	}
	closers = append(closers, func() { _ = db.Close() })
	runner.Register("database", healthcheck.SQLPing(db))

	if addr := cfg.RedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:        addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.Database,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		closers = append(closers, func() { _ = client.Close() })
		runner.RegisterOptional("redis", healthcheck.RedisPing(client))
	}

	if !opts.skipModel {
		providers, err := aiinfra.BuildProviders(ctx, cfg.AI, log)
		if err != nil {
			return cleanup, err
		}
		closers = append(closers, func() {
			for _, p := range providers {
				_ = p.Close()
			}
		})
		runner.Register("model", modelChecker(aiinfra.NewHealthChecker(providers, log)))
	}

	return cleanup, nil
}

// openDatabase opens a pool without migrating or seeding
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.Driver == "postgres" {
		return migrations.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return db.DB()
}

// modelChecker reports the provider chain as one check. A chain with no
// responding provider is unhealthy.
func modelChecker(checker *aiinfra.HealthChecker) healthcheck.Checker {
	return healthcheck.Func(func(ctx context.Context) (healthcheck.Status, string, map[string]any) {
		status := checker.CheckHealth(ctx)

		details := make(map[string]any, len(status.Providers))
		for name, up := range status.Providers {
			if up {
				details[name] = "up"
			} else {
				details[name] = status.Details[name]
			}
		}

		switch status.Overall {
		case aiinfra.StatusHealthy:
			return healthcheck.StatusHealthy, "", details
		case aiinfra.StatusDegraded:
			return healthcheck.StatusDegraded, "some providers are unavailable", details
		default:
			return healthcheck.StatusUnhealthy, "no provider is available", details
		}
	})
}

// outputResult writes the report in the requested format
func outputResult(w io.Writer, r healthcheck.Report, opts options) error {
	if opts.format == "json" {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintf(w, "Status: %s\n", r.Status)
	fmt.Fprintf(w, "Version: %s\n", r.Version)
	fmt.Fprintf(w, "Timestamp: %s\n", r.CheckedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration: %dms\n", r.ElapsedMS)

	if opts.verbose || r.Status != healthcheck.StatusHealthy {
		fmt.Fprintln(w, "\nChecks:")
		for _, res := range r.Results {
			fmt.Fprintf(w, "  %s: %s", res.Name, res.Status)
			if res.Message != "" {
				fmt.Fprintf(w, " (%s)", res.Message)
			}
			if res.Optional {
				fmt.Fprint(w, " optional")
			}
			fmt.Fprintf(w, " [%dms]\n", res.ElapsedMS)
		}
	}
	return nil
}
