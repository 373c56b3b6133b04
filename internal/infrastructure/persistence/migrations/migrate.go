// Package migrations versions the PostgreSQL schema for recipes, plans
// and moderation using golang-migrate over embedded SQL files.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

const versionTable = "schema_migrations"

// Migrator applies the embedded schema to one database
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Open returns a pool backed by the pgx stdlib driver. It does not dial.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// New binds the embedded migrations to db. Closing the Migrator closes db.
func New(db *sql.DB, databaseName string, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(sqlFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	target, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: versionTable,
		DatabaseName:    databaseName,
	})
	if err != nil {
		return nil, fmt.Errorf("bind migration target: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}

	log := logger.Named("migrations")
	m.Log = migrateLogger{log.Sugar()}

	return &Migrator{m: m, logger: log}, nil
}

// Up applies every pending migration. Cancelling ctx stops after the
// migration in flight.
func (mg *Migrator) Up(ctx context.Context) error {
	from, _, err := mg.Version()
	if err != nil {
		return err
	}

	started := time.Now()
	if err := mg.run(ctx, mg.m.Up); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("Schema is up to date", zap.Uint("version", from))
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	to, _, _ := mg.Version()
	mg.logger.Info("Schema migrated",
		zap.Uint("from", from),
		zap.Uint("to", to),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

// Down reverts the most recent migration
func (mg *Migrator) Down(ctx context.Context) error {
	from, _, err := mg.Version()
	if err != nil {
		return err
	}
	if from == 0 {
		mg.logger.Info("No migration to revert")
		return nil
	}

	if err := mg.run(ctx, func() error { return mg.m.Steps(-1) }); err != nil {
		return fmt.Errorf("revert migration %d: %w", from, err)
	}

	to, _, _ := mg.Version()
	mg.logger.Info("Migration reverted", zap.Uint("from", from), zap.Uint("to", to))
	return nil
}

func (mg *Migrator) run(ctx context.Context, step func() error) error {
	done := make(chan error, 1)
	go func() { done <- step() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		mg.m.GracefulStop <- true
		<-done
		return ctx.Err()
	}
}

// Version reports the applied version, 0 when nothing was applied
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return v, dirty, nil
}

// Close releases the source and the database
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// MigrationStatus splits the embedded migrations around the applied version
type MigrationStatus struct {
	Version uint        `json:"version"`
	Dirty   bool        `json:"dirty"`
	Applied []Migration `json:"applied"`
	Pending []Migration `json:"pending"`
}

// Migration names one embedded migration
type Migration struct {
	Version uint   `json:"version"`
	Name    string `json:"name"`
}

// Status reports the applied version and which migrations remain
func (mg *Migrator) Status() (*MigrationStatus, error) {
	version, dirty, err := mg.Version()
	if err != nil {
		return nil, err
	}
	all, err := Available()
	if err != nil {
		return nil, err
	}

	idx := sort.Search(len(all), func(i int) bool { return all[i].Version > version })
	return &MigrationStatus{
		Version: version,
		Dirty:   dirty,
		Applied: append([]Migration{}, all[:idx]...),
		Pending: append([]Migration{}, all[idx:]...),
	}, nil
}

// Available lists the embedded migrations in version order. Files follow
// the NNNNNN_name.up.sql layout.
func Available() ([]Migration, error) {
	names, err := fs.Glob(sqlFiles, "sql/*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	out := make([]Migration, 0, len(names))
	for _, path := range names {
		base := strings.TrimSuffix(strings.TrimPrefix(path, "sql/"), ".up.sql")
		num, label, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(num, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Migration{Version: uint(v), Name: label})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// migrateLogger routes golang-migrate output to zap at debug level
type migrateLogger struct {
	s *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.s.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool {
	return l.s.Desugar().Core().Enabled(zap.DebugLevel)
}
