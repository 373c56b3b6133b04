// Package healthcheck probes the planner's dependencies and folds the
// results into one status that maps onto a process exit code.
package healthcheck

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome of a probe or of a whole run
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ExitCode maps a status to the process exit code used by probes
func (s Status) ExitCode() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

func (s Status) worse(other Status) bool {
	return s.ExitCode() > other.ExitCode()
}

// Result is the outcome of one probe
type Result struct {
	Name      string         `json:"name"`
	Status    Status         `json:"status"`
	Optional  bool           `json:"optional,omitempty"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Elapsed   time.Duration  `json:"-"`
	ElapsedMS int64          `json:"duration_ms"`
}

// Report aggregates every probe of a run
type Report struct {
	Status    Status        `json:"status"`
	Version   string        `json:"version"`
	CheckedAt time.Time     `json:"checked_at"`
	Results   []Result      `json:"checks"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMS int64         `json:"total_duration_ms"`
}

// Checker probes one dependency
type Checker interface {
	Check(ctx context.Context) Result
}

// Func adapts a plain function to Checker
type Func func(ctx context.Context) (Status, string, map[string]any)

// Check calls f
func (f Func) Check(ctx context.Context) Result {
	status, msg, details := f(ctx)
	return Result{Status: status, Message: msg, Details: details}
}

type probe struct {
	name     string
	optional bool
	checker  Checker
}

// Runner holds the registered probes
type Runner struct {
	version string
	logger  *zap.Logger
	timeout time.Duration
	metrics *HealthMetrics

	mu     sync.Mutex
	probes []probe
}

// Option configures a Runner
type Option func(*Runner)

// WithTimeout bounds every probe. The default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMetrics records each report into m
func WithMetrics(m *HealthMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// New creates a runner reporting the given build version
func New(version string, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		version: version,
		logger:  logger.Named("healthcheck"),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a probe whose failure makes the whole run unhealthy
func (r *Runner) Register(name string, c Checker) {
	r.add(probe{name: name, checker: c})
}

// RegisterOptional adds a probe whose failure only degrades the run
func (r *Runner) RegisterOptional(name string, c Checker) {
	r.add(probe{name: name, optional: true, checker: c})
}

func (r *Runner) add(p probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.probes {
		if r.probes[i].name == p.name {
			r.probes[i] = p
			return
		}
	}
	r.probes = append(r.probes, p)
}

// Run executes every probe concurrently and reports them in name order
func (r *Runner) Run(ctx context.Context) Report {
	r.mu.Lock()
	probes := append([]probe(nil), r.probes...)
	r.mu.Unlock()

	started := time.Now()
	results := make([]Result, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			results[i] = r.runProbe(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	report := Report{
		Status:    StatusHealthy,
		Version:   r.version,
		CheckedAt: started,
		Results:   results,
	}
	for _, res := range results {
		effective := res.Status
		if res.Optional && effective == StatusUnhealthy {
			effective = StatusDegraded
		}
		if effective.worse(report.Status) {
			report.Status = effective
		}
	}
	report.Elapsed = time.Since(started)
	report.ElapsedMS = report.Elapsed.Milliseconds()

	if report.Status != StatusHealthy {
		fields := []zap.Field{zap.String("status", string(report.Status))}
		for _, res := range results {
			if res.Status != StatusHealthy {
				fields = append(fields, zap.String(res.Name, res.Message))
			}
		}
		r.logger.Warn("Dependencies are not healthy", fields...)
	}
	if r.metrics != nil {
		r.metrics.Observe(report)
	}
	return report
}

func (r *Runner) runProbe(ctx context.Context, p probe) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	done := make(chan Result, 1)
	go func() { done <- p.checker.Check(ctx) }()

	var res Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = Result{Status: StatusUnhealthy, Message: "check timed out"}
	}
	res.Name = p.name
	res.Optional = p.optional
	res.Elapsed = time.Since(started)
	res.ElapsedMS = res.Elapsed.Milliseconds()
	return res
}

// SQLPing checks a database/sql pool. A pool with more than 90% of its
// connections in use is degraded.
func SQLPing(db *sql.DB) Checker {
	return Func(func(ctx context.Context) (Status, string, map[string]any) {
		if err := db.PingContext(ctx); err != nil {
			return StatusUnhealthy, err.Error(), nil
		}
		stats := db.Stats()
		details := map[string]any{
			"open":   stats.OpenConnections,
			"in_use": stats.InUse,
			"idle":   stats.Idle,
			"max":    stats.MaxOpenConnections,
		}
		if limit := stats.MaxOpenConnections; limit > 0 && stats.InUse*10 > limit*9 {
			return StatusDegraded, "connection pool nearly exhausted", details
		}
		return StatusHealthy, "", details
	})
}

// RedisPing checks that the sample cache answers PING
func RedisPing(client redis.UniversalClient) Checker {
	return Func(func(ctx context.Context) (Status, string, map[string]any) {
		reply, err := client.Ping(ctx).Result()
		switch {
		case err != nil:
			return StatusUnhealthy, err.Error(), nil
		case reply != "PONG":
			return StatusUnhealthy, "unexpected reply " + reply, nil
		}
		return StatusHealthy, "", nil
	})
}
