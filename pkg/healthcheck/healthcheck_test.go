package healthcheck

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func fixed(status Status, msg string) Checker {
	return Func(func(ctx context.Context) (Status, string, map[string]any) {
		return status, msg, nil
	})
}

func sleeping(d time.Duration) Checker {
	return Func(func(ctx context.Context) (Status, string, map[string]any) {
		time.Sleep(d)
		return StatusHealthy, "", nil
	})
}

func TestStatus_ExitCode(t *testing.T) {
	assert.Equal(t, 0, StatusHealthy.ExitCode())
	assert.Equal(t, 1, StatusDegraded.ExitCode())
	assert.Equal(t, 2, StatusUnhealthy.ExitCode())
	assert.Equal(t, 2, Status("unknown").ExitCode())
}

func TestRunner_Run_NoProbes(t *testing.T) {
	report := New("1.0.0", zap.NewNop()).Run(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, "1.0.0", report.Version)
	assert.Empty(t, report.Results)
}

func TestRunner_Run_Aggregation(t *testing.T) {
	tests := []struct {
		name     string
		required map[string]Status
		optional map[string]Status
		want     Status
	}{
		{
			name:     "all healthy",
			required: map[string]Status{"database": StatusHealthy, "model": StatusHealthy},
			want:     StatusHealthy,
		},
		{
			name:     "one degraded",
			required: map[string]Status{"database": StatusHealthy, "model": StatusDegraded},
			want:     StatusDegraded,
		},
		{
			name:     "unhealthy wins over degraded",
			required: map[string]Status{"database": StatusUnhealthy, "model": StatusDegraded},
			want:     StatusUnhealthy,
		},
		{
			name:     "optional failure only degrades",
			required: map[string]Status{"database": StatusHealthy},
			optional: map[string]Status{"redis": StatusUnhealthy},
			want:     StatusDegraded,
		},
		{
			name:     "required failure beats optional",
			required: map[string]Status{"model": StatusUnhealthy},
			optional: map[string]Status{"redis": StatusUnhealthy},
			want:     StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := New("1.0.0", zap.NewNop())
			for name, status := range tt.required {
				runner.Register(name, fixed(status, ""))
			}
			for name, status := range tt.optional {
				runner.RegisterOptional(name, fixed(status, ""))
			}

			report := runner.Run(context.Background())

			assert.Equal(t, tt.want, report.Status)
			require.Len(t, report.Results, len(tt.required)+len(tt.optional))
			for _, res := range report.Results {
				if status, ok := tt.optional[res.Name]; ok {
					assert.True(t, res.Optional)
					assert.Equal(t, status, res.Status)
					continue
				}
				assert.Equal(t, tt.required[res.Name], res.Status)
			}
		})
	}
}

func TestRunner_Run_SortedByName(t *testing.T) {
	runner := New("1.0.0", zap.NewNop())
	runner.RegisterOptional("redis", fixed(StatusHealthy, ""))
	runner.Register("database", fixed(StatusHealthy, ""))
	runner.Register("model", fixed(StatusHealthy, ""))

	report := runner.Run(context.Background())

	require.Len(t, report.Results, 3)
	assert.Equal(t, "database", report.Results[0].Name)
	assert.Equal(t, "model", report.Results[1].Name)
	assert.Equal(t, "redis", report.Results[2].Name)
}

func TestRunner_Register_ReplacesSameName(t *testing.T) {
	runner := New("1.0.0", zap.NewNop())
	runner.Register("model", fixed(StatusUnhealthy, "down"))
	runner.Register("model", fixed(StatusHealthy, ""))

	report := runner.Run(context.Background())

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusHealthy, report.Status)
}

func TestRunner_Run_Concurrent(t *testing.T) {
	delay := 50 * time.Millisecond
	runner := New("1.0.0", zap.NewNop())
	runner.Register("slow1", sleeping(delay))
	runner.Register("slow2", sleeping(delay))
	runner.Register("slow3", sleeping(delay))

	start := time.Now()
	report := runner.Run(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Less(t, time.Since(start), 3*delay)
}

func TestRunner_Run_Timeout(t *testing.T) {
	runner := New("1.0.0", zap.NewNop(), WithTimeout(10*time.Millisecond))
	runner.Register("model", sleeping(time.Second))

	report := runner.Run(context.Background())

	assert.Equal(t, StatusUnhealthy, report.Status)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "model", report.Results[0].Name)
	assert.Equal(t, "check timed out", report.Results[0].Message)
}

func TestRunner_Metrics(t *testing.T) {
	metrics := NewHealthMetrics(DefaultMetricsConfig())
	runner := New("1.0.0", zap.NewNop(), WithMetrics(metrics))
	runner.Register("database", fixed(StatusHealthy, ""))
	runner.Register("model", fixed(StatusDegraded, "1 of 2 providers down"))

	runner.Run(context.Background())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.healthStatus.WithLabelValues("overall")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.healthStatus.WithLabelValues("database")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.checksTotal.WithLabelValues("model", "degraded")))
}

func TestSQLPing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	res := SQLPing(sqlDB).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Contains(t, res.Details, "in_use")

	require.NoError(t, sqlDB.Close())
	res = SQLPing(sqlDB).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.NotEmpty(t, res.Message)
}

func TestRedisPing_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	res := RedisPing(client).Check(context.Background())

	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.NotEmpty(t, res.Message)
}

func TestReport_JSON(t *testing.T) {
	runner := New("1.0.0", zap.NewNop())
	runner.RegisterOptional("redis", fixed(StatusUnhealthy, "connection refused"))

	data, err := json.Marshal(runner.Run(context.Background()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "degraded", decoded["status"])
	assert.Contains(t, decoded, "total_duration_ms")

	checks := decoded["checks"].([]any)
	require.Len(t, checks, 1)
	check := checks[0].(map[string]any)
	assert.Equal(t, true, check["optional"])
	assert.Equal(t, "connection refused", check["message"])
	assert.Contains(t, check, "duration_ms")
}
