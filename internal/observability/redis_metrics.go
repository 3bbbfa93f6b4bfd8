package observability

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisInstrumentationOnce sync.Once

// InstrumentRedisClient hooks command and pool metrics into the client.
// Safe to call more than once; instrumentation installs once per process.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	redisInstrumentationOnce.Do(func() {
		hook, err := newRedisMetricsHook(client)
		if err != nil {
			logger.Warn("redis instrumentation disabled", "error", err)
			return
		}
		client.AddHook(hook)
		logger.Info("redis instrumentation enabled")
	})
}

type redisMetricsHook struct {
	cmdTotal   metric.Int64Counter
	cmdLatency metric.Float64Histogram
}

func newRedisMetricsHook(client redis.UniversalClient) (*redisMetricsHook, error) {
	meter := otel.Meter(meterName)

	cmdTotal, err := meter.Int64Counter(
		"redis.command.total",
		metric.WithDescription("Redis commands executed, by command and status"),
	)
	if err != nil {
		return nil, err
	}
	cmdLatency, err := meter.Float64Histogram(
		"redis.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"),
	)
	if err != nil {
		return nil, err
	}
	poolSaturation, err := meter.Float64ObservableGauge(
		"redis.pool.saturation",
		metric.WithUnit("1"),
		metric.WithDescription("Redis pool saturation ratio (used_conns / total_conns)"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		stats := client.PoolStats()
		if stats != nil && stats.TotalConns > 0 {
			used := float64(stats.TotalConns - stats.IdleConns)
			ratio := used / float64(stats.TotalConns)
			if ratio < 0 {
				ratio = 0
			}
			if ratio > 1 {
				ratio = 1
			}
			observer.ObserveFloat64(poolSaturation, ratio)
		}
		return nil
	}, poolSaturation)
	if err != nil {
		return nil, err
	}

	return &redisMetricsHook{cmdTotal: cmdTotal, cmdLatency: cmdLatency}, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(ctx, strings.ToLower(cmd.Name()), err, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.record(ctx, "pipeline", err, time.Since(start))
		for _, cmd := range cmds {
			h.record(ctx, strings.ToLower(cmd.Name()), cmd.Err(), 0)
		}
		return err
	}
}

func (h *redisMetricsHook) record(ctx context.Context, command string, err error, duration time.Duration) {
	status := "success"
	switch err {
	case nil:
	case redis.Nil:
		status = "miss"
	default:
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	)
	h.cmdTotal.Add(ctx, 1, attrs)
	if duration > 0 {
		h.cmdLatency.Record(ctx, duration.Seconds(), attrs)
	}
}
