package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alokah-labs/superapp-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "alokah-superapp-backend"

type appMetricsSet struct {
	otpIssuedCounter         metric.Int64Counter
	otpVerificationCounter   metric.Int64Counter
	tokenRefreshCounter      metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	rateLimitRetryAfter      metric.Float64Histogram
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *appMetricsSet
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "health.check.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter(meterName)
	otpIssued, err := meter.Int64Counter(
		"otp.issued",
		metric.WithDescription("OTP issuance attempts by purpose and outcome"),
	)
	if err != nil {
		return nil, err
	}
	otpVerification, err := meter.Int64Counter(
		"otp.verification",
		metric.WithDescription("OTP verification attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}
	tokenRefresh, err := meter.Int64Counter(
		"auth.token.refresh",
		metric.WithDescription("Refresh token exchanges by outcome"),
	)
	if err != nil {
		return nil, err
	}
	rateLimitDecisions, err := meter.Int64Counter(
		"http.rate_limit.decisions",
		metric.WithDescription("Rate limiter allow/deny decisions"),
	)
	if err != nil {
		return nil, err
	}
	rateLimitRetryAfter, err := meter.Float64Histogram(
		"http.rate_limit.retry_after",
		metric.WithUnit("s"),
		metric.WithDescription("Retry-after duration in seconds for throttled requests"),
	)
	if err != nil {
		return nil, err
	}
	healthResults, err := meter.Int64Counter(
		"health.check.results",
		metric.WithDescription("Health dependency check results"),
	)
	if err != nil {
		return nil, err
	}
	healthDuration, err := meter.Float64Histogram(
		"health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds"),
	)
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &appMetricsSet{
		otpIssuedCounter:         otpIssued,
		otpVerificationCounter:   otpVerification,
		tokenRefreshCounter:      tokenRefresh,
		rateLimitDecisionCounter: rateLimitDecisions,
		rateLimitRetryAfter:      rateLimitRetryAfter,
		healthCheckResultCounter: healthResults,
		healthCheckDuration:      healthDuration,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func currentMetrics() *appMetricsSet {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordOTPIssued(ctx context.Context, purpose, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.otpIssuedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", purpose),
		attribute.String("outcome", outcome),
	))
}

func RecordOTPVerification(ctx context.Context, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.otpVerificationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordTokenRefresh(ctx context.Context, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.tokenRefreshCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
		attribute.String("mode", mode),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope string, retryAfter time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
		attribute.String("scope", scope),
	))
}

func RecordHealthCheckResult(ctx context.Context, dependency, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("outcome", outcome),
	)
	m.healthCheckResultCounter.Add(ctx, 1, attrs)
	m.healthCheckDuration.Record(ctx, duration.Seconds(), attrs)
}
