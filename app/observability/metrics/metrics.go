package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ocop-products"

// AppMetrics holds the application's metric instruments.
// All Record methods are safe to call on a nil receiver.
type AppMetrics struct {
	GateDecisionsTotal      metric.Int64Counter
	LoginAttemptsTotal      metric.Int64Counter
	RegisterRequestsTotal   metric.Int64Counter
	RegisterDurationSeconds metric.Float64Histogram
	HTTPRequestsTotal       metric.Int64Counter
	HTTPDurationSeconds     metric.Float64Histogram
	DbQueryDurationSeconds  metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// New creates every instrument on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	m := &AppMetrics{}
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return h
	}

	m.GateDecisionsTotal = counter("auth_gate_decisions_total", "Authorization gate outcomes", "{decision}")
	m.LoginAttemptsTotal = counter("login_attempts_total", "Login attempts by result", "{attempt}")
	m.RegisterRequestsTotal = counter("register_requests_total", "Total number of register requests completed", "{request}")
	m.RegisterDurationSeconds = histogram("register_duration_seconds", "Duration of register requests in seconds")
	m.HTTPRequestsTotal = counter("http_requests_total", "HTTP requests served", "{request}")
	m.HTTPDurationSeconds = histogram("http_request_duration_seconds", "Duration of HTTP requests in seconds")
	m.DbQueryDurationSeconds = histogram("db_query_duration_seconds", "Duration of database queries in seconds")
	m.DbQueryErrorsTotal = counter("db_query_errors_total", "Total number of database query errors", "{error}")

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return m, nil
}

// InitAppMetrics initializes the global instruments once, using the
// globally configured MeterProvider.
func InitAppMetrics() (*AppMetrics, error) {
	once.Do(func() {
		appMetrics, initErr = New(otel.GetMeterProvider().Meter(meterName))
	})
	return appMetrics, initErr
}

// Get returns the global instruments, or nil before InitAppMetrics.
func Get() *AppMetrics {
	return appMetrics
}

func (m *AppMetrics) RecordGateDecision(ctx context.Context, outcome string) {
	if m == nil || m.GateDecisionsTotal == nil {
		return
	}
	m.GateDecisionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *AppMetrics) RecordLogin(ctx context.Context, result string) {
	if m == nil || m.LoginAttemptsTotal == nil {
		return
	}
	m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *AppMetrics) RecordRegister(ctx context.Context, d time.Duration, err error) {
	if m == nil || m.RegisterRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.RegisterRequestsTotal.Add(ctx, 1, attrs)
	m.RegisterDurationSeconds.Record(ctx, d.Seconds(), attrs)
}

func (m *AppMetrics) RecordHTTP(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil || m.HTTPRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPDurationSeconds.Record(ctx, d.Seconds(), attrs)
}

func (m *AppMetrics) RecordDBQuery(ctx context.Context, op string, d time.Duration, err error) {
	if m == nil || m.DbQueryDurationSeconds == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", op))
	m.DbQueryDurationSeconds.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
