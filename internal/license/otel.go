package license

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// TracerName identifies spans emitted by the validation core.
	TracerName = "license-validator"
	// MeterName identifies metrics emitted by the validation core.
	MeterName = "license-validator"
)

// Metrics holds the validation core's OpenTelemetry instruments. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ValidationAttempts metric.Int64Counter
	ValidationSuccess  metric.Int64Counter
	ValidationFailures metric.Int64Counter
	ValidationDuration metric.Float64Histogram

	ActivationAttempts metric.Int64Counter
	ActivationSuccess  metric.Int64Counter
	ActivationFailures metric.Int64Counter

	StoreRequests metric.Int64Counter
	StoreFailures metric.Int64Counter
	StoreDuration metric.Float64Histogram
}

// NewMetrics creates all validation metrics on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.ValidationAttempts, err = meter.Int64Counter(
		"license_validation_attempts_total",
		metric.WithDescription("Total number of license validation attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create validation attempts counter: %w", err)
	}

	if m.ValidationSuccess, err = meter.Int64Counter(
		"license_validation_success_total",
		metric.WithDescription("Total number of successful license validations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create validation success counter: %w", err)
	}

	if m.ValidationFailures, err = meter.Int64Counter(
		"license_validation_failures_total",
		metric.WithDescription("Total number of failed license validations by error code"),
	); err != nil {
		return nil, fmt.Errorf("failed to create validation failures counter: %w", err)
	}

	if m.ValidationDuration, err = meter.Float64Histogram(
		"license_validation_duration_seconds",
		metric.WithDescription("License validation duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create validation duration histogram: %w", err)
	}

	if m.ActivationAttempts, err = meter.Int64Counter(
		"license_activation_attempts_total",
		metric.WithDescription("Total number of device activation attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create activation attempts counter: %w", err)
	}

	if m.ActivationSuccess, err = meter.Int64Counter(
		"license_activation_success_total",
		metric.WithDescription("Total number of successful device activations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create activation success counter: %w", err)
	}

	if m.ActivationFailures, err = meter.Int64Counter(
		"license_activation_failures_total",
		metric.WithDescription("Total number of failed device activations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create activation failures counter: %w", err)
	}

	if m.StoreRequests, err = meter.Int64Counter(
		"license_store_requests_total",
		metric.WithDescription("Total number of license store requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create store requests counter: %w", err)
	}

	if m.StoreFailures, err = meter.Int64Counter(
		"license_store_failures_total",
		metric.WithDescription("Total number of failed license store requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create store failures counter: %w", err)
	}

	if m.StoreDuration, err = meter.Float64Histogram(
		"license_store_duration_seconds",
		metric.WithDescription("License store request duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create store duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) recordValidation(ctx context.Context, start time.Time, errCode ErrorCode) {
	if m == nil {
		return
	}
	m.ValidationDuration.Record(ctx, time.Since(start).Seconds())
	if errCode == "" {
		m.ValidationSuccess.Add(ctx, 1)
		return
	}
	m.ValidationFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("error_code", string(errCode))))
}

func (m *Metrics) recordStoreRequest(ctx context.Context, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StoreRequests.Add(ctx, 1)
	m.StoreDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		m.StoreFailures.Add(ctx, 1)
	}
}

func (m *Metrics) recordActivation(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.ActivationAttempts.Add(ctx, 1)
	if err != nil {
		m.ActivationFailures.Add(ctx, 1)
	} else {
		m.ActivationSuccess.Add(ctx, 1)
	}
}

func (m *Metrics) recordAttempt(ctx context.Context) {
	if m == nil {
		return
	}
	m.ValidationAttempts.Add(ctx, 1)
}
