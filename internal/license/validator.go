package license

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DeviceIdentifier derives the stable device identity. Implementations
// never fail outward; a diagnostic id stands in on total failure.
type DeviceIdentifier interface {
	DeviceID() string
}

// Validator is the activation coordinator. It drives a single validation
// attempt through syntax checking, device identity, snapshot fetch,
// status/expiry guards, binding evaluation and, when permitted, the
// activation of a new device binding.
type Validator struct {
	store    Store
	device   DeviceIdentifier
	session  *Session
	notifier *Notifier
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithMetrics attaches OpenTelemetry instruments to the validator.
func WithMetrics(m *Metrics) ValidatorOption {
	return func(v *Validator) { v.metrics = m }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator creates the activation coordinator.
func NewValidator(store Store, device DeviceIdentifier, session *Session, notifier *Notifier, logger *slog.Logger, opts ...ValidatorOption) *Validator {
	v := &Validator{
		store:    store,
		device:   device,
		session:  session,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "license.validator")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs one full validation attempt for the given key. The
// returned result is always non-nil and describes the outcome; when the
// attempt is rejected the error is the same *ValidationError carried in
// the result, so callers can branch with errors.As. The licensed
// notification fires exactly once per attempt.
func (v *Validator) Validate(ctx context.Context, key string) (*ValidationResult, error) {
	start := v.now()
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "license.validate",
		trace.WithAttributes(attribute.String("license.key", MaskKey(key))))
	defer span.End()

	v.metrics.recordAttempt(ctx)
	v.notifier.Status("Validating license key...")

	if key == "" {
		return v.reject(ctx, start, span, "", newFormatError("License key is required"))
	}
	if !IsValidKeyFormat(key) {
		return v.reject(ctx, start, span, "", newFormatError("Invalid license key format"))
	}

	deviceID := v.device.DeviceID()
	span.SetAttributes(attribute.String("device.id", deviceID))

	// One bounded retry: a successful activation re-runs the fetch and
	// evaluation exactly once, because the device counts changed. A
	// second CanActivate afterwards means the store never applied the
	// binding it acknowledged.
	activated := false
	for {
		v.notifier.Status("Checking license database...")

		fetchStart := v.now()
		snapshot, err := v.store.Snapshot(ctx)
		v.metrics.recordStoreRequest(ctx, fetchStart, err)
		if err != nil {
			return v.reject(ctx, start, span, deviceID, newConnectivityError(err))
		}

		record, ok := snapshot.LicenseKeys[key]
		if !ok {
			return v.reject(ctx, start, span, deviceID, newNotFoundError())
		}

		// Status and expiry guards run before any binding decision and
		// short-circuit it.
		if record.Status != RecordStatusActive {
			return v.reject(ctx, start, span, deviceID, newStatusError(record.Status))
		}
		expiry, err := parseExpiry(record.ExpiryDate)
		if err != nil {
			return v.reject(ctx, start, span, deviceID, newConnectivityError(err))
		}
		if expiry.Before(v.now()) {
			return v.reject(ctx, start, span, deviceID, newExpiredError())
		}

		status := EvaluateBinding(record, deviceID)
		span.SetAttributes(attribute.String("binding.status", status.String()))

		switch status {
		case Authorized:
			info := LicenseInfo{
				LicenseKey:      key,
				LicenseType:     record.LicenseType,
				ExpiryDate:      expiry,
				FeaturesEnabled: record.FeaturesEnabled,
				MaxDevices:      record.MaxDevices,
				CurrentDevices:  record.CurrentDevices,
			}
			return v.authorize(ctx, start, &info, deviceID)

		case CanActivate:
			if activated {
				v.logger.ErrorContext(ctx, "store acknowledged activation but binding is still absent",
					slog.String("license_key", MaskKey(key)),
					slog.String("device_id", deviceID),
				)
				return v.reject(ctx, start, span, deviceID, newInconsistentStateError())
			}

			v.notifier.Status("Activating device...")
			err := v.store.ActivateDevice(ctx, key, deviceID, DeviceName())
			v.metrics.recordActivation(ctx, err)
			if err != nil {
				var refused *ActivationRefusedError
				if errors.As(err, &refused) {
					return v.reject(ctx, start, span, deviceID, newActivationFailedError(err))
				}
				return v.reject(ctx, start, span, deviceID, newConnectivityError(err))
			}
			activated = true
			// Re-fetch: the activation changed the device counts.

		default:
			return v.reject(ctx, start, span, deviceID, newBindingError(status))
		}
	}
}

func (v *Validator) authorize(ctx context.Context, start time.Time, info *LicenseInfo, deviceID string) (*ValidationResult, error) {
	v.session.SetAuthorized(*info, deviceID)

	days := int(info.ExpiryDate.Sub(v.now()).Hours() / 24)
	if days < 0 {
		days = 0
	}

	v.logger.InfoContext(ctx, "license validated",
		slog.String("license_key", MaskKey(info.LicenseKey)),
		slog.String("license_type", info.LicenseType),
		slog.String("device_id", deviceID),
		slog.Int("days_remaining", days),
		slog.Duration("elapsed", v.now().Sub(start)),
	)
	v.metrics.recordValidation(ctx, start, "")

	v.notifier.Status("License valid")
	v.notifier.Licensed(true)

	return &ValidationResult{
		Valid:        true,
		Info:         info,
		DeviceStatus: Authorized,
		DeviceID:     deviceID,
		Message:      "License validated successfully",
	}, nil
}

func (v *Validator) reject(ctx context.Context, start time.Time, span trace.Span, deviceID string, verr *ValidationError) (*ValidationResult, error) {
	span.RecordError(verr)
	span.SetAttributes(attribute.String("error.code", string(verr.Code)))

	v.logger.WarnContext(ctx, "license validation rejected",
		slog.String("error_code", string(verr.Code)),
		slog.String("message", verr.Message),
		slog.String("device_id", deviceID),
		slog.Duration("elapsed", v.now().Sub(start)),
	)
	v.metrics.recordValidation(ctx, start, verr.Code)

	v.notifier.Status(verr.Message)
	v.notifier.Licensed(false)

	status := StatusUnknown
	switch verr.Code {
	case CodeDeviceLimit:
		status = DeviceLimitExceeded
	case CodeDeviceDeactivated:
		status = Deactivated
	case CodeDeviceBlacklisted:
		status = Blacklisted
	case CodeActivationFailed, CodeInconsistentState:
		status = CanActivate
	}

	return &ValidationResult{
		Valid:        false,
		DeviceStatus: status,
		DeviceID:     deviceID,
		Message:      verr.Message,
		Err:          verr,
	}, verr
}
