package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gllauncher/internal/infrastructure"
	"gllauncher/internal/license"
	"gllauncher/internal/security"
)

// ErrRateLimited is returned when activation attempts for a key arrive
// faster than the configured limit.
var ErrRateLimited = errors.New("too many activation attempts")

// LicenseService provides the business layer between the HTTP transport
// and the license validation core.
type LicenseService interface {
	Activate(ctx context.Context, key string) (*license.ValidationResult, error)
	Status(ctx context.Context) (*LicenseStatusResponse, error)
	IsFeatureEnabled(ctx context.Context, name string) bool
	ClearSession(ctx context.Context)
}

// LicenseStatusResponse is the standardized license status payload.
type LicenseStatusResponse struct {
	Licensed      bool                 `json:"licensed"`
	LicenseStatus string               `json:"license_status"` // active|expired|not_activated
	Message       string               `json:"message"`
	DaysLeft      int                  `json:"days_left"`
	DeviceID      string               `json:"device_id,omitempty"`
	LicenseInfo   *license.LicenseInfo `json:"license_info,omitempty"`
	TraceID       string               `json:"trace_id"`
	Timestamp     time.Time            `json:"timestamp"`
}

type licenseService struct {
	validator *license.Validator
	session   *license.Session
	device    license.DeviceIdentifier
	limiter   *security.ActivationLimiter
	logger    *slog.Logger
}

// NewLicenseService creates the license business service.
func NewLicenseService(validator *license.Validator, session *license.Session, device license.DeviceIdentifier, limiter *security.ActivationLimiter, logger *slog.Logger) LicenseService {
	return &licenseService{
		validator: validator,
		session:   session,
		device:    device,
		limiter:   limiter,
		logger:    logger.With(slog.String("service", "license")),
	}
}

// Activate runs a full validation attempt for the given key, activating
// this device when the license permits it.
func (s *licenseService) Activate(ctx context.Context, key string) (*license.ValidationResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)

	if s.limiter != nil && !s.limiter.Allow(key) {
		s.logger.WarnContext(ctx, "activation rate limited",
			slog.String("license_key", license.MaskKey(key)))
		return nil, ErrRateLimited
	}

	return s.validator.Validate(ctx, key)
}

// Status reports the current session state without any network call.
func (s *licenseService) Status(ctx context.Context) (*LicenseStatusResponse, error) {
	ctx = infrastructure.EnsureTraceID(ctx)

	resp := &LicenseStatusResponse{
		TraceID:   infrastructure.TraceIDFromContext(ctx),
		Timestamp: time.Now().UTC(),
	}

	info := s.session.Info()
	switch {
	case info == nil:
		resp.LicenseStatus = "not_activated"
		resp.Message = "No license has been activated"
	case !s.session.IsLicensed():
		resp.LicenseStatus = "expired"
		resp.Message = "License has expired"
		resp.LicenseInfo = info
		resp.DeviceID = s.session.DeviceID()
	default:
		resp.Licensed = true
		resp.LicenseStatus = "active"
		resp.Message = "License is active"
		resp.DaysLeft = s.session.DaysRemaining()
		resp.LicenseInfo = info
		resp.DeviceID = s.session.DeviceID()
	}

	return resp, nil
}

// IsFeatureEnabled reports whether the cached license enables a feature.
func (s *licenseService) IsFeatureEnabled(ctx context.Context, name string) bool {
	return s.session.IsFeatureEnabled(name)
}

// ClearSession drops the cached license and the cached device id.
func (s *licenseService) ClearSession(ctx context.Context) {
	s.session.Clear()
	if f, ok := s.device.(*security.Fingerprinter); ok {
		f.ClearCache()
	}
	s.logger.InfoContext(ctx, "license session cleared")
}
