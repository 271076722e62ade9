package license

import (
	"time"
)

// License record statuses as stored in the remote database.
const (
	RecordStatusActive    = "active"
	RecordStatusSuspended = "suspended"
	RecordStatusRevoked   = "revoked"
)

// Per-device binding statuses as stored in the remote database.
const (
	DeviceStatusActive      = "active"
	DeviceStatusDeactivated = "deactivated"
	DeviceStatusBlacklisted = "blacklisted"
)

// BindingStatus is the outcome of evaluating a device against a license
// record. EvaluateBinding always returns one of the five non-zero
// values; StatusUnknown marks validation outcomes reached before any
// binding decision (bad syntax, missing record, expired license).
type BindingStatus int

const (
	StatusUnknown BindingStatus = iota
	Authorized
	CanActivate
	DeviceLimitExceeded
	Deactivated
	Blacklisted
)

// String returns a human-readable name for the binding status.
func (s BindingStatus) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case CanActivate:
		return "can_activate"
	case DeviceLimitExceeded:
		return "device_limit_exceeded"
	case Deactivated:
		return "deactivated"
	case Blacklisted:
		return "blacklisted"
	default:
		return "unknown"
	}
}

// Message returns the user-facing message for a terminal binding status.
func (s BindingStatus) Message() string {
	switch s {
	case Authorized:
		return "Device is authorized"
	case CanActivate:
		return "Device can be activated"
	case DeviceLimitExceeded:
		return "Maximum number of devices reached for this license"
	case Deactivated:
		return "Device has been deactivated"
	case Blacklisted:
		return "Device is blacklisted"
	default:
		return "Unknown device status"
	}
}

// DeviceBinding is the per-device sub-record of a license. Bindings are
// created on first activation and only ever transitioned to deactivated
// or blacklisted by the store; they are never deleted.
type DeviceBinding struct {
	Status          string `json:"status"`
	DeviceName      string `json:"device_name"`
	FirstActivation string `json:"first_activation"`
	LastSeen        string `json:"last_seen"`
}

// LicenseRecord is one entry of the remote license database, keyed by
// license key. The validation core treats it as read-only; the only
// mutation it ever requests is a device activation.
type LicenseRecord struct {
	LicenseKey      string                   `json:"license_key"`
	Status          string                   `json:"status"`
	CreatedDate     string                   `json:"created_date"`
	ExpiryDate      string                   `json:"expiry_date"`
	LicenseType     string                   `json:"license_type"`
	MaxDevices      int                      `json:"max_devices"`
	CurrentDevices  int                      `json:"current_devices"`
	FeaturesEnabled []string                 `json:"features_enabled"`
	DeviceBindings  map[string]DeviceBinding `json:"device_bindings"`
}

// SystemInfo describes the snapshot document itself.
type SystemInfo struct {
	Version         string `json:"version"`
	Created         string `json:"created"`
	LastUpdated     string `json:"last_updated"`
	TotalLicenses   int    `json:"total_licenses"`
	ActiveLicenses  int    `json:"active_licenses"`
	ExpiredLicenses int    `json:"expired_licenses"`
}

// Snapshot is the full license database document served by the remote
// store. Unknown fields are ignored on decode.
type Snapshot struct {
	SystemInfo  SystemInfo               `json:"system_info"`
	LicenseKeys map[string]LicenseRecord `json:"license_keys"`
}

// LicenseInfo is the resolved view of an authorized license, held by the
// Session for the lifetime of the process or until cleared.
type LicenseInfo struct {
	LicenseKey      string    `json:"license_key"`
	LicenseType     string    `json:"license_type"`
	ExpiryDate      time.Time `json:"expiry_date"`
	FeaturesEnabled []string  `json:"features_enabled"`
	MaxDevices      int       `json:"max_devices"`
	CurrentDevices  int       `json:"current_devices"`
}

// ValidationResult is the outcome of one validation attempt. Exactly one
// of Info (valid) or Err (invalid) is set; DeviceStatus reports the
// binding decision that produced the outcome.
type ValidationResult struct {
	Valid        bool             `json:"valid"`
	Info         *LicenseInfo     `json:"license_info,omitempty"`
	DeviceStatus BindingStatus    `json:"device_status"`
	DeviceID     string           `json:"device_id"`
	Message      string           `json:"message"`
	Err          *ValidationError `json:"error,omitempty"`
}

// parseExpiry parses the expiry timestamp formats the store is known to
// emit. The admin tooling writes RFC 3339; older records carry a bare
// date.
func parseExpiry(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: time.RFC3339, Value: value}
}
