package store

import (
	"time"

	"gllauncher/internal/license"
)

const documentVersion = "1.0.0"

// OwnerInfo identifies the purchaser a license was issued to.
type OwnerInfo struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	RegistrationDate string `json:"registration_date"`
}

// UsageStatistics accumulates launcher-reported usage for one license.
type UsageStatistics struct {
	TotalActivations int      `json:"total_activations"`
	TotalLaunches    int      `json:"total_launches"`
	LastLaunch       *string  `json:"last_launch"`
	FeaturesUsed     []string `json:"features_used"`
}

// Record is the full admin-side license entry. It extends the snapshot
// record launchers see with owner and usage bookkeeping.
type Record struct {
	license.LicenseRecord
	DaysRemaining   int             `json:"days_remaining"`
	OwnerInfo       OwnerInfo       `json:"owner_info"`
	UsageStatistics UsageStatistics `json:"usage_statistics"`
}

// RevokedLicense is the tombstone kept when a license is revoked. The
// live record is removed so revoked keys simply vanish from launcher
// snapshots.
type RevokedLicense struct {
	LicenseKey     string `json:"license_key"`
	RevokedDate    string `json:"revoked_date"`
	RevokeReason   string `json:"revoke_reason"`
	OriginalExpiry string `json:"original_expiry"`
}

// BlacklistedDevice is a globally banned hardware id. Blacklisting is
// recorded here and mirrored into the device bindings of any license
// the device is bound to.
type BlacklistedDevice struct {
	DeviceID      string `json:"device_id"`
	BlacklistDate string `json:"blacklist_date"`
	Reason        string `json:"reason"`
	Permanent     bool   `json:"permanent"`
}

// Document is the complete license database file.
type Document struct {
	SystemInfo         license.SystemInfo           `json:"system_info"`
	LicenseKeys        map[string]*Record           `json:"license_keys"`
	RevokedLicenses    map[string]RevokedLicense    `json:"revoked_licenses"`
	BlacklistedDevices map[string]BlacklistedDevice `json:"blacklisted_devices"`
}

// NewDocument creates an empty license database.
func NewDocument() *Document {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Document{
		SystemInfo: license.SystemInfo{
			Version:     documentVersion,
			Created:     now,
			LastUpdated: now,
		},
		LicenseKeys:        make(map[string]*Record),
		RevokedLicenses:    make(map[string]RevokedLicense),
		BlacklistedDevices: make(map[string]BlacklistedDevice),
	}
}

// Snapshot projects the document into the read-only view served to
// launchers. Admin-only fields are stripped.
func (d *Document) Snapshot() license.Snapshot {
	keys := make(map[string]license.LicenseRecord, len(d.LicenseKeys))
	for key, rec := range d.LicenseKeys {
		keys[key] = rec.LicenseRecord
	}
	return license.Snapshot{
		SystemInfo:  d.SystemInfo,
		LicenseKeys: keys,
	}
}

func (d *Document) touch() {
	d.SystemInfo.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}
