package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gllauncher/internal/keygen"
	"gllauncher/internal/license"
)

// ErrNotFound is returned when a license key or device id has no entry
// in the database.
var ErrNotFound = errors.New("store: not found")

// AdminDB manages the license database file. All operations persist
// before returning; the database is small enough that a full rewrite
// per operation is the simplest correct strategy.
type AdminDB struct {
	mu     sync.Mutex
	path   string
	doc    *Document
	signer *Signer
	logger *slog.Logger
}

// Open loads the database at path, creating an empty one when the file
// does not exist. When signer is non-nil the signature sidecar is
// verified on load and refreshed on every save.
func Open(path string, signer *Signer, logger *slog.Logger) (*AdminDB, error) {
	db := &AdminDB{
		path:   path,
		signer: signer,
		logger: logger.With(slog.String("component", "store.admin")),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		db.doc = NewDocument()
		db.logger.Info("created empty license database", slog.String("path", path))
		return db, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read license database: %w", err)
	}

	if signer != nil {
		if err := signer.VerifyFile(path, data); err != nil {
			return nil, fmt.Errorf("license database signature: %w", err)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse license database: %w", err)
	}
	if doc.LicenseKeys == nil {
		doc.LicenseKeys = make(map[string]*Record)
	}
	if doc.RevokedLicenses == nil {
		doc.RevokedLicenses = make(map[string]RevokedLicense)
	}
	if doc.BlacklistedDevices == nil {
		doc.BlacklistedDevices = make(map[string]BlacklistedDevice)
	}
	db.doc = &doc
	return db, nil
}

// CreateOptions controls license issuing. Zero values fall back to the
// tier defaults.
type CreateOptions struct {
	Tier         string
	OwnerName    string
	OwnerEmail   string
	DurationDays int
	MaxDevices   int
}

// Create issues a new license and returns its key.
func (db *AdminDB) Create(opts CreateOptions) (string, error) {
	defaults, err := keygen.DefaultsForTier(opts.Tier)
	if err != nil {
		return "", err
	}
	if opts.DurationDays <= 0 {
		opts.DurationDays = defaults.DurationDays
	}
	if opts.MaxDevices <= 0 {
		opts.MaxDevices = defaults.MaxDevices
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	var key string
	for {
		key, err = keygen.Generate(opts.Tier, 0)
		if err != nil {
			return "", err
		}
		if _, exists := db.doc.LicenseKeys[key]; !exists {
			break
		}
	}

	now := time.Now().UTC()
	expiry := now.AddDate(0, 0, opts.DurationDays)
	db.doc.LicenseKeys[key] = &Record{
		LicenseRecord: license.LicenseRecord{
			LicenseKey:      key,
			Status:          license.RecordStatusActive,
			CreatedDate:     now.Format(time.RFC3339),
			ExpiryDate:      expiry.Format(time.RFC3339),
			LicenseType:     strings.ToLower(opts.Tier),
			MaxDevices:      opts.MaxDevices,
			CurrentDevices:  0,
			FeaturesEnabled: defaults.Features,
			DeviceBindings:  make(map[string]license.DeviceBinding),
		},
		DaysRemaining: opts.DurationDays,
		OwnerInfo: OwnerInfo{
			Name:             opts.OwnerName,
			Email:            opts.OwnerEmail,
			RegistrationDate: now.Format(time.RFC3339),
		},
		UsageStatistics: UsageStatistics{FeaturesUsed: []string{}},
	}

	db.doc.SystemInfo.TotalLicenses++
	db.doc.SystemInfo.ActiveLicenses++
	db.doc.touch()

	if err := db.save(); err != nil {
		return "", err
	}
	db.logger.Info("license created",
		slog.String("license_key", license.MaskKey(key)),
		slog.String("tier", opts.Tier),
		slog.Int("max_devices", opts.MaxDevices))
	return key, nil
}

// Revoke removes a license from circulation, keeping a tombstone.
func (db *AdminDB) Revoke(key, reason string) error {
	if reason == "" {
		reason = "License violation"
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.doc.LicenseKeys[key]
	if !ok {
		return fmt.Errorf("%w: license %s", ErrNotFound, license.MaskKey(key))
	}

	db.doc.RevokedLicenses[key] = RevokedLicense{
		LicenseKey:     key,
		RevokedDate:    time.Now().UTC().Format(time.RFC3339),
		RevokeReason:   reason,
		OriginalExpiry: rec.ExpiryDate,
	}
	delete(db.doc.LicenseKeys, key)

	db.doc.SystemInfo.ActiveLicenses--
	db.doc.touch()

	if err := db.save(); err != nil {
		return err
	}
	db.logger.Info("license revoked",
		slog.String("license_key", license.MaskKey(key)),
		slog.String("reason", reason))
	return nil
}

// Extend pushes a license expiry forward by additionalDays.
func (db *AdminDB) Extend(key string, additionalDays int) error {
	if additionalDays <= 0 {
		return fmt.Errorf("additional days must be positive, got %d", additionalDays)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.doc.LicenseKeys[key]
	if !ok {
		return fmt.Errorf("%w: license %s", ErrNotFound, license.MaskKey(key))
	}

	expiry, err := time.Parse(time.RFC3339, rec.ExpiryDate)
	if err != nil {
		return fmt.Errorf("parse expiry of %s: %w", license.MaskKey(key), err)
	}
	newExpiry := expiry.AddDate(0, 0, additionalDays)
	rec.ExpiryDate = newExpiry.Format(time.RFC3339)
	rec.DaysRemaining = int(time.Until(newExpiry).Hours() / 24)
	db.doc.touch()

	if err := db.save(); err != nil {
		return err
	}
	db.logger.Info("license extended",
		slog.String("license_key", license.MaskKey(key)),
		slog.Int("additional_days", additionalDays))
	return nil
}

// BlacklistDevice bans a hardware id globally and marks it blacklisted
// on every license it is currently bound to.
func (db *AdminDB) BlacklistDevice(deviceID, reason string) error {
	if reason == "" {
		reason = "Multiple violations"
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.doc.BlacklistedDevices[deviceID] = BlacklistedDevice{
		DeviceID:      deviceID,
		BlacklistDate: time.Now().UTC().Format(time.RFC3339),
		Reason:        reason,
		Permanent:     true,
	}

	for _, rec := range db.doc.LicenseKeys {
		if binding, ok := rec.DeviceBindings[deviceID]; ok {
			binding.Status = license.DeviceStatusBlacklisted
			rec.DeviceBindings[deviceID] = binding
		}
	}
	db.doc.touch()

	if err := db.save(); err != nil {
		return err
	}
	db.logger.Info("device blacklisted", slog.String("device_id", deviceID))
	return nil
}

// DeactivateDevice marks a binding deactivated and frees its slot.
func (db *AdminDB) DeactivateDevice(key, deviceID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.doc.LicenseKeys[key]
	if !ok {
		return fmt.Errorf("%w: license %s", ErrNotFound, license.MaskKey(key))
	}
	binding, ok := rec.DeviceBindings[deviceID]
	if !ok {
		return fmt.Errorf("%w: device %s on license %s", ErrNotFound, deviceID, license.MaskKey(key))
	}
	if binding.Status == license.DeviceStatusActive {
		rec.CurrentDevices--
	}
	binding.Status = license.DeviceStatusDeactivated
	rec.DeviceBindings[deviceID] = binding
	db.doc.touch()

	if err := db.save(); err != nil {
		return err
	}
	db.logger.Info("device deactivated",
		slog.String("license_key", license.MaskKey(key)),
		slog.String("device_id", deviceID))
	return nil
}

// Get returns the record for a key, checking tombstones as well. The
// second return value reports whether the license is revoked.
func (db *AdminDB) Get(key string) (*Record, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if rec, ok := db.doc.LicenseKeys[key]; ok {
		copied := *rec
		return &copied, false, nil
	}
	if _, ok := db.doc.RevokedLicenses[key]; ok {
		return nil, true, nil
	}
	return nil, false, fmt.Errorf("%w: license %s", ErrNotFound, license.MaskKey(key))
}

// List returns all active records ordered by creation date.
func (db *AdminDB) List() []*Record {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]*Record, 0, len(db.doc.LicenseKeys))
	for _, rec := range db.doc.LicenseKeys {
		copied := *rec
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedDate < out[j].CreatedDate
	})
	return out
}

// Revoked returns all tombstones.
func (db *AdminDB) Revoked() []RevokedLicense {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]RevokedLicense, 0, len(db.doc.RevokedLicenses))
	for _, r := range db.doc.RevokedLicenses {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RevokedDate < out[j].RevokedDate
	})
	return out
}

// Blacklist returns all banned devices.
func (db *AdminDB) Blacklist() []BlacklistedDevice {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]BlacklistedDevice, 0, len(db.doc.BlacklistedDevices))
	for _, b := range db.doc.BlacklistedDevices {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

// WriteSnapshot publishes the launcher-facing snapshot to path.
func (db *AdminDB) WriteSnapshot(path string) error {
	db.mu.Lock()
	snap := db.doc.Snapshot()
	db.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return atomicWrite(path, data, 0o644)
}

// save persists the document under the held lock.
func (db *AdminDB) save() error {
	data, err := json.MarshalIndent(db.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode license database: %w", err)
	}
	if err := atomicWrite(db.path, data, 0o600); err != nil {
		return err
	}
	if db.signer != nil {
		if err := db.signer.SignFile(db.path, data); err != nil {
			return fmt.Errorf("sign license database: %w", err)
		}
	}
	return nil
}

// atomicWrite writes data to a sibling temp file and renames it over
// path so readers never observe a partial document.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
