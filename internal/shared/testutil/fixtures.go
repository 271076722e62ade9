package testutil

import (
	"time"

	"gllauncher/internal/license"
)

// Well-formed keys used across tests. Checksums are not verified by the
// launcher, only by admin tooling, so fixed segments are fine here.
const (
	ValidProKey   = "GL-PRO-2026-AAAA-BBBB-CCCC"
	ValidBasicKey = "GL-BASIC-2025-QQQQ-RRRR-SSSS"
	ValidDemoKey  = "GL-DEMO-2025-MMMM-NNNN-OOOO"
)

// TestDeviceID is a plausible hardware id for binding fixtures.
const TestDeviceID = "HWID-0A1B2C3D-4E5F6071-8293A4B5-C6D7E8F9"

// ActiveRecord returns a PRO license record with room for one more
// device, expiring 30 days out.
func ActiveRecord() license.LicenseRecord {
	return license.LicenseRecord{
		LicenseKey:      ValidProKey,
		Status:          license.RecordStatusActive,
		CreatedDate:     time.Now().UTC().AddDate(0, 0, -5).Format(time.RFC3339),
		ExpiryDate:      time.Now().UTC().AddDate(0, 0, 30).Format(time.RFC3339),
		LicenseType:     "pro",
		MaxDevices:      5,
		CurrentDevices:  1,
		FeaturesEnabled: []string{"pubg_auto_update", "gameloop_management", "registry_tools"},
		DeviceBindings:  map[string]license.DeviceBinding{},
	}
}

// BoundRecord returns a record already bound to TestDeviceID with the
// given binding status.
func BoundRecord(deviceStatus string) license.LicenseRecord {
	rec := ActiveRecord()
	rec.DeviceBindings[TestDeviceID] = license.DeviceBinding{
		Status:          deviceStatus,
		DeviceName:      "test-machine",
		FirstActivation: time.Now().UTC().AddDate(0, 0, -3).Format(time.RFC3339),
		LastSeen:        time.Now().UTC().Format(time.RFC3339),
	}
	return rec
}

// ExpiredRecord returns a record whose expiry passed 10 days ago.
func ExpiredRecord() license.LicenseRecord {
	rec := ActiveRecord()
	rec.ExpiryDate = time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339)
	return rec
}

// FullRecord returns a record at its device limit with no binding for
// TestDeviceID.
func FullRecord() license.LicenseRecord {
	rec := ActiveRecord()
	rec.MaxDevices = 1
	rec.CurrentDevices = 1
	rec.DeviceBindings["HWID-11111111-22222222-33333333-44444444"] = license.DeviceBinding{
		Status:     license.DeviceStatusActive,
		DeviceName: "other-machine",
	}
	return rec
}

// SnapshotWith builds a snapshot document containing the given records.
func SnapshotWith(records ...license.LicenseRecord) license.Snapshot {
	keys := make(map[string]license.LicenseRecord, len(records))
	for _, rec := range records {
		keys[rec.LicenseKey] = rec
	}
	return license.Snapshot{
		SystemInfo: license.SystemInfo{
			Version:        "1.0.0",
			LastUpdated:    time.Now().UTC().Format(time.RFC3339),
			TotalLicenses:  len(records),
			ActiveLicenses: len(records),
		},
		LicenseKeys: keys,
	}
}
