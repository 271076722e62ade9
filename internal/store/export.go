package store

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetLicenses  = "Licenses"
	sheetRevoked   = "Revoked"
	sheetBlacklist = "Blacklist"
)

// ExportXLSX writes the full database to an Excel workbook for offline
// review by sales staff.
func (db *AdminDB) ExportXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeLicenseSheet(f, db.List()); err != nil {
		return err
	}
	if err := writeRevokedSheet(f, db.Revoked()); err != nil {
		return err
	}
	if err := writeBlacklistSheet(f, db.Blacklist()); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeLicenseSheet(f *excelize.File, records []*Record) error {
	if _, err := f.NewSheet(sheetLicenses); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetLicenses, err)
	}
	header := []interface{}{
		"License Key", "Type", "Status", "Owner", "Email",
		"Created", "Expires", "Devices", "Max Devices", "Features",
	}
	if err := f.SetSheetRow(sheetLicenses, "A1", &header); err != nil {
		return err
	}
	for i, rec := range records {
		row := []interface{}{
			rec.LicenseKey,
			strings.ToUpper(rec.LicenseType),
			rec.Status,
			rec.OwnerInfo.Name,
			rec.OwnerInfo.Email,
			rec.CreatedDate,
			rec.ExpiryDate,
			rec.CurrentDevices,
			rec.MaxDevices,
			strings.Join(rec.FeaturesEnabled, ", "),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetLicenses, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeRevokedSheet(f *excelize.File, revoked []RevokedLicense) error {
	if _, err := f.NewSheet(sheetRevoked); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetRevoked, err)
	}
	header := []interface{}{"License Key", "Revoked", "Reason", "Original Expiry"}
	if err := f.SetSheetRow(sheetRevoked, "A1", &header); err != nil {
		return err
	}
	for i, r := range revoked {
		row := []interface{}{r.LicenseKey, r.RevokedDate, r.RevokeReason, r.OriginalExpiry}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetRevoked, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeBlacklistSheet(f *excelize.File, devices []BlacklistedDevice) error {
	if _, err := f.NewSheet(sheetBlacklist); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetBlacklist, err)
	}
	header := []interface{}{"Device ID", "Blacklisted", "Reason", "Permanent"}
	if err := f.SetSheetRow(sheetBlacklist, "A1", &header); err != nil {
		return err
	}
	for i, b := range devices {
		row := []interface{}{b.DeviceID, b.BlacklistDate, b.Reason, b.Permanent}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetBlacklist, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
