package license

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"gllauncher/internal/config"
)

// Sheet column layout for the sheets-backed store. One license per row,
// bindings serialized as a JSON object in the last column.
const (
	sheetColKey = iota
	sheetColStatus
	sheetColCreated
	sheetColExpiry
	sheetColType
	sheetColMaxDevices
	sheetColCurrentDevices
	sheetColFeatures
	sheetColBindings
	sheetColCount
)

// SheetsStore reads the license database from an admin-maintained Google
// Sheet and writes activations back to the same row. It implements the
// same Store contract as HTTPStore for deployments where the admin
// dashboard publishes directly to a spreadsheet.
type SheetsStore struct {
	service   *sheets.Service
	sheetID   string
	sheetName string
	logger    *slog.Logger

	mu   sync.Mutex
	rows map[string]int // license key -> 1-based sheet row, from the last snapshot
}

// NewSheetsStore creates a sheets-backed store client authenticated with
// the configured API key.
func NewSheetsStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*SheetsStore, error) {
	service, err := sheets.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsStore{
		service:   service,
		sheetID:   cfg.SheetID,
		sheetName: cfg.SheetName,
		logger:    logger.With(slog.String("component", "license.sheets")),
		rows:      make(map[string]int),
	}, nil
}

// Snapshot reads all license rows. The header row is skipped; rows with
// a malformed key column are ignored rather than failing the whole
// snapshot.
func (s *SheetsStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	readRange := fmt.Sprintf("%s!A2:I", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Get(s.sheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets read failed: %w", err)
	}

	snapshot := &Snapshot{
		LicenseKeys: make(map[string]LicenseRecord, len(resp.Values)),
	}
	rows := make(map[string]int, len(resp.Values))

	for i, row := range resp.Values {
		record, ok := parseSheetRow(row)
		if !ok {
			s.logger.WarnContext(ctx, "skipping malformed license row",
				slog.Int("row", i+2))
			continue
		}
		snapshot.LicenseKeys[record.LicenseKey] = record
		rows[record.LicenseKey] = i + 2
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "license snapshot read from sheet",
		slog.Int("licenses", len(snapshot.LicenseKeys)))
	return snapshot, nil
}

// ActivateDevice appends an active binding to the license row and bumps
// the device count. Sheets offers no server-side compare-and-increment,
// so a concurrent activation that consumed the last slot surfaces on the
// coordinator's re-fetch instead.
func (s *SheetsStore) ActivateDevice(ctx context.Context, key, deviceID, deviceName string) error {
	s.mu.Lock()
	row, ok := s.rows[key]
	s.mu.Unlock()
	if !ok {
		return &ActivationRefusedError{Reason: "license key not present in the sheet"}
	}

	readRange := fmt.Sprintf("%s!A%d:I%d", s.sheetName, row, row)
	resp, err := s.service.Spreadsheets.Values.Get(s.sheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets row read failed: %w", err)
	}
	if len(resp.Values) == 0 {
		return &ActivationRefusedError{Reason: "license row disappeared"}
	}

	record, ok := parseSheetRow(resp.Values[0])
	if !ok || record.LicenseKey != key {
		return &ActivationRefusedError{Reason: "license row moved, retry later"}
	}
	if record.CurrentDevices >= record.MaxDevices {
		return &ActivationRefusedError{Reason: "device limit reached"}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if record.DeviceBindings == nil {
		record.DeviceBindings = make(map[string]DeviceBinding, 1)
	}
	record.DeviceBindings[deviceID] = DeviceBinding{
		Status:          DeviceStatusActive,
		DeviceName:      deviceName,
		FirstActivation: now,
		LastSeen:        now,
	}
	bindings, err := json.Marshal(record.DeviceBindings)
	if err != nil {
		return fmt.Errorf("failed to encode bindings: %w", err)
	}

	update := &sheets.ValueRange{
		Values: [][]interface{}{{
			strconv.Itoa(record.CurrentDevices + 1),
			strings.Join(record.FeaturesEnabled, ","),
			string(bindings),
		}},
	}
	writeRange := fmt.Sprintf("%s!G%d:I%d", s.sheetName, row, row)
	_, err = s.service.Spreadsheets.Values.Update(s.sheetID, writeRange, update).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets activation write failed: %w", err)
	}

	s.logger.InfoContext(ctx, "device activated via sheet",
		slog.String("license_key", MaskKey(key)),
		slog.String("device_id", deviceID),
		slog.Int("row", row),
	)
	return nil
}

// parseSheetRow converts one sheet row into a LicenseRecord.
func parseSheetRow(row []interface{}) (LicenseRecord, bool) {
	if len(row) < sheetColBindings {
		return LicenseRecord{}, false
	}

	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		s, _ := row[i].(string)
		return strings.TrimSpace(s)
	}

	key := cell(sheetColKey)
	if key == "" {
		return LicenseRecord{}, false
	}

	maxDevices, err := strconv.Atoi(cell(sheetColMaxDevices))
	if err != nil {
		return LicenseRecord{}, false
	}
	currentDevices, err := strconv.Atoi(cell(sheetColCurrentDevices))
	if err != nil {
		return LicenseRecord{}, false
	}

	record := LicenseRecord{
		LicenseKey:     key,
		Status:         cell(sheetColStatus),
		CreatedDate:    cell(sheetColCreated),
		ExpiryDate:     cell(sheetColExpiry),
		LicenseType:    cell(sheetColType),
		MaxDevices:     maxDevices,
		CurrentDevices: currentDevices,
	}

	if features := cell(sheetColFeatures); features != "" {
		for _, f := range strings.Split(features, ",") {
			if f = strings.TrimSpace(f); f != "" {
				record.FeaturesEnabled = append(record.FeaturesEnabled, f)
			}
		}
	}

	if bindings := cell(sheetColBindings); bindings != "" {
		if err := json.Unmarshal([]byte(bindings), &record.DeviceBindings); err != nil {
			return LicenseRecord{}, false
		}
	}

	return record, true
}
