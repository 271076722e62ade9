package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gllauncher/internal/config"
)

// Store is the remote license database as seen by the validation core:
// a full read-only snapshot plus a single write operation requesting a
// device binding. The store owns all record mutation; activation either
// appends a new active binding and increments the device count
// atomically, or reports a refusal reason.
type Store interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	ActivateDevice(ctx context.Context, key, deviceID, deviceName string) error
}

// ActivationRefusedError reports that the store declined a binding
// request, e.g. when this device lost a race for the last slot.
type ActivationRefusedError struct {
	Reason string
}

func (e *ActivationRefusedError) Error() string {
	return fmt.Sprintf("activation refused: %s", e.Reason)
}

// HTTPStore fetches the license database as a hosted JSON document and
// posts activation requests to the store's activation endpoint.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPStore creates a store client. The fetch timeout from the
// configuration bounds every request; a timeout is indistinguishable
// from any other connectivity failure to callers.
func NewHTTPStore(cfg config.StoreConfig, logger *slog.Logger) *HTTPStore {
	return &HTTPStore{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		logger:  logger.With(slog.String("component", "license.store")),
	}
}

// Snapshot fetches the current license database. The URL is cache-busted
// with a nanosecond timestamp so intermediaries never serve a stale
// document.
func (s *HTTPStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	url := fmt.Sprintf("%s/database/licenses.json?t=%s",
		s.baseURL, strconv.FormatInt(time.Now().UnixNano(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}
	s.setHeaders(req)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "license snapshot fetch failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("snapshot fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("snapshot fetch returned status %d", resp.StatusCode)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("snapshot payload unparsable: %w", err)
	}
	if snapshot.LicenseKeys == nil {
		return nil, fmt.Errorf("snapshot payload missing license_keys")
	}

	s.logger.DebugContext(ctx, "license snapshot fetched",
		slog.Int("licenses", len(snapshot.LicenseKeys)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &snapshot, nil
}

// activationRequest is the wire format of a binding request.
type activationRequest struct {
	RequestID  string `json:"request_id"`
	LicenseKey string `json:"license_key"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

// activationResponse is the store's answer to a binding request.
type activationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ActivateDevice requests that the store bind deviceID to the license.
// The store performs a compare-and-increment on the record's device
// count; losing a race for the last slot comes back as an
// *ActivationRefusedError, transport problems as plain errors.
func (s *HTTPStore) ActivateDevice(ctx context.Context, key, deviceID, deviceName string) error {
	payload, err := json.Marshal(activationRequest{
		RequestID:  uuid.NewString(),
		LicenseKey: key,
		DeviceID:   deviceID,
		DeviceName: deviceName,
	})
	if err != nil {
		return fmt.Errorf("failed to encode activation request: %w", err)
	}

	url := s.baseURL + "/api/activate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build activation request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("activation request failed: %w", err)
	}
	defer resp.Body.Close()

	var result activationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("activation response unparsable: %w", err)
	}

	if resp.StatusCode == http.StatusConflict || (resp.StatusCode == http.StatusOK && !result.Success) {
		reason := result.Error
		if reason == "" {
			reason = result.Message
		}
		if reason == "" {
			reason = "store refused the binding"
		}
		return &ActivationRefusedError{Reason: reason}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("activation returned status %d", resp.StatusCode)
	}

	s.logger.InfoContext(ctx, "device activated",
		slog.String("license_key", MaskKey(key)),
		slog.String("device_id", deviceID),
	)
	return nil
}

func (s *HTTPStore) setHeaders(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "token "+s.token)
	}
	req.Header.Set("User-Agent", "GameloopLauncher-LicenseSystem/1.0")
	req.Header.Set("Accept", "application/json")
}

// DeviceName returns the display name recorded for new bindings. The
// hostname is cosmetic only; it never participates in the device id.
func DeviceName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown-device"
	}
	return name
}
