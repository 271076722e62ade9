package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gllauncher/internal/config"
	"gllauncher/internal/license"
	"gllauncher/internal/security"
	"gllauncher/internal/shared/testutil"
)

type staticDevice struct{ id string }

func (d staticDevice) DeviceID() string { return d.id }

// scriptedStore serves a fixed snapshot and accepts all activations.
type scriptedStore struct {
	snapshot *license.Snapshot
}

func (s *scriptedStore) Snapshot(ctx context.Context) (*license.Snapshot, error) {
	return s.snapshot, nil
}

func (s *scriptedStore) ActivateDevice(ctx context.Context, key, deviceID, deviceName string) error {
	rec := s.snapshot.LicenseKeys[key]
	rec.CurrentDevices++
	rec.DeviceBindings[deviceID] = license.DeviceBinding{Status: license.DeviceStatusActive}
	s.snapshot.LicenseKeys[key] = rec
	return nil
}

func newTestService(t *testing.T, snapshot license.Snapshot, limiterCfg config.RateLimitConfig) (LicenseService, *license.Session) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	notifier := license.NewNotifier()
	session := license.NewSession(notifier)
	store := &scriptedStore{snapshot: &snapshot}
	device := staticDevice{testutil.TestDeviceID}
	validator := license.NewValidator(store, device, session, notifier, logger)
	limiter := security.NewActivationLimiter(limiterCfg)

	return NewLicenseService(validator, session, device, limiter, logger), session
}

func TestActivateBindsAndCaches(t *testing.T) {
	svc, session := newTestService(t,
		testutil.SnapshotWith(testutil.ActiveRecord()),
		config.RateLimitConfig{Enabled: false})

	result, err := svc.Activate(context.Background(), testutil.ValidProKey)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.True(t, session.IsLicensed())
	assert.True(t, svc.IsFeatureEnabled(context.Background(), "pubg_auto_update"))
}

func TestActivateRateLimited(t *testing.T) {
	svc, _ := newTestService(t,
		testutil.SnapshotWith(testutil.ActiveRecord()),
		config.RateLimitConfig{Enabled: true, RPS: 0.01, Burst: 1})

	_, err := svc.Activate(context.Background(), testutil.ValidProKey)
	require.NoError(t, err)

	_, err = svc.Activate(context.Background(), testutil.ValidProKey)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestStatusNotActivated(t *testing.T) {
	svc, _ := newTestService(t,
		testutil.SnapshotWith(),
		config.RateLimitConfig{Enabled: false})

	status, err := svc.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, status.Licensed)
	assert.Equal(t, "not_activated", status.LicenseStatus)
	assert.NotEmpty(t, status.TraceID)
	assert.Nil(t, status.LicenseInfo)
}

func TestStatusActive(t *testing.T) {
	svc, _ := newTestService(t,
		testutil.SnapshotWith(testutil.BoundRecord(license.DeviceStatusActive)),
		config.RateLimitConfig{Enabled: false})

	_, err := svc.Activate(context.Background(), testutil.ValidProKey)
	require.NoError(t, err)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)

	assert.True(t, status.Licensed)
	assert.Equal(t, "active", status.LicenseStatus)
	assert.Equal(t, testutil.TestDeviceID, status.DeviceID)
	assert.Greater(t, status.DaysLeft, 0)
	require.NotNil(t, status.LicenseInfo)
	assert.Equal(t, testutil.ValidProKey, status.LicenseInfo.LicenseKey)
}

func TestStatusExpiredAfterSessionOutlivesLicense(t *testing.T) {
	svc, session := newTestService(t,
		testutil.SnapshotWith(testutil.BoundRecord(license.DeviceStatusActive)),
		config.RateLimitConfig{Enabled: false})

	_, err := svc.Activate(context.Background(), testutil.ValidProKey)
	require.NoError(t, err)

	// Backdate the cached expiry by replacing the session info.
	info := session.Info()
	info.ExpiryDate = time.Now().Add(-time.Hour)
	session.SetAuthorized(*info, session.DeviceID())

	status, err := svc.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, status.Licensed)
	assert.Equal(t, "expired", status.LicenseStatus)
	assert.Equal(t, 0, status.DaysLeft)
}

func TestClearSession(t *testing.T) {
	svc, session := newTestService(t,
		testutil.SnapshotWith(testutil.BoundRecord(license.DeviceStatusActive)),
		config.RateLimitConfig{Enabled: false})

	_, err := svc.Activate(context.Background(), testutil.ValidProKey)
	require.NoError(t, err)
	require.True(t, session.IsLicensed())

	svc.ClearSession(context.Background())

	assert.False(t, session.IsLicensed())
	assert.False(t, svc.IsFeatureEnabled(context.Background(), "pubg_auto_update"))

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "not_activated", status.LicenseStatus)
}

func TestActivateLogsMaskTheKey(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	notifier := license.NewNotifier()
	session := license.NewSession(notifier)
	snapshot := testutil.SnapshotWith(testutil.BoundRecord(license.DeviceStatusActive))
	store := &scriptedStore{snapshot: &snapshot}
	device := staticDevice{testutil.TestDeviceID}
	validator := license.NewValidator(store, device, session, notifier, logger)
	limiter := security.NewActivationLimiter(config.RateLimitConfig{Enabled: false})
	svc := NewLicenseService(validator, session, device, limiter, logger)

	_, err := svc.Activate(context.Background(), testutil.ValidProKey)
	require.NoError(t, err)

	assert.True(t, logs.ContainsMessage("license validated"))
	assert.True(t, logs.ContainsAttr("license_key", license.MaskKey(testutil.ValidProKey)))
	for _, rec := range logs.Records() {
		for _, val := range rec.Attrs {
			if s, ok := val.(string); ok {
				assert.NotEqual(t, testutil.ValidProKey, s, "raw key leaked into log attr")
			}
		}
	}
}
