package license

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey      = "GL-PRO-2026-AAAA-BBBB-CCCC"
	testDeviceID = "HWID-0A1B2C3D-4E5F6071-8293A4B5-C6D7E8F9"
)

// fakeStore scripts the store behavior for coordinator tests. Snapshots
// are served in sequence so a test can model the state change an
// activation causes.
type fakeStore struct {
	snapshots   []*Snapshot
	snapshotErr error
	fetchCount  int

	activateErr   error
	activations   int
	onActivate    func()
	activatedKeys []string
}

func (f *fakeStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	idx := f.fetchCount
	if idx >= len(f.snapshots) {
		idx = len(f.snapshots) - 1
	}
	f.fetchCount++
	return f.snapshots[idx], nil
}

func (f *fakeStore) ActivateDevice(ctx context.Context, key, deviceID, deviceName string) error {
	f.activations++
	f.activatedKeys = append(f.activatedKeys, key)
	if f.activateErr != nil {
		return f.activateErr
	}
	if f.onActivate != nil {
		f.onActivate()
	}
	return nil
}

type fakeDevice struct{ id string }

func (d fakeDevice) DeviceID() string { return d.id }

func activeRecord() LicenseRecord {
	return LicenseRecord{
		LicenseKey:      testKey,
		Status:          RecordStatusActive,
		ExpiryDate:      time.Now().UTC().AddDate(0, 0, 30).Format(time.RFC3339),
		LicenseType:     "pro",
		MaxDevices:      5,
		CurrentDevices:  1,
		FeaturesEnabled: []string{"pubg_auto_update"},
		DeviceBindings:  map[string]DeviceBinding{},
	}
}

func snapshotWith(records ...LicenseRecord) *Snapshot {
	keys := make(map[string]LicenseRecord, len(records))
	for _, rec := range records {
		keys[rec.LicenseKey] = rec
	}
	return &Snapshot{LicenseKeys: keys}
}

func newTestValidator(t *testing.T, store Store) (*Validator, *Session, *Notifier) {
	t.Helper()
	notifier := NewNotifier()
	session := NewSession(notifier)
	v := NewValidator(store, fakeDevice{testDeviceID}, session, notifier, discardLogger())
	return v, session, notifier
}

func TestValidateAuthorizedDevice(t *testing.T) {
	rec := activeRecord()
	rec.DeviceBindings[testDeviceID] = DeviceBinding{Status: DeviceStatusActive}
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}

	v, session, notifier := newTestValidator(t, store)

	var licensed []bool
	notifier.OnLicensed(func(ok bool) { licensed = append(licensed, ok) })

	result, err := v.Validate(context.Background(), testKey)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, Authorized, result.DeviceStatus)
	assert.Equal(t, testDeviceID, result.DeviceID)
	require.NotNil(t, result.Info)
	assert.Equal(t, "pro", result.Info.LicenseType)

	assert.True(t, session.IsLicensed())
	assert.True(t, session.IsFeatureEnabled("pubg_auto_update"))
	assert.Equal(t, []bool{true}, licensed, "licensed must fire exactly once")
	assert.Equal(t, 0, store.activations, "already bound device must not re-activate")
}

func TestValidateRejectsBadSyntaxWithoutFetching(t *testing.T) {
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith()}}
	v, session, _ := newTestValidator(t, store)

	for _, key := range []string{"", "not-a-key", "GL-GOLD-2026-AAAA-BBBB-CCCC"} {
		result, err := v.Validate(context.Background(), key)
		require.Error(t, err)
		assert.ErrorIs(t, err, &ValidationError{Code: CodeFormat})
		assert.False(t, result.Valid)
	}

	assert.Equal(t, 0, store.fetchCount, "syntax rejects must not touch the store")
	assert.False(t, session.IsLicensed())
}

func TestValidateLicenseNotFound(t *testing.T) {
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith()}}
	v, _, _ := newTestValidator(t, store)

	result, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeNotFound})
	assert.Equal(t, "License key not found", result.Message)
}

func TestValidateConnectivityFailure(t *testing.T) {
	store := &fakeStore{snapshotErr: fmt.Errorf("dial tcp: connection refused")}
	v, session, _ := newTestValidator(t, store)

	result, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeConnectivity})
	assert.True(t, result.Err.Retryable)
	assert.False(t, session.IsLicensed())
}

func TestValidateInactiveStatus(t *testing.T) {
	for _, status := range []string{RecordStatusSuspended, RecordStatusRevoked} {
		t.Run(status, func(t *testing.T) {
			rec := activeRecord()
			rec.Status = status
			store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}
			v, _, _ := newTestValidator(t, store)

			result, err := v.Validate(context.Background(), testKey)
			require.Error(t, err)
			assert.ErrorIs(t, err, &ValidationError{Code: CodeStatus})
			assert.Contains(t, result.Message, status)
		})
	}
}

func TestValidateExpiredEvenWhenBound(t *testing.T) {
	// An expired license rejects before the binding is ever evaluated,
	// even for a device that is actively bound.
	rec := activeRecord()
	rec.ExpiryDate = time.Now().UTC().AddDate(0, 0, -1).Format(time.RFC3339)
	rec.DeviceBindings[testDeviceID] = DeviceBinding{Status: DeviceStatusActive}
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}
	v, session, _ := newTestValidator(t, store)

	result, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeExpired})
	assert.Equal(t, "License has expired", result.Message)
	assert.False(t, session.IsLicensed())
	assert.Equal(t, 0, store.activations)
}

func TestValidateUnparsableExpiry(t *testing.T) {
	rec := activeRecord()
	rec.ExpiryDate = "not-a-date"
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}
	v, _, _ := newTestValidator(t, store)

	_, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeConnectivity})
}

func TestValidateDeviceLimitExceededDoesNotActivate(t *testing.T) {
	rec := activeRecord()
	rec.MaxDevices = 1
	rec.CurrentDevices = 1
	rec.DeviceBindings["HWID-11111111-22222222-33333333-44444444"] = DeviceBinding{Status: DeviceStatusActive}
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}
	v, _, _ := newTestValidator(t, store)

	result, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeDeviceLimit})
	assert.Equal(t, DeviceLimitExceeded, result.DeviceStatus)
	assert.Equal(t, 0, store.activations, "a full license must never trigger activation")
}

func TestValidateDeactivatedAndBlacklistedAreDistinct(t *testing.T) {
	testCases := []struct {
		binding string
		code    ErrorCode
		status  BindingStatus
		message string
	}{
		{DeviceStatusDeactivated, CodeDeviceDeactivated, Deactivated, "Device has been deactivated"},
		{DeviceStatusBlacklisted, CodeDeviceBlacklisted, Blacklisted, "Device is blacklisted"},
	}

	for _, tc := range testCases {
		t.Run(tc.binding, func(t *testing.T) {
			rec := activeRecord()
			rec.DeviceBindings[testDeviceID] = DeviceBinding{Status: tc.binding}
			store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}
			v, _, _ := newTestValidator(t, store)

			result, err := v.Validate(context.Background(), testKey)
			require.Error(t, err)
			assert.ErrorIs(t, err, &ValidationError{Code: tc.code})
			assert.Equal(t, tc.status, result.DeviceStatus)
			assert.Equal(t, tc.message, result.Message)
			assert.Equal(t, 0, store.activations)
		})
	}
}

func TestValidateActivatesAndAuthorizes(t *testing.T) {
	// First snapshot: unbound with a free slot. Second snapshot, served
	// after activation: bound and counted.
	before := activeRecord()
	after := activeRecord()
	after.CurrentDevices = 2
	after.DeviceBindings[testDeviceID] = DeviceBinding{Status: DeviceStatusActive}

	store := &fakeStore{snapshots: []*Snapshot{snapshotWith(before), snapshotWith(after)}}
	v, session, notifier := newTestValidator(t, store)

	var statuses []string
	notifier.OnStatus(func(msg string) { statuses = append(statuses, msg) })

	result, err := v.Validate(context.Background(), testKey)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, Authorized, result.DeviceStatus)
	assert.Equal(t, 2, result.Info.CurrentDevices, "authorized view reflects the post-activation count")
	assert.Equal(t, 1, store.activations)
	assert.Equal(t, 2, store.fetchCount, "activation re-fetches exactly once")
	assert.True(t, session.IsLicensed())

	assert.Contains(t, statuses, "Activating device...")
	assert.Contains(t, statuses, "License valid")
}

func TestValidateInconsistentStateAfterAcknowledgedActivation(t *testing.T) {
	// The store acknowledges the activation but keeps serving a snapshot
	// without the binding. The coordinator must stop after one retry.
	rec := activeRecord()
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}
	v, session, _ := newTestValidator(t, store)

	result, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeInconsistentState})
	assert.Equal(t, 1, store.activations, "exactly one activation attempt")
	assert.Equal(t, 2, store.fetchCount, "exactly one retry fetch")
	assert.False(t, result.Valid)
	assert.False(t, session.IsLicensed())
}

func TestValidateActivationRefused(t *testing.T) {
	rec := activeRecord()
	store := &fakeStore{
		snapshots:   []*Snapshot{snapshotWith(rec)},
		activateErr: &ActivationRefusedError{Reason: "race lost"},
	}
	v, _, _ := newTestValidator(t, store)

	result, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeActivationFailed})
	assert.Contains(t, result.Message, "race lost")
}

func TestValidateActivationTransportFailure(t *testing.T) {
	rec := activeRecord()
	store := &fakeStore{
		snapshots:   []*Snapshot{snapshotWith(rec)},
		activateErr: fmt.Errorf("connection reset"),
	}
	v, _, _ := newTestValidator(t, store)

	_, err := v.Validate(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeConnectivity})
}

func TestValidateLicensedFiresOncePerAttempt(t *testing.T) {
	rec := activeRecord()
	rec.DeviceBindings[testDeviceID] = DeviceBinding{Status: DeviceStatusActive}
	store := &fakeStore{snapshots: []*Snapshot{snapshotWith(rec)}}
	v, _, notifier := newTestValidator(t, store)

	var fired int
	notifier.OnLicensed(func(bool) { fired++ })

	_, err := v.Validate(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	_, err = v.Validate(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, 2, fired)
}

func BenchmarkEvaluateBinding(b *testing.B) {
	rec := activeRecord()
	rec.DeviceBindings[testDeviceID] = DeviceBinding{Status: DeviceStatusActive}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EvaluateBinding(rec, testDeviceID)
	}
}

func BenchmarkIsValidKeyFormat(b *testing.B) {
	for i := 0; i < b.N; i++ {
		IsValidKeyFormat(testKey)
	}
}
