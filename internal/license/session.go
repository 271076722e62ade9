package license

import (
	"sync"
	"time"
)

// Session holds the last successfully validated license and the cached
// device id for the lifetime of the process. It is read-mostly: the
// coordinator writes it once per validation attempt, callers query it on
// every feature gate. Concurrent validation attempts are not
// deduplicated; the last writer wins.
type Session struct {
	mu       sync.RWMutex
	info     *LicenseInfo
	deviceID string
	notifier *Notifier
	now      func() time.Time
}

// NewSession creates an empty session. The notifier may be nil when no
// observer cares about licensed/unlicensed transitions.
func NewSession(notifier *Notifier) *Session {
	return &Session{
		notifier: notifier,
		now:      time.Now,
	}
}

// SetAuthorized stores the authorized license and the device id that was
// validated against it.
func (s *Session) SetAuthorized(info LicenseInfo, deviceID string) {
	s.mu.Lock()
	copied := info
	copied.FeaturesEnabled = append([]string(nil), info.FeaturesEnabled...)
	s.info = &copied
	s.deviceID = deviceID
	s.mu.Unlock()
}

// IsLicensed reports whether a license is cached and still unexpired.
// The expiry comparison is live against the wall clock, never a cached
// boolean, so a session that outlives its license reports unlicensed
// without any network call or mutation.
func (s *Session) IsLicensed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info != nil && s.info.ExpiryDate.After(s.now())
}

// IsFeatureEnabled reports whether the cached license enables the named
// feature. It returns false when no license is cached.
func (s *Session) IsFeatureEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return false
	}
	for _, f := range s.info.FeaturesEnabled {
		if f == name {
			return true
		}
	}
	return false
}

// DaysRemaining returns whole days until expiry, clamped at zero. It
// returns zero when no license is cached.
func (s *Session) DaysRemaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return 0
	}
	days := int(s.info.ExpiryDate.Sub(s.now()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Info returns a copy of the cached license, or nil when none is cached.
func (s *Session) Info() *LicenseInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return nil
	}
	copied := *s.info
	copied.FeaturesEnabled = append([]string(nil), s.info.FeaturesEnabled...)
	return &copied
}

// DeviceID returns the device id the cached license was validated for.
func (s *Session) DeviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceID
}

// Clear drops the cached license and device id and emits the unlicensed
// notification.
func (s *Session) Clear() {
	s.mu.Lock()
	s.info = nil
	s.deviceID = ""
	s.mu.Unlock()

	s.notifier.Licensed(false)
}
