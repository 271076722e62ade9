package security

import (
	"sync"

	"golang.org/x/time/rate"

	"gllauncher/internal/config"
)

// ActivationLimiter bounds validation attempts per license key so a
// misbehaving client cannot hammer the remote store. Limiters are kept
// per key; the map is small in practice since a launcher only ever
// retries a handful of keys.
type ActivationLimiter struct {
	enabled bool
	rps     rate.Limit
	burst   int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewActivationLimiter creates a limiter from configuration.
func NewActivationLimiter(cfg config.RateLimitConfig) *ActivationLimiter {
	return &ActivationLimiter{
		enabled:  cfg.Enabled,
		rps:      rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether another attempt for the given key may proceed
// now. A disabled limiter always allows.
func (l *ActivationLimiter) Allow(key string) bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
