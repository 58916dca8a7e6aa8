package auth

import (
	"math"
	"sync"
	"time"

	"github.com/mrlokans/readsync/internal/config"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
	defaultLockout     = 30 * time.Minute
	sweepEvery         = 5 * time.Minute
)

// RateLimitConfig tunes RateLimiter. Zero fields take the defaults above.
type RateLimitConfig struct {
	MaxAttempts     int
	WindowDuration  time.Duration
	LockoutDuration time.Duration
}

// RateLimitConfigFrom maps the auth settings onto a RateLimitConfig.
func RateLimitConfigFrom(cfg config.Auth) RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	}
}

type loginKey struct {
	ip       string
	username string
}

// failures holds the recent failed logins of one key, oldest first.
type failures struct {
	at          []time.Time
	lockedUntil time.Time
}

// RateLimiter locks a (client IP, username) pair out of /login after
// MaxAttempts failures inside a sliding window. Stale entries are swept while
// failures are recorded, so there is no background goroutine.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	keys      map[loginKey]*failures
	lastSweep time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = defaultWindow
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaultLockout
	}
	return &RateLimiter{
		cfg:  cfg,
		now:  time.Now,
		keys: make(map[loginKey]*failures),
	}
}

// Allow reports whether ip may try to log in as username, and otherwise how
// long the lockout still lasts.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	f, ok := rl.keys[loginKey{ip, username}]
	if !ok || !now.Before(f.lockedUntil) {
		return true, 0
	}
	return false, f.lockedUntil.Sub(now)
}

// RecordFailure counts a failed login. It reports whether this failure locked
// the key out, and for how long.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= sweepEvery {
		rl.sweep(now)
	}

	key := loginKey{ip, username}
	f, ok := rl.keys[key]
	if !ok {
		f = &failures{}
		rl.keys[key] = f
	}
	f.at = append(f.at[rl.expired(f, now):], now)

	if len(f.at) < rl.cfg.MaxAttempts {
		return false, 0
	}
	f.at = f.at[:0]
	f.lockedUntil = now.Add(rl.cfg.LockoutDuration)
	return true, rl.cfg.LockoutDuration
}

// RecordSuccess forgets the failures of a key after a good login.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.keys, loginKey{ip, username})
	rl.mu.Unlock()
}

// expired counts the leading failures of f that fell out of the window.
func (rl *RateLimiter) expired(f *failures, now time.Time) int {
	n := 0
	for n < len(f.at) && now.Sub(f.at[n]) > rl.cfg.WindowDuration {
		n++
	}
	return n
}

// sweep drops keys with no live lockout and no failure inside the window.
// Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, f := range rl.keys {
		if now.Before(f.lockedUntil) {
			continue
		}
		if rl.expired(f, now) == len(f.at) {
			delete(rl.keys, key)
		}
	}
	rl.lastSweep = now
}

// RetryAfterSeconds formats d for a Retry-After header, rounding up.
func RetryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
