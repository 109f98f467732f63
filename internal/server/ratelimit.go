package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/puzzlemap/internal/config"
)

// RequestRateLimiter counts rejected requests per IP and locks out clients
// that keep sending them. Lockouts double up to a maximum.
type RequestRateLimiter struct {
	mu                sync.Mutex
	failures          map[string]*failureInfo
	maxFailures       int
	lockoutSeconds    int
	maxLockoutSeconds int
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

type failureInfo struct {
	count        int
	lockedUntil  time.Time
	lockoutCount int
}

// NewRequestRateLimiter creates a limiter and starts its cleanup goroutine.
func NewRequestRateLimiter(cfg config.RateLimitConfig) *RequestRateLimiter {
	rl := &RequestRateLimiter{
		failures:          make(map[string]*failureInfo),
		maxFailures:       cfg.MaxFailures,
		lockoutSeconds:    cfg.LockoutSeconds,
		maxLockoutSeconds: cfg.MaxLockoutSeconds,
		cleanupInterval:   5 * time.Minute,
		stopCleanup:       make(chan struct{}),
	}

	if rl.maxFailures == 0 {
		rl.maxFailures = 10
	}
	if rl.lockoutSeconds == 0 {
		rl.lockoutSeconds = 30
	}
	if rl.maxLockoutSeconds == 0 {
		rl.maxLockoutSeconds = 300
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *RequestRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (rl *RequestRateLimiter) IsLocked(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, exists := rl.failures[ip]
	if !exists {
		return false, 0
	}

	if time.Now().Before(info.lockedUntil) {
		return true, time.Until(info.lockedUntil)
	}

	return false, 0
}

// RecordFailure records a rejected request for ip.
// Returns true if the IP is now locked out, along with the lockout duration.
func (rl *RequestRateLimiter) RecordFailure(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, exists := rl.failures[ip]
	if !exists {
		info = &failureInfo{}
		rl.failures[ip] = info
	}

	if time.Now().Before(info.lockedUntil) {
		return true, time.Until(info.lockedUntil)
	}

	info.count++
	if info.count < rl.maxFailures {
		return false, 0
	}

	info.lockoutCount++
	lockout := time.Duration(rl.lockoutSeconds) * time.Second
	maxLockout := time.Duration(rl.maxLockoutSeconds) * time.Second
	for i := 1; i < info.lockoutCount; i++ {
		// Check before doubling to avoid overflow
		if lockout >= maxLockout/2 {
			lockout = maxLockout
			break
		}
		lockout *= 2
	}
	if lockout > maxLockout {
		lockout = maxLockout
	}

	info.lockedUntil = time.Now().Add(lockout)
	info.count = 0
	return true, lockout
}

// RecordSuccess clears the failure count for ip.
func (rl *RequestRateLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, exists := rl.failures[ip]; exists && info.lockoutCount == 0 {
		delete(rl.failures, ip)
	} else if exists {
		info.count = 0
	}
}

// GetFailures returns the current failure count for ip.
func (rl *RequestRateLimiter) GetFailures(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if info, exists := rl.failures[ip]; exists {
		return info.count
	}
	return 0
}

func (rl *RequestRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops entries unlocked for at least 10 minutes with no new failures.
func (rl *RequestRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, info := range rl.failures {
		if info.lockedUntil.Before(cutoff) && info.count == 0 {
			delete(rl.failures, ip)
		}
	}
}
