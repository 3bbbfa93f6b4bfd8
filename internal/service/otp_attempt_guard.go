package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"sync"
	"time"
)

// OTPAttemptPolicy shapes the escalating cooldown applied to repeated failed
// verification attempts against one destination. A few free attempts, then
// exponential backoff capped at MaxDelay. State resets once the destination
// stays quiet for ResetWindow.
type OTPAttemptPolicy struct {
	FreeAttempts int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ResetWindow  time.Duration
}

// OTPAttemptGuard throttles brute-force guessing of codes. It is keyed by
// delivery destination, since that is what an attacker targets.
type OTPAttemptGuard interface {
	Check(ctx context.Context, destination string) (time.Duration, error)
	RegisterFailure(ctx context.Context, destination string) (time.Duration, error)
	Reset(ctx context.Context, destination string) error
}

type NoopOTPAttemptGuard struct{}

func NewNoopOTPAttemptGuard() *NoopOTPAttemptGuard { return &NoopOTPAttemptGuard{} }

func (g *NoopOTPAttemptGuard) Check(context.Context, string) (time.Duration, error) {
	return 0, nil
}

func (g *NoopOTPAttemptGuard) RegisterFailure(context.Context, string) (time.Duration, error) {
	return 0, nil
}

func (g *NoopOTPAttemptGuard) Reset(context.Context, string) error { return nil }

type otpAttemptEntry struct {
	FailCount     int
	LastFailureAt time.Time
	CooldownUntil time.Time
}

// InMemoryOTPAttemptGuard backs single-instance deployments and tests.
type InMemoryOTPAttemptGuard struct {
	mu     sync.Mutex
	policy OTPAttemptPolicy
	data   map[string]otpAttemptEntry
}

func NewInMemoryOTPAttemptGuard(policy OTPAttemptPolicy) *InMemoryOTPAttemptGuard {
	return &InMemoryOTPAttemptGuard{
		policy: normalizeOTPAttemptPolicy(policy),
		data:   make(map[string]otpAttemptEntry),
	}
}

func (g *InMemoryOTPAttemptGuard) Check(_ context.Context, destination string) (time.Duration, error) {
	now := time.Now().UTC()
	key := otpAttemptKey(destination)
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.data[key]
	if !ok {
		return 0, nil
	}
	if now.Sub(entry.LastFailureAt) > g.policy.ResetWindow {
		delete(g.data, key)
		return 0, nil
	}
	if now.After(entry.CooldownUntil) {
		return 0, nil
	}
	return entry.CooldownUntil.Sub(now), nil
}

func (g *InMemoryOTPAttemptGuard) RegisterFailure(_ context.Context, destination string) (time.Duration, error) {
	now := time.Now().UTC()
	key := otpAttemptKey(destination)
	g.mu.Lock()
	defer g.mu.Unlock()

	entry := g.data[key]
	if entry.LastFailureAt.IsZero() || now.Sub(entry.LastFailureAt) > g.policy.ResetWindow {
		entry.FailCount = 0
	}
	entry.FailCount++
	entry.LastFailureAt = now
	delay := g.policy.delayFor(entry.FailCount)
	entry.CooldownUntil = now.Add(delay)
	g.data[key] = entry
	return delay, nil
}

func (g *InMemoryOTPAttemptGuard) Reset(_ context.Context, destination string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.data, otpAttemptKey(destination))
	return nil
}

func (p OTPAttemptPolicy) delayFor(failCount int) time.Duration {
	if failCount <= p.FreeAttempts {
		return 0
	}
	power := math.Pow(p.Multiplier, float64(failCount-p.FreeAttempts-1))
	delay := time.Duration(float64(p.BaseDelay) * power)
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func normalizeOTPAttemptPolicy(policy OTPAttemptPolicy) OTPAttemptPolicy {
	if policy.FreeAttempts < 0 {
		policy.FreeAttempts = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 2 * time.Second
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 2
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = 5 * time.Minute
	}
	if policy.ResetWindow <= 0 {
		policy.ResetWindow = 30 * time.Minute
	}
	return policy
}

// otpAttemptKey hashes the destination so raw contact values never become
// store keys.
func otpAttemptKey(destination string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(destination))))
	return hex.EncodeToString(sum[:])
}
