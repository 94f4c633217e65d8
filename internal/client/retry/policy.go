// Package retry implements the capped exponential backoff shared by
// per-record push retries and whole-cycle scheduler retries.
package retry

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Значения по умолчанию
const (
	DefaultBaseDelay  = time.Second
	DefaultMultiplier = 2.0
	DefaultMaxDelay   = 5 * time.Minute
	DefaultMaxRetries = 5

	jitterLow  = 0.8
	jitterSpan = 0.4
)

// Policy describes delay(attempt) = min(MaxDelay, BaseDelay * Multiplier^attempt),
// optionally scaled by a factor in [0.8, 1.2].
type Policy struct {
	// rand возвращает число в [0, 1); nil означает math/rand/v2
	rand       func() float64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	MaxRetries int
	Jitter     bool
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
		MaxDelay:   DefaultMaxDelay,
		MaxRetries: DefaultMaxRetries,
		Jitter:     true,
	}
}

// WithRand returns a copy of the policy drawing jitter from fn.
func (p Policy) WithRand(fn func() float64) Policy {
	p.rand = fn
	return p
}

// ShouldRetry reports whether another attempt is allowed after attempt.
func (p Policy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxRetries
}

// Delay returns the wait before the given attempt, or false once attempt
// reaches MaxRetries.
func (p Policy) Delay(attempt int) (time.Duration, bool) {
	if !p.ShouldRetry(attempt) {
		return 0, false
	}
	return p.Backoff(attempt), true
}

// Backoff returns the capped delay for attempt without ever giving up.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	base := float64(p.BaseDelay)
	maxDelay := float64(p.MaxDelay)
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := base * math.Pow(multiplier, float64(attempt))
	// Pow может дать +Inf на больших attempt
	if math.IsInf(delay, 0) || math.IsNaN(delay) || (maxDelay > 0 && delay > maxDelay) {
		delay = maxDelay
	}

	if p.Jitter {
		delay *= jitterLow + jitterSpan*p.random()
	}

	return time.Duration(delay)
}

func (p Policy) random() float64 {
	if p.rand != nil {
		return p.rand()
	}
	return rand.Float64()
}

// Validate checks that the policy is usable.
func (p Policy) Validate() error {
	if p.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive, got %s", p.BaseDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("max delay %s is below base delay %s", p.MaxDelay, p.BaseDelay)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", p.MaxRetries)
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("retry.Policy(base=%s, multiplier=%gx, max=%s, max_retries=%d)",
		p.BaseDelay, p.Multiplier, p.MaxDelay, p.MaxRetries)
}
