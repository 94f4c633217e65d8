package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noJitter() Policy {
	return Policy{
		BaseDelay:  time.Second,
		Multiplier: 2,
		MaxDelay:   5 * time.Minute,
		MaxRetries: 5,
	}
}

func TestPolicy_Delay(t *testing.T) {
	p := noJitter()

	tests := []struct {
		attempt int
		want    time.Duration
		ok      bool
	}{
		{attempt: 0, want: time.Second, ok: true},
		{attempt: 1, want: 2 * time.Second, ok: true},
		{attempt: 2, want: 4 * time.Second, ok: true},
		{attempt: 4, want: 16 * time.Second, ok: true},
		{attempt: 5, want: 0, ok: false},
		{attempt: 9, want: 0, ok: false},
	}

	for _, tt := range tests {
		got, ok := p.Delay(tt.attempt)
		assert.Equal(t, tt.ok, ok, "attempt %d", tt.attempt)
		assert.Equal(t, tt.want, got, "attempt %d", tt.attempt)
	}
}

func TestPolicy_Delay_Monotonic(t *testing.T) {
	p := noJitter()
	p.MaxRetries = 20

	prev, ok := p.Delay(0)
	require.True(t, ok)
	for attempt := 1; attempt < p.MaxRetries; attempt++ {
		d, ok := p.Delay(attempt)
		require.True(t, ok)
		if prev < p.MaxDelay {
			assert.Greater(t, d, prev, "attempt %d", attempt)
		} else {
			assert.Equal(t, p.MaxDelay, d, "attempt %d", attempt)
		}
		prev = d
	}

	_, ok = p.Delay(p.MaxRetries)
	assert.False(t, ok)
}

func TestPolicy_Backoff_Capped(t *testing.T) {
	p := noJitter()

	assert.Equal(t, 5*time.Minute, p.Backoff(30))
	assert.Equal(t, 5*time.Minute, p.Backoff(5000))
	assert.Equal(t, time.Second, p.Backoff(-3))
}

func TestPolicy_Jitter_Bounds(t *testing.T) {
	p := noJitter()
	p.Jitter = true

	low := p.WithRand(func() float64 { return 0 })
	high := p.WithRand(func() float64 { return 0.999999 })

	assert.Equal(t, 8*time.Second/10, low.Backoff(0))
	assert.InDelta(t, float64(1200*time.Millisecond), float64(high.Backoff(0)), float64(time.Millisecond))

	for i := 0; i < 100; i++ {
		d := p.Backoff(3)
		assert.GreaterOrEqual(t, d, time.Duration(float64(8*time.Second)*0.8))
		assert.LessOrEqual(t, d, time.Duration(float64(8*time.Second)*1.2))
	}
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	bad := noJitter()
	bad.BaseDelay = 0
	assert.Error(t, bad.Validate())

	bad = noJitter()
	bad.MaxDelay = time.Millisecond
	assert.Error(t, bad.Validate())

	bad = noJitter()
	bad.Multiplier = 0.5
	assert.Error(t, bad.Validate())
}
