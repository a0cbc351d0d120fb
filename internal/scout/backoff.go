package scout

import "time"

// RetryPolicy is the exponential backoff configuration for Scout retries,
// grounded on internal/attractor/engine/backoff.go's
// BackoffConfig/DelayForAttempt shape, generalized from graph-node retry
// attributes to a plain struct the Scout Runtime owns directly.
type RetryPolicy struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultRetryPolicy matches spec.md §4.9's defaults: d0=1s, m=2, d_max=30s, N=3.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  3,
	}
}

// DelayForAttempt returns the delay before the (attempt+1)th try, where
// attempt is 0-indexed (the delay between attempt 0 and attempt 1). It is
// min(d_max, d0 * m^attempt), matching spec.md §4.9's recurrence.
func (p RetryPolicy) DelayForAttempt(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := p.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 3
	}
	return p.MaxAttempts
}
