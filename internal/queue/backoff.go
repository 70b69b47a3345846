package queue

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy is the concurrency and retry configuration of one queue.
type Policy struct {
	Concurrency int
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Delay returns how long to wait before retrying after the given failed
// attempt (1-based). Delays grow exponentially from base and are capped at
// BackoffMax. A non-zero override replaces BackoffBase.
func (p Policy) Delay(attempt int, override time.Duration) time.Duration {
	base := p.BackoffBase
	if override > 0 {
		base = override
	}
	if base <= 0 {
		base = time.Second
	}
	if attempt < 1 {
		attempt = 1
	}

	var b retry.Backoff = retry.NewExponential(base)
	if p.BackoffMax > 0 {
		b = retry.WithCappedDuration(p.BackoffMax, b)
	}

	var d time.Duration
	for i := 0; i < attempt; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		d = next
	}
	return d
}
