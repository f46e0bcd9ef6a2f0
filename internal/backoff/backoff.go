// Package backoff implements the retry policy shared by the output sinks
// that do not ride on an SDK's own retryer (azure, gcp, sftp, api). Its
// shape mirrors github.com/aws/aws-sdk-go-v2/aws/retry's exponential
// backoff with jitter, since the aws sink already depends on that
// retryer and spec §4.13 names it as the model to reuse rather than
// reinvent.
package backoff

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy caps attempts and the per-attempt backoff ceiling.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Default is azure's "retry up to 15 times" policy from spec §4.13,
// reused for gcp/sftp/api since the spec gives no other sink's attempt
// count and unbounded arithmetic backoff is named generically in §5.
var Default = Policy{MaxAttempts: 15, BaseDelay: 200 * time.Millisecond, MaxDelay: 30 * time.Second}

// Retry calls attempt until it returns a nil error, attempt reports the
// error as non-retryable via shouldRetry returning false, ctx is done, or
// the policy's attempt budget is exhausted. The delay between attempts
// grows exponentially with full jitter, as aws-sdk-go-v2/aws/retry does.
func (p Policy) Retry(ctx context.Context, attempt func(n int) error) error {
	var err error
	for n := 0; n < p.MaxAttempts; n++ {
		err = attempt(n)
		if err == nil {
			return nil
		}
		if n == p.MaxAttempts-1 {
			break
		}
		delay := p.delay(n)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func (p Policy) delay(attempt int) time.Duration {
	ceiling := p.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	if ceiling > p.MaxDelay || ceiling <= 0 {
		ceiling = p.MaxDelay
	}
	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}
