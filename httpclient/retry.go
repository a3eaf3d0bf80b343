package httpclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// maxRetryInterval caps a single backoff wait
const maxRetryInterval = 30 * time.Second

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// newBackOff returns the deterministic schedule used between 429 retries.
func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RetryDelay
	b.Multiplier = c.config.RetryMultiplier
	b.RandomizationFactor = 0
	b.MaxInterval = maxRetryInterval
	b.Reset()
	return b
}

// execute runs attempts until one succeeds, fails with anything but a 429, or
// the retry budget is spent. It returns the data and the number of attempts.
func (c *Client) execute(ctx context.Context, cl *call) ([]byte, int, error) {
	schedule := c.newBackOff()

	for attempt := 1; ; attempt++ {
		if err := c.waitForRateLimit(ctx); err != nil {
			return nil, attempt - 1, err
		}

		start := time.Now()
		data, err := c.attempt(ctx, cl, attempt)
		recordAttempt(ctx, cl.method, time.Since(start), err)
		if err == nil {
			return data, attempt, nil
		}

		retries := attempt - 1
		if !IsRateLimited(err) || retries >= c.config.MaxRetries {
			return nil, attempt, err
		}

		delay := schedule.NextBackOff()
		c.logger.Warn().
			Int("attempt", attempt).
			Dur("delay", delay).
			Str("path", cl.path).
			Msg("openapi rate limited, retrying")
		recordRetry(ctx, cl.method)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, attempt, NewCanceledError(err)
		}
	}
}

func (c *Client) waitForRateLimit(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return NewCanceledError(ctxErr)
		}
		return NewCanceledError(err)
	}
	return nil
}
