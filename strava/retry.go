package strava

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls how failed requests are retried. Zero fields fall back
// to the defaults, so partial configs compose with DefaultRetryConfig.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first one.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts, including server-suggested
	// Retry-After delays.
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64
	// RetryableStatusCodes lists the HTTP status codes worth retrying.
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns the retry behavior used when none is configured:
// 3 attempts, exponential backoff from 1s doubling up to 30s, retrying 429
// and the transient 5xx family.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:          3,
		InitialDelay:         time.Second,
		MaxDelay:             30 * time.Second,
		BackoffFactor:        2.0,
		RetryableStatusCodes: []int{429, 500, 502, 503, 504},
	}
}

// normalized fills zero fields from the defaults.
func (c RetryConfig) normalized() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = def.BackoffFactor
	}
	if c.RetryableStatusCodes == nil {
		c.RetryableStatusCodes = def.RetryableStatusCodes
	}
	return c
}

func (c RetryConfig) retryableStatus(status int) bool {
	for _, s := range c.RetryableStatusCodes {
		if s == status {
			return true
		}
	}
	return false
}

// backoffDelay computes the delay before the retry following the given
// attempt (1-based): InitialDelay * BackoffFactor^(attempt-1), capped at
// MaxDelay.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if d > float64(cfg.MaxDelay) {
		return cfg.MaxDelay
	}
	return time.Duration(d)
}

// retrier reruns a request attempt until it succeeds, exhausts MaxAttempts,
// or fails in a way that is not worth retrying.
type retrier struct {
	cfg RetryConfig
	log *zap.Logger
}

func newRetrier(cfg RetryConfig, log *zap.Logger) *retrier {
	return &retrier{cfg: cfg.normalized(), log: log}
}

// shouldRetry classifies an attempt failure. Status-less failures (timeouts,
// transport errors) are presumed transient; failures carrying a status code
// are retried only when the code is in the configured set. Context
// cancellation is never retried.
func (r *retrier) shouldRetry(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if status, ok := errorStatus(err); ok {
		return r.cfg.retryableStatus(status)
	}
	return true
}

// delayFor returns how long to sleep after the given failed attempt. A
// server-suggested Retry-After overrides the computed backoff but still
// honors MaxDelay.
func (r *retrier) delayFor(attempt int, err error) time.Duration {
	if hint := retryAfterHint(err); hint > 0 {
		if hint > r.cfg.MaxDelay {
			return r.cfg.MaxDelay
		}
		return hint
	}
	return backoffDelay(r.cfg, attempt)
}

// run executes fn up to MaxAttempts times. The error from the final attempt
// is returned unwrapped, so callers see the usual typed errors.
func (r *retrier) run(ctx context.Context, fn func(context.Context) (*apiResponse, error)) (*apiResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.shouldRetry(err) {
			return nil, err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt, err)
		r.log.Debug("retrying request",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.cfg.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
