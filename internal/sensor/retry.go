package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryReader retries failed reads with exponential backoff before giving up.
type RetryReader struct {
	Reader
	retries  uint64
	interval time.Duration
	log      *zap.SugaredLogger
}

// WithRetry wraps r so each Read makes up to retries extra attempts.
func WithRetry(r Reader, retries int, interval time.Duration, log *zap.SugaredLogger) *RetryReader {
	if retries < 0 {
		retries = 0
	}
	return &RetryReader{Reader: r, retries: uint64(retries), interval: interval, log: log}
}

// Read tries the wrapped reader until it succeeds, the attempts run out or
// ctx is done. The last error is returned. When ctx ends the wait between
// attempts, the context error wraps the last read error.
func (r *RetryReader) Read(ctx context.Context) (float64, error) {
	var temp float64
	var lastErr error
	attempt := 0
	op := func() error {
		attempt++
		t, err := r.Reader.Read(ctx)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		temp = t
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.log.Debugw("sensor read failed, retrying", "attempt", attempt, "wait", wait, "err", err)
	}

	err := backoff.RetryNotify(op, r.policy(ctx), notify)
	if err != nil && lastErr != nil && !errors.Is(lastErr, err) && errors.Is(err, ctx.Err()) {
		return 0, fmt.Errorf("%w after %d attempts: %w", err, attempt, lastErr)
	}
	return temp, err
}

func (r *RetryReader) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, r.retries), ctx)
}
