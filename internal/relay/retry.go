package relay

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryActuator retries failed relay writes with exponential backoff.
type RetryActuator struct {
	Actuator
	retries  uint64
	interval time.Duration
	log      *zap.SugaredLogger
}

// WithRetry wraps a so each Set makes up to retries extra attempts.
func WithRetry(a Actuator, retries int, interval time.Duration, log *zap.SugaredLogger) *RetryActuator {
	if retries < 0 {
		retries = 0
	}
	return &RetryActuator{Actuator: a, retries: uint64(retries), interval: interval, log: log}
}

// Set writes on to the wrapped actuator, retrying on failure.
// The last error is returned.
func (r *RetryActuator) Set(on bool) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		return r.Actuator.Set(on)
	}
	notify := func(err error, wait time.Duration) {
		r.log.Debugw("relay write failed, retrying", "on", on, "attempt", attempt, "wait", wait, "err", err)
	}
	return backoff.RetryNotify(op, backoff.WithMaxRetries(b, r.retries), notify)
}
