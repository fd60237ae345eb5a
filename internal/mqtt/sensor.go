package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStale is returned when the newest reading is older than the max age.
var ErrStale = errors.New("temperature reading is stale")

// TemperatureSource serves the most recent reading published on a topic.
type TemperatureSource struct {
	sub    Subscriber
	topic  string
	field  string
	maxAge time.Duration
	now    func() time.Time
	log    *zap.SugaredLogger

	mu      sync.Mutex
	value   float64
	at      time.Time
	lastErr error
}

// NewTemperatureSource subscribes to topic. field selects the JSON value
// (see ParseTemperature). Readings older than maxAge are refused; zero
// disables the check.
func NewTemperatureSource(sub Subscriber, topic, field string, maxAge time.Duration, now func() time.Time, log *zap.SugaredLogger) (*TemperatureSource, error) {
	s := &TemperatureSource{
		sub:    sub,
		topic:  topic,
		field:  field,
		maxAge: maxAge,
		now:    now,
		log:    log,
	}
	if err := sub.Subscribe(topic, QoSSensor, s.handle); err != nil {
		return nil, fmt.Errorf("subscribe sensor topic: %w", err)
	}
	return s, nil
}

func (s *TemperatureSource) handle(payload []byte) {
	v, err := ParseTemperature(payload, s.field)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.log.Warnw("bad sensor payload", "topic", s.topic, "err", err)
		return
	}
	s.value = v
	s.at = s.now()
	s.lastErr = nil
}

// Read returns the newest reading.
func (s *TemperatureSource) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.at.IsZero() {
		if s.lastErr != nil {
			return 0, fmt.Errorf("no reading on %s: %w", s.topic, s.lastErr)
		}
		return 0, fmt.Errorf("no reading on %s: %w", s.topic, ErrNoTemperature)
	}
	if age := s.now().Sub(s.at); s.maxAge > 0 && age > s.maxAge {
		return 0, fmt.Errorf("%w: %s old on %s", ErrStale, age.Truncate(time.Second), s.topic)
	}
	return s.value, nil
}

// Close removes the subscription.
func (s *TemperatureSource) Close() error {
	return s.sub.Unsubscribe(s.topic)
}
