// Package status provides a thread-safe status tracker for the shed-heater daemon.
// It is written by the polling loop and read by the heartbeat job and the
// --print-state output.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/shed-heater/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TargetTemperature float64
	MinTemperature    float64
	StartHour         int
	EndHour           int
	LastActiveWeekday int
	TimeZone          string
	MinOffSeconds     int64
	PollSeconds       int64
	HeartbeatMs       int64
	Sensor            string
	Relay             string
	Broker            string // empty when MQTT is not used
}

// Failures counts I/O failures since startup.
type Failures struct {
	Sensor   int
	Actuator int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Temperature   float64
	HasReading    bool
	ReadingAt     time.Time
	Active        bool
	Threshold     float64
	Relay         logic.RelayState
	LastOffAt     time.Time
	InSync        bool
	Counts        logic.Counts
	Failures      Failures
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Relay:     logic.RelayOff,
			InSync:    true,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Record stores the outcome of a tick.
// Called from the polling loop after every controller decision.
func (t *Tracker) Record(d logic.Decision, state logic.State, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Temperature = d.Temperature
	t.snap.HasReading = true
	t.snap.ReadingAt = d.Timestamp
	t.snap.Active = d.Active
	t.snap.Threshold = d.Threshold
	t.snap.Relay = state.Relay()
	t.snap.LastOffAt = state.LastOffAt
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SensorFailed counts a skipped tick.
func (t *Tracker) SensorFailed() {
	t.mu.Lock()
	t.snap.Failures.Sensor++
	t.mu.Unlock()
}

// ActuatorFailed counts a failed relay write and marks the relay out of sync.
func (t *Tracker) ActuatorFailed() {
	t.mu.Lock()
	t.snap.Failures.Actuator++
	t.snap.InSync = false
	t.mu.Unlock()
}

// SetInSync records whether the physical relay matches the commanded state.
func (t *Tracker) SetInSync(inSync bool) {
	t.mu.Lock()
	t.snap.InSync = inSync
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
