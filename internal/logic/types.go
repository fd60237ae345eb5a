// Package logic contains the pure thermostat decision logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Command is the controller's instruction to the relay actuator.
type Command string

const (
	CommandNoOp    Command = "NOOP"
	CommandTurnOn  Command = "TURN_ON"
	CommandTurnOff Command = "TURN_OFF"
)

// RelayState represents the commanded state of the heater relay.
type RelayState string

const (
	RelayOn  RelayState = "ON"
	RelayOff RelayState = "OFF"
)

// Policy holds the immutable thresholds the controller decides against.
type Policy struct {
	// Target is the threshold (°C) used during active periods.
	Target float64
	// Min is the frost-protection threshold (°C) used outside active periods.
	Min float64
	// MinOff is how long the relay must stay off before it may turn on again.
	MinOff time.Duration
}

// State is the controller's mutable state.
type State struct {
	RelayOn bool
	// LastOffAt is the time of the most recent on->off transition.
	// Zero until the first off-transition.
	LastOffAt time.Time
}

// Relay returns the commanded relay state.
func (s State) Relay() RelayState {
	if s.RelayOn {
		return RelayOn
	}
	return RelayOff
}

// Input represents a single tick: one reading and one schedule decision.
type Input struct {
	Temperature float64
	Active      bool
	Time        time.Time
}

// Decision is the outcome of a single tick.
type Decision struct {
	Timestamp   time.Time
	Command     Command
	Temperature float64
	Threshold   float64
	Active      bool
	// Suppressed is set when heating was wanted but the min-off period
	// had not yet elapsed.
	Suppressed bool
	Relay      RelayState
}

// Counts tracks controller outcomes since startup.
type Counts struct {
	TurnOn     int
	TurnOff    int
	Suppressed int
}
