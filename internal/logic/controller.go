package logic

import "time"

// Controller decides relay transitions from temperature readings.
// It is not safe for concurrent use; the polling loop owns it.
type Controller struct {
	policy Policy
	state  State
	counts Counts
}

// NewController creates a controller with the relay off and no prior
// off-transition.
func NewController(policy Policy) *Controller {
	return &Controller{policy: policy}
}

// Tick evaluates one reading and returns the command the relay should receive.
// The relay is only asked to change on true transitions; every other outcome
// is CommandNoOp.
func (c *Controller) Tick(in Input) Decision {
	threshold := c.policy.Min
	if in.Active {
		threshold = c.policy.Target
	}

	d := Decision{
		Timestamp:   in.Time,
		Command:     CommandNoOp,
		Temperature: in.Temperature,
		Threshold:   threshold,
		Active:      in.Active,
	}

	if in.Temperature < threshold {
		if !c.state.RelayOn {
			if c.eligible(in.Time) {
				c.state.RelayOn = true
				c.counts.TurnOn++
				d.Command = CommandTurnOn
			} else {
				c.counts.Suppressed++
				d.Suppressed = true
			}
		}
	} else if c.state.RelayOn {
		c.state.RelayOn = false
		// Never move LastOffAt backwards if the wall clock steps back.
		if in.Time.After(c.state.LastOffAt) {
			c.state.LastOffAt = in.Time
		}
		c.counts.TurnOff++
		d.Command = CommandTurnOff
	}

	d.Relay = c.state.Relay()
	return d
}

// eligible reports whether the min-off period has passed since the last
// off-transition. With no prior off-transition the relay may always turn on.
func (c *Controller) eligible(now time.Time) bool {
	if c.state.LastOffAt.IsZero() {
		return true
	}
	return now.Sub(c.state.LastOffAt) > c.policy.MinOff
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	return c.state
}

// Policy returns the thresholds the controller was built with.
func (c *Controller) Policy() Policy {
	return c.policy
}

// CountsSnapshot returns a copy of the outcome counters.
func (c *Controller) CountsSnapshot() Counts {
	return c.counts
}
