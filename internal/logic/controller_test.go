package logic

import (
	"testing"
	"time"
)

var testPolicy = Policy{Target: 20.0, Min: 7.0, MinOff: 300 * time.Second}

func TestNewController(t *testing.T) {
	c := NewController(testPolicy)
	if c == nil {
		t.Fatal("NewController returned nil")
	}
	s := c.State()
	if s.RelayOn {
		t.Error("new controller should start with relay off")
	}
	if !s.LastOffAt.IsZero() {
		t.Errorf("expected zero LastOffAt, got %v", s.LastOffAt)
	}
	if c.Policy() != testPolicy {
		t.Errorf("Policy: got %+v, want %+v", c.Policy(), testPolicy)
	}
}

func TestScenarioA(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(testPolicy)

	steps := []struct {
		offset time.Duration
		temp   float64
		want   Command
		relay  RelayState
	}{
		{0, 21.0, CommandNoOp, RelayOff},
		{10 * time.Second, 19.0, CommandTurnOn, RelayOn},
		{20 * time.Second, 19.0, CommandNoOp, RelayOn},
		{30 * time.Second, 21.0, CommandTurnOff, RelayOff},
	}

	for i, st := range steps {
		d := c.Tick(Input{Temperature: st.temp, Active: true, Time: start.Add(st.offset)})
		if d.Command != st.want {
			t.Errorf("step %d: command got %s, want %s", i, d.Command, st.want)
		}
		if d.Relay != st.relay {
			t.Errorf("step %d: relay got %s, want %s", i, d.Relay, st.relay)
		}
		if d.Threshold != 20.0 {
			t.Errorf("step %d: threshold got %v, want 20", i, d.Threshold)
		}
	}

	if got := c.State().LastOffAt; !got.Equal(start.Add(30 * time.Second)) {
		t.Errorf("LastOffAt: got %v, want %v", got, start.Add(30*time.Second))
	}
}

func TestScenarioBDebounce(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(testPolicy)

	c.Tick(Input{Temperature: 19.0, Active: true, Time: start.Add(10 * time.Second)})
	d := c.Tick(Input{Temperature: 21.0, Active: true, Time: start.Add(30 * time.Second)})
	if d.Command != CommandTurnOff {
		t.Fatalf("expected TURN_OFF, got %s", d.Command)
	}

	// 30s after turn-off: suppressed
	d = c.Tick(Input{Temperature: 18.0, Active: true, Time: start.Add(60 * time.Second)})
	if d.Command != CommandNoOp {
		t.Errorf("expected NOOP within min-off, got %s", d.Command)
	}
	if !d.Suppressed {
		t.Error("expected decision to be marked suppressed")
	}
	if c.State().RelayOn {
		t.Error("relay should remain off while suppressed")
	}

	// 370s after turn-off: allowed
	d = c.Tick(Input{Temperature: 18.0, Active: true, Time: start.Add(400 * time.Second)})
	if d.Command != CommandTurnOn {
		t.Errorf("expected TURN_ON after min-off, got %s", d.Command)
	}
	if d.Suppressed {
		t.Error("turn-on should not be marked suppressed")
	}

	counts := c.CountsSnapshot()
	if counts.TurnOn != 2 || counts.TurnOff != 1 || counts.Suppressed != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestScenarioCFrostProtection(t *testing.T) {
	c := NewController(testPolicy)
	now := time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC)

	d := c.Tick(Input{Temperature: 6.5, Active: false, Time: now})
	if d.Command != CommandTurnOn {
		t.Errorf("expected TURN_ON below min temperature, got %s", d.Command)
	}
	if d.Threshold != 7.0 {
		t.Errorf("threshold: got %v, want 7", d.Threshold)
	}
}

func TestInactiveAboveMinStaysOff(t *testing.T) {
	c := NewController(testPolicy)
	now := time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC)

	// 15°C is below target but above min; outside active hours nothing happens.
	d := c.Tick(Input{Temperature: 15.0, Active: false, Time: now})
	if d.Command != CommandNoOp {
		t.Errorf("expected NOOP, got %s", d.Command)
	}
}

func TestLeavingActivePeriodTurnsOff(t *testing.T) {
	c := NewController(testPolicy)
	now := time.Date(2026, 1, 5, 16, 59, 0, 0, time.UTC)

	c.Tick(Input{Temperature: 15.0, Active: true, Time: now})
	d := c.Tick(Input{Temperature: 15.0, Active: false, Time: now.Add(time.Minute)})
	if d.Command != CommandTurnOff {
		t.Errorf("expected TURN_OFF when window closes, got %s", d.Command)
	}
}

func TestThresholdIsStrict(t *testing.T) {
	c := NewController(testPolicy)
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	d := c.Tick(Input{Temperature: 20.0, Active: true, Time: now})
	if d.Command != CommandNoOp {
		t.Errorf("temperature equal to threshold should not heat, got %s", d.Command)
	}

	c.Tick(Input{Temperature: 19.9, Active: true, Time: now.Add(time.Second)})
	d = c.Tick(Input{Temperature: 20.0, Active: true, Time: now.Add(2 * time.Second)})
	if d.Command != CommandTurnOff {
		t.Errorf("temperature equal to threshold should turn off, got %s", d.Command)
	}
}

func TestFirstTurnOnNeverDebounced(t *testing.T) {
	c := NewController(Policy{Target: 20, Min: 7, MinOff: 24 * time.Hour})
	d := c.Tick(Input{Temperature: 10, Active: true, Time: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)})
	if d.Command != CommandTurnOn {
		t.Errorf("first turn-on should be eligible, got %s", d.Command)
	}
}

func TestDebounceBoundaryIsExclusive(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(testPolicy)

	c.Tick(Input{Temperature: 10, Active: true, Time: start})
	c.Tick(Input{Temperature: 25, Active: true, Time: start.Add(time.Second)})
	off := start.Add(time.Second)

	d := c.Tick(Input{Temperature: 10, Active: true, Time: off.Add(300 * time.Second)})
	if d.Command != CommandNoOp {
		t.Errorf("exactly min-off elapsed should still suppress, got %s", d.Command)
	}
	d = c.Tick(Input{Temperature: 10, Active: true, Time: off.Add(300*time.Second + time.Millisecond)})
	if d.Command != CommandTurnOn {
		t.Errorf("just over min-off should turn on, got %s", d.Command)
	}
}

func TestZeroMinOff(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(Policy{Target: 20, Min: 7})

	c.Tick(Input{Temperature: 10, Active: true, Time: start})
	c.Tick(Input{Temperature: 25, Active: true, Time: start.Add(time.Second)})
	d := c.Tick(Input{Temperature: 10, Active: true, Time: start.Add(2 * time.Second)})
	if d.Command != CommandTurnOn {
		t.Errorf("expected TURN_ON with zero min-off, got %s", d.Command)
	}
}

func TestIdempotentWhileOn(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(testPolicy)

	// Establish a prior off-transition, then turn on again.
	c.Tick(Input{Temperature: 10, Active: true, Time: start})
	c.Tick(Input{Temperature: 25, Active: true, Time: start.Add(time.Second)})
	c.Tick(Input{Temperature: 10, Active: true, Time: start.Add(time.Hour)})
	lastOff := c.State().LastOffAt

	for i := 0; i < 10; i++ {
		d := c.Tick(Input{Temperature: 10, Active: true, Time: start.Add(time.Hour + time.Duration(i)*time.Minute)})
		if d.Command != CommandNoOp {
			t.Errorf("iteration %d: expected NOOP, got %s", i, d.Command)
		}
		if !c.State().LastOffAt.Equal(lastOff) {
			t.Errorf("iteration %d: LastOffAt changed while on", i)
		}
	}
}

func TestIdempotentWhileOff(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(testPolicy)

	for i := 0; i < 10; i++ {
		d := c.Tick(Input{Temperature: 22, Active: true, Time: start.Add(time.Duration(i) * time.Minute)})
		if d.Command != CommandNoOp {
			t.Errorf("iteration %d: expected NOOP, got %s", i, d.Command)
		}
	}
	if !c.State().LastOffAt.IsZero() {
		t.Error("LastOffAt should not be set without an on->off transition")
	}
}

func TestLastOffAtMonotonic(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(Policy{Target: 20, Min: 7})

	c.Tick(Input{Temperature: 10, Active: true, Time: start})
	c.Tick(Input{Temperature: 25, Active: true, Time: start.Add(time.Minute)})
	first := c.State().LastOffAt

	// Clock steps backwards before the next cycle.
	c.Tick(Input{Temperature: 10, Active: true, Time: start.Add(2 * time.Minute)})
	c.Tick(Input{Temperature: 25, Active: true, Time: start.Add(-time.Hour)})
	if got := c.State().LastOffAt; got.Before(first) {
		t.Errorf("LastOffAt regressed: got %v, previous %v", got, first)
	}

	c.Tick(Input{Temperature: 10, Active: true, Time: start.Add(3 * time.Minute)})
	c.Tick(Input{Temperature: 25, Active: true, Time: start.Add(4 * time.Minute)})
	if got := c.State().LastOffAt; !got.Equal(start.Add(4 * time.Minute)) {
		t.Errorf("LastOffAt: got %v, want %v", got, start.Add(4*time.Minute))
	}
}

func TestNoTurnOnWithinMinOffProperty(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	c := NewController(testPolicy)

	// Alternate cold and warm readings every 20s for an hour and check that
	// no TURN_ON ever lands within min-off of the previous TURN_OFF.
	var lastOff time.Time
	for i := 0; i < 180; i++ {
		now := start.Add(time.Duration(i) * 20 * time.Second)
		temp := 10.0
		if i%2 == 1 {
			temp = 25.0
		}
		d := c.Tick(Input{Temperature: temp, Active: true, Time: now})
		switch d.Command {
		case CommandTurnOff:
			lastOff = now
		case CommandTurnOn:
			if !lastOff.IsZero() && now.Sub(lastOff) <= testPolicy.MinOff {
				t.Fatalf("tick %d: TURN_ON %v after TURN_OFF", i, now.Sub(lastOff))
			}
		}
	}
}

func TestRelayString(t *testing.T) {
	if (State{RelayOn: true}).Relay() != RelayOn {
		t.Error("expected ON")
	}
	if (State{}).Relay() != RelayOff {
		t.Error("expected OFF")
	}
}
