package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Temperature   *float64     `json:"temperature"`
	ReadingAt     string       `json:"reading_at,omitempty"`
	Active        bool         `json:"active"`
	Threshold     float64      `json:"threshold"`
	Relay         string       `json:"relay"`
	InSync        bool         `json:"in_sync"`
	LastOffAt     string       `json:"last_off_at,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          *MQTTStatus  `json:"mqtt,omitempty"`
	Counts        CountsJSON   `json:"counts"`
	Failures      FailuresJSON `json:"failures"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of controller counts.
type CountsJSON struct {
	TurnOn     int `json:"turn_on"`
	TurnOff    int `json:"turn_off"`
	Suppressed int `json:"suppressed"`
}

// FailuresJSON is the JSON representation of I/O failure counts.
type FailuresJSON struct {
	Sensor   int `json:"sensor"`
	Actuator int `json:"actuator"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TargetTemperature float64 `json:"target_temperature"`
	MinTemperature    float64 `json:"min_temperature"`
	StartHour         int     `json:"start_hour"`
	EndHour           int     `json:"end_hour"`
	LastActiveWeekday int     `json:"last_active_weekday"`
	TimeZone          string  `json:"time_zone"`
	MinOffSeconds     int64   `json:"min_off_seconds"`
	PollSeconds       int64   `json:"poll_interval_seconds"`
	HeartbeatMs       int64   `json:"heartbeat_ms"`
	Sensor            string  `json:"sensor"`
	Relay             string  `json:"relay"`
}

func buildInner(snap Snapshot) StatusInner {
	relay := string(snap.Relay)
	if relay == "" {
		relay = "UNKNOWN"
	}

	inner := StatusInner{
		Active:        snap.Active,
		Threshold:     snap.Threshold,
		Relay:         relay,
		InSync:        snap.InSync,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			TurnOn:     snap.Counts.TurnOn,
			TurnOff:    snap.Counts.TurnOff,
			Suppressed: snap.Counts.Suppressed,
		},
		Failures: FailuresJSON{
			Sensor:   snap.Failures.Sensor,
			Actuator: snap.Failures.Actuator,
		},
		Config: ConfigJSON{
			TargetTemperature: snap.Config.TargetTemperature,
			MinTemperature:    snap.Config.MinTemperature,
			StartHour:         snap.Config.StartHour,
			EndHour:           snap.Config.EndHour,
			LastActiveWeekday: snap.Config.LastActiveWeekday,
			TimeZone:          snap.Config.TimeZone,
			MinOffSeconds:     snap.Config.MinOffSeconds,
			PollSeconds:       snap.Config.PollSeconds,
			HeartbeatMs:       snap.Config.HeartbeatMs,
			Sensor:            snap.Config.Sensor,
			Relay:             snap.Config.Relay,
		},
	}

	if snap.HasReading {
		temp := snap.Temperature
		inner.Temperature = &temp
		inner.ReadingAt = snap.ReadingAt.UTC().Format(time.RFC3339)
	}
	if !snap.LastOffAt.IsZero() {
		inner.LastOffAt = snap.LastOffAt.UTC().Format(time.RFC3339)
	}
	if snap.Config.Broker != "" {
		inner.MQTT = &MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker}
	}
	return inner
}

// FormatJSON returns the indented JSON status used by --print-state.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatCompact returns the single-line JSON status used in heartbeat logs.
func FormatCompact(snap Snapshot) []byte {
	data, _ := json.Marshal(StatusJSON{Status: buildInner(snap)})
	return data
}
