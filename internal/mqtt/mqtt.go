// Package mqtt connects the thermostat to an MQTT broker, with abstraction
// for testing. It provides a temperature source fed by a sensor topic and a
// relay actuator that commands a smart plug.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// QoS levels used by the daemon.
const (
	QoSSensor byte = 0 // readings are periodic, a lost one is replaced soon
	QoSRelay  byte = 1 // relay commands must arrive
)

// Subscriber registers topic handlers.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(payload []byte)) error
	Unsubscribe(topic string) error
}

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ErrNoTemperature is returned when a payload holds no usable temperature.
var ErrNoTemperature = errors.New("payload has no temperature")

// ParseTemperature extracts a Celsius reading from a sensor payload.
// An empty field expects a bare number ("19.5"). Otherwise the payload must be
// a JSON object; field may be a dotted path into nested objects, as published
// by Tasmota ("BME280.Temperature") or zigbee2mqtt ("temperature").
func ParseTemperature(payload []byte, field string) (float64, error) {
	s := strings.TrimSpace(string(payload))
	if field == "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNoTemperature, s)
		}
		return v, nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return 0, fmt.Errorf("decode payload: %w", err)
	}

	parts := strings.Split(field, ".")
	var cur any = obj
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0, fmt.Errorf("%w: field %q", ErrNoTemperature, field)
		}
		if cur, ok = m[p]; !ok {
			return 0, fmt.Errorf("%w: field %q", ErrNoTemperature, field)
		}
	}

	switch v := cur.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q = %q", ErrNoTemperature, field, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: field %q has type %T", ErrNoTemperature, field, cur)
	}
}
