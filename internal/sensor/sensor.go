// Package sensor provides temperature sources with hardware abstraction.
// The real implementation reads a BME280 over I2C; MQTT-fed readings live in
// internal/mqtt. The fake implementation allows testing without hardware.
package sensor

import (
	"context"
	"errors"
	"math"
)

// Reader provides one Celsius reading per call.
type Reader interface {
	// Read returns the current temperature in °C.
	// A failed read must return an error, never a fabricated value.
	Read(ctx context.Context) (float64, error)

	// Close releases sensor resources.
	Close() error
}

// ErrNoReading is returned when a source has no usable value.
var ErrNoReading = errors.New("sensor: no reading")

// Round2 rounds a reading to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
