// Package relay drives the heater relay with hardware abstraction.
// The real implementation uses the Linux GPIO character device; an MQTT
// smart-plug actuator lives in internal/mqtt. The fake implementation
// allows testing without hardware.
package relay

// Actuator switches the heater relay.
type Actuator interface {
	// Set drives the relay on or off. It is only called on transitions
	// (and to re-converge after a failed write).
	Set(on bool) error

	// Close releases relay resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 12 // Relay 1 on the relay HAT
)
