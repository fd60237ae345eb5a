package sensor

import (
	"context"
	"fmt"
	"math"
)

// Default BME280 wiring on the Pi.
const (
	DefaultI2CBus     = 1
	DefaultI2CAddress = 0x76
)

// temperatureDriver is the part of gobot's BME280Driver we use.
type temperatureDriver interface {
	Temperature() (float32, error)
	Halt() error
}

// BME280 reads a Bosch BME280 environmental sensor.
type BME280 struct {
	driver temperatureDriver
	// finalize releases the platform adaptor, if any.
	finalize func() error
}

// Read returns the compensated temperature rounded to two decimals.
func (b *BME280) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t, err := b.driver.Temperature()
	if err != nil {
		return 0, fmt.Errorf("read bme280: %w", err)
	}
	v := float64(t)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("read bme280: %w", ErrNoReading)
	}
	return Round2(v), nil
}

// Close halts the driver and releases the I2C bus.
func (b *BME280) Close() error {
	var errs []error
	if err := b.driver.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("halt bme280: %w", err))
	}
	if b.finalize != nil {
		if err := b.finalize(); err != nil {
			errs = append(errs, fmt.Errorf("finalize adaptor: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
