//go:build !linux

package sensor

import "errors"

// NewBME280 returns an error on non-Linux platforms.
func NewBME280(bus, address int) (*BME280, error) {
	return nil, errors.New("bme280: not supported on this platform (requires Linux)")
}
