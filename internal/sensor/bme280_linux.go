//go:build linux

package sensor

import (
	"fmt"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// NewBME280 opens a BME280 on the Raspberry Pi I2C bus.
func NewBME280(bus, address int) (*BME280, error) {
	adaptor := raspi.NewAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, fmt.Errorf("connect raspi adaptor: %w", err)
	}

	driver := i2c.NewBME280Driver(adaptor, i2c.WithBus(bus), i2c.WithAddress(address))
	if err := driver.Start(); err != nil {
		adaptor.Finalize()
		return nil, fmt.Errorf("start bme280 on bus %d addr %#x: %w", bus, address, err)
	}

	return &BME280{
		driver:   driver,
		finalize: adaptor.Finalize,
	}, nil
}
