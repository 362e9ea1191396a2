//go:build linux

// Package rpiopin adapts Raspberry Pi GPIOs to detent.Pin through the
// gpiomem register map.
package rpiopin

import (
	"github.com/stianeikeland/go-rpio/v4"

	"detent"
)

// Pin reads a BCM numbered GPIO. Register reads cannot fail, so the
// error is always nil.
type Pin struct {
	pin rpio.Pin
}

var _ detent.Pin = Pin{}

// New wraps an already configured pin.
func New(p rpio.Pin) Pin {
	return Pin{pin: p}
}

// Input configures the BCM numbered pin as a pull-up input and wraps
// it. The caller must have run rpio.Open first.
func Input(bcm uint8) Pin {
	p := rpio.Pin(bcm)
	p.Input()
	p.PullUp()
	return Pin{pin: p}
}

func (p Pin) Read() (bool, error) {
	return p.pin.Read() == rpio.High, nil
}
