// Package periphpin adapts periph.io GPIOs to detent.Pin.
package periphpin

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"detent"
)

// Pin reads a periph GPIO. Memory-mapped reads cannot fail once the
// pin is configured, so the error is always nil.
type Pin struct {
	pin gpio.PinIO
}

var _ detent.Pin = Pin{}

// New wraps an already configured pin.
func New(p gpio.PinIO) Pin {
	return Pin{pin: p}
}

// Input looks a pin up by name ("GPIO17") and configures it as a
// pull-up input. The caller must have run host.Init first.
func Input(name string) (Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return Pin{}, fmt.Errorf("periphpin: no pin named %q", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return Pin{}, fmt.Errorf("periphpin: configure %s: %w", name, err)
	}
	return Pin{pin: p}, nil
}

func (p Pin) Read() (bool, error) {
	return bool(p.pin.Read()), nil
}
