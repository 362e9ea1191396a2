//go:build tinygo

// Package machinepin adapts on-chip GPIOs to detent.Pin.
package machinepin

import (
	"machine"

	"detent"
)

// Pin reads a machine GPIO. On-chip reads cannot fail, so the error is
// always nil.
type Pin struct {
	pin machine.Pin
}

var _ detent.Pin = Pin{}

// New wraps an already configured pin.
func New(p machine.Pin) Pin {
	return Pin{pin: p}
}

// Input configures p as a pull-up input and wraps it. Encoder contacts
// short to ground, so the pull-up keeps the idle level high.
func Input(p machine.Pin) Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return Pin{pin: p}
}

func (p Pin) Read() (bool, error) {
	return p.pin.Get(), nil
}
