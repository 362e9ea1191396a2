//go:build linux

// Package mcppin adapts MCP23017 port expander pins to detent.Pin.
// Expander reads go over i2c and genuinely fail, unlike on-chip GPIOs,
// so Read forwards the bus error.
package mcppin

import (
	"github.com/racerxdl/go-mcp23017"

	"detent"
)

// Pin reads one expander pin (0-15, B port from 8).
type Pin struct {
	dev *mcp23017.Device
	pin uint8
}

var _ detent.Pin = Pin{}

// New wraps an already configured expander pin.
func New(dev *mcp23017.Device, pin uint8) Pin {
	return Pin{dev: dev, pin: pin}
}

// Input configures the expander pin as a pull-up input and wraps it.
func Input(dev *mcp23017.Device, pin uint8) (Pin, error) {
	if err := dev.PinMode(pin, mcp23017.INPUT); err != nil {
		return Pin{}, err
	}
	if err := dev.SetPullUp(pin, true); err != nil {
		return Pin{}, err
	}
	return Pin{dev: dev, pin: pin}, nil
}

func (p Pin) Read() (bool, error) {
	level, err := p.dev.DigitalRead(p.pin)
	if err != nil {
		return false, err
	}
	return bool(level), nil
}
