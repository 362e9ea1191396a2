//go:build tinygo

// Package multiplexer drives a TCA9548A i2c channel multiplexer.
package multiplexer

import "machine"

// Multiplexer routes the downstream i2c bus to one of eight channels.
// Only one channel is live at a time; Select switches the route.
type Multiplexer struct {
	bus  *machine.I2C
	addr uint16
}

const DefaultAddr = 0x70

func New(bus *machine.I2C, addr uint16) *Multiplexer {
	return &Multiplexer{
		bus:  bus,
		addr: addr,
	}
}

// Select routes the bus to the given channel (0-7).
func (m *Multiplexer) Select(channel uint8) error {
	return m.bus.Tx(m.addr, []byte{1 << channel}, nil)
}

// Disable disconnects all downstream channels.
func (m *Multiplexer) Disable() error {
	return m.bus.Tx(m.addr, []byte{0}, nil)
}
