//go:build tinygo

// Package screen manages sh1106 OLED displays that share one i2c address
// behind a TCA9548A multiplexer. All displays are driven through a single
// sh1106 device; Activate routes the bus to a screen before drawing.
package screen

import (
	"time"

	"machine"

	"tinygo.org/x/drivers/sh1106"

	"detent/multiplexer"
)

const Addr = 0x3C

// settle is how long the mux needs after a channel switch before the
// display accepts commands reliably.
const settle = 5 * time.Millisecond

// Bank is a set of displays behind one multiplexer. The sh1106 driver
// state is shared; every screen is 128x64 at the same address.
type Bank struct {
	display sh1106.Device
	mux     *multiplexer.Multiplexer
}

// NewBank configures and clears a display on each of the given mux
// channels. The bus must already be configured.
func NewBank(bus *machine.I2C, mux *multiplexer.Multiplexer, channels []uint8) (*Bank, error) {
	b := &Bank{
		display: sh1106.NewI2C(bus),
		mux:     mux,
	}
	for _, ch := range channels {
		if err := mux.Select(ch); err != nil {
			return nil, err
		}
		time.Sleep(settle)
		b.display.Configure(sh1106.Config{
			Width:    128,
			Height:   64,
			VccState: sh1106.SWITCHCAPVCC,
			Address:  Addr,
		})
		b.display.ClearDisplay()
	}
	return b, nil
}

// Screen selects one mux channel of the bank.
func (b *Bank) Screen(channel uint8) *Screen {
	return &Screen{bank: b, channel: channel}
}

type Screen struct {
	bank    *Bank
	channel uint8
}

// Activate routes the i2c bus to this screen. Call it before any
// Device draw calls; the route stays until another screen activates.
func (s *Screen) Activate() error {
	if err := s.bank.mux.Select(s.channel); err != nil {
		return err
	}
	time.Sleep(settle)
	return nil
}

// Device exposes the shared driver for drawing. Only valid for the
// screen that last activated.
func (s *Screen) Device() *sh1106.Device {
	return &s.bank.display
}

func (s *Screen) Clear() error {
	if err := s.Activate(); err != nil {
		return err
	}
	s.bank.display.ClearBuffer()
	return s.bank.display.Display()
}
