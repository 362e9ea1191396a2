//go:build tinygo

// knobfw runs a five knob deck on an RP2040: it polls the encoders,
// redraws the screens, and speaks the frame protocol over USB serial.
package main

import (
	"time"

	"machine"

	"detent"
	"detent/knob"
	"detent/machinepin"
	"detent/multiplexer"
	"detent/protocol"
	"detent/screen"
)

const (
	divider      = 4
	acceleration = 8
)

var names = []string{"Game", "Chat", "Media", "Aux", "Speak"}

// encoderPins maps knob id to its a, b and key GPIOs.
var encoderPins = [5][3]machine.Pin{
	{machine.GPIO2, machine.GPIO3, machine.GPIO4},
	{machine.GPIO5, machine.GPIO6, machine.GPIO7},
	{machine.GPIO8, machine.GPIO9, machine.GPIO10},
	{machine.GPIO11, machine.GPIO12, machine.GPIO13},
	{machine.GPIO14, machine.GPIO15, machine.GPIO16},
}

func main() {
	time.Sleep(2 * time.Second)

	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		SDA:       machine.GPIO0,
		SCL:       machine.GPIO1,
		Frequency: 400000,
	})
	if err != nil {
		println("failed to configure i2c bus")
		return
	}

	mux := multiplexer.New(i2c, multiplexer.DefaultAddr)

	// Probe every screen channel before talking to any display.
	for ch := uint8(0); ch < uint8(len(names)); ch++ {
		if err := mux.Select(ch); err != nil {
			println("mux select failed on channel", ch)
			return
		}
		if i2c.Tx(screen.Addr, []byte{0x00}, nil) != nil {
			println("no display on channel", ch)
			return
		}
	}

	bank, err := screen.NewBank(i2c, mux, []uint8{0, 1, 2, 3, 4})
	if err != nil {
		println("screen bank init failed:", err.Error())
		return
	}

	println("creating knobs")
	knobs := make([]*knob.Knob, len(names))
	for i, name := range names {
		pins := encoderPins[i]
		enc := detent.NewClockEncoder(
			machinepin.Input(pins[0]),
			machinepin.Input(pins[1]),
			machinepin.Input(pins[2]),
			divider,
			detent.SystemClock,
		)
		enc.SetAcceleration(acceleration)
		knobs[i] = knob.New(enc, bank.Screen(uint8(i)), name, uint8(i))
		if err := knobs[i].Draw(); err != nil {
			println("draw failed for", name, ":", err.Error())
		}
	}

	serial := machine.Serial
	var scan protocol.Scanner

	for {
		busy := false

		for serial.Buffered() > 0 {
			b, err := serial.ReadByte()
			if err != nil {
				println("serial read:", err.Error())
				break
			}
			frame, err := scan.Feed(b)
			if err != nil {
				println("bad frame:", err.Error())
				continue
			}
			if frame != nil {
				apply(knobs, frame)
			}
		}

		for i, k := range knobs {
			frame, err := k.Update()
			if err != nil {
				println("knob", names[i], "update:", err.Error())
				continue
			}
			if frame == nil {
				continue
			}
			busy = true
			if err := k.Draw(); err != nil {
				println("draw failed for", names[i], ":", err.Error())
			}
			buf := frame.Marshal()
			if _, err := serial.Write(buf[:]); err != nil {
				println("serial write:", err.Error())
			}
		}

		if !busy {
			time.Sleep(3 * time.Millisecond)
		}
	}
}

// apply runs one host frame against the deck.
func apply(knobs []*knob.Knob, f *protocol.Frame) {
	if f.Action != protocol.SetLevel {
		println("ignoring frame:", f.String())
		return
	}
	if int(f.Knob) >= len(knobs) {
		println("set for unknown knob", f.Knob)
		return
	}
	k := knobs[f.Knob]
	if k.Set(f.Level) {
		if err := k.Draw(); err != nil {
			println("draw failed:", err.Error())
		}
	}
}
