//go:build tinygo

// busscan walks every multiplexer channel and probes the i2c address
// space behind it, for checking deck wiring before flashing knobfw.
package main

import (
	"time"

	"machine"

	"detent/multiplexer"
)

func main() {
	time.Sleep(2 * time.Second)

	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		SDA: machine.GPIO0,
		SCL: machine.GPIO1,
	})
	if err != nil {
		println("failed to configure i2c bus")
		return
	}

	mux := multiplexer.New(i2c, multiplexer.DefaultAddr)

	for {
		println("scanning i2c bus")
		for channel := uint8(0); channel < 8; channel++ {
			if err := mux.Select(channel); err != nil {
				println("mux select failed on channel", channel)
				continue
			}
			println("channel", channel)
			for addr := uint16(0x08); addr < 0x78; addr++ {
				if addr == multiplexer.DefaultAddr {
					// The mux answers on every channel; skip it.
					continue
				}
				if i2c.Tx(addr, []byte{0x00}, nil) == nil {
					println("  device at", hexAddr(addr))
				}
			}
		}
		if err := mux.Disable(); err != nil {
			println("mux disable failed")
		}
		time.Sleep(10 * time.Second)
	}
}

func hexAddr(addr uint16) string {
	const digits = "0123456789ABCDEF"
	return "0x" + string(digits[addr>>4&0xF]) + string(digits[addr&0xF])
}
