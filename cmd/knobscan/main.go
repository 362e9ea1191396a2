// knobscan lists serial ports and USB devices and marks the ones that
// look like a knob deck, to find the right -port value for the host
// tools.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dikkadev/prettyslog"
	"github.com/karalabe/usb"
	"go.bug.st/serial/enumerator"
)

// rp2040VID is the Raspberry Pi vendor id the deck's USB serial
// enumerates under.
const rp2040VID = "2E8A"

func main() {
	verbose := flag.Bool("v", false, "log every device, not just candidates")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(prettyslog.NewPrettyslogHandler("knobscan",
		prettyslog.WithLevel(level),
	))
	slog.SetDefault(logger)

	candidates := scanSerial()
	scanUSB()

	if candidates == 0 {
		slog.Info("no candidate decks found; rerun with -v to see every device")
	}
}

func scanSerial() int {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		slog.Error("list serial ports", "err", err)
		return 0
	}
	if len(ports) == 0 {
		slog.Info("no serial ports present")
		return 0
	}

	candidates := 0
	for _, port := range ports {
		if !port.IsUSB {
			slog.Debug("serial port", "name", port.Name)
			continue
		}
		if strings.EqualFold(port.VID, rp2040VID) {
			candidates++
			slog.Info("candidate deck",
				"port", port.Name,
				"vid", port.VID,
				"pid", port.PID,
				"serial", port.SerialNumber,
			)
			continue
		}
		slog.Debug("serial port",
			"name", port.Name,
			"vid", port.VID,
			"pid", port.PID,
		)
	}
	return candidates
}

func scanUSB() {
	if !usb.Supported() {
		slog.Debug("raw usb enumeration not supported in this build")
		return
	}

	devices, err := usb.Enumerate(0, 0)
	if err != nil {
		slog.Error("enumerate usb devices", "err", err)
		return
	}
	for _, dev := range devices {
		slog.Debug("usb device",
			"vid", fmt.Sprintf("%04x", dev.VendorID),
			"pid", fmt.Sprintf("%04x", dev.ProductID),
			"product", dev.Product,
			"manufacturer", dev.Manufacturer,
		)
	}
}
