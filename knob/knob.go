//go:build tinygo

// Package knob pairs one encoder with one screen and owns the 0..100
// level the pair controls.
package knob

import (
	"image/color"
	"math/rand/v2"
	"time"

	"tinygo.org/x/drivers/sh1106"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"detent"
	"detent/protocol"
	"detent/screen"
)

var (
	drawColor = color.RGBA{255, 255, 255, 255}
	nameFont  = &freemono.Regular9pt7b
)

const (
	// coarseWeight scales rotation while the shaft is pressed.
	coarseWeight = 5

	// recenterAfter is how long a plain hold runs before the level
	// snaps to recenterLevel. The press is consumed then, so the
	// release does not also click the level to zero.
	recenterAfter = 800 * time.Millisecond
	recenterLevel = 50
)

type Knob struct {
	enc    *detent.ClockEncoder
	screen *screen.Screen
	name   string
	id     uint8
	level  uint8
}

// New returns a knob starting at a random level. Push the real one
// with Set once the host reports it.
func New(enc *detent.ClockEncoder, scr *screen.Screen, name string, id uint8) *Knob {
	return &Knob{
		enc:    enc,
		screen: scr,
		name:   name,
		id:     id,
		level:  uint8(rand.IntN(101)),
	}
}

func (k *Knob) Level() uint8 { return k.level }

// Set adopts a level pushed by the host and reports whether it
// changed. The caller redraws.
func (k *Knob) Set(level uint8) bool {
	if level > 100 {
		level = 100
	}
	if level == k.level {
		return false
	}
	k.level = level
	return true
}

// Update runs one encoder tick and applies the event to the level:
// rotation nudges it, pressed rotation in coarse steps, a click zeroes
// it, a long hold recenters it. It returns the frame to transmit, nil
// on a quiet tick. The caller redraws when a frame comes back.
func (k *Knob) Update() (*protocol.Frame, error) {
	ev, err := k.enc.Update()
	if err != nil {
		return nil, err
	}

	switch ev.Action {
	case detent.Rotate:
		k.level = offsetLevel(k.level, int(ev.Rotation))
	case detent.RotatePressed:
		k.level = offsetLevel(k.level, int(ev.Rotation)*coarseWeight)
	case detent.Click:
		k.level = 0
	case detent.Held:
		if ev.Duration < recenterAfter {
			return nil, nil
		}
		k.enc.HandlePress()
		k.level = recenterLevel
	default:
		return nil, nil
	}

	return protocol.NewEventFrame(k.id, ev, k.level), nil
}

func offsetLevel(level uint8, delta int) uint8 {
	n := int(level) + delta
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return uint8(n)
}

// Draw repaints the screen: name along the top band, level bar under
// it. The displays are mounted rotated, so text renders at 270 degrees
// and the bar reads bottom up.
func (k *Knob) Draw() error {
	if err := k.screen.Activate(); err != nil {
		return err
	}
	d := k.screen.Device()
	d.ClearBuffer()

	_, w := tinyfont.LineWidth(nameFont, k.name)
	y := 64 - (64-int(w))/2
	tinyfont.WriteLineRotated(d, nameFont, 9, int16(y), k.name, drawColor, tinyfont.ROTATION_270)

	drawBar(d, k.level)

	return d.Display()
}

const (
	barLeft   = 17
	barRight  = 118
	barTop    = 17
	barBottom = 47
)

// drawBar outlines the bar and fills level pixels of its 100 pixel
// interior, growing from the right edge.
func drawBar(d *sh1106.Device, level uint8) {
	for x := int16(barLeft); x <= barRight; x++ {
		d.SetPixel(x, barTop, drawColor)
		d.SetPixel(x, barBottom, drawColor)
	}
	for y := int16(barTop); y <= barBottom; y++ {
		d.SetPixel(barLeft, y, drawColor)
		d.SetPixel(barRight, y, drawColor)
	}
	for i := int16(0); i < int16(level); i++ {
		x := barRight - 1 - i
		for y := int16(barTop + 1); y < barBottom; y++ {
			d.SetPixel(x, y, drawColor)
		}
	}
}
