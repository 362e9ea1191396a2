// Package protocol frames decoded knob events for the USB serial link
// between firmware and host. Frames are fixed length with a doubled
// signature byte up front so a reader joining mid-stream can resync.
package protocol

import (
	"errors"
	"strconv"

	"detent"
)

// Signature opens every frame, twice.
const Signature uint8 = 0x69

// FrameLen is the wire size of one frame:
// [sig, sig, knob, action, level, value lo, value hi].
const FrameLen = 7

// SetLevel is the one host->device action: the device adopts Level for
// the addressed knob. It sits outside the detent.Action range.
const SetLevel uint8 = 0x10

var (
	ErrLength    = errors.New("protocol: not one frame")
	ErrSignature = errors.New("protocol: bad signature")
	ErrAction    = errors.New("protocol: unknown action")
)

// Frame is one event on the wire. Action holds a detent.Action value
// for device->host traffic or SetLevel for host->device. Level is the
// knob's 0..100 level after the event. Value carries signed rotation
// steps for rotate actions and the press duration in milliseconds,
// clamped, for Held and Click.
type Frame struct {
	Knob   uint8
	Action uint8
	Level  uint8
	Value  int16
}

// NewEventFrame converts one decoded event on knob to its wire frame.
func NewEventFrame(knob uint8, ev detent.Event, level uint8) *Frame {
	f := &Frame{Knob: knob, Action: uint8(ev.Action), Level: level}
	switch ev.Action {
	case detent.Rotate, detent.RotatePressed:
		f.Value = clampInt16(int64(ev.Rotation))
	case detent.Held, detent.Click:
		f.Value = clampInt16(ev.Duration.Milliseconds())
	}
	return f
}

// NewSetFrame builds the host->device frame pushing a level to a knob.
func NewSetFrame(knob, level uint8) *Frame {
	return &Frame{Knob: knob, Action: SetLevel, Level: level}
}

func clampInt16(v int64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Marshal renders the frame. The fixed-size return keeps firmware
// transmit loops allocation free.
func (f *Frame) Marshal() [FrameLen]byte {
	v := uint16(f.Value)
	return [FrameLen]byte{Signature, Signature, f.Knob, f.Action, f.Level, uint8(v), uint8(v >> 8)}
}

// Unmarshal parses exactly one frame.
func Unmarshal(data []byte) (*Frame, error) {
	if len(data) != FrameLen {
		return nil, ErrLength
	}
	if !FrameStart(data) {
		return nil, ErrSignature
	}
	action := data[3]
	if action > uint8(detent.RotatePressed) && action != SetLevel {
		return nil, ErrAction
	}
	return &Frame{
		Knob:   data[2],
		Action: action,
		Level:  data[4],
		Value:  int16(uint16(data[5]) | uint16(data[6])<<8),
	}, nil
}

// FrameStart reports whether data begins with the frame signature.
// Readers scan forward one byte at a time until it does.
func FrameStart(data []byte) bool {
	return len(data) >= 2 && data[0] == Signature && data[1] == Signature
}

// Scanner reassembles frames from a byte stream, resyncing on the
// doubled signature after noise, a partial frame, or a reader joining
// mid-stream. The zero value is ready to use.
type Scanner struct {
	buf [FrameLen]byte
	n   int
}

// Feed pushes one byte in. It returns the completed frame once one
// assembles, or an error when a full candidate fails validation; both
// are nil while a frame is still building. After an error the scanner
// has already resynced, so the caller just keeps feeding.
func (s *Scanner) Feed(b byte) (*Frame, error) {
	s.buf[s.n] = b
	s.n++
	for s.n >= 2 && !FrameStart(s.buf[:s.n]) {
		s.drop()
	}
	if s.n < FrameLen {
		return nil, nil
	}
	f, err := Unmarshal(s.buf[:])
	if err != nil {
		s.drop()
		return nil, err
	}
	s.n = 0
	return f, nil
}

func (s *Scanner) drop() {
	copy(s.buf[:], s.buf[1:s.n])
	s.n--
}

func (f *Frame) String() string {
	var action string
	if f.Action == SetLevel {
		action = "Set"
	} else {
		action = detent.Action(f.Action).String()
	}
	return action + " knob=" + strconv.Itoa(int(f.Knob)) +
		" level=" + strconv.Itoa(int(f.Level)) +
		" value=" + strconv.Itoa(int(f.Value))
}
