package detent

import (
	"strconv"
	"time"
)

// Action classifies what one decoder tick observed. The zero value is
// Idle. Buttons report the first four; encoders add the rotate pair.
type Action uint8

const (
	Idle Action = iota
	Press
	Held
	Click
	Rotate
	RotatePressed
)

func (a Action) String() string {
	switch a {
	case Idle:
		return "Idle"
	case Press:
		return "Press"
	case Held:
		return "Held"
	case Click:
		return "Click"
	case Rotate:
		return "Rotate"
	case RotatePressed:
		return "RotatePressed"
	}
	return "Action(" + strconv.Itoa(int(a)) + ")"
}

// Event is one decoded tick. Rotation is nonzero only for Rotate and
// RotatePressed. Duration is filled in by the time-aware decoders on
// Held and Click and measures the press so far.
type Event struct {
	Action   Action
	Rotation Rotation
	Duration time.Duration
}

func (e Event) String() string {
	switch e.Action {
	case Rotate, RotatePressed:
		return e.Action.String() + "(" + strconv.Itoa(int(e.Rotation)) + ")"
	case Held, Click:
		if e.Duration != 0 {
			return e.Action.String() + "(" + e.Duration.String() + ")"
		}
	}
	return e.Action.String()
}
