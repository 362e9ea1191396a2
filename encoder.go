package detent

import "time"

// Encoder fuses a Rotary and the push switch on its shaft into one
// event stream. The key pin counts low as pressed, the usual wiring for
// a shaft switch shorting to ground.
//
// Turning while pressed reports RotatePressed and consumes the press:
// from then on its Held ticks report Idle, and the release reports Idle
// instead of Click. A push-and-turn gesture therefore never also fires
// the click it would have been as a plain push.
type Encoder struct {
	rotary        Rotary
	button        Button
	rotatedOnHold bool
}

// NewEncoder returns an Encoder; divider as in NewRotary.
func NewEncoder(pinA, pinB, keyPin Pin, divider int) *Encoder {
	return &Encoder{
		rotary: *NewRotary(pinA, pinB, divider),
		button: Button{pin: keyPin, inverted: true},
	}
}

// Update samples all three pins and fuses this tick into one Event.
func (e *Encoder) Update() (Event, error) {
	rot, err := e.rotary.Update()
	if err != nil {
		return Event{}, err
	}
	act, err := e.button.Update()
	if err != nil {
		return Event{}, err
	}
	return fuse(&e.rotatedOnHold, rot, Event{Action: act}), nil
}

// HandlePress marks the press in progress as consumed: the pending
// click suppression clears here, and the button acknowledges as
// Button.HandlePress.
func (e *Encoder) HandlePress() {
	e.rotatedOnHold = false
	e.button.HandlePress()
}

// fuse resolves one tick's rotation and button event into a single
// event. rotatedOnHold carries across ticks whether the press in
// progress has already rotated.
func fuse(rotatedOnHold *bool, rot Rotation, button Event) Event {
	switch button.Action {
	case Press, Held:
		if !rot.IsZero() {
			*rotatedOnHold = true
			return Event{Action: RotatePressed, Rotation: rot}
		}
		if *rotatedOnHold {
			return Event{}
		}
		return button
	case Click:
		if *rotatedOnHold {
			*rotatedOnHold = false
			return Event{}
		}
		// A step landing on the click tick itself is discarded; the
		// click outranks it.
		return button
	default:
		*rotatedOnHold = false
		if !rot.IsZero() {
			return Event{Action: Rotate, Rotation: rot}
		}
		return Event{}
	}
}

// TimeEncoder is an Encoder with press durations on Held and Click and
// turn-rate acceleration on rotation. The caller passes the instant of
// each sample.
type TimeEncoder struct {
	rotary        TimeRotary
	button        TimeButton
	rotatedOnHold bool
}

// NewTimeEncoder returns a TimeEncoder with acceleration off and the
// default profile.
func NewTimeEncoder(pinA, pinB, keyPin Pin, divider int) *TimeEncoder {
	return &TimeEncoder{
		rotary: *NewTimeRotary(pinA, pinB, divider),
		button: TimeButton{button: Button{pin: keyPin, inverted: true}},
	}
}

// SetAcceleration sets the maximum rotation multiplier, as
// TimeRotary.SetAcceleration.
func (e *TimeEncoder) SetAcceleration(factor int) { e.rotary.SetAcceleration(factor) }

// SetAccelProfile swaps the acceleration timing window.
func (e *TimeEncoder) SetAccelProfile(p AccelProfile) { e.rotary.SetAccelProfile(p) }

// Update samples all three pins at now and fuses this tick.
func (e *TimeEncoder) Update(now time.Time) (Event, error) {
	rot, err := e.rotary.Update(now)
	if err != nil {
		return Event{}, err
	}
	ev, err := e.button.Update(now)
	if err != nil {
		return Event{}, err
	}
	return fuse(&e.rotatedOnHold, rot, ev), nil
}

// HandlePress marks the press in progress as consumed, as
// Encoder.HandlePress.
func (e *TimeEncoder) HandlePress() {
	e.rotatedOnHold = false
	e.button.HandlePress()
}

// ClockEncoder is a TimeEncoder bound to an injected Clock.
type ClockEncoder struct {
	encoder TimeEncoder
	clock   Clock
}

// NewClockEncoder returns a ClockEncoder with acceleration off and the
// default profile.
func NewClockEncoder(pinA, pinB, keyPin Pin, divider int, clock Clock) *ClockEncoder {
	return &ClockEncoder{encoder: *NewTimeEncoder(pinA, pinB, keyPin, divider), clock: clock}
}

// SetAcceleration sets the maximum rotation multiplier, as
// TimeRotary.SetAcceleration.
func (e *ClockEncoder) SetAcceleration(factor int) { e.encoder.SetAcceleration(factor) }

// SetAccelProfile swaps the acceleration timing window.
func (e *ClockEncoder) SetAccelProfile(p AccelProfile) { e.encoder.SetAccelProfile(p) }

// Update samples all three pins at the clock's current instant.
func (e *ClockEncoder) Update() (Event, error) {
	return e.encoder.Update(e.clock.Now())
}

// HandlePress marks the press in progress as consumed, as
// Encoder.HandlePress.
func (e *ClockEncoder) HandlePress() { e.encoder.HandlePress() }
