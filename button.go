package detent

import "time"

// Button debounces a momentary switch sampled once per tick. A level
// must survive two consecutive samples to classify, so the physical
// debounce window is twice the caller's tick period; callers wanting a
// longer window tick slower.
type Button struct {
	pin         Pin
	inverted    bool
	state       uint8
	handlePress bool
}

// NewButton returns a Button that counts the pin reading high as
// pressed.
func NewButton(pin Pin) *Button {
	return &Button{pin: pin}
}

// NewInvertedButton returns a Button that counts the pin reading low as
// pressed, for a switch shorting to ground behind a pull-up.
func NewInvertedButton(pin Pin) *Button {
	return &Button{pin: pin, inverted: true}
}

// Update samples the pin and classifies this tick.
func (b *Button) Update() (Action, error) {
	level, err := b.pin.Read()
	if err != nil {
		return Idle, &ReadError{Pin: KeyPin, Err: err}
	}
	return b.classify(level != b.inverted), nil
}

// HandlePress marks the press in progress as consumed elsewhere: Held
// reports turn into Idle and the eventual release reports Idle instead
// of Click. The mark clears itself once that release is observed. Calls
// while the button is not pressed do nothing.
func (b *Button) HandlePress() {
	if b.state == 0b10 || b.state == 0b11 {
		b.handlePress = true
	}
}

// classify shifts the sample into the two-bit history and names the
// resulting state. Bit 1 is this tick, bit 0 the last one.
func (b *Button) classify(pressed bool) Action {
	s := b.state >> 1
	if pressed {
		s |= 0b10
	}
	b.state = s

	if b.handlePress {
		switch s {
		case 0b01:
			b.handlePress = false
			return Idle
		case 0b11:
			return Idle
		}
	}
	switch s {
	case 0b10:
		return Press
	case 0b11:
		return Held
	case 0b01:
		return Click
	}
	return Idle
}

// TimeButton is a Button that stamps the press duration onto Held and
// Click. The caller passes the instant of each sample, so no clock gets
// wired in.
type TimeButton struct {
	button  Button
	pressAt time.Time
}

// NewTimeButton returns a TimeButton that counts high as pressed.
func NewTimeButton(pin Pin) *TimeButton {
	return &TimeButton{button: Button{pin: pin}}
}

// NewInvertedTimeButton returns a TimeButton that counts low as pressed.
func NewInvertedTimeButton(pin Pin) *TimeButton {
	return &TimeButton{button: Button{pin: pin, inverted: true}}
}

// Update samples the pin and classifies this tick, taking now as the
// instant the sample was made.
func (b *TimeButton) Update(now time.Time) (Event, error) {
	act, err := b.button.Update()
	if err != nil {
		return Event{}, err
	}
	switch act {
	case Press:
		b.pressAt = now
		return Event{Action: Press}, nil
	case Held, Click:
		return Event{Action: act, Duration: since(now, b.pressAt)}, nil
	}
	return Event{}, nil
}

// HandlePress acknowledges the press in progress, as Button.HandlePress.
func (b *TimeButton) HandlePress() { b.button.HandlePress() }

// ClockButton is a TimeButton bound to an injected Clock.
type ClockButton struct {
	button TimeButton
	clock  Clock
}

// NewClockButton returns a ClockButton that counts high as pressed.
func NewClockButton(pin Pin, clock Clock) *ClockButton {
	return &ClockButton{button: TimeButton{button: Button{pin: pin}}, clock: clock}
}

// NewInvertedClockButton returns a ClockButton that counts low as
// pressed.
func NewInvertedClockButton(pin Pin, clock Clock) *ClockButton {
	return &ClockButton{button: TimeButton{button: Button{pin: pin, inverted: true}}, clock: clock}
}

// Update samples the pin at the clock's current instant.
func (b *ClockButton) Update() (Event, error) {
	return b.button.Update(b.clock.Now())
}

// HandlePress acknowledges the press in progress, as Button.HandlePress.
func (b *ClockButton) HandlePress() { b.button.HandlePress() }
