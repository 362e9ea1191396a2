package detent

// Direction is the rotational sense of a Rotation.
type Direction uint8

const (
	NoDirection Direction = iota
	Clockwise
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "Clockwise"
	case CounterClockwise:
		return "Counter Clockwise"
	}
	return "None"
}

// Rotation is the signed step count of one tick: -1, 0 or +1 from the
// decoder, larger once acceleration scales it. Positive is Clockwise
// under this package's phase convention; swapping the phase pins flips
// the physical sense.
type Rotation int

func (r Rotation) IsZero() bool { return r == 0 }

func (r Rotation) Direction() Direction {
	switch {
	case r > 0:
		return Clockwise
	case r < 0:
		return CounterClockwise
	}
	return NoDirection
}

// Rotary decodes a two-phase quadrature signal sampled once per tick.
//
// Phases are taken as "low" booleans, and the previous and current
// pairs form a four-bit window over a fixed transition table. Valid
// transitions step a sub-step accumulator; when its magnitude reaches
// the divider, one unit step comes out and the accumulator resets.
// Reaching the home window (both phases released for two ticks, or a
// jump there from both closed) flushes any residual sub-steps as one
// sign-only step. Repeated mid-transition windows and the remaining
// diagonal jumps are ignored.
type Rotary struct {
	pinA, pinB Pin
	divider    int
	window     uint8
	switches   int
}

// NewRotary returns a decoder emitting one step per divider sub-steps.
// Encoders with four state changes per physical detent want divider 4;
// divider 1 reports every sub-step. Dividers below 1 clamp to 1.
func NewRotary(pinA, pinB Pin, divider int) *Rotary {
	if divider < 1 {
		divider = 1
	}
	return &Rotary{pinA: pinA, pinB: pinB, divider: divider}
}

// Update samples both phases and returns this tick's step.
func (r *Rotary) Update() (Rotation, error) {
	aHigh, err := r.pinA.Read()
	if err != nil {
		return 0, &ReadError{Pin: PhaseAPin, Err: err}
	}
	bHigh, err := r.pinB.Read()
	if err != nil {
		return 0, &ReadError{Pin: PhaseBPin, Err: err}
	}
	return r.step(!aHigh, !bHigh), nil
}

func (r *Rotary) step(aLow, bLow bool) Rotation {
	var pair uint8
	if aLow {
		pair |= 0b10
	}
	if bLow {
		pair |= 0b01
	}
	r.window = r.window>>2 | pair<<2

	switch r.window {
	case 0b0001, 0b0111, 0b1110, 0b1000, 0b0110:
		return r.accumulate(-1)
	case 0b0010, 0b1011, 0b1101, 0b0100, 0b1001:
		return r.accumulate(+1)
	case 0b0000, 0b0011:
		// Home: flush whatever partial turn is left.
		s := r.switches
		r.switches = 0
		return signum(s)
	}
	return 0
}

func (r *Rotary) accumulate(d int) Rotation {
	s := r.switches + d
	if s >= r.divider || -s >= r.divider {
		r.switches = 0
		return signum(s)
	}
	r.switches = s
	return 0
}

func signum(v int) Rotation {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
