package detent

import "time"

// AccelProfile is the inter-step timing window mapping turn rate to a
// step multiplier. Steps landing within FullBelow of the previous step
// scale by the full acceleration factor, steps NoneAbove or further
// apart pass unscaled, and in between the multiplier interpolates
// linearly. Comparisons run in whole milliseconds.
type AccelProfile struct {
	FullBelow time.Duration
	NoneAbove time.Duration
}

var (
	// DefaultAccelProfile suits small knobs flicked with one finger.
	DefaultAccelProfile = AccelProfile{FullBelow: 20 * time.Millisecond, NoneAbove: 100 * time.Millisecond}

	// RelaxedAccelProfile keeps acceleration engaged on larger knobs
	// turned from the wrist.
	RelaxedAccelProfile = AccelProfile{FullBelow: 50 * time.Millisecond, NoneAbove: 250 * time.Millisecond}
)

// multiplier maps the gap since the previous step to a factor in
// [1, factor]. Windows with NoneAbove at or below FullBelow degrade to
// a step function, never to a division by zero.
func (p AccelProfile) multiplier(factor int, dt time.Duration) int {
	if factor <= 1 {
		return 1
	}
	ms := dt.Milliseconds()
	lo := p.FullBelow.Milliseconds()
	hi := p.NoneAbove.Milliseconds()
	if ms <= lo {
		return factor
	}
	if ms >= hi {
		return 1
	}
	f := int64(factor)
	return int(f - f*(ms-lo)/(hi-lo))
}

// TimeRotary is a Rotary whose steps scale with turn rate. The caller
// passes the instant of each sample, so no clock gets wired in.
type TimeRotary struct {
	rotary  Rotary
	lastRot time.Time
	factor  int
	profile AccelProfile
}

// NewTimeRotary returns a TimeRotary with acceleration off and the
// default profile.
func NewTimeRotary(pinA, pinB Pin, divider int) *TimeRotary {
	return &TimeRotary{
		rotary:  *NewRotary(pinA, pinB, divider),
		factor:  1,
		profile: DefaultAccelProfile,
	}
}

// NewAcceleratedTimeRotary returns a TimeRotary scaling steps by up to
// factor under the given profile.
func NewAcceleratedTimeRotary(pinA, pinB Pin, divider, factor int, profile AccelProfile) *TimeRotary {
	r := NewTimeRotary(pinA, pinB, divider)
	r.SetAcceleration(factor)
	r.SetAccelProfile(profile)
	return r
}

// SetAcceleration sets the maximum step multiplier. Factors below 1
// clamp to 1, which turns acceleration off.
func (r *TimeRotary) SetAcceleration(factor int) {
	if factor < 1 {
		factor = 1
	}
	r.factor = factor
}

// SetAccelProfile swaps the timing window.
func (r *TimeRotary) SetAccelProfile(p AccelProfile) {
	r.profile = p
}

// Update samples both phases and returns this tick's step, scaled by
// the gap between this nonzero step and the previous one. The first
// step after idle has no reference gap and passes unscaled.
func (r *TimeRotary) Update(now time.Time) (Rotation, error) {
	rot, err := r.rotary.Update()
	if err != nil || rot.IsZero() {
		return rot, err
	}
	last := r.lastRot
	r.lastRot = now
	if last.IsZero() {
		return rot, nil
	}
	return rot * Rotation(r.profile.multiplier(r.factor, since(now, last))), nil
}

// ClockRotary is a TimeRotary bound to an injected Clock.
type ClockRotary struct {
	rotary TimeRotary
	clock  Clock
}

// NewClockRotary returns a ClockRotary with acceleration off and the
// default profile.
func NewClockRotary(pinA, pinB Pin, divider int, clock Clock) *ClockRotary {
	return &ClockRotary{rotary: *NewTimeRotary(pinA, pinB, divider), clock: clock}
}

// NewAcceleratedClockRotary returns a ClockRotary scaling steps by up to
// factor under the given profile.
func NewAcceleratedClockRotary(pinA, pinB Pin, divider, factor int, profile AccelProfile, clock Clock) *ClockRotary {
	r := NewClockRotary(pinA, pinB, divider, clock)
	r.SetAcceleration(factor)
	r.SetAccelProfile(profile)
	return r
}

// SetAcceleration sets the maximum step multiplier, as
// TimeRotary.SetAcceleration.
func (r *ClockRotary) SetAcceleration(factor int) { r.rotary.SetAcceleration(factor) }

// SetAccelProfile swaps the timing window.
func (r *ClockRotary) SetAccelProfile(p AccelProfile) { r.rotary.SetAccelProfile(p) }

// Update samples both phases at the clock's current instant.
func (r *ClockRotary) Update() (Rotation, error) {
	return r.rotary.Update(r.clock.Now())
}
