package detent

import "time"

// Clock produces the current instant for the clock-bound decoders.
// Instants only ever feed subtractions, so any monotonically
// non-decreasing source works; wall-clock jumps backwards degrade to a
// zero span rather than a negative one.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the host clock. On TinyGo this is the tick counter
// since boot.
var SystemClock Clock = ClockFunc(time.Now)

// since returns the span from anchor to now. The zero anchor means "not
// recorded" and yields zero, as do samples that went backwards.
func since(now, anchor time.Time) time.Duration {
	if anchor.IsZero() {
		return 0
	}
	d := now.Sub(anchor)
	if d < 0 {
		return 0
	}
	return d
}
