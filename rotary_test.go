package detent

import (
	"errors"
	"testing"
)

// quadPins drives the two phase pins of a decoder. Scripts are written
// as (aLow, bLow) pairs, the way the transition table is defined; the
// helper converts to electrical levels.
type quadPins struct {
	a, b fakePin
}

func newQuadPins() *quadPins {
	// Rest position: both phases pulled high.
	return &quadPins{a: fakePin{level: true}, b: fakePin{level: true}}
}

func (q *quadPins) set(aLow, bLow bool) {
	q.a.level = !aLow
	q.b.level = !bLow
}

func runRotary(t *testing.T, r *Rotary, q *quadPins, script [][2]bool) []Rotation {
	t.Helper()
	out := make([]Rotation, 0, len(script))
	for i, s := range script {
		q.set(s[0], s[1])
		rot, err := r.Update()
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		out = append(out, rot)
	}
	return out
}

func equalRotations(got, want []Rotation) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// One full forward detent: 00 -> 01 -> 11 -> 10 -> 00 in (aLow, bLow)
// space. Four sub-steps, so divider 4 emits exactly once, at the end.
var forwardCycle = [][2]bool{{false, true}, {true, true}, {true, false}, {false, false}}

var backwardCycle = [][2]bool{{true, false}, {true, true}, {false, true}, {false, false}}

func TestRotary_FullForwardCycle_EmitsOneStep(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	got := runRotary(t, r, q, forwardCycle)
	if !equalRotations(got, []Rotation{0, 0, 0, 1}) {
		t.Fatalf("forward cycle = %v, want [0 0 0 1]", got)
	}
	if got[3].Direction() != Clockwise {
		t.Fatalf("forward direction = %v, want Clockwise", got[3].Direction())
	}
}

func TestRotary_FullBackwardCycle_EmitsOneStep(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	got := runRotary(t, r, q, backwardCycle)
	if !equalRotations(got, []Rotation{0, 0, 0, -1}) {
		t.Fatalf("backward cycle = %v, want [0 0 0 -1]", got)
	}
	if got[3].Direction() != CounterClockwise {
		t.Fatalf("backward direction = %v, want CounterClockwise", got[3].Direction())
	}
}

func TestRotary_HalfCycle_EmitsNothing(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	got := runRotary(t, r, q, forwardCycle[:2])
	if !equalRotations(got, []Rotation{0, 0}) {
		t.Fatalf("half cycle = %v, want [0 0]", got)
	}
}

func TestRotary_RoundTrip_CancelsOut(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	script := [][2]bool{
		{false, true}, {true, true}, // two forward
		{false, true}, {false, false}, // same two backed out
		{false, false}, // settle at home
	}
	got := runRotary(t, r, q, script)
	if !equalRotations(got, []Rotation{0, 0, 0, 0, 0}) {
		t.Fatalf("round trip = %v, want all zero", got)
	}
	if r.switches != 0 {
		t.Fatalf("accumulator = %d after round trip, want 0", r.switches)
	}
}

func TestRotary_HomeFlushesResidual(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	// Two forward sub-steps, then the signal jumps straight home.
	script := [][2]bool{{false, true}, {true, true}, {false, false}}
	got := runRotary(t, r, q, script)
	if !equalRotations(got, []Rotation{0, 0, 1}) {
		t.Fatalf("flush = %v, want [0 0 1]", got)
	}
	if r.switches != 0 {
		t.Fatalf("accumulator = %d after flush, want 0", r.switches)
	}
}

func TestRotary_DividerOne_EmitsEverySubStep(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 1)

	got := runRotary(t, r, q, forwardCycle)
	if !equalRotations(got, []Rotation{1, 1, 1, 1}) {
		t.Fatalf("divider 1 = %v, want [1 1 1 1]", got)
	}
}

func TestRotary_DividerBelowOne_ClampsToOne(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 0)
	if r.divider != 1 {
		t.Fatalf("divider = %d, want 1", r.divider)
	}
}

func TestRotary_StablePositionsStayQuiet(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	// Resting at home.
	for i := 0; i < 4; i++ {
		rot, err := r.Update()
		if err != nil || rot != 0 {
			t.Fatalf("home tick %d = %v, %v; want 0, nil", i, rot, err)
		}
	}

	// Parked mid-detent (both phases closed).
	q.set(true, true)
	r.Update() // transition in, 0b1100 is a no-op window
	for i := 0; i < 4; i++ {
		rot, err := r.Update()
		if err != nil || rot != 0 {
			t.Fatalf("mid-detent tick %d = %v, %v; want 0, nil", i, rot, err)
		}
	}
}

func TestRotary_AccumulatorStaysUnderDivider(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	script := append(append([][2]bool{}, forwardCycle...), forwardCycle...)
	for i, s := range script {
		q.set(s[0], s[1])
		if _, err := r.Update(); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if r.switches >= r.divider || -r.switches >= r.divider {
			t.Fatalf("tick %d: accumulator %d escaped (-%d, %d)", i, r.switches, r.divider, r.divider)
		}
	}
}

func TestRotary_PhaseErrorsTagged(t *testing.T) {
	q := newQuadPins()
	r := NewRotary(&q.a, &q.b, 4)

	q.a.err = errors.New("phase a open")
	_, err := r.Update()
	var re *ReadError
	if !errors.As(err, &re) || re.Pin != PhaseAPin {
		t.Fatalf("phase A failure = %v, want ReadError tagged phase A", err)
	}

	q.a.err = nil
	q.b.err = errors.New("phase b open")
	_, err = r.Update()
	if !errors.As(err, &re) || re.Pin != PhaseBPin {
		t.Fatalf("phase B failure = %v, want ReadError tagged phase B", err)
	}
}

func TestRotary_PinFuncAdapters(t *testing.T) {
	aLevel, bLevel := true, true
	r := NewRotary(
		PinFunc(func() (bool, error) { return aLevel, nil }),
		PinFunc(func() (bool, error) { return bLevel, nil }),
		1,
	)

	bLevel = false // (aLow, bLow) = (false, true): one forward sub-step
	rot, err := r.Update()
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rot != 1 {
		t.Fatalf("sub-step = %v, want 1", rot)
	}
}

func TestRotation_Direction(t *testing.T) {
	cases := []struct {
		r    Rotation
		want Direction
	}{
		{-3, CounterClockwise},
		{-1, CounterClockwise},
		{0, NoDirection},
		{1, Clockwise},
		{5, Clockwise},
	}
	for _, c := range cases {
		if got := c.r.Direction(); got != c.want {
			t.Errorf("Rotation(%d).Direction() = %v, want %v", c.r, got, c.want)
		}
		if c.r.IsZero() != (c.r == 0) {
			t.Errorf("Rotation(%d).IsZero() = %v", c.r, c.r.IsZero())
		}
	}
}
