package detent

import (
	"errors"
	"testing"
	"time"
)

// fakePin is a hand-driven Pin for tests; set level or err between
// Update calls.
type fakePin struct {
	level bool
	err   error
}

func (p *fakePin) Read() (bool, error) { return p.level, p.err }

func updateButton(t *testing.T, b *Button) Action {
	t.Helper()
	act, err := b.Update()
	if err != nil {
		t.Fatalf("button update: %v", err)
	}
	return act
}

func TestButton_PressThenRelease_YieldsPressThenClick(t *testing.T) {
	pin := &fakePin{}
	b := NewButton(pin)

	pin.level = true
	if got := updateButton(t, b); got != Press {
		t.Fatalf("pressed tick = %v, want Press", got)
	}
	pin.level = false
	if got := updateButton(t, b); got != Click {
		t.Fatalf("released tick = %v, want Click", got)
	}
	if got := updateButton(t, b); got != Idle {
		t.Fatalf("idle tick = %v, want Idle", got)
	}
}

func TestButton_SecondPressedTick_IsHeldNeverPressAgain(t *testing.T) {
	pin := &fakePin{level: true}
	b := NewButton(pin)

	if got := updateButton(t, b); got != Press {
		t.Fatalf("first tick = %v, want Press", got)
	}
	for i := 0; i < 5; i++ {
		if got := updateButton(t, b); got != Held {
			t.Fatalf("sustained tick %d = %v, want Held", i, got)
		}
	}
}

func TestButton_ReleasedStaysIdle(t *testing.T) {
	b := NewButton(&fakePin{})
	for i := 0; i < 4; i++ {
		if got := updateButton(t, b); got != Idle {
			t.Fatalf("tick %d = %v, want Idle", i, got)
		}
	}
}

func TestButton_HandlePress_SuppressesClickOnce(t *testing.T) {
	pin := &fakePin{level: true}
	b := NewButton(pin)

	updateButton(t, b) // Press
	b.HandlePress()

	pin.level = false
	if got := updateButton(t, b); got != Idle {
		t.Fatalf("acknowledged release = %v, want Idle", got)
	}

	// The acknowledgment cleared itself; the next cycle is ordinary.
	pin.level = true
	if got := updateButton(t, b); got != Press {
		t.Fatalf("next press = %v, want Press", got)
	}
	pin.level = false
	if got := updateButton(t, b); got != Click {
		t.Fatalf("next release = %v, want Click", got)
	}
}

func TestButton_HandlePress_SuppressesHeldUntilRelease(t *testing.T) {
	pin := &fakePin{level: true}
	b := NewButton(pin)

	updateButton(t, b) // Press
	updateButton(t, b) // Held
	b.HandlePress()

	for i := 0; i < 3; i++ {
		if got := updateButton(t, b); got != Idle {
			t.Fatalf("acknowledged held tick %d = %v, want Idle", i, got)
		}
	}
	pin.level = false
	if got := updateButton(t, b); got != Idle {
		t.Fatalf("acknowledged release = %v, want Idle", got)
	}
	if got := updateButton(t, b); got != Idle {
		t.Fatalf("tick after release = %v, want Idle", got)
	}
}

func TestButton_HandlePress_IgnoredWhileReleased(t *testing.T) {
	pin := &fakePin{}
	b := NewButton(pin)

	updateButton(t, b) // Idle
	b.HandlePress()

	pin.level = true
	if got := updateButton(t, b); got != Press {
		t.Fatalf("press = %v, want Press", got)
	}
	pin.level = false
	if got := updateButton(t, b); got != Click {
		t.Fatalf("release = %v, want Click (acknowledgment must not latch)", got)
	}
}

func TestInvertedButton_PressedWhenLow(t *testing.T) {
	pin := &fakePin{level: true} // pulled up, released
	b := NewInvertedButton(pin)

	if got := updateButton(t, b); got != Idle {
		t.Fatalf("released tick = %v, want Idle", got)
	}
	pin.level = false
	if got := updateButton(t, b); got != Press {
		t.Fatalf("grounded tick = %v, want Press", got)
	}
	pin.level = true
	if got := updateButton(t, b); got != Click {
		t.Fatalf("released tick = %v, want Click", got)
	}
}

func TestButton_ReadErrorTaggedAndStatePreserved(t *testing.T) {
	pin := &fakePin{level: true}
	b := NewButton(pin)

	updateButton(t, b) // Press

	pin.err = errors.New("bus stuck")
	_, err := b.Update()
	if err == nil {
		t.Fatal("update with failing pin returned nil error")
	}
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("error %v does not unwrap to *ReadError", err)
	}
	if re.Pin != KeyPin {
		t.Fatalf("error tagged %v, want key", re.Pin)
	}
	if re.Unwrap() != pin.err {
		t.Fatalf("unwrap = %v, want the pin error", re.Unwrap())
	}

	// The failed tick consumed no sample: the press is still in
	// progress and classifies as Held, not a fresh Press.
	pin.err = nil
	if got := updateButton(t, b); got != Held {
		t.Fatalf("tick after failure = %v, want Held", got)
	}
}

func TestTimeButton_StampsHeldAndClickDurations(t *testing.T) {
	pin := &fakePin{}
	b := NewTimeButton(pin)
	t0 := time.Unix(1000, 0)

	pin.level = true
	ev, err := b.Update(t0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ev.Action != Press || ev.Duration != 0 {
		t.Fatalf("press tick = %v, want bare Press", ev)
	}

	ev, _ = b.Update(t0.Add(30 * time.Millisecond))
	if ev.Action != Held || ev.Duration != 30*time.Millisecond {
		t.Fatalf("held tick = %v, want Held(30ms)", ev)
	}

	pin.level = false
	ev, _ = b.Update(t0.Add(50 * time.Millisecond))
	if ev.Action != Click || ev.Duration != 50*time.Millisecond {
		t.Fatalf("release tick = %v, want Click(50ms)", ev)
	}
}

func TestTimeButton_BackwardsClockClampsToZero(t *testing.T) {
	pin := &fakePin{level: true}
	b := NewTimeButton(pin)
	t0 := time.Unix(1000, 0)

	b.Update(t0) // Press
	ev, _ := b.Update(t0.Add(-5 * time.Millisecond))
	if ev.Action != Held || ev.Duration != 0 {
		t.Fatalf("held tick = %v, want Held(0)", ev)
	}
}

func TestClockButton_PullsInstantsFromClock(t *testing.T) {
	pin := &fakePin{level: true}
	now := time.Unix(1000, 0)
	b := NewClockButton(pin, ClockFunc(func() time.Time { return now }))

	ev, err := b.Update()
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ev.Action != Press {
		t.Fatalf("first tick = %v, want Press", ev)
	}

	now = now.Add(120 * time.Millisecond)
	pin.level = false
	ev, _ = b.Update()
	if ev.Action != Click || ev.Duration != 120*time.Millisecond {
		t.Fatalf("release tick = %v, want Click(120ms)", ev)
	}
}

func TestInvertedClockButton_HandlePressForwards(t *testing.T) {
	pin := &fakePin{} // low, pressed for the inverted variant
	b := NewInvertedClockButton(pin, SystemClock)

	ev, _ := b.Update()
	if ev.Action != Press {
		t.Fatalf("first tick = %v, want Press", ev)
	}
	b.HandlePress()
	pin.level = true
	ev, _ = b.Update()
	if ev.Action != Idle {
		t.Fatalf("acknowledged release = %v, want Idle", ev)
	}
}
