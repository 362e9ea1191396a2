package main

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"detent"
)

func TestMonitor_LevelMirror(t *testing.T) {
	m := &monitor{logger: slog.Default()}

	steps := []struct {
		ev    detent.Event
		level int
	}{
		{detent.Event{Action: detent.Rotate, Rotation: 3}, 3},
		{detent.Event{Action: detent.RotatePressed, Rotation: 2}, 13},
		{detent.Event{Action: detent.Rotate, Rotation: -1}, 12},
		{detent.Event{Action: detent.Click, Duration: 40 * time.Millisecond}, 0},
		{detent.Event{Action: detent.Rotate, Rotation: -5}, 0},
		{detent.Event{Action: detent.Held, Duration: 900 * time.Millisecond}, 0},
	}

	for i, s := range steps {
		got := m.apply(s.ev)
		if got.Level != s.level {
			t.Fatalf("step %d: level = %d, want %d", i, got.Level, s.level)
		}
		if got.Action != s.ev.Action.String() {
			t.Fatalf("step %d: action = %q, want %q", i, got.Action, s.ev.Action.String())
		}
	}

	// Rotation past the cap pins at 100.
	m.apply(detent.Event{Action: detent.RotatePressed, Rotation: 30})
	if got := m.apply(detent.Event{Action: detent.Rotate, Rotation: 1}); got.Level != 100 {
		t.Fatalf("level = %d, want 100", got.Level)
	}
}

func TestMonitor_SnapshotFrame(t *testing.T) {
	m := &monitor{logger: slog.Default()}
	m.apply(detent.Event{Action: detent.Rotate, Rotation: 7})
	m.apply(detent.Event{Action: detent.Rotate, Rotation: 1})

	raw := m.snapshotFrame()
	if raw == nil {
		t.Fatal("nil snapshot frame")
	}

	var env struct {
		Type string     `json:"type"`
		Data wsSnapshot `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "snapshot" {
		t.Errorf("type = %q, want snapshot", env.Type)
	}
	if env.Data.Level != 8 {
		t.Errorf("level = %d, want 8", env.Data.Level)
	}
	if env.Data.Events != 2 {
		t.Errorf("events = %d, want 2", env.Data.Events)
	}
}

func TestMonitor_PublishEnqueuesEventFrame(t *testing.T) {
	hub := NewHub(slog.Default(), 4, nil)
	m := &monitor{logger: slog.Default(), hub: hub}

	m.publish(detent.Event{Action: detent.Rotate, Rotation: -2})

	select {
	case raw := <-hub.broadcast:
		var env struct {
			Type string  `json:"type"`
			Data wsEvent `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.Type != "event" {
			t.Errorf("type = %q, want event", env.Type)
		}
		if env.Data.Action != "Rotate" {
			t.Errorf("action = %q, want Rotate", env.Data.Action)
		}
		if env.Data.Rotation != -2 {
			t.Errorf("rotation = %d, want -2", env.Data.Rotation)
		}
		if env.Data.Level != 0 {
			t.Errorf("level = %d, want 0", env.Data.Level)
		}
	default:
		t.Fatal("nothing broadcast")
	}
}
