package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"detent"
)

// coarseWeight scales pressed rotation in the level mirror, matching
// the deck firmware.
const coarseWeight = 5

// envelope is the wire format for WS messages.
type envelope struct {
	Type string      `json:"type"`
	Ts   *time.Time  `json:"ts,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// wsEvent is the `data` payload for "event" messages.
type wsEvent struct {
	Action   string `json:"action"`
	Rotation int    `json:"rotation,omitempty"`
	Ms       int64  `json:"ms,omitempty"`
	Level    int    `json:"level"`
}

// wsSnapshot is the `data` payload for the "snapshot" greeting.
type wsSnapshot struct {
	Level  int    `json:"level"`
	Events uint64 `json:"events"`
}

// monitor mirrors the encoder's level the way the deck firmware does,
// so dashboards get a position and not just a pulse train. It never
// consumes presses; it only watches.
type monitor struct {
	logger *slog.Logger
	hub    *Hub

	mu     sync.Mutex
	level  int
	events uint64
}

// apply folds one event into the mirror and renders its payload.
func (m *monitor) apply(ev detent.Event) wsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events++
	switch ev.Action {
	case detent.Rotate:
		m.level = clampLevel(m.level + int(ev.Rotation))
	case detent.RotatePressed:
		m.level = clampLevel(m.level + int(ev.Rotation)*coarseWeight)
	case detent.Click:
		m.level = 0
	}
	return wsEvent{
		Action:   ev.Action.String(),
		Rotation: int(ev.Rotation),
		Ms:       ev.Duration.Milliseconds(),
		Level:    m.level,
	}
}

func clampLevel(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func (m *monitor) publish(ev detent.Event) {
	data := m.apply(ev)
	now := time.Now().UTC()
	msg, err := json.Marshal(envelope{Type: "event", Ts: &now, Data: data})
	if err != nil {
		m.logger.Error("marshal event", "err", err)
		return
	}
	m.hub.BroadcastBytes(msg)
}

// snapshotFrame renders the greeting for a fresh client.
func (m *monitor) snapshotFrame() []byte {
	m.mu.Lock()
	snap := wsSnapshot{Level: m.level, Events: m.events}
	m.mu.Unlock()

	now := time.Now().UTC()
	msg, err := json.Marshal(envelope{Type: "snapshot", Ts: &now, Data: snap})
	if err != nil {
		m.logger.Error("marshal snapshot", "err", err)
		return nil
	}
	return msg
}

// pollLoop ticks the encoder and publishes every non-idle event. Pin
// read failures are logged with the failing pin and polling continues;
// the decoder holds its state across them.
func pollLoop(ctx context.Context, enc *detent.ClockEncoder, mon *monitor, period time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ev, err := enc.Update()
			if err != nil {
				var re *detent.ReadError
				if errors.As(err, &re) {
					logger.Error("pin read failed", "pin", re.Pin, "err", re.Err)
				} else {
					logger.Error("encoder update failed", "err", err)
				}
				continue
			}
			if ev.Action == detent.Idle {
				continue
			}
			logger.Debug("event", "event", ev.String())
			mon.publish(ev)
		}
	}
}
