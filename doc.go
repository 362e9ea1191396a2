// Package detent turns raw pin samples from rotary encoders and push
// buttons into debounced input events.
//
// Decoders are plain values driven by polling: the caller ticks them at
// whatever cadence suits it, and each Update consumes exactly one sample
// per pin and returns one classified event. Nothing here allocates,
// blocks, spawns, or locks; an instance expects a single caller. Pin
// levels and time come in through the Pin and Clock capabilities, so the
// decoders run unchanged on TinyGo targets, Linux GPIO, I2C expanders,
// or plain fakes in tests (see the periphpin, rpiopin, mcppin and
// machinepin adapters).
//
// Three decoders come in three flavors each. Button, Rotary and Encoder
// classify without time. TimeButton, TimeRotary and TimeEncoder take the
// current instant per call and add press durations and turn-rate
// acceleration. ClockButton, ClockRotary and ClockEncoder pull instants
// from an injected Clock.
package detent
