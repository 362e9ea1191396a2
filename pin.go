package detent

// Pin reads the electrical level of one digital input. The decoders
// sample it once per Update and never configure it; pull-ups and pin
// modes belong to whoever built the Pin.
type Pin interface {
	// Read returns true when the pin is high. Reads off bused hardware
	// may fail; a failed read leaves decoder state untouched.
	Read() (bool, error)
}

// PinFunc adapts a plain function to the Pin interface.
type PinFunc func() (bool, error)

func (f PinFunc) Read() (bool, error) { return f() }

// PinID names the pin a ReadError came from.
type PinID uint8

const (
	KeyPin PinID = iota
	PhaseAPin
	PhaseBPin
)

func (id PinID) String() string {
	switch id {
	case KeyPin:
		return "key"
	case PhaseAPin:
		return "phase A"
	case PhaseBPin:
		return "phase B"
	}
	return "unknown"
}

// ReadError reports a failed level read, tagged with the pin that
// failed. The decoder that hit it is unchanged; the next Update simply
// resamples.
type ReadError struct {
	Pin PinID
	Err error
}

func (e *ReadError) Error() string {
	return "read " + e.Pin.String() + " pin: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }
