// Package button turns raw switch samples into debounced press, release,
// hold-repeat and click events.
// This package is pure logic with NO external dependencies (no GPIO, OS,
// goroutines or clock). Callers bind a sample function per instance and
// drive it by calling Step with a monotonic millisecond counter.
package button

import "errors"

// Event identifies a transition reported to the callback.
type Event uint8

const (
	EventNone Event = iota
	EventPressed
	EventReleased
	EventHolding
	EventClick
)

// String returns the wire name of the event.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "NONE"
	case EventPressed:
		return "PRESSED"
	case EventReleased:
		return "RELEASED"
	case EventHolding:
		return "HOLDING"
	case EventClick:
		return "CLICK"
	default:
		return "UNKNOWN"
	}
}

// SampleFunc returns the current raw level of the contact: true while it
// reads active (pressed). Step calls it exactly once per elapsed sampling
// interval.
type SampleFunc func() bool

// Callback receives events detected during a Step call, on the caller's
// goroutine. A released event is always followed by a click event whose
// clicks argument carries the accumulated count; for every other event
// clicks is zero. Callbacks must not reenter Step on the same button.
type Callback func(b *Button, e Event, clicks uint8)

// Operation errors. Compare with errors.Is.
var (
	// ErrInvalidParam reports a nil instance or missing required argument.
	ErrInvalidParam = errors.New("button: invalid param")
	// ErrIncorrectParam reports a parameter set rejected by validation.
	ErrIncorrectParam = errors.New("button: incorrect param")
	// ErrDisabled reports a Step call on an instance that is not enabled.
	ErrDisabled = errors.New("button: disabled")
	// ErrNoFreeSlot reports an exhausted pool.
	ErrNoFreeSlot = errors.New("button: no free slot")
)

// Param holds the timing configuration of one button. All fields count
// milliseconds and must be positive, with MinPressTimeMS at least one
// sampling interval.
type Param struct {
	SamplingIntervalMS uint32
	MinPressTimeMS     uint32
	RepeatDelayMS      uint32
	RepeatRateMS       uint32
	ClickWindowMS      uint32
}

// Defaults applied to freshly allocated instances.
const (
	DefaultSamplingIntervalMS = 10
	DefaultMinPressTimeMS     = 60
	DefaultRepeatDelayMS      = 300
	DefaultRepeatRateMS       = 200
	DefaultClickWindowMS      = 500
)

// DefaultParam returns the stock timing configuration: 10ms sampling,
// 60ms debounce, holding after 300ms repeating every 200ms, clicks
// grouped within a 500ms window.
func DefaultParam() Param {
	return Param{
		SamplingIntervalMS: DefaultSamplingIntervalMS,
		MinPressTimeMS:     DefaultMinPressTimeMS,
		RepeatDelayMS:      DefaultRepeatDelayMS,
		RepeatRateMS:       DefaultRepeatRateMS,
		ClickWindowMS:      DefaultClickWindowMS,
	}
}

// waveform is the sliding bit history of raw samples, bit 0 newest.
type waveform uint32

// waveformBits caps the debounce window. The validator reserves two
// bits above the window: one for the release pattern and one boundary
// bit so the pattern can shift out cleanly.
const waveformBits = 32

// Classifier states. Bit flags so membership in the activity set below
// is a single mask test.
type state uint8

const (
	stateIdle       state = 0x00
	statePressed    state = 0x01
	stateReleased   state = 0x02
	stateDown       state = 0x04
	stateUp         state = 0x08
	stateDebouncing state = 0x10
)

// stateActivity covers the states during which a click streak must stay
// alive: a streak only expires while the contact is settled or idle.
const stateActivity = statePressed | stateDown | stateDebouncing
