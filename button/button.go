package button

// Button is one debounced switch instance, owned by a Pool. Its methods
// perform no locking: Step must be driven from a single goroutine at a
// time, and the callback runs inline on that goroutine.
type Button struct {
	sample   SampleFunc
	callback Callback
	param    Param

	wave         waveform
	timestamp    uint32
	timePressed  uint32
	timeReleased uint32
	timeRepeat   uint32
	clicks       uint8

	allocated bool
	active    bool
	pressed   bool
}

// pulseCount is N, the number of consecutive confirming samples needed
// for a debounced edge.
func (p Param) pulseCount() uint32 {
	return p.MinPressTimeMS / p.SamplingIntervalMS
}

// debounceMask selects the newest N samples: 0b0111111 for N=6.
func (p Param) debounceMask() waveform {
	return 1<<p.pulseCount() - 1
}

// historyMask selects the N+1 samples the classifier reasons about:
// 0b1111111 for N=6.
func (p Param) historyMask() waveform {
	return 1<<(p.pulseCount()+1) - 1
}

// releasePattern is the exact register value of a debounced release,
// one stale active sample followed by N inactive ones: 0b1000000 for N=6.
func (p Param) releasePattern() waveform {
	return 1 << p.pulseCount()
}

// validParam checks a candidate configuration. pulses is the derived
// window N; it must leave two spare register bits or classification
// masks would overflow the waveform width.
func validParam(p Param, pulses uint32) bool {
	if p.SamplingIntervalMS == 0 || p.RepeatDelayMS == 0 ||
		p.RepeatRateMS == 0 || p.ClickWindowMS == 0 {
		return false
	}
	if p.MinPressTimeMS < p.SamplingIntervalMS {
		return false
	}
	return pulses < waveformBits-2
}

// advance shifts one raw sample per pulse into the register and returns
// the masked history. The sample function runs once per pulse so missed
// intervals are caught up with current readings.
func (b *Button) advance(pulses uint32) waveform {
	for i := uint32(0); i < pulses; i++ {
		b.wave <<= 1
		if b.sample() {
			b.wave |= 1
		}
	}
	return b.wave & b.param.historyMask()
}

// isPressEdge reports a confirmed press: not yet pressed and the newest
// N samples all active.
func (b *Button) isPressEdge(w waveform) bool {
	if b.pressed {
		return false
	}
	mask := b.param.debounceMask()
	return w&mask == mask
}

// isReleaseEdge reports a confirmed release: currently pressed and the
// history is exactly the release pattern. Unlike the press edge this
// matches the full N+1 bits, so the last active sample must just have
// aged out of the debounce window.
func (b *Button) isReleaseEdge(w waveform) bool {
	return b.pressed && w == b.param.releasePattern()
}

// isDown reports the newest N samples all active.
func (b *Button) isDown(w waveform) bool {
	mask := b.param.debounceMask()
	return w&mask == mask
}

// isUp reports the newest N samples all inactive.
func (b *Button) isUp(w waveform) bool {
	return w&b.param.debounceMask() == 0
}

// repeatDue fires the hold-repeat schedule: the first holding event once
// RepeatDelayMS has passed since the press, then one every RepeatRateMS.
// A zero timeRepeat means the delay phase is still running.
func (b *Button) repeatDue(timeMS uint32) bool {
	due := false
	if b.timeRepeat != 0 {
		due = timeMS-b.timeRepeat >= b.param.RepeatRateMS
	} else {
		due = timeMS-b.timePressed >= b.param.RepeatDelayMS
	}
	if due {
		b.timeRepeat = timeMS
	}
	return due
}

// process advances the instance to timeMS and returns the primary event,
// if any. Elapsed time quantizes into whole sampling pulses; with no
// complete pulse nothing happens and the last-step timestamp is left
// alone so the remainder keeps accumulating.
func (b *Button) process(timeMS uint32) Event {
	elapsed := timeMS - b.timestamp
	pulses := elapsed / b.param.SamplingIntervalMS
	if pulses == 0 {
		return EventNone
	}

	w := b.advance(pulses)

	st, ev := stateIdle, EventNone
	switch {
	case b.isPressEdge(w):
		st, ev = statePressed, EventPressed
		b.timePressed = timeMS
		b.pressed = true
	case b.isReleaseEdge(w):
		st, ev = stateReleased, EventReleased
		b.timeReleased = timeMS
		b.pressed = false
		b.clicks++
		b.timeRepeat = 0
	case b.isDown(w):
		st = stateDown
		if b.repeatDue(timeMS) {
			ev = EventHolding
		}
	case b.isUp(w):
		st = stateUp
	case w != 0:
		st = stateDebouncing
	}

	// The click streak expires only while settled: never during a
	// press, a steady hold, or mid-bounce.
	if st&stateActivity == 0 && timeMS-b.timeReleased >= b.param.ClickWindowMS {
		b.clicks = 0
	}

	b.timestamp = timeMS
	return ev
}

// pending is one queued callback invocation.
type pending struct {
	event  Event
	clicks uint8
}

// Step advances the button to timeMS, sampling any elapsed pulses,
// classifying the register and dispatching resulting events through the
// bound callback before returning. timeMS is the caller's monotonic
// millisecond counter; it should start near zero and may wrap.
//
// At most two events leave one step: the primary transition and, right
// after a release, the click tally. They are queued in that order and
// drained synchronously.
func (b *Button) Step(timeMS uint32) error {
	if b == nil {
		return ErrInvalidParam
	}
	if !b.active {
		return ErrDisabled
	}

	var queue [2]pending
	n := 0
	if ev := b.process(timeMS); ev != EventNone {
		queue[n] = pending{event: ev}
		n++
		if ev == EventReleased {
			queue[n] = pending{event: EventClick, clicks: b.clicks}
			n++
		}
	}

	if b.callback == nil {
		return nil
	}
	for i := 0; i < n; i++ {
		b.callback(b, queue[i].event, queue[i].clicks)
	}
	return nil
}

// Enable lets Step process the button. Fresh instances start disabled.
func (b *Button) Enable() error {
	if b == nil {
		return ErrInvalidParam
	}
	b.active = true
	return nil
}

// Disable makes Step return ErrDisabled without touching any state.
func (b *Button) Disable() error {
	if b == nil {
		return ErrInvalidParam
	}
	b.active = false
	return nil
}

// Busy reports whether the register still holds recent active samples.
// It is false only in the settled released state.
func (b *Button) Busy() bool {
	if b == nil {
		return false
	}
	return !b.isUp(b.wave & b.param.historyMask())
}

// Param returns the current timing configuration.
func (b *Button) Param() (Param, error) {
	if b == nil {
		return Param{}, ErrInvalidParam
	}
	return b.param, nil
}

// SetParam replaces the timing configuration. The candidate is validated
// against its own derived pulse count, so a config that would overflow
// the register can never be admitted.
func (b *Button) SetParam(p Param) error {
	if b == nil {
		return ErrInvalidParam
	}
	if p.SamplingIntervalMS == 0 {
		return ErrIncorrectParam
	}
	if !validParam(p, p.pulseCount()) {
		return ErrIncorrectParam
	}
	b.param = p
	return nil
}
