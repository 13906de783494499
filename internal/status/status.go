// Package status provides a thread-safe status tracker for the button-sensor
// daemon. It is read by HTTP handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/mononn/libmcu/button"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs        int64
	SamplingMs    int64
	MinPressMs    int64
	RepeatDelayMs int64
	RepeatRateMs  int64
	ClickWindowMs int64
	HeartbeatMs   int64
	Broker        string
	HTTPPort      string
	Source        string // "gpio" or "serial"
}

// ButtonState is one button's latest observed state.
type ButtonState struct {
	Name      string
	Pressed   bool
	Busy      bool
	LastEvent string // last recognized event; empty until the first one
	LastAt    time.Time
	Clicks    uint8 // burst length of the last CLICK
}

// EventCounts totals recognized events since startup.
type EventCounts struct {
	Pressed  uint64
	Released uint64
	Holding  uint64
	Clicks   uint64
}

// Snapshot is a point-in-time view of daemon state.
// Buttons is freshly allocated per call — safe to use after the lock
// is released.
type Snapshot struct {
	Buttons       []ButtonState
	Counts        EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	buttons []ButtonState
	counts  EventCounts
	start   time.Time
	mqtt    bool
	cfg     Config
}

// NewTracker creates a Tracker for the named buttons.
func NewTracker(startTime time.Time, names []string, cfg Config) *Tracker {
	buttons := make([]ButtonState, len(names))
	for i, name := range names {
		buttons[i].Name = name
	}
	return &Tracker{
		buttons: buttons,
		start:   startTime,
		cfg:     cfg,
	}
}

// Record notes one recognized event for the named button.
// Called from the engine callback on every event.
func (t *Tracker) Record(name string, kind button.Event, clicks uint8, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.buttons {
		if t.buttons[i].Name != name {
			continue
		}
		t.buttons[i].LastEvent = kind.String()
		t.buttons[i].LastAt = at
		switch kind {
		case button.EventPressed:
			t.buttons[i].Pressed = true
		case button.EventReleased:
			t.buttons[i].Pressed = false
		case button.EventClick:
			t.buttons[i].Clicks = clicks
		}
		break
	}

	switch kind {
	case button.EventPressed:
		t.counts.Pressed++
	case button.EventReleased:
		t.counts.Released++
	case button.EventHolding:
		t.counts.Holding++
	case button.EventClick:
		t.counts.Clicks++
	}
}

// UpdateBusy sets each button's debounce-activity flag.
// Called from runLoop on every tick; busy is indexed like the names
// given to NewTracker.
func (t *Tracker) UpdateBusy(busy []bool) {
	t.mu.Lock()
	for i := range t.buttons {
		if i < len(busy) {
			t.buttons[i].Busy = busy[i]
		}
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqtt = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	buttons := make([]ButtonState, len(t.buttons))
	copy(buttons, t.buttons)
	s := Snapshot{
		Buttons:       buttons,
		Counts:        t.counts,
		StartTime:     t.start,
		MQTTConnected: t.mqtt,
		Config:        t.cfg,
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
