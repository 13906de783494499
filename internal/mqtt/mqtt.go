// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/mononn/libmcu/button"
)

// Topic is the MQTT topic for button events.
const Topic = "input/button/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "input/button/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a button event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event represents one recognized button event ready for publishing.
type Event struct {
	Timestamp time.Time
	Name      string // button name, e.g. "left"
	Kind      button.Event
	Clicks    uint8 // burst length; set on CLICK only
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp time.Time
	Event     string         // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason    string         // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Config    *SystemConfig  // effective configuration (startup only)
	Heartbeat *HeartbeatInfo // liveness counters (heartbeat only)
	Retained  bool           // whether the message should be retained by the broker
}

// SystemConfig is the effective daemon configuration, published with STARTUP.
type SystemConfig struct {
	PollMs        int64    `json:"poll_ms"`
	SamplingMs    int64    `json:"sampling_ms"`
	MinPressMs    int64    `json:"min_press_ms"`
	RepeatDelayMs int64    `json:"repeat_delay_ms"`
	RepeatRateMs  int64    `json:"repeat_rate_ms"`
	ClickWindowMs int64    `json:"click_window_ms"`
	Buttons       []string `json:"buttons"`
	Broker        string   `json:"broker"`
}

// HeartbeatInfo carries liveness counters, published with HEARTBEAT.
type HeartbeatInfo struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	EventCounts   HeartbeatCounts `json:"event_counts"`
}

// HeartbeatCounts totals the events recognized since startup.
type HeartbeatCounts struct {
	Pressed  uint64 `json:"pressed"`
	Released uint64 `json:"released"`
	Holding  uint64 `json:"holding"`
	Clicks   uint64 `json:"clicks"`
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Button ButtonPayload `json:"button"`
}

// ButtonPayload contains the button event details.
type ButtonPayload struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Event     string `json:"event"`
	Clicks    uint8  `json:"clicks,omitempty"`
}

// FormatPayload creates the JSON payload for a button event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Button: ButtonPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Name:      event.Name,
			Event:     event.Kind.String(),
			Clicks:    event.Clicks,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reason    string         `json:"reason,omitempty"`
	Config    *SystemConfig  `json:"config,omitempty"`
	Heartbeat *HeartbeatInfo `json:"heartbeat,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
			Heartbeat: event.Heartbeat,
		},
	}
	return json.Marshal(payload)
}
