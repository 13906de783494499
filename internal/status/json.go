package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Buttons       []ButtonJSON `json:"buttons"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Config        ConfigJSON   `json:"config"`
}

// ButtonJSON is the JSON representation of one button's state.
type ButtonJSON struct {
	Name      string `json:"name"`
	Pressed   bool   `json:"pressed"`
	Busy      bool   `json:"busy"`
	LastEvent string `json:"last_event,omitempty"`
	LastAt    string `json:"last_at,omitempty"`
	Clicks    uint8  `json:"clicks,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Pressed  uint64 `json:"pressed"`
	Released uint64 `json:"released"`
	Holding  uint64 `json:"holding"`
	Clicks   uint64 `json:"clicks"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs        int64  `json:"poll_ms"`
	SamplingMs    int64  `json:"sampling_ms"`
	MinPressMs    int64  `json:"min_press_ms"`
	RepeatDelayMs int64  `json:"repeat_delay_ms"`
	RepeatRateMs  int64  `json:"repeat_rate_ms"`
	ClickWindowMs int64  `json:"click_window_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	Broker        string `json:"broker"`
	HTTPPort      string `json:"http_port"`
	Source        string `json:"source"`
}

func buildInner(snap Snapshot) StatusInner {
	buttons := make([]ButtonJSON, len(snap.Buttons))
	for i, b := range snap.Buttons {
		buttons[i] = ButtonJSON{
			Name:      b.Name,
			Pressed:   b.Pressed,
			Busy:      b.Busy,
			LastEvent: b.LastEvent,
			Clicks:    b.Clicks,
		}
		if !b.LastAt.IsZero() {
			buttons[i].LastAt = b.LastAt.UTC().Format(time.RFC3339)
		}
	}

	return StatusInner{
		Buttons:       buttons,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Pressed:  snap.Counts.Pressed,
			Released: snap.Counts.Released,
			Holding:  snap.Counts.Holding,
			Clicks:   snap.Counts.Clicks,
		},
		Config: ConfigJSON{
			PollMs:        snap.Config.PollMs,
			SamplingMs:    snap.Config.SamplingMs,
			MinPressMs:    snap.Config.MinPressMs,
			RepeatDelayMs: snap.Config.RepeatDelayMs,
			RepeatRateMs:  snap.Config.RepeatRateMs,
			ClickWindowMs: snap.Config.ClickWindowMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
			Source:        snap.Config.Source,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
