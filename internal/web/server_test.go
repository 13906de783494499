package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mononn/libmcu/button"
	"github.com/mononn/libmcu/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:        10,
		SamplingMs:    10,
		MinPressMs:    60,
		RepeatDelayMs: 300,
		RepeatRateMs:  200,
		ClickWindowMs: 500,
		HeartbeatMs:   900000,
		Broker:        "tcp://192.168.1.200:1883",
		HTTPPort:      ":80",
		Source:        "gpio",
	}
	tr := status.NewTracker(start, []string{"left", "right"}, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Record("left", button.EventPressed, 0, time.Now())
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(sj.Status.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(sj.Status.Buttons))
	}
	if sj.Status.Buttons[0].Name != "left" || !sj.Status.Buttons[0].Pressed {
		t.Errorf("button 0: %+v", sj.Status.Buttons[0])
	}
	if sj.Status.Buttons[0].LastEvent != "PRESSED" {
		t.Errorf("last_event: got %q, want PRESSED", sj.Status.Buttons[0].LastEvent)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Pressed != 1 {
		t.Errorf("Counts.Pressed: got %d, want 1", sj.Status.Counts.Pressed)
	}
	if sj.Status.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", sj.Status.Config.PollMs)
	}
	if sj.Status.Config.Source != "gpio" {
		t.Errorf("Config.Source: got %q, want gpio", sj.Status.Config.Source)
	}
}

func TestJSONQuietButtons(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if len(sj.Status.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(sj.Status.Buttons))
	}
	for _, b := range sj.Status.Buttons {
		if b.Pressed || b.Busy || b.LastEvent != "" {
			t.Errorf("button %s should be quiet before events: %+v", b.Name, b)
		}
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Record("left", button.EventClick, 2, time.Now())

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)
	if !strings.Contains(html, "Button Sensor") {
		t.Error("page title missing")
	}
	if !strings.Contains(html, "left") || !strings.Contains(html, "right") {
		t.Error("button names missing from page")
	}
	if !strings.Contains(html, "CLICK") {
		t.Error("last event missing from page")
	}
	if !strings.Contains(html, `http-equiv="refresh"`) {
		t.Error("auto-refresh meta tag missing")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 status.StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if sj1.Status.Buttons[0].Pressed {
		t.Error("expected left released initially")
	}

	tr.Record("left", button.EventPressed, 0, time.Now())
	tr.UpdateBusy([]bool{true, false})
	tr.SetMQTTConnected(true)

	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 status.StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if !sj2.Status.Buttons[0].Pressed {
		t.Error("expected left pressed after update")
	}
	if !sj2.Status.Buttons[0].Busy {
		t.Error("expected left busy after update")
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
