// Command button-sensor polls push buttons wired to GPIO lines (or
// streamed as level frames over a serial link), runs them through the
// debounce and gesture engine, and publishes recognized events to an
// MQTT broker. An embedded HTTP server exposes a live status page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mononn/libmcu/button"
	"github.com/mononn/libmcu/internal/gpio"
	"github.com/mononn/libmcu/internal/mqtt"
	"github.com/mononn/libmcu/internal/serial"
	"github.com/mononn/libmcu/internal/status"
	"github.com/mononn/libmcu/internal/web"
)

// config carries the parsed command line.
type config struct {
	names        []string
	pins         []int
	source       string
	chip         string
	activeHigh   bool
	serialDevice string
	serialBaud   int
	poll         time.Duration
	sampling     time.Duration
	minPress     time.Duration
	repeatDelay  time.Duration
	repeatRate   time.Duration
	clickWindow  time.Duration
	broker       string
	clientID     string
	heartbeat    time.Duration
	httpAddr     string
	printState   bool
}

func main() {
	var (
		names        = flag.String("names", "left,right", "comma-separated button names, in wiring order")
		pins         = flag.String("pins", defaultPins(), "comma-separated GPIO line offsets, one per button")
		source       = flag.String("source", "gpio", "level source: gpio or serial")
		chip         = flag.String("chip", gpio.DefaultChip, "GPIO chip device name")
		activeHigh   = flag.Bool("active-high", false, "buttons wire to VCC instead of ground")
		serialDevice = flag.String("serial-device", "/dev/ttyACM0", "serial device path (source=serial)")
		serialBaud   = flag.Int("serial-baud", serial.DefaultBaud, "serial baud rate (source=serial)")
		poll         = flag.Duration("poll", button.DefaultSamplingIntervalMS*time.Millisecond, "how often to read levels and step the engine")
		sampling     = flag.Duration("sampling", button.DefaultSamplingIntervalMS*time.Millisecond, "engine sampling interval; ticks further apart than this catch up")
		minPress     = flag.Duration("min-press", button.DefaultMinPressTimeMS*time.Millisecond, "how long a level must hold steady to register")
		repeatDelay  = flag.Duration("repeat-delay", button.DefaultRepeatDelayMS*time.Millisecond, "hold time before the first HOLDING event")
		repeatRate   = flag.Duration("repeat-rate", button.DefaultRepeatRateMS*time.Millisecond, "interval between HOLDING repeats")
		clickWindow  = flag.Duration("click-window", button.DefaultClickWindowMS*time.Millisecond, "max gap between presses that still extends a click burst")
		broker       = flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker URL")
		clientID     = flag.String("client-id", "button-sensor", "MQTT client identifier")
		heartbeat    = flag.Duration("heartbeat", 15*time.Minute, "heartbeat publish interval (0 disables)")
		httpAddr     = flag.String("http", ":80", "status page listen address (empty disables)")
		printState   = flag.Bool("print-state", false, "read raw levels once, print them, and exit")
	)
	flag.Parse()

	buttonNames := parseNames(*names)
	buttonPins, err := parsePins(*pins)
	if err != nil {
		log.Fatalf("invalid -pins: %v", err)
	}

	cfg := config{
		names:        buttonNames,
		pins:         buttonPins,
		source:       *source,
		chip:         *chip,
		activeHigh:   *activeHigh,
		serialDevice: *serialDevice,
		serialBaud:   *serialBaud,
		poll:         *poll,
		sampling:     *sampling,
		minPress:     *minPress,
		repeatDelay:  *repeatDelay,
		repeatRate:   *repeatRate,
		clickWindow:  *clickWindow,
		broker:       *broker,
		clientID:     *clientID,
		heartbeat:    *heartbeat,
		httpAddr:     *httpAddr,
		printState:   *printState,
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config) error {
	if len(cfg.names) == 0 {
		return errors.New("no button names given")
	}
	if err := validateNames(cfg.names); err != nil {
		return err
	}

	var reader gpio.Reader
	switch cfg.source {
	case "gpio":
		if len(cfg.pins) != len(cfg.names) {
			return fmt.Errorf("got %d pins for %d buttons", len(cfg.pins), len(cfg.names))
		}
		r, err := gpio.NewRealReader(cfg.chip, cfg.pins, cfg.activeHigh)
		if err != nil {
			return fmt.Errorf("open gpio: %w", err)
		}
		reader = r
	case "serial":
		r, err := serial.Open(serial.Config{
			Device: cfg.serialDevice,
			Baud:   cfg.serialBaud,
			Count:  len(cfg.names),
		})
		if err != nil {
			return fmt.Errorf("open serial: %w", err)
		}
		reader = r
	default:
		return fmt.Errorf("unknown source %q (want gpio or serial)", cfg.source)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("error closing level reader: %v", err)
		}
	}()

	if cfg.printState {
		levels, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read levels: %w", err)
		}
		for i, name := range cfg.names {
			lvl := false
			if i < len(levels) {
				lvl = levels[i]
			}
			fmt.Printf("%s: %s\n", name, levelString(lvl))
		}
		return nil
	}

	param := button.Param{
		SamplingIntervalMS: uint32(cfg.sampling.Milliseconds()),
		MinPressTimeMS:     uint32(cfg.minPress.Milliseconds()),
		RepeatDelayMS:      uint32(cfg.repeatDelay.Milliseconds()),
		RepeatRateMS:       uint32(cfg.repeatRate.Milliseconds()),
		ClickWindowMS:      uint32(cfg.clickWindow.Milliseconds()),
	}

	publisher, err := mqtt.NewRealPublisher(cfg.broker, cfg.clientID)
	if err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("error closing mqtt publisher: %v", err)
		}
	}()

	tracker := status.NewTracker(time.Now(), cfg.names, status.Config{
		PollMs:        cfg.poll.Milliseconds(),
		SamplingMs:    cfg.sampling.Milliseconds(),
		MinPressMs:    cfg.minPress.Milliseconds(),
		RepeatDelayMs: cfg.repeatDelay.Milliseconds(),
		RepeatRateMs:  cfg.repeatRate.Milliseconds(),
		ClickWindowMs: cfg.clickWindow.Milliseconds(),
		HeartbeatMs:   cfg.heartbeat.Milliseconds(),
		Broker:        cfg.broker,
		HTTPPort:      cfg.httpAddr,
		Source:        cfg.source,
	})

	if cfg.httpAddr != "" {
		webServer := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("web server error: %v", err)
			}
		}()
		defer func() {
			if err := webServer.Shutdown(context.Background()); err != nil {
				log.Printf("error shutting down web server: %v", err)
			}
		}()
	}

	startup := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
		Config: &mqtt.SystemConfig{
			PollMs:        cfg.poll.Milliseconds(),
			SamplingMs:    cfg.sampling.Milliseconds(),
			MinPressMs:    cfg.minPress.Milliseconds(),
			RepeatDelayMs: cfg.repeatDelay.Milliseconds(),
			RepeatRateMs:  cfg.repeatRate.Milliseconds(),
			ClickWindowMs: cfg.clickWindow.Milliseconds(),
			Buttons:       cfg.names,
			Broker:        cfg.broker,
		},
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("error publishing startup event: %v", err)
	}

	log.Printf("started: source=%s buttons=%s poll=%v sampling=%v min-press=%v broker=%s http=%s",
		cfg.source, strings.Join(cfg.names, ","), cfg.poll, cfg.sampling, cfg.minPress, cfg.broker, cfg.httpAddr)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, publisher, publisher, tracker, cfg.names, param, cfg.heartbeat, time.Now, ticker.C, sigCh)
}

// runLoop reads levels on every tick, steps each button through the
// engine, and publishes whatever events fall out. It returns after a
// shutdown signal. The clock and channels are parameters so tests can
// drive the loop deterministically.
func runLoop(
	reader gpio.Reader,
	publisher mqtt.Publisher,
	mqttStatus mqtt.ConnectionStatus,
	tracker *status.Tracker,
	names []string,
	param button.Param,
	heartbeat time.Duration,
	now func() time.Time,
	tick <-chan time.Time,
	sig <-chan os.Signal,
) error {
	startTime := now()

	bank, err := newBank(names, param, func(e mqtt.Event) {
		if e.Kind == button.EventClick {
			log.Printf("%s: %s x%d", e.Name, e.Kind, e.Clicks)
		} else {
			log.Printf("%s: %s", e.Name, e.Kind)
		}
		if tracker != nil {
			tracker.Record(e.Name, e.Kind, e.Clicks, e.Timestamp)
		}
		if err := publisher.Publish(e); err != nil {
			log.Printf("error publishing event: %v", err)
		}
	})
	if err != nil {
		return err
	}

	lastHeartbeat := startTime

	for {
		select {
		case s := <-sig:
			reason := signalName(s)
			log.Printf("received %s, shutting down", reason)
			shutdown := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    reason,
				Retained:  true,
			}
			if err := publisher.PublishSystem(shutdown); err != nil {
				log.Printf("error publishing shutdown event: %v", err)
			}
			return nil

		case <-tick:
			t := now()

			levels, err := reader.Read()
			if err != nil {
				log.Printf("error reading levels: %v", err)
				continue
			}

			if err := bank.step(t, levels, elapsedMS(startTime, t)); err != nil {
				log.Printf("error stepping buttons: %v", err)
			}

			if tracker != nil {
				tracker.UpdateBusy(bank.busy())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hb := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
				if tracker != nil {
					snap := tracker.Snapshot()
					hb.Heartbeat = &mqtt.HeartbeatInfo{
						UptimeSeconds: int64(t.Sub(startTime).Seconds()),
						EventCounts: mqtt.HeartbeatCounts{
							Pressed:  snap.Counts.Pressed,
							Released: snap.Counts.Released,
							Holding:  snap.Counts.Holding,
							Clicks:   snap.Counts.Clicks,
						},
					}
				}
				if err := publisher.PublishSystem(hb); err != nil {
					log.Printf("error publishing heartbeat: %v", err)
				}
			}
		}
	}
}

// bank binds a set of named buttons to one polled level frame. The
// engine pulls samples through each button's SampleFunc, which reads
// the latest frame; step refreshes the frame first, so every Step call
// sees levels from the tick being processed.
type bank struct {
	pool    *button.Pool
	buttons []*button.Button
	names   []string
	levels  []bool
	at      time.Time // wall time of the frame being stepped
}

func newBank(names []string, param button.Param, emit func(mqtt.Event)) (*bank, error) {
	b := &bank{
		pool:   button.NewPool(len(names), &sync.Mutex{}),
		names:  names,
		levels: make([]bool, len(names)),
	}
	for i, name := range names {
		i, name := i, name
		btn, err := b.pool.New(
			func() bool { return b.levels[i] },
			func(_ *button.Button, e button.Event, clicks uint8) {
				emit(mqtt.Event{Timestamp: b.at, Name: name, Kind: e, Clicks: clicks})
			},
		)
		if err != nil {
			return nil, fmt.Errorf("allocate button %s: %w", name, err)
		}
		if err := btn.SetParam(param); err != nil {
			return nil, fmt.Errorf("configure button %s: %w", name, err)
		}
		btn.Enable()
		b.buttons = append(b.buttons, btn)
	}
	return b, nil
}

// step stores the fresh frame and advances every button to timeMS.
// Events fire synchronously from inside Step. A frame shorter than the
// bank leaves the missing buttons at their last known level.
func (b *bank) step(at time.Time, levels []bool, timeMS uint32) error {
	b.at = at
	for i := range b.levels {
		if i < len(levels) {
			b.levels[i] = levels[i]
		}
	}

	var firstErr error
	for i, btn := range b.buttons {
		if err := btn.Step(timeMS); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("step %s: %w", b.names[i], err)
		}
	}
	return firstErr
}

func (b *bank) busy() []bool {
	out := make([]bool, len(b.buttons))
	for i, btn := range b.buttons {
		out[i] = btn.Busy()
	}
	return out
}

// elapsedMS maps wall-clock progress since start onto the engine's
// uint32 millisecond clock. The conversion wraps after ~49.7 days;
// the engine compares timestamps by subtraction in the same domain,
// so the wrap is harmless.
func elapsedMS(start, at time.Time) uint32 {
	return uint32(at.Sub(start).Milliseconds())
}

func parseNames(s string) []string {
	var names []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}

func validateNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("duplicate button name %q", n)
		}
		seen[n] = true
	}
	return nil
}

func parsePins(s string) ([]int, error) {
	var pins []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid pin %q", f)
		}
		pins = append(pins, n)
	}
	return pins, nil
}

func defaultPins() string {
	parts := make([]string, len(gpio.DefaultPins))
	for i, p := range gpio.DefaultPins {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func levelString(pressed bool) string {
	if pressed {
		return "DOWN"
	}
	return "UP"
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
