//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads button lines from actual hardware using the Linux
// GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	vals  []int
}

// NewRealReader requests the given line offsets for input.
//
// Buttons are assumed wired switch-to-ground: the line is pulled up
// and requested active-low, so a pressed button reads as logical 1.
// Pass activeHigh for externally pulled-down, switch-to-VCC wiring.
func NewRealReader(chipName string, pins []int, activeHigh bool) (*RealReader, error) {
	if len(pins) == 0 {
		return nil, fmt.Errorf("no pins configured")
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	if activeHigh {
		opts = append(opts, gpiocdev.WithPullDown)
	} else {
		opts = append(opts, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	}

	lines, err := chip.RequestLines(pins, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pins %v: %w", pins, err)
	}

	return &RealReader{
		chip:  chip,
		lines: lines,
		vals:  make([]int, len(pins)),
	}, nil
}

// Read returns one logical level per configured line. Active-low
// inversion is handled by the kernel, so a value of 1 always means
// the button contact is active.
func (r *RealReader) Read() ([]bool, error) {
	if err := r.lines.Values(r.vals); err != nil {
		return nil, fmt.Errorf("read pins: %w", err)
	}

	levels := make([]bool, len(r.vals))
	for i, v := range r.vals {
		levels[i] = v != 0
	}
	return levels, nil
}

// Close releases GPIO resources.
// Reconfigures the lines to plain inputs before closing so the pins
// are left in a harmless state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pins: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
