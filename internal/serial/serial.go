// Package serial reads button level frames from a serial port.
//
// Firmware on the far side (typically an Arduino scanning a key
// matrix) prints one frame per line: pipe-separated 0/1 levels, one
// field per button, e.g. "0|1|0\n". This package parses that stream
// into the same level frames the gpio package produces, so the two
// sources are interchangeable.
package serial

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tarm/serial"
)

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (typically 9600 for hand-rolled button firmware)
	Baud int

	// Count is the number of levels expected per frame.
	Count int
}

// DefaultBaud matches the rate the reference firmware ships with.
const DefaultBaud = 9600

// Reader reads level frames from a serial line.
type Reader struct {
	port    io.ReadCloser
	scanner *bufio.Scanner
	count   int
}

// Open opens the configured serial device and returns a frame reader.
func Open(cfg Config) (*Reader, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("invalid level count %d", cfg.Count)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: cfg.Device,
		Baud: cfg.Baud,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}

	return NewReader(port, cfg.Count), nil
}

// NewReader wraps an already-open stream. Used by Open and by tests.
func NewReader(rc io.ReadCloser, count int) *Reader {
	return &Reader{
		port:    rc,
		scanner: bufio.NewScanner(rc),
		count:   count,
	}
}

// Read blocks until a full frame line arrives and returns its levels.
// Returns io.EOF once the stream ends.
func (r *Reader) Read() ([]bool, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read serial frame: %w", err)
		}
		return nil, io.EOF
	}

	levels, err := ParseFrame(r.scanner.Text(), r.count)
	if err != nil {
		return nil, fmt.Errorf("parse serial frame: %w", err)
	}
	return levels, nil
}

// Close closes the underlying port.
func (r *Reader) Close() error {
	return r.port.Close()
}

// ParseFrame parses one pipe-separated frame line into levels.
// The line must carry exactly count fields, each "0" or "1".
// Carriage returns from CRLF firmware are tolerated.
func ParseFrame(line string, count int) ([]bool, error) {
	line = strings.TrimSpace(line)

	fields := strings.Split(line, "|")
	if len(fields) != count {
		return nil, fmt.Errorf("expected %d fields, got %d in %q", count, len(fields), line)
	}

	levels := make([]bool, count)
	for i, f := range fields {
		switch f {
		case "0":
			levels[i] = false
		case "1":
			levels[i] = true
		default:
			return nil, fmt.Errorf("field %d: invalid level %q", i, f)
		}
	}
	return levels, nil
}
