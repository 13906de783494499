package gpio

import "errors"

// FakeReader is a test double that returns scripted level frames.
type FakeReader struct {
	// Frames contains scripted per-line levels to return. Each call
	// to Read() consumes the next frame.
	Frames [][]bool

	// index tracks current position in Frames
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given frames.
func NewFakeReader(frames [][]bool) *FakeReader {
	return &FakeReader{Frames: frames}
}

// Read returns the next scripted frame.
// If frames are exhausted, returns the last frame repeatedly.
func (f *FakeReader) Read() ([]bool, error) {
	if f.ReadError != nil {
		return nil, f.ReadError
	}

	if len(f.Frames) == 0 {
		return nil, errors.New("no frames configured")
	}

	frame := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}

	out := make([]bool, len(frame))
	copy(out, frame)
	return out, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of the frames.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
