package camera

import (
	"sync"
	"time"
)

// MockSource is a Source that replays scripted frames for testing.
type MockSource struct {
	mu     sync.Mutex
	frames []Frame
	errs   []error
	next   int
	reads  int
	closed bool
}

// NewMockSource replays frames in order, repeating the last one.
func NewMockSource(frames ...Frame) *MockSource {
	return &MockSource{frames: frames}
}

// NewTickingMockSource returns n frames with timestamps step apart.
func NewTickingMockSource(n int, step time.Duration) *MockSource {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{JPEG: []byte{0xff, 0xd8, byte(i)}, Timestamp: time.Duration(i+1) * step, Width: 640, Height: 480}
	}
	return NewMockSource(frames...)
}

// FailNext makes the next reads return the given errors, one per read.
func (m *MockSource) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
}

// CaptureFrame returns the next scripted frame.
func (m *MockSource) CaptureFrame() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.closed {
		return Frame{}, ErrClosed
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return Frame{}, err
	}
	if len(m.frames) == 0 {
		return Frame{}, ErrNoFrame
	}

	idx := m.next
	if idx >= len(m.frames) {
		idx = len(m.frames) - 1
	} else {
		m.next++
	}
	return m.frames[idx], nil
}

// Reads returns how many times CaptureFrame was called.
func (m *MockSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
