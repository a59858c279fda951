package detection

import (
	"sync"
	"time"

	"github.com/teslashibe/posetempo/pkg/pose"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked. When nil, Detect returns
	// the next entry of Results (repeating the last one), or no poses.
	DetectFunc func(jpeg []byte, timestamp time.Duration) (pose.Result, error)

	// Results are returned in order by the default Detect.
	Results []pose.Result

	mu     sync.Mutex
	opts   Options
	calls  []MockCall
	next   int
	closed bool
	guard  TimestampGuard
}

// MockCall records a method invocation.
type MockCall struct {
	Method    string
	Timestamp time.Duration
	Time      time.Time
}

// NewMock creates a mock detector in image mode.
func NewMock(results ...pose.Result) *Mock {
	opts := DefaultOptions()
	opts.Delegate = DelegateCPU
	return &Mock{
		Results: results,
		opts:    opts,
	}
}

// Detect records the call and returns the scripted result.
func (m *Mock) Detect(jpeg []byte, timestamp time.Duration) (pose.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: "Detect", Timestamp: timestamp, Time: time.Now()})
	if m.closed {
		m.mu.Unlock()
		return pose.Result{}, ErrClosed
	}
	if m.opts.RunningMode == ModeVideo {
		if err := m.guard.Check(timestamp); err != nil {
			m.mu.Unlock()
			return pose.Result{}, err
		}
	}
	fn := m.DetectFunc
	var res pose.Result
	if fn == nil && len(m.Results) > 0 {
		idx := m.next
		if idx >= len(m.Results) {
			idx = len(m.Results) - 1
		}
		res = m.Results[idx]
		m.next++
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(jpeg, timestamp)
	}
	res.Timestamp = timestamp
	return res, nil
}

// SetOptions records the call and stores opts.
func (m *Mock) SetOptions(opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: "SetOptions", Time: time.Now()})
	if opts.RunningMode != m.opts.RunningMode {
		m.guard.Reset()
	}
	m.opts = opts
	return nil
}

// Options returns the stored options.
func (m *Mock) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: "Close", Time: time.Now()})
	m.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}
