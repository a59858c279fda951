package camera

import (
	"errors"
	"testing"
	"time"
)

func TestMockSource_ReplaysAndRepeatsLast(t *testing.T) {
	src := NewTickingMockSource(2, 33*time.Millisecond)

	want := []time.Duration{33 * time.Millisecond, 66 * time.Millisecond, 66 * time.Millisecond}
	for i, ts := range want {
		f, err := src.CaptureFrame()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if f.Timestamp != ts {
			t.Errorf("read %d timestamp = %v, want %v", i, f.Timestamp, ts)
		}
	}
	if src.Reads() != 3 {
		t.Errorf("Reads() = %d, want 3", src.Reads())
	}
}

func TestMockSource_Errors(t *testing.T) {
	src := NewMockSource()
	if _, err := src.CaptureFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("empty source error = %v, want ErrNoFrame", err)
	}

	src = NewTickingMockSource(1, time.Millisecond)
	src.FailNext(ErrUnsupported)
	if _, err := src.CaptureFrame(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("scripted error = %v, want ErrUnsupported", err)
	}
	if _, err := src.CaptureFrame(); err != nil {
		t.Errorf("after scripted error: %v", err)
	}

	src.Close()
	if _, err := src.CaptureFrame(); !errors.Is(err, ErrClosed) {
		t.Errorf("closed error = %v, want ErrClosed", err)
	}
}
