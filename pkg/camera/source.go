package camera

import (
	"errors"
	"time"
)

// Sentinel errors for frame sources.
var (
	// ErrUnsupported is returned when no capture device can be opened.
	ErrUnsupported = errors.New("camera: capture not supported on this host")

	// ErrNoFrame is returned when a read yields nothing (device busy, stream hiccup).
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("camera: source closed")
)

// Frame is one captured image.
type Frame struct {
	JPEG []byte
	// Timestamp is the stream position of the frame. Two reads that return
	// the same frame report the same timestamp.
	Timestamp time.Duration
	Width     int
	Height    int
}

// Source produces camera frames.
type Source interface {
	// CaptureFrame returns the latest frame.
	CaptureFrame() (Frame, error)

	// Close releases the device.
	Close() error
}
