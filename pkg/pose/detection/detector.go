// Package detection defines the pose landmark detector contract and its options.
// Concrete backends live in subpackages (see detection/dnn).
package detection

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/posetempo/pkg/pose"
)

// Sentinel errors for detector backends.
var (
	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrModelLoad is returned when the model file exists but cannot be loaded.
	ErrModelLoad = errors.New("detection: model could not be loaded")

	// ErrEmptyImage is returned when a frame decodes to nothing.
	ErrEmptyImage = errors.New("detection: empty image")

	// ErrTimestampNotMonotonic is returned in video mode when a frame timestamp
	// does not advance.
	ErrTimestampNotMonotonic = errors.New("detection: video timestamps must increase")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("detection: detector closed")
)

// RunningMode is how the detector treats consecutive calls.
type RunningMode string

const (
	// ModeImage treats every call independently.
	ModeImage RunningMode = "IMAGE"
	// ModeVideo expects a stream of frames with increasing timestamps.
	ModeVideo RunningMode = "VIDEO"
)

// Delegate is the compute device used for inference.
type Delegate string

const (
	DelegateCPU Delegate = "CPU"
	DelegateGPU Delegate = "GPU"
)

// Options configures a pose detector.
type Options struct {
	ModelPath     string      `json:"model_path"`
	RunningMode   RunningMode `json:"running_mode"`
	NumPoses      int         `json:"num_poses"` // Max poses returned per frame
	Delegate      Delegate    `json:"delegate"`
	MinConfidence float64     `json:"min_confidence"` // Drop poses whose presence score is below this
	InputWidth    int         `json:"input_width"`    // Model input size
	InputHeight   int         `json:"input_height"`
}

// DefaultOptions returns production defaults for the lite landmark model.
func DefaultOptions() Options {
	return Options{
		ModelPath:     "models/pose_landmark_lite.onnx",
		RunningMode:   ModeImage,
		NumPoses:      2,
		Delegate:      DelegateGPU,
		MinConfidence: 0.5,
		InputWidth:    256,
		InputHeight:   256,
	}
}

// Validate checks the options for obviously broken values.
func (o Options) Validate() error {
	if o.ModelPath == "" {
		return errors.New("detection: model path is required")
	}
	switch o.RunningMode {
	case ModeImage, ModeVideo:
	default:
		return fmt.Errorf("detection: unknown running mode %q", o.RunningMode)
	}
	switch o.Delegate {
	case DelegateCPU, DelegateGPU:
	default:
		return fmt.Errorf("detection: unknown delegate %q", o.Delegate)
	}
	if o.NumPoses < 1 {
		return fmt.Errorf("detection: num poses must be at least 1, got %d", o.NumPoses)
	}
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return fmt.Errorf("detection: min confidence must be in [0, 1], got %v", o.MinConfidence)
	}
	if o.InputWidth <= 0 || o.InputHeight <= 0 {
		return fmt.Errorf("detection: invalid input size %dx%d", o.InputWidth, o.InputHeight)
	}
	return nil
}

// Detector is the interface for pose landmark backends.
type Detector interface {
	// Detect finds poses in a JPEG frame. In video mode timestamp must
	// increase between calls.
	Detect(jpeg []byte, timestamp time.Duration) (pose.Result, error)

	// SetOptions reconfigures the detector, e.g. switching IMAGE → VIDEO.
	SetOptions(opts Options) error

	// Options returns the active options.
	Options() Options

	// Close releases resources.
	Close() error
}

// TimestampGuard enforces increasing timestamps for video mode.
// The zero value accepts any first timestamp.
type TimestampGuard struct {
	last time.Duration
	seen bool
}

// Check accepts ts if it is later than the previous accepted timestamp.
func (g *TimestampGuard) Check(ts time.Duration) error {
	if g.seen && ts <= g.last {
		return fmt.Errorf("%w: %v after %v", ErrTimestampNotMonotonic, ts, g.last)
	}
	g.last = ts
	g.seen = true
	return nil
}

// Reset forgets the previous timestamp.
func (g *TimestampGuard) Reset() {
	g.last = 0
	g.seen = false
}
