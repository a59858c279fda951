// Package webcam is the OpenCV-backed camera.Source.
package webcam

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/posetempo/pkg/camera"
)

// Webcam reads frames from a local device or stream URL.
type Webcam struct {
	logger *slog.Logger

	mu      sync.Mutex
	cfg     camera.Config
	capture *gocv.VideoCapture
	img     gocv.Mat
	opened  time.Time
	base    time.Duration // Clock carried over from earlier captures
	last    time.Duration
	closed  bool
}

// Open opens the capture device named by cfg.Device.
// Returns camera.ErrUnsupported (wrapped) when the device cannot be opened.
func Open(cfg camera.Config, logger *slog.Logger) (*Webcam, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid camera config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	capture, err := openCapture(cfg)
	if err != nil {
		return nil, err
	}

	w := &Webcam{logger: logger, img: gocv.NewMat()}
	w.use(capture, cfg)
	return w, nil
}

func openCapture(cfg camera.Config) (*gocv.VideoCapture, error) {
	var device interface{} = cfg.Device
	if idx, ok := cfg.DeviceIndex(); ok {
		device = idx
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", camera.ErrUnsupported, cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %s did not open", camera.ErrUnsupported, cfg.Device)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	return capture, nil
}

// use switches to capture. Timestamps continue from the last frame read.
func (w *Webcam) use(capture *gocv.VideoCapture, cfg camera.Config) {
	w.capture = capture
	w.cfg = cfg
	w.opened = time.Now()
	w.base = w.last

	w.logger.Info("webcam opened",
		"device", cfg.Device,
		"width", int(capture.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(capture.Get(gocv.VideoCaptureFrameHeight)),
		"fps", capture.Get(gocv.VideoCaptureFPS),
	)
}

// Reopen switches to a new configuration. Used as the camera manager's
// OnConfigChange callback. When the new device cannot be opened the
// current capture stays in use.
func (w *Webcam) Reopen(cfg camera.Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %v", errs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return camera.ErrClosed
	}

	capture, err := openCapture(cfg)
	if err != nil {
		w.logger.Warn("webcam reopen failed, keeping current device", "device", cfg.Device, "current", w.cfg.Device, "error", err)
		return err
	}
	if w.capture != nil {
		w.capture.Close()
	}
	w.use(capture, cfg)
	return nil
}

// Config returns the configuration in use.
func (w *Webcam) Config() camera.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// CaptureFrame reads the next frame and encodes it as JPEG.
//
// The timestamp is the stream position reported by the backend. Live
// devices that report no position fall back to time since open. Either
// way it keeps increasing across Reopen.
func (w *Webcam) CaptureFrame() (camera.Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return camera.Frame{}, camera.ErrClosed
	}
	if w.capture == nil {
		return camera.Frame{}, camera.ErrUnsupported
	}

	if ok := w.capture.Read(&w.img); !ok || w.img.Empty() {
		return camera.Frame{}, camera.ErrNoFrame
	}

	if w.cfg.Mirror {
		gocv.Flip(w.img, &w.img, 1)
	}

	ts := time.Duration(w.capture.Get(gocv.VideoCapturePosMsec) * float64(time.Millisecond))
	if ts <= 0 {
		ts = time.Since(w.opened)
	}
	ts += w.base
	if ts <= w.last {
		ts = w.last + time.Microsecond
	}
	w.last = ts

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.img, []int{gocv.IMWriteJpegQuality, w.cfg.Quality})
	if err != nil {
		return camera.Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())

	return camera.Frame{
		JPEG:      jpeg,
		Timestamp: ts,
		Width:     w.img.Cols(),
		Height:    w.img.Rows(),
	}, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.img.Close()
	if w.capture != nil {
		return w.capture.Close()
	}
	return nil
}
