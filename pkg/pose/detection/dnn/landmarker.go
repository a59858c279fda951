// Package dnn runs pose landmark models through OpenCV's DNN module.
package dnn

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/posetempo/pkg/pose"
	"github.com/teslashibe/posetempo/pkg/pose/detection"
)

// Values per landmark in the model output: x, y, z, visibility, presence.
// Older exports ship only x, y, z.
const (
	fullStride = 5
	xyzStride  = 3
)

// Landmarker is a detection.Detector backed by an ONNX pose landmark model.
//
// The model output is read as rows of landmark tuples in input-pixel
// coordinates, one row per person. Extra trailing landmarks (the auxiliary
// ROI points some exports append) are ignored.
//
// BlazePose landmark exports are single-person models: they see the whole
// frame as one person ROI and emit a single row of 195 values, so they
// yield at most one pose whatever NumPoses says. NumPoses above one only
// matters for multi-person exports that emit one row per person.
type Landmarker struct {
	net    gocv.Net
	opts   detection.Options
	logger *slog.Logger

	mu     sync.Mutex // Protects inference and options
	guard  detection.TimestampGuard
	closed bool
}

// NewLandmarker loads the model named in opts.
func NewLandmarker(opts detection.Options, logger *slog.Logger) (*Landmarker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(opts.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", detection.ErrModelNotFound, opts.ModelPath)
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", detection.ErrModelLoad, opts.ModelPath)
	}

	l := &Landmarker{
		net:    net,
		opts:   opts,
		logger: logger,
	}
	if err := l.applyDelegate(opts.Delegate); err != nil {
		net.Close()
		return nil, err
	}

	logger.Info("pose landmarker loaded",
		"model", opts.ModelPath,
		"mode", opts.RunningMode,
		"delegate", opts.Delegate,
		"num_poses", opts.NumPoses,
		"opencv", gocv.Version(),
	)
	return l, nil
}

// applyDelegate selects the DNN backend/target. GPU requests fall back to
// CPU when OpenCV was built without CUDA.
func (l *Landmarker) applyDelegate(d detection.Delegate) error {
	if d == detection.DelegateGPU {
		errB := l.net.SetPreferableBackend(gocv.NetBackendCUDA)
		errT := l.net.SetPreferableTarget(gocv.NetTargetCUDA)
		if errB == nil && errT == nil {
			return nil
		}
		l.logger.Warn("GPU delegate unavailable, using CPU", "backend_err", errB, "target_err", errT)
	}

	if err := l.net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return fmt.Errorf("set backend: %w", err)
	}
	if err := l.net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return fmt.Errorf("set target: %w", err)
	}
	return nil
}

// SetOptions switches running mode, pose count, confidence or delegate.
// The model path cannot change on a live landmarker.
func (l *Landmarker) SetOptions(opts detection.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return detection.ErrClosed
	}
	if opts.ModelPath != l.opts.ModelPath {
		return fmt.Errorf("detection: cannot change model path from %s to %s", l.opts.ModelPath, opts.ModelPath)
	}
	if opts.Delegate != l.opts.Delegate {
		if err := l.applyDelegate(opts.Delegate); err != nil {
			return err
		}
	}
	if opts.RunningMode != l.opts.RunningMode {
		l.guard.Reset()
	}
	l.opts = opts
	return nil
}

// Options returns the active options.
func (l *Landmarker) Options() detection.Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts
}

// Detect finds poses in the JPEG frame.
func (l *Landmarker) Detect(jpeg []byte, timestamp time.Duration) (pose.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return pose.Result{}, detection.ErrClosed
	}
	if l.opts.RunningMode == detection.ModeVideo {
		if err := l.guard.Check(timestamp); err != nil {
			return pose.Result{}, err
		}
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return pose.Result{}, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return pose.Result{}, detection.ErrEmptyImage
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(l.opts.InputWidth, l.opts.InputHeight),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	l.net.SetInput(blob, "")
	output := l.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return pose.Result{}, fmt.Errorf("read output: %w", err)
	}

	dims := output.Size()
	if len(dims) == 0 {
		return pose.Result{}, fmt.Errorf("unexpected DNN output dims: %v", dims)
	}

	poses, err := ParseLandmarks(data, dims[len(dims)-1], l.opts)
	if err != nil {
		return pose.Result{}, err
	}

	l.logger.Debug("pose landmarker", "poses", len(poses), "timestamp", timestamp)

	return pose.Result{Poses: poses, Timestamp: timestamp}, nil
}

// Close releases the network.
func (l *Landmarker) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.net.Close()
}

// ParseLandmarks converts a flat model output with rowLen values per person
// into normalized poses. Poses whose mean presence is below
// opts.MinConfidence are dropped, and at most opts.NumPoses are returned.
func ParseLandmarks(data []float32, rowLen int, opts detection.Options) ([]pose.Pose, error) {
	if rowLen <= 0 || len(data)%rowLen != 0 {
		return nil, fmt.Errorf("output length %d is not a multiple of row length %d", len(data), rowLen)
	}

	stride := fullStride
	if rowLen < pose.NumLandmarks*fullStride {
		stride = xyzStride
	}
	if rowLen < pose.NumLandmarks*stride {
		return nil, fmt.Errorf("row length %d too short for %d landmarks", rowLen, pose.NumLandmarks)
	}

	w := float64(opts.InputWidth)
	h := float64(opts.InputHeight)

	var poses []pose.Pose
	for off := 0; off+rowLen <= len(data); off += rowLen {
		row := data[off : off+rowLen]

		p := make(pose.Pose, pose.NumLandmarks)
		presence := 0.0
		for i := 0; i < pose.NumLandmarks; i++ {
			v := row[i*stride : i*stride+stride]
			p[i] = pose.Landmark{
				X: float64(v[0]) / w,
				Y: float64(v[1]) / h,
				Z: float64(v[2]) / w,
			}
			if stride == fullStride {
				p[i].Visibility = sigmoid(float64(v[3]))
				presence += sigmoid(float64(v[4]))
			}
		}

		if stride == fullStride && presence/pose.NumLandmarks < opts.MinConfidence {
			continue
		}

		poses = append(poses, p)
		if len(poses) >= opts.NumPoses {
			break
		}
	}

	return poses, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
