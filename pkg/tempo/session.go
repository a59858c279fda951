// Package tempo runs the frame loop that turns detected poses into audio
// playback rates.
package tempo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/posetempo/pkg/audio"
	"github.com/teslashibe/posetempo/pkg/camera"
	"github.com/teslashibe/posetempo/pkg/pose"
	"github.com/teslashibe/posetempo/pkg/pose/detection"
)

// ErrNotReady is returned by Enable before a detector and a camera are attached.
var ErrNotReady = errors.New("tempo: pose landmarker not loaded yet")

// FrameSource interface for capturing frames
type FrameSource interface {
	CaptureFrame() (camera.Frame, error)
}

// RateSink receives playback rates derived from poses
type RateSink interface {
	SetRate(rate float64, origin audio.RateOrigin) error
}

// Renderer draws poses onto a JPEG frame
type Renderer interface {
	Render(jpeg []byte, poses []pose.Pose) ([]byte, error)
}

// FrameSink receives annotated frames for the dashboard
type FrameSink interface {
	BroadcastBinary(data []byte)
}

// Session owns the frame loop state.
type Session struct {
	config Config
	mapper *pose.Mapper
	rates  RateSink
	logger *slog.Logger
	id     string

	// Optional outputs
	renderer Renderer
	frames   FrameSink
	journal  *Journal

	// OnStatus is called after state changes, rate changes and every
	// StatusEvery processed frames. It runs on the caller's goroutine.
	OnStatus func(Status)

	mu        sync.Mutex
	state     State
	source    FrameSource
	detector  detection.Detector
	videoMode bool

	lastTimestamp time.Duration
	hasTimestamp  bool

	// Detector clock. Source timestamps are shifted by clockOffset so a
	// replaced or reopened camera never rewinds a video-mode detector.
	clockOffset time.Duration
	lastSent    time.Duration
	hasSent     bool

	stats     Stats
	last      pose.Mapping
	lastPoses int
	hasRate   bool
	lastErr   string
	lastFrame time.Time
	startedAt time.Time
}

// New creates a session. Attach a camera with SetSource and a detector
// with AttachDetector before enabling it.
func New(config Config, rates RateSink, logger *slog.Logger) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	mapper, err := pose.NewMapper(config.Mapper)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		config: config,
		mapper: mapper,
		rates:  rates,
		id:     uuid.NewString(),
		state:  StateUninitialized,
	}
	s.logger = logger.With("component", "tempo", "session", s.id)

	if config.JournalPath != "" {
		s.journal = NewJournal(config.JournalPath)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetOverlay draws detected poses on frames and forwards them to sink.
func (s *Session) SetOverlay(r Renderer, sink FrameSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
	s.frames = sink
}

// SetSource attaches the camera. A replacement source may restart its
// timestamps; frames from it are sent to the detector after the last one
// already detected.
func (s *Session) SetSource(src FrameSource) {
	s.mu.Lock()
	s.source = src
	s.hasTimestamp = false
	if s.hasSent {
		s.clockOffset = s.lastSent
	}
	changed := s.promoteLocked()
	s.mu.Unlock()

	if changed {
		s.publish()
	}
}

// AttachDetector attaches a loaded detector. The session becomes ready
// once a camera is also attached.
func (s *Session) AttachDetector(d detection.Detector) {
	s.mu.Lock()
	s.detector = d
	s.videoMode = d != nil && d.Options().RunningMode == detection.ModeVideo
	changed := s.promoteLocked()
	s.mu.Unlock()

	if changed {
		s.logger.Info("pose landmarker attached", "state", s.State())
		s.publish()
	}
}

func (s *Session) promoteLocked() bool {
	if s.state == StateUninitialized && s.source != nil && s.detector != nil {
		s.state = StateReady
		return true
	}
	return false
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Enable starts processing frames. The first enable switches the detector
// from image to video mode. Before a detector is attached Enable logs a
// warning, changes nothing and returns ErrNotReady.
func (s *Session) Enable() error {
	s.mu.Lock()
	switch s.state {
	case StateUninitialized:
		s.mu.Unlock()
		s.logger.Warn("pose landmarker not loaded yet, ignoring enable")
		return ErrNotReady
	case StateRunning:
		s.mu.Unlock()
		return nil
	}

	if !s.videoMode {
		opts := s.detector.Options()
		opts.RunningMode = detection.ModeVideo
		if err := s.detector.SetOptions(opts); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("switch detector to video mode: %w", err)
		}
		s.videoMode = true
	}

	s.state = StateRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("predictions enabled")
	s.publish()
	return nil
}

// Disable stops processing frames. The last applied rate stays in effect.
func (s *Session) Disable() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	s.mu.Unlock()

	s.logger.Info("predictions disabled")
	s.publish()
}

// Toggle enables a session that is not running and disables one that is.
// Returns the resulting state.
func (s *Session) Toggle() (State, error) {
	if s.State() == StateRunning {
		s.Disable()
		return s.State(), nil
	}
	err := s.Enable()
	return s.State(), err
}

// Run polls the camera every FrameInterval until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.FrameInterval)
	defer ticker.Stop()

	s.logger.Info("frame loop started",
		"interval", s.config.FrameInterval,
		"from", s.config.Mapper.From,
		"to", s.config.Mapper.To,
		"mode", s.config.Mapper.Mode,
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("frame loop stopped", "frames", s.Status().FramesProcessed)
			return

		case <-ticker.C:
			s.step()
		}
	}
}

// step processes at most one frame. It returns true when a frame went
// through detection.
func (s *Session) step() bool {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return false
	}
	src, det := s.source, s.detector
	last, hasLast := s.lastTimestamp, s.hasTimestamp
	s.mu.Unlock()

	frame, err := src.CaptureFrame()
	if err != nil {
		s.recordError("capture frame", err)
		return false
	}

	if hasLast && frame.Timestamp == last {
		s.mu.Lock()
		s.stats.FramesSkipped++
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.lastTimestamp = frame.Timestamp
	s.hasTimestamp = true
	ts := s.detectorTimeLocked(frame.Timestamp)
	s.mu.Unlock()

	result, err := det.Detect(frame.JPEG, ts)
	if err != nil {
		s.recordError("detect poses", err)
		return false
	}

	m := s.mapper.Map(result.Poses)
	rateChanged := s.apply(m, len(result.Poses))

	s.record(frame, result, m)
	s.forward(frame, result)

	s.mu.Lock()
	periodic := s.config.StatusEvery > 0 && s.stats.FramesProcessed%s.config.StatusEvery == 0
	s.mu.Unlock()
	if rateChanged || periodic {
		s.publish()
	}
	return true
}

// detectorTimeLocked maps a source timestamp onto the detector clock, which
// only moves forward. A source that rewinds is rebased onto the last sent time.
func (s *Session) detectorTimeLocked(src time.Duration) time.Duration {
	ts := src + s.clockOffset
	if s.hasSent && ts <= s.lastSent {
		ts = s.lastSent + time.Microsecond
		s.clockOffset = ts - src
	}
	s.lastSent = ts
	s.hasSent = true
	return ts
}

// apply updates counters and pushes the rate. A session disabled while the
// frame was in detection does not write the rate.
func (s *Session) apply(m pose.Mapping, poses int) bool {
	s.mu.Lock()
	s.stats.FramesProcessed++
	s.lastFrame = time.Now()
	s.lastPoses = poses
	if !m.OK {
		s.stats.ZeroPoseFrames++
		s.mu.Unlock()
		return false
	}

	changed := !s.hasRate || s.last.Rate != m.Rate
	running := s.state == StateRunning
	s.mu.Unlock()

	if !running {
		return false
	}

	if s.rates != nil {
		if err := s.rates.SetRate(m.Rate, audio.OriginPose); err != nil {
			s.recordError("apply rate", err)
			return false
		}
	}

	s.mu.Lock()
	s.last = m
	s.hasRate = true
	if s.rates != nil {
		s.stats.RateUpdates++
	}
	s.mu.Unlock()

	s.logger.Debug("rate", "mean_angle", m.MeanAngle, "rate", m.Rate, "poses", len(m.Angles))
	return changed
}

func (s *Session) record(frame camera.Frame, result pose.Result, m pose.Mapping) {
	if s.journal == nil {
		return
	}
	entry := JournalEntry{
		Session:   s.id,
		Timestamp: frame.Timestamp,
		Poses:     len(result.Poses),
		Angles:    m.Angles,
		Mean:      m.MeanAngle,
		Rate:      m.Rate,
		Held:      !m.OK,
	}
	if entry.Held {
		// Rate stays empty until one has been applied.
		s.mu.Lock()
		entry.Rate = 0
		if s.hasRate {
			entry.Rate = s.last.Rate
		}
		s.mu.Unlock()
	}
	err := s.journal.Record(entry)
	if err != nil {
		s.logger.Warn("journal write failed", "error", err)
	}
}

func (s *Session) forward(frame camera.Frame, result pose.Result) {
	s.mu.Lock()
	r, sink := s.renderer, s.frames
	n := s.stats.FramesProcessed
	s.mu.Unlock()

	if sink == nil || s.config.OverlayEvery == 0 || n%s.config.OverlayEvery != 0 {
		return
	}

	jpeg := frame.JPEG
	if r != nil && len(result.Poses) > 0 {
		out, err := r.Render(frame.JPEG, result.Poses)
		if err != nil {
			s.logger.Debug("overlay failed", "error", err)
		} else {
			jpeg = out
		}
	}
	sink.BroadcastBinary(jpeg)
}

func (s *Session) recordError(op string, err error) {
	s.mu.Lock()
	s.stats.Errors++
	n := s.stats.Errors
	s.lastErr = fmt.Sprintf("%s: %v", op, err)
	s.mu.Unlock()

	// ErrNoFrame is routine while a device warms up.
	if errors.Is(err, camera.ErrNoFrame) {
		s.logger.Debug(op+" failed", "error", err)
		return
	}
	if n <= 5 || n%100 == 0 {
		s.logger.Warn(op+" failed", "error", err, "errors", n)
	}
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		SessionID:   s.id,
		State:       s.state,
		Label:       s.state.Label(),
		HasCamera:   s.source != nil,
		HasDetector: s.detector != nil,
		Stats:       s.stats,
		Poses:       s.lastPoses,
		MeanAngle:   s.last.MeanAngle,
		Rate:        s.last.Rate,
		HasRate:     s.hasRate,
		LastError:   s.lastErr,
		LastFrameAt: s.lastFrame,
		StartedAt:   s.startedAt,
	}
	if s.detector != nil {
		if s.videoMode {
			st.RunningMode = string(detection.ModeVideo)
		} else {
			st.RunningMode = string(detection.ModeImage)
		}
	}
	if len(s.last.Angles) > 0 {
		st.Angles = append([]float64(nil), s.last.Angles...)
	}
	return st
}

func (s *Session) publish() {
	if s.OnStatus != nil {
		s.OnStatus(s.Status())
	}
}

// Close closes the journal. The detector and camera belong to the caller.
func (s *Session) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}
