package tempo

import "time"

// State is the session lifecycle state.
type State string

const (
	// StateUninitialized: detector or camera not attached yet.
	StateUninitialized State = "uninitialized"
	// StateReady: everything attached, never started.
	StateReady   State = "ready"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Toggle button labels.
const (
	LabelEnable  = "ENABLE PREDICTIONS"
	LabelDisable = "DISABLE PREDICTIONS"
)

// Label returns the text of the tracking toggle button for s.
func (s State) Label() string {
	if s == StateRunning {
		return LabelDisable
	}
	return LabelEnable
}

// Stats counts frame loop outcomes.
type Stats struct {
	FramesProcessed int `json:"frames_processed"`
	FramesSkipped   int `json:"frames_skipped"` // Same timestamp as the previous frame
	ZeroPoseFrames  int `json:"zero_pose_frames"`
	RateUpdates     int `json:"rate_updates"`
	Errors          int `json:"errors"`
}

// Status is a snapshot of the session.
type Status struct {
	SessionID string `json:"session_id"`
	State     State  `json:"state"`
	Label     string `json:"label"`

	HasCamera   bool   `json:"has_camera"`
	HasDetector bool   `json:"has_detector"`
	RunningMode string `json:"running_mode,omitempty"`

	Stats

	Poses     int       `json:"poses"`
	Angles    []float64 `json:"angles,omitempty"`
	MeanAngle float64   `json:"mean_angle"`
	Rate      float64   `json:"rate"`     // Last rate derived from poses
	HasRate   bool      `json:"has_rate"` // False until the first usable pose

	LastError   string    `json:"last_error,omitempty"`
	LastFrameAt time.Time `json:"last_frame_at,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
}
