// Package app wires the camera, pose detector, frame loop, player and web
// dashboard into the posetempo application.
package app

import (
	"strings"

	"github.com/teslashibe/posetempo/internal/config"
	"github.com/teslashibe/posetempo/pkg/camera"
	"github.com/teslashibe/posetempo/pkg/pose"
	"github.com/teslashibe/posetempo/pkg/pose/detection"
	"github.com/teslashibe/posetempo/pkg/tempo"
	"github.com/teslashibe/posetempo/pkg/web"
)

// Config holds all configuration for the posetempo application.
// Flag parsing is done in cmd/posetempo/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// Web dashboard.
	Web web.Config

	// Camera settings. NoCamera skips opening a device entirely, leaving
	// only the audio controls.
	Camera   camera.Config
	NoCamera bool

	// Pose landmark model.
	Detector detection.Options

	// Frame loop and angle mapping.
	Tempo tempo.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Web:      web.DefaultConfig(),
		Camera:   camera.DefaultConfig(),
		Detector: detection.DefaultOptions(),
		Tempo:    tempo.DefaultConfig(),
	}
}

// LoadEnvConfig applies environment overrides. Call it before flag parsing
// so flags win.
func (c *Config) LoadEnvConfig() {
	c.Debug = config.Bool("DEBUG", c.Debug)

	c.Web.Port = config.String("PORT", c.Web.Port)
	c.Web.StaticDir = config.String("STATIC_DIR", c.Web.StaticDir)
	c.Web.UploadDir = config.String("UPLOAD_DIR", c.Web.UploadDir)
	c.Web.MaxUploadMB = config.Int("MAX_UPLOAD_MB", c.Web.MaxUploadMB)

	c.Camera.Device = config.String("CAMERA_DEVICE", c.Camera.Device)
	c.Camera.Width = config.Int("CAMERA_WIDTH", c.Camera.Width)
	c.Camera.Height = config.Int("CAMERA_HEIGHT", c.Camera.Height)
	c.Camera.Framerate = config.Int("CAMERA_FPS", c.Camera.Framerate)
	c.Camera.Mirror = config.Bool("CAMERA_MIRROR", c.Camera.Mirror)
	c.NoCamera = config.Bool("NO_CAMERA", c.NoCamera)

	c.Detector.ModelPath = config.String("POSE_MODEL", c.Detector.ModelPath)
	c.Detector.NumPoses = config.Int("NUM_POSES", c.Detector.NumPoses)
	c.Detector.MinConfidence = config.Float("MIN_POSE_CONFIDENCE", c.Detector.MinConfidence)
	if d := config.String("POSE_DELEGATE", ""); d != "" {
		c.Detector.Delegate = detection.Delegate(strings.ToUpper(d))
	}

	c.Tempo.FrameInterval = config.Duration("FRAME_INTERVAL", c.Tempo.FrameInterval)
	c.Tempo.JournalPath = config.String("ANGLE_JOURNAL", c.Tempo.JournalPath)
	c.Tempo.Mapper.From = config.Int("LANDMARK_FROM", c.Tempo.Mapper.From)
	c.Tempo.Mapper.To = config.Int("LANDMARK_TO", c.Tempo.Mapper.To)
	c.Tempo.Mapper.MinRate = config.Float("MIN_RATE", c.Tempo.Mapper.MinRate)
	if m := config.String("ANGLE_MODE", ""); m != "" {
		c.Tempo.Mapper.Mode = pose.AngleMode(strings.ToLower(m))
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Web.Port == "" {
		return &ConfigError{Field: "Web.Port", Message: "port is required"}
	}
	if c.Web.UploadDir == "" {
		return &ConfigError{Field: "Web.UploadDir", Message: "upload directory is required"}
	}
	if !c.NoCamera {
		if errs := c.Camera.Validate(); len(errs) > 0 {
			return &ConfigError{Field: "Camera", Message: "invalid camera config: " + strings.Join(errs, "; ")}
		}
	}
	if err := c.Detector.Validate(); err != nil {
		return &ConfigError{Field: "Detector", Message: err.Error(), Err: err}
	}
	if err := c.Tempo.Validate(); err != nil {
		return &ConfigError{Field: "Tempo", Message: err.Error(), Err: err}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
