package tempo

import (
	"fmt"
	"time"

	"github.com/teslashibe/posetempo/pkg/pose"
)

// Config holds the tunables for the frame loop.
type Config struct {
	// Timing
	FrameInterval time.Duration // How often the loop polls the camera

	// Mapping
	Mapper pose.MapperConfig

	// Outputs
	JournalPath  string // Rotating JSON-lines angle journal; empty disables it
	OverlayEvery int    // Forward every Nth processed frame to the frame sink (0 = never)
	StatusEvery  int    // Publish status every Nth processed frame, besides state and rate changes
}

// DefaultConfig returns a ~30 fps loop with the shoulder → elbow mapping.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 33 * time.Millisecond,
		Mapper:        pose.DefaultMapperConfig(),
		OverlayEvery:  1,
		StatusEvery:   15, // about twice a second at 30 fps
	}
}

// LowCPUConfig polls at ~10 fps and forwards fewer overlay frames.
func LowCPUConfig() Config {
	cfg := DefaultConfig()
	cfg.FrameInterval = 100 * time.Millisecond
	cfg.OverlayEvery = 3
	cfg.StatusEvery = 5
	return cfg
}

// Validate checks timing and mapping parameters.
func (c Config) Validate() error {
	if c.FrameInterval <= 0 {
		return fmt.Errorf("tempo: frame interval must be positive, got %v", c.FrameInterval)
	}
	if c.OverlayEvery < 0 {
		return fmt.Errorf("tempo: overlay every must not be negative, got %d", c.OverlayEvery)
	}
	if c.StatusEvery < 0 {
		return fmt.Errorf("tempo: status every must not be negative, got %d", c.StatusEvery)
	}
	return c.Mapper.Validate()
}
