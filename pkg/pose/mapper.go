package pose

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMapper is returned by MapperConfig.Validate.
var ErrInvalidMapper = errors.New("pose: invalid mapper config")

// MapperConfig holds the tunables for the angle → playback-rate transform.
type MapperConfig struct {
	From    int       `json:"from"`     // Segment start landmark
	To      int       `json:"to"`       // Segment end landmark
	Offset  float64   `json:"offset"`   // Degrees subtracted from the mean angle
	Scale   float64   `json:"scale"`    // Degrees per unit of rate
	MinRate float64   `json:"min_rate"` // Floor clamp, no ceiling
	Mode    AngleMode `json:"mode"`
}

// DefaultMapperConfig measures right shoulder → right elbow:
// arm straight down is 90°, horizontal outward (mirrored) is 180° → rate 1.0.
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		From:    RightShoulder,
		To:      RightElbow,
		Offset:  90,
		Scale:   90,
		MinRate: 0.2,
		Mode:    ModeXAxis,
	}
}

// Validate checks indices and arithmetic parameters.
func (c MapperConfig) Validate() error {
	if c.From < 0 || c.From >= NumLandmarks || c.To < 0 || c.To >= NumLandmarks {
		return fmt.Errorf("%w: landmark index out of range (from=%d, to=%d)", ErrInvalidMapper, c.From, c.To)
	}
	if c.From == c.To {
		return fmt.Errorf("%w: from and to are the same landmark (%d)", ErrInvalidMapper, c.From)
	}
	if c.Scale == 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return fmt.Errorf("%w: scale must be finite and non-zero", ErrInvalidMapper)
	}
	if !(c.MinRate > 0) || math.IsInf(c.MinRate, 0) {
		return fmt.Errorf("%w: min rate must be positive", ErrInvalidMapper)
	}
	switch c.Mode {
	case ModeXAxis, ModeXZPlane, "":
	default:
		return fmt.Errorf("%w: unknown angle mode %q", ErrInvalidMapper, c.Mode)
	}
	return nil
}

// Mapping is the outcome of mapping one detection result.
type Mapping struct {
	Angles    []float64 `json:"angles"` // Per usable pose
	MeanAngle float64   `json:"mean_angle"`
	Rate      float64   `json:"rate"`
	OK        bool      `json:"ok"` // false: no usable pose, hold the previous rate
}

// Mapper converts detection results into playback rates.
type Mapper struct {
	config MapperConfig
}

// NewMapper validates the config and returns a Mapper.
func NewMapper(cfg MapperConfig) (*Mapper, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeXAxis
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{config: cfg}, nil
}

// Config returns the mapper configuration.
func (m *Mapper) Config() MapperConfig {
	return m.config
}

// RateForAngle applies (angle - offset) / scale and the floor clamp.
func (m *Mapper) RateForAngle(angle float64) float64 {
	return math.Max((angle-m.config.Offset)/m.config.Scale, m.config.MinRate)
}

// Map averages the segment angle over every pose that carries both
// designated landmarks. With no usable pose the mapping is not OK and the
// caller should keep the previous rate.
func (m *Mapper) Map(poses []Pose) Mapping {
	var out Mapping
	sum := 0.0

	for _, p := range poses {
		if !p.Has(m.config.From) || !p.Has(m.config.To) {
			continue
		}
		a := SegmentAngle(p[m.config.From], p[m.config.To], m.config.Mode)
		if math.IsNaN(a) {
			continue
		}
		out.Angles = append(out.Angles, a)
		sum += a
	}

	if len(out.Angles) == 0 {
		return out
	}

	out.MeanAngle = sum / float64(len(out.Angles))
	out.Rate = m.RateForAngle(out.MeanAngle)
	out.OK = true
	return out
}
