package pose

import "math"

// AngleWithXAxis returns the angle of the vector (dx, dy) measured from the
// positive X axis, in degrees, normalized to [0, 360).
func AngleWithXAxis(dx, dy float64) float64 {
	deg := math.Atan2(dy, dx) * (180 / math.Pi)
	if deg < 0 {
		deg += 360
	}
	// Tiny negative angles can round up to exactly 360.
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// AngleWithXZPlane returns acos(z / |(x, z)|) in degrees. A vector with no
// XZ component yields 90.
// Y is accepted for symmetry with the landmark triple and ignored.
func AngleWithXZPlane(x, _, z float64) float64 {
	m := math.Sqrt(x*x + z*z)
	cos := 0.0
	if m != 0 {
		cos = z / m
	}
	return math.Acos(cos) * (180 / math.Pi)
}

// AngleMode selects which angle is measured between the designated landmarks.
type AngleMode string

const (
	ModeXAxis   AngleMode = "xaxis"
	ModeXZPlane AngleMode = "xzplane"
)

// SegmentAngle measures the segment from -> to under the given mode.
func SegmentAngle(from, to Landmark, mode AngleMode) float64 {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if mode == ModeXZPlane {
		return AngleWithXZPlane(dx, dy, to.Z-from.Z)
	}
	return AngleWithXAxis(dx, dy)
}
