package pose

import (
	"math"
	"testing"
)

func TestAngleWithXAxis_Cardinals(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		expect float64
	}{
		{"positive x", 1, 0, 0},
		{"positive x far", 250, 0, 0},
		{"positive y", 0, 1, 90},
		{"positive y small", 0, 0.001, 90},
		{"negative x", -1, 0, 180},
		{"negative x far", -42, 0, 180},
		{"negative y", 0, -1, 270},
		{"negative y small", 0, -0.3, 270},
		{"first diagonal", 1, 1, 45},
		{"fourth diagonal", 1, -1, 315},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AngleWithXAxis(tc.dx, tc.dy)
			if math.Abs(got-tc.expect) > 1e-9 {
				t.Errorf("AngleWithXAxis(%v, %v) = %v, want %v", tc.dx, tc.dy, got, tc.expect)
			}
		})
	}
}

func TestAngleWithXAxis_Range(t *testing.T) {
	for i := -50; i <= 50; i++ {
		for j := -50; j <= 50; j++ {
			dx, dy := float64(i)/7, float64(j)/11
			got := AngleWithXAxis(dx, dy)
			if got < 0 || got >= 360 || math.IsNaN(got) {
				t.Fatalf("AngleWithXAxis(%v, %v) = %v, out of [0, 360)", dx, dy, got)
			}
		}
	}
	// Smallest representable negative dy still lands in range.
	if got := AngleWithXAxis(1, -math.SmallestNonzeroFloat64); got < 0 || got >= 360 {
		t.Errorf("tiny negative dy: got %v", got)
	}
}

func TestAngleWithXZPlane(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
		expect  float64
	}{
		{"along z", 0, 5, 1, 0},
		{"against z", 0, 0, -1, 180},
		{"along x", 1, 0, 0, 90},
		{"zero projection", 0, 3, 0, 90},
		{"diagonal", 1, 0, 1, 45},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AngleWithXZPlane(tc.x, tc.y, tc.z)
			if math.Abs(got-tc.expect) > 1e-9 {
				t.Errorf("AngleWithXZPlane(%v, %v, %v) = %v, want %v", tc.x, tc.y, tc.z, got, tc.expect)
			}
		})
	}
}
