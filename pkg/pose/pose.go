// Package pose holds the body landmark model and the geometry that turns
// detected poses into a playback rate.
package pose

import "time"

// NumLandmarks is the number of keypoints in a full-body pose (BlazePose topology).
const NumLandmarks = 33

// Landmark indices for the 33-point body topology.
const (
	Nose = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// Landmark is a tracked body keypoint in normalized image coordinates.
// X and Y are in [0, 1] relative to the frame; Z is depth relative to the hips.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"` // 0 when the model does not report it
}

// Pose is the ordered landmark set of one detected person.
type Pose []Landmark

// Has reports whether the pose carries landmark i.
func (p Pose) Has(i int) bool {
	return i >= 0 && i < len(p)
}

// Result is the detector output for a single frame.
// It is only meaningful for the frame that produced it.
type Result struct {
	Poses     []Pose        `json:"poses"`
	Timestamp time.Duration `json:"timestamp"`
}

// Connection is an edge of the pose skeleton between two landmark indices.
type Connection struct {
	From, To int
}

// Connections is the skeleton used when drawing a pose over a frame.
var Connections = []Connection{
	{Nose, RightEyeInner}, {RightEyeInner, RightEye}, {RightEye, RightEyeOuter}, {RightEyeOuter, RightEar},
	{Nose, LeftEyeInner}, {LeftEyeInner, LeftEye}, {LeftEye, LeftEyeOuter}, {LeftEyeOuter, LeftEar},
	{MouthLeft, MouthRight},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow}, {LeftElbow, LeftWrist},
	{LeftWrist, LeftPinky}, {LeftWrist, LeftIndex}, {LeftWrist, LeftThumb}, {LeftPinky, LeftIndex},
	{RightShoulder, RightElbow}, {RightElbow, RightWrist},
	{RightWrist, RightPinky}, {RightWrist, RightIndex}, {RightWrist, RightThumb}, {RightPinky, RightIndex},
	{LeftShoulder, LeftHip}, {RightShoulder, RightHip}, {LeftHip, RightHip},
	{LeftHip, LeftKnee}, {LeftKnee, LeftAnkle}, {LeftAnkle, LeftHeel}, {LeftHeel, LeftFootIndex}, {LeftAnkle, LeftFootIndex},
	{RightHip, RightKnee}, {RightKnee, RightAnkle}, {RightAnkle, RightHeel}, {RightHeel, RightFootIndex}, {RightAnkle, RightFootIndex},
}
