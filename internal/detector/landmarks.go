// Package detector provides the hand-landmark types consumed by the gesture
// pipeline and the adapters that obtain them from a hand tracker.
package detector

import "gonum.org/v1/gonum/spatial/r3"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the tracker.
const (
	LabelLeft  = "Left"
	LabelRight = "Right"
)

// Point3D is a landmark in normalized detector space: x and y roughly in
// [0,1], z a relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns p as a gonum vector.
func (p Point3D) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// FromVec converts a gonum vector back to a Point3D.
func FromVec(v r3.Vec) Point3D {
	return Point3D{X: v.X, Y: v.Y, Z: v.Z}
}

// Keypoints is an ordered landmark set. A complete set has NumLandmarks
// entries; trackers may deliver fewer under occlusion.
type Keypoints []Point3D

// At returns the landmark at index i and whether it is present.
func (k Keypoints) At(i int) (Point3D, bool) {
	if i < 0 || i >= len(k) {
		return Point3D{}, false
	}
	return k[i], true
}

// Complete reports whether every landmark of the hand topology is present.
func (k Keypoints) Complete() bool {
	return len(k) >= NumLandmarks
}

// HandLandmarks is one tracked hand as reported by a Detector.
type HandLandmarks struct {
	Points     Keypoints `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Translate returns a copy of h with every point shifted by (dx, dy, dz).
func (h HandLandmarks) Translate(dx, dy, dz float64) HandLandmarks {
	out := HandLandmarks{
		Points:     make(Keypoints, len(h.Points)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	shift := r3.Vec{X: dx, Y: dy, Z: dz}
	for i, p := range h.Points {
		out.Points[i] = FromVec(r3.Add(p.Vec(), shift))
	}
	return out
}

// WithHandedness returns a copy of h carrying the given label.
func (h HandLandmarks) WithHandedness(label string) HandLandmarks {
	out := h
	out.Points = append(Keypoints(nil), h.Points...)
	out.Handedness = label
	return out
}

// Truncate returns a copy of h keeping only the first n points.
// Used to simulate partial detections.
func (h HandLandmarks) Truncate(n int) HandLandmarks {
	if n > len(h.Points) {
		n = len(h.Points)
	}
	if n < 0 {
		n = 0
	}
	out := h
	out.Points = append(Keypoints(nil), h.Points[:n]...)
	return out
}
