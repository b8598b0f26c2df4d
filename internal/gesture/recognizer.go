package gesture

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/marionette/internal/detector"
)

// PinchThreshold is the thumb-tip to index-tip distance, in normalized
// units, below which a hand is pinching.
const PinchThreshold = 0.05

// fingerMajority is how many of the four long fingers must agree for a hand
// to count as grabbing or open. Three of four tolerates one jittery finger.
const fingerMajority = 3

// fingers lists (pip, tip) landmark pairs for index, middle, ring and pinky.
var fingers = [4][2]int{
	{detector.IndexPIP, detector.IndexTip},
	{detector.MiddlePIP, detector.MiddleTip},
	{detector.RingPIP, detector.RingTip},
	{detector.PinkyPIP, detector.PinkyTip},
}

// CalculateDistance returns the Euclidean distance between two points.
func CalculateDistance(p1, p2 detector.Point3D) float64 {
	return r3.Norm(r3.Sub(p1.Vec(), p2.Vec()))
}

// IsPinching reports whether the thumb and index tips are touching.
// Incomplete landmark sets are never pinching.
func IsPinching(kp detector.Keypoints) bool {
	if !kp.Complete() {
		return false
	}
	thumb, ok := kp.At(detector.ThumbTip)
	if !ok {
		return false
	}
	index, ok := kp.At(detector.IndexTip)
	if !ok {
		return false
	}
	return CalculateDistance(thumb, index) < PinchThreshold
}

// IsGrabbing reports whether at least three of the four long fingers are
// curled, meaning the tip sits closer to the wrist than the PIP joint.
func IsGrabbing(kp detector.Keypoints) bool {
	if !kp.Complete() {
		return false
	}
	return countFingers(kp, func(tip, pip float64) bool { return tip < pip }) >= fingerMajority
}

// IsOpen reports whether at least three of the four long fingers are
// extended, meaning the tip sits farther from the wrist than the PIP joint.
func IsOpen(kp detector.Keypoints) bool {
	if !kp.Complete() {
		return false
	}
	return countFingers(kp, func(tip, pip float64) bool { return tip > pip }) >= fingerMajority
}

// countFingers counts fingers whose wrist distances satisfy match. A finger
// with any landmark missing does not count.
func countFingers(kp detector.Keypoints, match func(tipDist, pipDist float64) bool) int {
	wrist, ok := kp.At(detector.Wrist)
	if !ok {
		return 0
	}

	n := 0
	for _, f := range fingers {
		pip, okPip := kp.At(f[0])
		tip, okTip := kp.At(f[1])
		if !okPip || !okTip {
			continue
		}
		if match(CalculateDistance(tip, wrist), CalculateDistance(pip, wrist)) {
			n++
		}
	}
	return n
}

// Centroid returns the mean of the wrist, index MCP and pinky MCP.
func Centroid(kp detector.Keypoints) (detector.Point3D, bool) {
	wrist, ok1 := kp.At(detector.Wrist)
	index, ok2 := kp.At(detector.IndexMCP)
	pinky, ok3 := kp.At(detector.PinkyMCP)
	if !ok1 || !ok2 || !ok3 {
		return detector.Point3D{}, false
	}
	sum := r3.Add(r3.Add(wrist.Vec(), index.Vec()), pinky.Vec())
	return detector.FromVec(r3.Scale(1.0/3.0, sum)), true
}

// AnalyzeHand classifies one hand for one frame. It returns nil for
// incomplete landmark sets so occlusion never reaches the state machine.
func AnalyzeHand(kp detector.Keypoints, handedness Handedness) *Hand {
	if !kp.Complete() {
		return nil
	}
	centroid, ok := Centroid(kp)
	if !ok {
		return nil
	}

	return &Hand{
		Keypoints:  kp,
		Handedness: handedness,
		IsPinching: IsPinching(kp),
		IsGrabbing: IsGrabbing(kp),
		IsOpen:     IsOpen(kp),
		Centroid:   centroid,
	}
}

// FromLandmarks classifies a detector result. Hands with an unknown
// handedness label are dropped.
func FromLandmarks(lm detector.HandLandmarks) *Hand {
	handedness, ok := ParseHandedness(lm.Handedness)
	if !ok {
		return nil
	}
	h := AnalyzeHand(lm.Points, handedness)
	if h != nil {
		h.Score = lm.Score
	}
	return h
}

// SplitHands assigns classified hands to the left and right slots. When two
// hands claim the same side the higher-scoring one keeps the slot and the
// other is dropped.
func SplitHands(hands []*Hand) (left, right *Hand) {
	for _, h := range hands {
		if h == nil {
			continue
		}
		switch h.Handedness {
		case Left:
			if left == nil || h.Score > left.Score {
				left = h
			}
		case Right:
			if right == nil || h.Score > right.Score {
				right = h
			}
		}
	}
	return left, right
}
