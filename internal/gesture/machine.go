package gesture

import (
	"math"
	"time"

	"github.com/ayusman/marionette/internal/detector"
)

// Tuning constants for the state machine.
const (
	// ZoomDeadZone is the minimum change in two-hand distance per frame that
	// counts as zooming.
	ZoomDeadZone = 0.005
	// ZoomGain scales a distance change into a multiplicative zoom step.
	ZoomGain = 2.0
	// MinZoom and MaxZoom bound the zoom factor.
	MinZoom = 0.5
	MaxZoom = 5.0
	// RotationPitchWeight damps vertical hand motion so rotation reads as yaw.
	RotationPitchWeight = 0.2
)

// ApplyZoom returns zoom scaled by a two-hand distance change, clamped to
// [MinZoom, MaxZoom].
func ApplyZoom(zoom, distanceDelta float64) float64 {
	z := zoom * (1 + distanceDelta*ZoomGain)
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// Verdict is the outcome of one processed frame.
type Verdict struct {
	Gesture Type

	// RotationDelta is non-zero only when Gesture is Rotate.
	RotationDelta Vec2

	// LeftOffset and RightOffset are the per-hand interact offsets. Each is
	// zero unless Gesture is the matching Interact type.
	LeftOffset  Vec2
	RightOffset Vec2

	// DistanceDelta is the change in two-hand distance. Non-zero only when
	// Gesture is ZoomIn or ZoomOut.
	DistanceDelta float64

	// Published reports whether the publisher accepted this verdict.
	Published bool
}

// Publisher receives verdicts. Implementations may rate limit and report
// whether the verdict was made visible.
type Publisher interface {
	Publish(now time.Time, v Verdict) bool
}

// Machine is the per-frame gesture classifier. It re-evaluates the verdict
// from scratch each frame and keeps only the history needed for deltas.
//
// Centroid and distance history advance on every Process call, including
// calls whose verdict the publisher throttles, so the next published frame
// always has a fresh baseline.
//
// A Machine is used from a single goroutine, the detector loop.
type Machine struct {
	pub Publisher

	prevLeft  *detector.Point3D
	prevRight *detector.Point3D
	prevDist  float64
	hasDist   bool

	last Type
}

// NewMachine creates a Machine publishing to pub. pub may be nil, in which
// case verdicts are only returned.
func NewMachine(pub Publisher) *Machine {
	return &Machine{pub: pub}
}

// Reset forgets all frame history.
func (m *Machine) Reset() {
	m.prevLeft = nil
	m.prevRight = nil
	m.hasDist = false
	m.prevDist = 0
	m.last = Idle
}

// Last returns the most recently computed gesture, published or not.
func (m *Machine) Last() Type {
	return m.last
}

// Process classifies one frame. left and right may each be nil.
func (m *Machine) Process(left, right *Hand, now time.Time) Verdict {
	v := Verdict{Gesture: Idle}

	// Two hands always win: zoom or nothing.
	if left != nil && right != nil {
		dist := CalculateDistance(left.Centroid, right.Centroid)
		if m.hasDist {
			delta := dist - m.prevDist
			if math.Abs(delta) > ZoomDeadZone {
				if delta > 0 {
					v.Gesture = ZoomIn
				} else {
					v.Gesture = ZoomOut
				}
				v.DistanceDelta = delta
			}
		}
		m.prevDist = dist
		m.hasDist = true
	} else {
		m.hasDist = false
	}

	switch {
	case right != nil && left == nil:
		m.single(right, &m.prevRight, InteractRight, &v)
		m.prevLeft = nil
	case left != nil && right == nil:
		m.single(left, &m.prevLeft, InteractLeft, &v)
		m.prevRight = nil
	default:
		// Neither hand is alone: both absent, or both present.
		m.prevLeft = nil
		m.prevRight = nil
	}

	m.last = v.Gesture
	if m.pub != nil {
		v.Published = m.pub.Publish(now, v)
	}
	return v
}

// single handles a hand that is alone in the frame.
func (m *Machine) single(h *Hand, prev **detector.Point3D, interact Type, v *Verdict) {
	var delta Vec2
	hasDelta := *prev != nil
	if hasDelta {
		delta = Vec2{X: h.Centroid.X - (*prev).X, Y: h.Centroid.Y - (*prev).Y}
	}

	c := h.Centroid
	*prev = &c

	switch {
	case h.IsGrabbing:
		v.Gesture = Rotate
		if hasDelta {
			v.RotationDelta = Vec2{X: delta.X, Y: delta.Y * RotationPitchWeight}
		}
	case h.IsOpen:
		v.Gesture = interact
		if hasDelta {
			if interact == InteractLeft {
				v.LeftOffset = delta
			} else {
				v.RightOffset = delta
			}
		}
	}
}
