// Package gesture turns per-frame hand landmarks into an exclusive control
// verdict: hand-shape classification plus the stateful per-frame state machine.
package gesture

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/marionette/internal/detector"
)

// Type is the exclusive gesture verdict for one frame.
type Type int

const (
	Idle Type = iota
	Rotate
	ZoomIn
	ZoomOut
	InteractLeft
	InteractRight
	// Pan is reserved and never emitted.
	Pan
)

var typeNames = map[Type]string{
	Idle:          "IDLE",
	Rotate:        "ROTATE",
	ZoomIn:        "ZOOM_IN",
	ZoomOut:       "ZOOM_OUT",
	InteractLeft:  "INTERACT_LEFT",
	InteractRight: "INTERACT_RIGHT",
	Pan:           "PAN",
}

// String returns the wire name, e.g. "ZOOM_IN".
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsInteract reports whether t is one of the per-hand interact gestures.
func (t Type) IsInteract() bool {
	return t == InteractLeft || t == InteractRight
}

// IsZoom reports whether t is a two-hand zoom gesture.
func (t Type) IsZoom() bool {
	return t == ZoomIn || t == ZoomOut
}

// MarshalJSON encodes the type by name.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a type name.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range typeNames {
		if v == s {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown gesture type %q", s)
}

// Handedness identifies which hand a landmark set belongs to.
type Handedness string

const (
	Left  Handedness = detector.LabelLeft
	Right Handedness = detector.LabelRight
)

// ParseHandedness maps a tracker label to a Handedness.
func ParseHandedness(label string) (Handedness, bool) {
	switch label {
	case detector.LabelLeft:
		return Left, true
	case detector.LabelRight:
		return Right, true
	}
	return "", false
}

// Vec2 is a planar delta or offset in normalized detector units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Hand is one classified hand for one frame. It is rebuilt every frame.
type Hand struct {
	Keypoints  detector.Keypoints
	Handedness Handedness
	Score      float64
	IsPinching bool
	IsGrabbing bool
	IsOpen     bool

	// Centroid is the mean of the wrist and the index and pinky MCP joints,
	// a palm-center proxy that stays put while fingers bend.
	Centroid detector.Point3D
}
