// Package testdata holds skeleton files and landmark sequences shared by the
// integration tests.
package testdata

import (
	"embed"
	"fmt"

	"github.com/ayusman/marionette/internal/detector"
	"github.com/ayusman/marionette/internal/rig"
)

//go:embed skeletons/*.json
var skeletonsFS embed.FS

// LoadSkeleton loads a test skeleton by name, without the extension.
func LoadSkeleton(name string) (*rig.Bones, error) {
	f, err := skeletonsFS.Open("skeletons/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load skeleton %s: %w", name, err)
	}
	defer f.Close()

	bones, err := rig.LoadBones(f)
	if err != nil {
		return nil, fmt.Errorf("decode skeleton %s: %w", name, err)
	}
	return bones, nil
}

// SkeletonJSON returns the raw file, for tests that install it as a model.
func SkeletonJSON(name string) ([]byte, error) {
	return skeletonsFS.ReadFile("skeletons/" + name + ".json")
}

// ZoomSequence returns frames of two open palms whose centroids start gap
// apart and move apart by step each frame. A negative step pinches in.
func ZoomSequence(gap, step float64, frames int) [][]detector.HandLandmarks {
	seq := make([][]detector.HandLandmarks, frames)
	for i := range seq {
		g := gap + float64(i)*step
		left := detector.OpenPalmLandmarks().WithHandedness(detector.LabelLeft).Translate(-g/2, 0, 0)
		right := detector.OpenPalmLandmarks().Translate(g/2, 0, 0)
		seq[i] = []detector.HandLandmarks{left, right}
	}
	return seq
}

// RotateSequence returns frames of a single right fist moving by (dx, dy)
// per frame.
func RotateSequence(dx, dy float64, frames int) [][]detector.HandLandmarks {
	seq := make([][]detector.HandLandmarks, frames)
	for i := range seq {
		f := float64(i)
		seq[i] = []detector.HandLandmarks{detector.FistLandmarks().Translate(f*dx, f*dy, 0)}
	}
	return seq
}

// InteractSequence returns frames of a single open palm with the given
// handedness label moving by (dx, dy) per frame.
func InteractSequence(label string, dx, dy float64, frames int) [][]detector.HandLandmarks {
	seq := make([][]detector.HandLandmarks, frames)
	for i := range seq {
		f := float64(i)
		seq[i] = []detector.HandLandmarks{
			detector.OpenPalmLandmarks().WithHandedness(label).Translate(f*dx, f*dy, 0),
		}
	}
	return seq
}
