package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed set of hands or, once a sequence is loaded,
// successive entries of that sequence (repeating the last one).
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	index    int
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
	m.index = 0
}

// SetSequence makes Detect walk through frames, one entry per call.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		frameHands := m.sequence[m.index]
		if m.index < len(m.sequence)-1 {
			m.index++
		}
		return frameHands, nil
	}
	return m.hands, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// OpenPalmLandmarks returns a right hand with all four fingers extended and
// the thumb spread away from the index finger.
func OpenPalmLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Points:     make(Keypoints, NumLandmarks),
		Handedness: LabelRight,
		Score:      0.95,
	}
	p := lm.Points

	p[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	p[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	p[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	p[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	p[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	p[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	p[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	p[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	p[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	p[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	p[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	p[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	p[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	p[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	p[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	p[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	p[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	p[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	p[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	p[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	p[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return lm
}

// FistLandmarks returns a right hand with all four fingers folded into the
// palm and the thumb tucked across them, clear of the index tip.
func FistLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Points:     make(Keypoints, NumLandmarks),
		Handedness: LabelRight,
		Score:      0.95,
	}
	p := lm.Points

	p[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	p[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	p[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: -0.01}
	p[ThumbIP] = Point3D{X: 0.58, Y: 0.65, Z: -0.02}
	p[ThumbTip] = Point3D{X: 0.56, Y: 0.62, Z: -0.03}

	p[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	p[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	p[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	p[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	p[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	p[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	p[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	p[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	p[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	p[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	p[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	p[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	p[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	p[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	p[PinkyDIP] = Point3D{X: 0.38, Y: 0.72, Z: -0.04}
	p[PinkyTip] = Point3D{X: 0.38, Y: 0.75, Z: -0.02}

	return lm
}

// PinchLandmarks returns an open right hand whose thumb and index tips touch.
func PinchLandmarks() HandLandmarks {
	lm := OpenPalmLandmarks()
	lm.Points[ThumbIP] = Point3D{X: 0.64, Y: 0.56, Z: 0.01}
	lm.Points[ThumbTip] = Point3D{X: 0.62, Y: 0.50, Z: 0.0}
	lm.Points[IndexDIP] = Point3D{X: 0.60, Y: 0.52, Z: 0.0}
	lm.Points[IndexTip] = Point3D{X: 0.60, Y: 0.48, Z: 0.0}
	return lm
}

// RelaxedLandmarks returns a right hand that is neither open nor grabbing:
// index and middle extended, ring and pinky folded.
func RelaxedLandmarks() HandLandmarks {
	lm := OpenPalmLandmarks()
	fist := FistLandmarks()
	for _, i := range []int{RingMCP, RingPIP, RingDIP, RingTip, PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip} {
		lm.Points[i] = fist.Points[i]
	}
	return lm
}
