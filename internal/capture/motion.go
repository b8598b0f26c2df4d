package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MotionConfig tunes frame differencing.
type MotionConfig struct {
	// Threshold is the percentage of pixels that must change for a frame to
	// count as motion.
	Threshold float64
	// BlurSize is the Gaussian kernel size applied before differencing.
	BlurSize int
	// PixelDelta is the per-pixel grey level change that counts as changed.
	PixelDelta float32
	// IdleAfter is how long without motion before the gate closes.
	IdleAfter time.Duration
}

// DefaultMotionConfig returns the standard tuning.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:  1.0,
		BlurSize:   21,
		PixelDelta: 25,
		IdleAfter:  2 * time.Second,
	}
}

// MotionDetector compares each frame with the previous one.
type MotionDetector struct {
	mu   sync.Mutex
	cfg  MotionConfig
	prev gocv.Mat
	seen bool
}

// NewMotionDetector creates a detector. Zero fields take defaults.
func NewMotionDetector(cfg MotionConfig) *MotionDetector {
	def := DefaultMotionConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.BlurSize <= 0 || cfg.BlurSize%2 == 0 {
		cfg.BlurSize = def.BlurSize
	}
	if cfg.PixelDelta <= 0 {
		cfg.PixelDelta = def.PixelDelta
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}
	return &MotionDetector{cfg: cfg, prev: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous frame by more than
// the threshold, and the changed percentage. The first frame only sets the
// baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := m.cfg.BlurSize
	gocv.GaussianBlur(gray, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	if !m.seen {
		blurred.CopyTo(&m.prev)
		m.seen = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)
	gocv.Threshold(diff, &diff, m.cfg.PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.cfg.Threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.seen = false
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.Reset()
}

// Gate opens on motion and closes after a quiet period, so the detector
// only runs while someone is moving in front of the camera.
type Gate struct {
	motion    *MotionDetector
	idleAfter time.Duration

	open       bool
	lastMotion time.Time
}

// NewGate creates a gate around a motion detector.
func NewGate(cfg MotionConfig) *Gate {
	md := NewMotionDetector(cfg)
	return &Gate{motion: md, idleAfter: md.cfg.IdleAfter}
}

// Observe feeds one frame. It returns whether the gate is open after the
// frame and whether that changed.
func (g *Gate) Observe(frame *gocv.Mat, now time.Time) (open, changed bool) {
	moving, _ := g.motion.Detect(frame)
	return g.observe(moving, now)
}

func (g *Gate) observe(moving bool, now time.Time) (open, changed bool) {
	was := g.open
	switch {
	case moving:
		g.lastMotion = now
		g.open = true
	case g.open && now.Sub(g.lastMotion) > g.idleAfter:
		g.open = false
	}
	return g.open, g.open != was
}

// Open reports the current gate state.
func (g *Gate) Open() bool {
	return g.open
}

// Close releases the motion detector.
func (g *Gate) Close() {
	g.motion.Close()
	g.open = false
}
