package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector_Defaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  MotionConfig
		want MotionConfig
	}{
		{"zero config", MotionConfig{}, DefaultMotionConfig()},
		{"even blur size", MotionConfig{Threshold: 2, BlurSize: 10}, MotionConfig{Threshold: 2, BlurSize: 21, PixelDelta: 25, IdleAfter: 2 * time.Second}},
		{"custom", MotionConfig{Threshold: 5, BlurSize: 11, PixelDelta: 10, IdleAfter: time.Second}, MotionConfig{Threshold: 5, BlurSize: 11, PixelDelta: 10, IdleAfter: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.cfg)
			defer md.Close()
			if md.cfg != tt.want {
				t.Errorf("cfg = %+v, want %+v", md.cfg, tt.want)
			}
			if md.seen {
				t.Error("detector should start without a baseline")
			}
		})
	}
}

func TestMotionDetector_Frames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t.Run("first frame is baseline", func(t *testing.T) {
		md := NewMotionDetector(DefaultMotionConfig())
		defer md.Close()
		if moving, pct := md.Detect(&white); moving || pct != 0 {
			t.Errorf("Detect() = %v, %f on first frame", moving, pct)
		}
	})

	t.Run("identical frames", func(t *testing.T) {
		md := NewMotionDetector(DefaultMotionConfig())
		defer md.Close()
		md.Detect(&black)
		if moving, pct := md.Detect(&black); moving {
			t.Errorf("identical frames reported motion, pct = %f", pct)
		}
	})

	t.Run("black to white", func(t *testing.T) {
		md := NewMotionDetector(DefaultMotionConfig())
		defer md.Close()
		md.Detect(&black)
		moving, pct := md.Detect(&white)
		if !moving || pct < 50 {
			t.Errorf("Detect() = %v, %f, want motion above 50%%", moving, pct)
		}
	})

	t.Run("reset drops baseline", func(t *testing.T) {
		md := NewMotionDetector(DefaultMotionConfig())
		defer md.Close()
		md.Detect(&black)
		md.Reset()
		if moving, _ := md.Detect(&white); moving {
			t.Error("first frame after Reset should only set the baseline")
		}
	})
}

func TestMotionDetector_NilAndEmpty(t *testing.T) {
	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	if moving, pct := md.Detect(nil); moving || pct != 0 {
		t.Error("nil frame should not report motion")
	}
	empty := gocv.NewMat()
	defer empty.Close()
	if moving, _ := md.Detect(&empty); moving {
		t.Error("empty frame should not report motion")
	}
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(DefaultMotionConfig())
	md.Close()
	md.Close()
}

func TestGate(t *testing.T) {
	cfg := DefaultMotionConfig()
	cfg.IdleAfter = time.Second
	g := NewGate(cfg)
	defer g.Close()

	t0 := time.Unix(100, 0)
	steps := []struct {
		at          time.Duration
		moving      bool
		wantOpen    bool
		wantChanged bool
	}{
		{0, false, false, false},
		{100 * time.Millisecond, true, true, true},
		{500 * time.Millisecond, false, true, false},
		{1100 * time.Millisecond, false, true, false},
		{1200 * time.Millisecond, false, false, true},
		{1300 * time.Millisecond, false, false, false},
		{1400 * time.Millisecond, true, true, true},
	}

	for _, s := range steps {
		open, changed := g.observe(s.moving, t0.Add(s.at))
		if open != s.wantOpen || changed != s.wantChanged {
			t.Errorf("at +%v moving=%v: open=%v changed=%v, want %v %v",
				s.at, s.moving, open, changed, s.wantOpen, s.wantChanged)
		}
	}
	if !g.Open() {
		t.Error("Open() should reflect last observation")
	}
}
