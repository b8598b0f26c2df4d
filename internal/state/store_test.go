package state

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/marionette/internal/detector"
	"github.com/ayusman/marionette/internal/gesture"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCell_Throttle(t *testing.T) {
	c := NewCell(MinPublishInterval)
	t0 := time.Unix(1000, 0)
	inc := func(s GestureState) GestureState { s.ZoomFactor++; return s }

	tests := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{10 * time.Millisecond, false},
		{31 * time.Millisecond, false},
		{32 * time.Millisecond, true},
		{40 * time.Millisecond, false},
		{70 * time.Millisecond, true},
	}
	for _, tt := range tests {
		if got := c.Publish(t0.Add(tt.at), inc); got != tt.want {
			t.Errorf("Publish at +%v = %v, want %v", tt.at, got, tt.want)
		}
	}

	pub, drop := c.Stats()
	if pub != 3 || drop != 3 {
		t.Errorf("Stats() = %d/%d, want 3/3", pub, drop)
	}
	if s := c.Load(); s.ZoomFactor != 4 || s.Seq != 3 {
		t.Errorf("Load() zoom=%f seq=%d, want 4/3", s.ZoomFactor, s.Seq)
	}
}

func TestCell_ZeroIntervalNeverThrottles(t *testing.T) {
	c := NewCell(0)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if !c.Publish(now, func(s GestureState) GestureState { return s }) {
			t.Fatalf("publish %d was throttled", i)
		}
	}
}

func TestCell_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	c := NewCell(0)
	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 500; i++ {
			f := float64(i)
			c.Publish(time.Now(), func(s GestureState) GestureState {
				s.ZoomFactor = f
				s.AccumulatedRotation = gesture.Vec2{X: f, Y: f}
				return s
			})
		}
		close(done)
	}()

	for {
		s := c.Load()
		if s.Seq > 0 && (s.AccumulatedRotation.X != s.ZoomFactor || s.AccumulatedRotation.Y != s.ZoomFactor) {
			t.Fatalf("torn snapshot: %+v", s)
		}
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
	}
}

func TestStore_PublishAccumulatesRotation(t *testing.T) {
	s := NewStoreWithInterval(0)
	now := time.Now()

	s.Publish(now, gesture.Verdict{Gesture: gesture.Rotate, RotationDelta: gesture.Vec2{X: 0.1, Y: 0.02}})
	s.Publish(now, gesture.Verdict{Gesture: gesture.Rotate, RotationDelta: gesture.Vec2{X: 0.05, Y: -0.01}})
	// Idle keeps the accumulator but drops the per-frame delta.
	s.Publish(now, gesture.Verdict{Gesture: gesture.Idle, RotationDelta: gesture.Vec2{X: 9}})

	g := s.Gesture()
	if !near(g.AccumulatedRotation.X, 0.15) || !near(g.AccumulatedRotation.Y, 0.01) {
		t.Errorf("AccumulatedRotation = %+v, want {0.15 0.01}", g.AccumulatedRotation)
	}
	if g.RotationDelta != (gesture.Vec2{}) {
		t.Errorf("RotationDelta = %+v on idle, want zero", g.RotationDelta)
	}
}

func TestStore_OffsetsZeroedOutsideInteract(t *testing.T) {
	s := NewStoreWithInterval(0)
	now := time.Now()

	s.Publish(now, gesture.Verdict{
		Gesture:     gesture.InteractLeft,
		LeftOffset:  gesture.Vec2{X: 0.1},
		RightOffset: gesture.Vec2{X: 0.3},
	})
	g := s.Gesture()
	if g.LeftChestOffset.X != 0.1 {
		t.Errorf("LeftChestOffset = %+v, want x=0.1", g.LeftChestOffset)
	}
	if g.RightChestOffset != (gesture.Vec2{}) {
		t.Errorf("RightChestOffset = %+v during INTERACT_LEFT, want zero", g.RightChestOffset)
	}

	s.Publish(now, gesture.Verdict{Gesture: gesture.Rotate})
	if g := s.Gesture(); g.LeftChestOffset != (gesture.Vec2{}) {
		t.Errorf("LeftChestOffset = %+v after leaving interact, want zero", g.LeftChestOffset)
	}
}

func TestStore_ZoomClamps(t *testing.T) {
	s := NewStoreWithInterval(0)
	now := time.Now()

	for i := 0; i < 50; i++ {
		s.Publish(now, gesture.Verdict{Gesture: gesture.ZoomIn, DistanceDelta: 0.3})
	}
	if z := s.Gesture().ZoomFactor; z != gesture.MaxZoom {
		t.Errorf("ZoomFactor = %f, want %f", z, gesture.MaxZoom)
	}

	for i := 0; i < 50; i++ {
		s.Publish(now, gesture.Verdict{Gesture: gesture.ZoomOut, DistanceDelta: -0.3})
	}
	if z := s.Gesture().ZoomFactor; z != gesture.MinZoom {
		t.Errorf("ZoomFactor = %f, want %f", z, gesture.MinZoom)
	}
}

func TestStore_ResetView(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Publish(now, gesture.Verdict{Gesture: gesture.Rotate, RotationDelta: gesture.Vec2{X: 1}})

	// Not throttled even though it follows a publish immediately.
	g := s.ResetView(now)
	if g.AccumulatedRotation != (gesture.Vec2{}) || g.ZoomFactor != 1 {
		t.Errorf("ResetView() = %+v", g)
	}
	if s.Gesture().Seq != g.Seq {
		t.Error("ResetView result not visible")
	}
}

// Two hands 0.20 apart then 0.25 apart, published more than 32ms apart,
// give ZOOM_IN and zoom 1.1.
func TestStore_ZoomScenario(t *testing.T) {
	s := NewStore()
	m := gesture.NewMachine(s)
	t0 := time.Unix(2000, 0)

	pair := func(gap float64) (*gesture.Hand, *gesture.Hand) {
		l := gesture.FromLandmarks(detector.OpenPalmLandmarks().WithHandedness(detector.LabelLeft).Translate(-0.5-gap/2, 0, 0))
		r := gesture.FromLandmarks(detector.OpenPalmLandmarks().Translate(-0.5+gap/2, 0, 0))
		return l, r
	}

	l, r := pair(0.20)
	m.Process(l, r, t0)
	l, r = pair(0.25)
	v := m.Process(l, r, t0.Add(40*time.Millisecond))

	if v.Gesture != gesture.ZoomIn || !v.Published {
		t.Fatalf("verdict = %v published=%v, want ZOOM_IN published", v.Gesture, v.Published)
	}
	g := s.Gesture()
	if g.Gesture != gesture.ZoomIn {
		t.Errorf("published gesture = %v, want ZOOM_IN", g.Gesture)
	}
	if math.Abs(g.ZoomFactor-1.1) > 1e-6 {
		t.Errorf("ZoomFactor = %f, want 1.1", g.ZoomFactor)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"max intensity", func(s *Settings) { s.PhysicsIntensity = 2 }, false},
		{"negative intensity", func(s *Settings) { s.PhysicsIntensity = -0.1 }, true},
		{"intensity above range", func(s *Settings) { s.PhysicsIntensity = 2.5 }, true},
		{"movement above range", func(s *Settings) { s.MovementIntensity = 3 }, true},
		{"known preset", func(s *Settings) { s.Preset = PresetTwist }, false},
		{"unknown preset", func(s *Settings) { s.Preset = "moonwalk" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("error %v does not wrap ErrInvalidSettings", err)
			}
		})
	}
}

func TestStore_UpdateSettings(t *testing.T) {
	s := NewStore()
	var seen []Settings
	s.Watch(func(set Settings) { seen = append(seen, set) })

	got, err := s.UpdateSettings(func(set *Settings) { set.ModelID = "mixamo" })
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if got.ModelID != "mixamo" || s.Settings().ModelID != "mixamo" {
		t.Error("model id not stored")
	}

	_, err = s.UpdateSettings(func(set *Settings) { set.PhysicsIntensity = 9 })
	if !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("error = %v, want ErrInvalidSettings", err)
	}
	if s.Settings().PhysicsIntensity != 1 {
		t.Error("rejected update was stored")
	}

	if len(seen) != 1 {
		t.Errorf("watcher called %d times, want 1", len(seen))
	}
}

func TestStore_Settle(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Publish(now, gesture.Verdict{Gesture: gesture.Rotate, RotationDelta: gesture.Vec2{X: 0.2}})
	s.Publish(now.Add(40*time.Millisecond), gesture.Verdict{Gesture: gesture.InteractRight, RightOffset: gesture.Vec2{X: 0.1}})

	g := s.Settle(now.Add(41 * time.Millisecond))
	if g.Gesture != gesture.Idle || g.RightChestOffset != (gesture.Vec2{}) {
		t.Errorf("Settle() = %+v, want idle with no offsets", g)
	}
	if !near(g.AccumulatedRotation.X, 0.2) {
		t.Errorf("Settle() dropped rotation: %+v", g.AccumulatedRotation)
	}
}

func TestStore_Commit(t *testing.T) {
	s := NewStore()
	t0 := time.Now()

	g, ok := s.Commit(t0, gesture.Verdict{Gesture: gesture.Rotate, RotationDelta: gesture.Vec2{X: 0.1}})
	if !ok || g.Gesture != gesture.Rotate || g != s.Gesture() {
		t.Fatalf("Commit() = %+v, %v; store holds %+v", g, ok, s.Gesture())
	}

	// Inside the interval nothing is published and the snapshot is empty.
	g, ok = s.Commit(t0.Add(10*time.Millisecond), gesture.Verdict{Gesture: gesture.Idle})
	if ok || g.Seq != 0 {
		t.Errorf("throttled Commit() = %+v, %v", g, ok)
	}
	if s.Gesture().Gesture != gesture.Rotate {
		t.Errorf("throttled verdict reached the store: %v", s.Gesture().Gesture)
	}
}

func TestStore_Check(t *testing.T) {
	s := NewStore()
	errBusy := errors.New("model busy")
	var prevSeen string
	s.Check(func(prev, next Settings) error {
		prevSeen = prev.ModelID
		if next.ModelID == "locked" {
			return errBusy
		}
		return nil
	})
	watched := 0
	s.Watch(func(Settings) { watched++ })

	if _, err := s.UpdateSettings(func(set *Settings) { set.ModelID = "vrm" }); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	got, err := s.UpdateSettings(func(set *Settings) {
		set.ModelID = "locked"
		set.TrackingEnabled = false
	})
	if !errors.Is(err, errBusy) {
		t.Fatalf("error = %v, want %v", err, errBusy)
	}
	if prevSeen != "vrm" {
		t.Errorf("check saw prev model %q, want vrm", prevSeen)
	}
	if got.ModelID != "vrm" || !got.TrackingEnabled || s.Settings() != got {
		t.Errorf("rejected update leaked: returned %+v, stored %+v", got, s.Settings())
	}
	if watched != 1 {
		t.Errorf("watcher called %d times, want 1", watched)
	}

	// Validate still runs before the registered checks.
	if _, err := s.UpdateSettings(func(set *Settings) { set.Preset = "moonwalk" }); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("error = %v, want ErrInvalidSettings", err)
	}
}
