// Package state holds the shared gesture and physics state written by the
// detector loop and control surfaces and read by the render loop.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/marionette/internal/gesture"
)

// ErrInvalidSettings is returned when a settings update is out of range.
var ErrInvalidSettings = errors.New("invalid settings")

// MaxPhysicsIntensity bounds Settings.PhysicsIntensity and
// Settings.MovementIntensity.
const MaxPhysicsIntensity = 2.0

// GestureState is one published snapshot of the gesture pipeline.
type GestureState struct {
	Gesture gesture.Type `json:"gesture"`

	// RotationDelta is the last rotate step. Zero unless Gesture is Rotate.
	RotationDelta gesture.Vec2 `json:"rotationDelta"`

	// AccumulatedRotation grows only while rotating and is cleared only by
	// ResetView.
	AccumulatedRotation gesture.Vec2 `json:"accumulatedRotation"`

	// ZoomFactor is clamped to [gesture.MinZoom, gesture.MaxZoom].
	ZoomFactor float64 `json:"zoomFactor"`

	LeftChestOffset  gesture.Vec2 `json:"leftChestOffset"`
	RightChestOffset gesture.Vec2 `json:"rightChestOffset"`

	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultGestureState returns the reset view: idle, no rotation, zoom 1.
func DefaultGestureState() GestureState {
	return GestureState{Gesture: gesture.Idle, ZoomFactor: 1}
}

// Preset selects a procedural movement layered on top of gesture control.
type Preset string

const (
	PresetNone  Preset = "none"
	PresetFlex  Preset = "flex"
	PresetTwist Preset = "twist"
	PresetSway  Preset = "sway"
)

// Presets lists the selectable presets in menu order.
var Presets = []Preset{PresetNone, PresetFlex, PresetTwist, PresetSway}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	for _, known := range Presets {
		if p == known {
			return true
		}
	}
	return false
}

// Settings are the user-controlled knobs.
type Settings struct {
	// PhysicsIntensity scales every jiggle and breathing amplitude.
	PhysicsIntensity float64 `json:"physicsIntensity"`

	// ModelID names the mounted skeleton. Empty means none.
	ModelID string `json:"modelId"`

	Preset            Preset  `json:"preset"`
	MovementIntensity float64 `json:"movementIntensity"`

	// TrackingEnabled gates the detector loop.
	TrackingEnabled bool `json:"trackingEnabled"`
}

// DefaultSettings returns the startup settings.
func DefaultSettings() Settings {
	return Settings{
		PhysicsIntensity:  1,
		Preset:            PresetNone,
		MovementIntensity: 1,
		TrackingEnabled:   true,
	}
}

// Validate checks ranges.
func (s Settings) Validate() error {
	if s.PhysicsIntensity < 0 || s.PhysicsIntensity > MaxPhysicsIntensity {
		return fmt.Errorf("%w: physicsIntensity %.2f outside [0, %.0f]", ErrInvalidSettings, s.PhysicsIntensity, MaxPhysicsIntensity)
	}
	if s.MovementIntensity < 0 || s.MovementIntensity > MaxPhysicsIntensity {
		return fmt.Errorf("%w: movementIntensity %.2f outside [0, %.0f]", ErrInvalidSettings, s.MovementIntensity, MaxPhysicsIntensity)
	}
	if !s.Preset.Valid() {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidSettings, s.Preset)
	}
	return nil
}

// Store is the shared state: a throttled gesture cell plus settings.
// It implements gesture.Publisher.
type Store struct {
	cell *Cell

	mu       sync.RWMutex
	settings Settings
	checks   []func(prev, next Settings) error
	watchers []func(Settings)
}

// NewStore creates a store with default settings and the standard publish
// interval.
func NewStore() *Store {
	return NewStoreWithInterval(MinPublishInterval)
}

// NewStoreWithInterval creates a store with a custom publish interval.
func NewStoreWithInterval(interval time.Duration) *Store {
	return &Store{
		cell:     NewCell(interval),
		settings: DefaultSettings(),
	}
}

// Gesture returns the latest published gesture snapshot.
func (s *Store) Gesture() GestureState {
	return s.cell.Load()
}

// Publish folds a verdict into the gesture state. Rotation accumulates only
// while rotating, zoom changes only while zooming, and chest offsets are
// zeroed unless the matching interact gesture is active.
func (s *Store) Publish(now time.Time, v gesture.Verdict) bool {
	_, ok := s.Commit(now, v)
	return ok
}

// Commit is Publish returning the exact snapshot that was published, so
// callers can announce it without racing other writers.
func (s *Store) Commit(now time.Time, v gesture.Verdict) (GestureState, bool) {
	return s.cell.Commit(now, func(prev GestureState) GestureState {
		return apply(prev, v)
	})
}

func apply(prev GestureState, v gesture.Verdict) GestureState {
	next := prev
	next.Gesture = v.Gesture
	next.RotationDelta = gesture.Vec2{}
	next.LeftChestOffset = gesture.Vec2{}
	next.RightChestOffset = gesture.Vec2{}

	switch v.Gesture {
	case gesture.Rotate:
		next.RotationDelta = v.RotationDelta
		next.AccumulatedRotation = prev.AccumulatedRotation.Add(v.RotationDelta)
	case gesture.ZoomIn, gesture.ZoomOut:
		next.ZoomFactor = gesture.ApplyZoom(prev.ZoomFactor, v.DistanceDelta)
	case gesture.InteractLeft:
		next.LeftChestOffset = v.LeftOffset
	case gesture.InteractRight:
		next.RightChestOffset = v.RightOffset
	}
	return next
}

// ResetView clears accumulated rotation and zoom immediately.
func (s *Store) ResetView(now time.Time) GestureState {
	return s.cell.Replace(now, func(prev GestureState) GestureState {
		next := DefaultGestureState()
		next.Gesture = prev.Gesture
		return next
	})
}

// Settle publishes an idle gesture immediately, keeping rotation and zoom.
// Used when tracking stops so no interaction stays latched.
func (s *Store) Settle(now time.Time) GestureState {
	return s.cell.Replace(now, func(prev GestureState) GestureState {
		return apply(prev, gesture.Verdict{Gesture: gesture.Idle})
	})
}

// Stats reports the publish cell counters.
func (s *Store) Stats() (published, dropped uint64) {
	return s.cell.Stats()
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies fn to a copy of the settings, validates the result
// and stores it. Watchers run after the lock is released.
func (s *Store) UpdateSettings(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	next := s.settings
	fn(&next)
	if err := s.check(next); err != nil {
		cur := s.settings
		s.mu.Unlock()
		return cur, err
	}
	s.settings = next
	watchers := append([]func(Settings){}, s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w(next)
	}
	return next, nil
}

// check runs Validate and the registered checks. Callers hold s.mu.
func (s *Store) check(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	for _, c := range s.checks {
		if err := c(s.settings, next); err != nil {
			return err
		}
	}
	return nil
}

// Check registers fn to vet every settings update under the store lock,
// alongside Validate. A non-nil error rejects the update unchanged.
func (s *Store) Check(fn func(prev, next Settings) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, fn)
}

// Watch registers fn to be called after every successful settings update.
func (s *Store) Watch(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}
