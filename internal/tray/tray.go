// Package tray provides the system tray controls for Marionette.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// IntensitySteps are the physics intensities the tray cycles through.
var IntensitySteps = []float64{0, 0.5, 1, 1.5, 2}

// nextIntensity returns the step after current, wrapping to the first.
func nextIntensity(current float64) float64 {
	for i, s := range IntensitySteps {
		if current < s+1e-9 {
			if current > s-1e-9 {
				return IntensitySteps[(i+1)%len(IntensitySteps)]
			}
			return s
		}
	}
	return IntensitySteps[0]
}

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onResetView func()
	onIntensity func(intensity float64)
	onViewer    func()
	onQuit      func()

	enabled   bool
	intensity float64
	gesture   string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuGesture   *systray.MenuItem
	menuIntensity *systray.MenuItem
}

// New creates a Tray reflecting the given tracking state and intensity.
func New(enabled bool, intensity float64) *Tray {
	return &Tray{
		enabled:   enabled,
		intensity: intensity,
		gesture:   "IDLE",
	}
}

// OnToggle sets the callback for the tracking toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnResetView sets the callback for the reset view item.
func (t *Tray) OnResetView(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onResetView = fn
}

// OnIntensity sets the callback for the intensity item. It receives the
// new intensity.
func (t *Tray) OnIntensity(fn func(intensity float64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onIntensity = fn
}

// OnOpenViewer sets the callback for the open viewer item.
func (t *Tray) OnOpenViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func intensityTitle(v float64) string {
	return fmt.Sprintf("Physics: %.1fx", v)
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Marionette")
	systray.SetTooltip("Marionette hand-gesture rig control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()

	t.menuGesture = systray.AddMenuItem("Gesture: "+t.gesture, "Current gesture")
	t.menuGesture.Disable()
	systray.AddSeparator()

	t.menuIntensity = systray.AddMenuItem(intensityTitle(t.intensity), "Cycle physics intensity")
	t.mu.Unlock()

	menuReset := systray.AddMenuItem("Reset View", "Clear rotation and zoom")
	menuViewer := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Marionette")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuIntensity.ClickedCh:
				t.handleIntensity()
			case <-menuReset.ClickedCh:
				t.handleResetView()
			case <-menuViewer.ClickedCh:
				t.handleViewer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips tracking and updates the menu.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleIntensity advances to the next intensity step.
func (t *Tray) handleIntensity() {
	t.mu.Lock()
	t.intensity = nextIntensity(t.intensity)
	v := t.intensity
	if t.menuIntensity != nil {
		t.menuIntensity.SetTitle(intensityTitle(v))
	}
	callback := t.onIntensity
	t.mu.Unlock()

	if callback != nil {
		callback(v)
	}
}

func (t *Tray) handleResetView() {
	t.mu.RLock()
	callback := t.onResetView
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleViewer() {
	t.mu.RLock()
	callback := t.onViewer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetGesture updates the live gesture display in the menu.
func (t *Tray) SetGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name == "" {
		name = "IDLE"
	}
	t.gesture = name
	if t.menuGesture != nil {
		t.menuGesture.SetTitle("Gesture: " + name)
	}
}

// SetSettings reflects tracking and intensity changed elsewhere, e.g. over
// the HTTP API, so the next click starts from the live values.
func (t *Tray) SetSettings(enabled bool, intensity float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	t.intensity = intensity
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	if t.menuIntensity != nil {
		t.menuIntensity.SetTitle(intensityTitle(intensity))
	}
}

// Gesture returns the gesture shown in the menu.
func (t *Tray) Gesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gesture
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Intensity returns the current intensity step.
func (t *Tray) Intensity() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.intensity
}
