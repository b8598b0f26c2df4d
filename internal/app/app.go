// Package app wires the camera, hand detector, gesture state machine and rig
// driver into the detector and render loops.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/marionette/internal/capture"
	"github.com/ayusman/marionette/internal/detector"
	"github.com/ayusman/marionette/internal/gesture"
	"github.com/ayusman/marionette/internal/log"
	"github.com/ayusman/marionette/internal/plugin"
	"github.com/ayusman/marionette/internal/rig"
	"github.com/ayusman/marionette/internal/state"
)

// Config holds application options.
type Config struct {
	Camera   capture.Config
	Motion   capture.MotionConfig
	Detector detector.Config
	Rig      rig.Config

	// MotionGating skips hand detection while nothing moves in front of
	// the camera.
	MotionGating bool

	// ModelsDir holds extra skeleton files. Model is mounted at startup.
	ModelsDir string
	Model     string

	RenderFPS int

	// PluginDir holds gesture hooks. Empty disables them.
	PluginDir     string
	PluginTimeout time.Duration
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Camera:       capture.DefaultConfig(),
		Motion:       capture.DefaultMotionConfig(),
		Detector:     detector.DefaultConfig(),
		Rig:          rig.DefaultConfig(),
		MotionGating: true,
		Model:        "mixamo",
		RenderFPS:    60,

		PluginTimeout: 2 * time.Second,
	}
}

// App owns the pipeline.
type App struct {
	cfg     Config
	session string

	store   *state.Store
	pub     *commitPublisher
	machine *gesture.Machine
	driver  *rig.Driver
	models  *Models
	gate    *capture.Gate
	hooks   *plugin.Dispatcher

	mu        sync.RWMutex
	camera    capture.Camera
	detector  detector.Detector
	model     string
	listeners []func(gesture.Type)
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// announced is the last published gesture told to listeners and
	// hooks. Owned by the detector goroutine.
	announced gesture.Type
}

// commitPublisher hands verdicts to the store and keeps the snapshot of the
// last one the store accepted.
type commitPublisher struct {
	store *state.Store
	last  state.GestureState
}

func (p *commitPublisher) Publish(now time.Time, v gesture.Verdict) bool {
	g, ok := p.store.Commit(now, v)
	if ok {
		p.last = g
	}
	return ok
}

// New creates an App. It uses MediaPipe when the hand service is installed
// and falls back to a mock detector otherwise.
func New(cfg Config) *App {
	if cfg.RenderFPS <= 0 {
		cfg.RenderFPS = 60
	}
	cfg.Rig.TickRate = cfg.RenderFPS
	if cfg.PluginTimeout <= 0 {
		cfg.PluginTimeout = 2 * time.Second
	}

	st := state.NewStore()
	pub := &commitPublisher{store: st}
	a := &App{
		cfg:     cfg,
		session: uuid.NewString(),
		store:   st,
		pub:     pub,
		machine: gesture.NewMachine(pub),
		driver:  rig.New(st, cfg.Rig),
		models:  NewModels(cfg.ModelsDir),
		gate:    capture.NewGate(cfg.Motion),
		camera:  capture.NewCamera(cfg.Camera),
	}

	if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
		a.detector = mp
		log.Info("using mediapipe hand detection")
	} else {
		log.Warn("mediapipe not available, using mock detector", "error", err)
		a.detector = detector.NewMockDetector()
	}

	if cfg.PluginDir != "" {
		m := plugin.NewManager(cfg.PluginDir)
		if err := m.Discover(); err != nil {
			log.Warn("discover plugins", "dir", cfg.PluginDir, "error", err)
		}
		a.hooks = plugin.NewDispatcher(m, plugin.NewExecutor(cfg.PluginTimeout), 16)
		log.Info("gesture hooks loaded", "count", len(m.List()))
	}

	st.Check(a.checkModel)
	st.Watch(a.onSettings)

	if cfg.Model != "" {
		if _, err := a.UpdateSettings(func(s *state.Settings) { s.ModelID = cfg.Model }); err != nil {
			log.Warn("startup model not mounted", "model", cfg.Model, "error", err)
		}
	}
	return a
}

// Session returns the id of this run.
func (a *App) Session() string { return a.session }

// Store returns the shared state.
func (a *App) Store() *state.Store { return a.store }

// Driver returns the rig driver.
func (a *App) Driver() *rig.Driver { return a.driver }

// Models returns the model registry.
func (a *App) Models() *Models { return a.models }

// SetCamera replaces the frame source. Call before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector replaces the hand detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// OnGesture registers fn to be called from the detector loop whenever the
// published gesture changes.
func (a *App) OnGesture(fn func(gesture.Type)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// UpdateSettings validates a settings change, including that the model
// exists, and applies it.
func (a *App) UpdateSettings(fn func(*state.Settings)) (state.Settings, error) {
	return a.store.UpdateSettings(fn)
}

// checkModel rejects switching to a model the catalog does not have. It runs
// under the store lock, so the check and the write see the same settings.
func (a *App) checkModel(prev, next state.Settings) error {
	if next.ModelID == "" || next.ModelID == prev.ModelID {
		return nil
	}
	if !a.models.Has(next.ModelID) {
		return fmt.Errorf("%w: %q", ErrUnknownModel, next.ModelID)
	}
	return nil
}

// SetEnabled turns hand tracking on or off.
func (a *App) SetEnabled(enabled bool) {
	if _, err := a.store.UpdateSettings(func(s *state.Settings) { s.TrackingEnabled = enabled }); err != nil {
		log.Error("toggle tracking", "error", err)
	}
}

// IsEnabled reports whether hand tracking is on.
func (a *App) IsEnabled() bool {
	return a.store.Settings().TrackingEnabled
}

// ResetView clears accumulated rotation and zoom.
func (a *App) ResetView() state.GestureState {
	return a.store.ResetView(time.Now())
}

func (a *App) onSettings(s state.Settings) {
	a.mu.Lock()
	changed := s.ModelID != a.model
	a.model = s.ModelID
	a.mu.Unlock()

	if !changed {
		return
	}
	if s.ModelID == "" {
		a.driver.Mount(nil)
		return
	}
	bones, err := a.models.Load(s.ModelID)
	if err != nil {
		log.Error("load model", "model", s.ModelID, "error", err)
		a.driver.Mount(nil)
		return
	}
	a.driver.Mount(bones)
	log.Info("model selected", "model", s.ModelID)
}

// Start opens the camera and runs the detector and render loops until ctx
// is cancelled or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(2)
	go a.detectLoop(ctx)
	go a.renderLoop(ctx)
	if a.hooks != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.hooks.Run(ctx)
		}()
	}

	log.Info("pipeline started", "session", a.session, "fps", a.camera.FPS(), "render_fps", a.cfg.RenderFPS)
	return nil
}

// Stop halts both loops and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.wg.Wait()

	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.camera.Close(); err != nil {
		log.Error("close camera", "error", err)
	}
	a.gate.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Error("close detector", "error", err)
		}
	}
	log.Info("pipeline stopped", "session", a.session)
}
