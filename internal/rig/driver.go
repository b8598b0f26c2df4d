package rig

import (
	"math"
	"sync"

	"github.com/ayusman/marionette/internal/gesture"
	"github.com/ayusman/marionette/internal/log"
	"github.com/ayusman/marionette/internal/spring"
	"github.com/ayusman/marionette/internal/state"
)

// Config holds the driver's tuning.
type Config struct {
	// Breathing, applied to the chest (or spine) every tick.
	BreathingRate      float64 // Hz
	BreathingAmplitude float64 // radians

	// Chest region, active in front view.
	ChestGain       float64
	ChestDirectGain float64

	// Hip region, active in back view.
	HipGain         float64
	HipDirectGain   float64
	HipFallbackGain float64

	// Crosstalk is the isolation policy for both regions.
	Crosstalk Isolation

	IdleRate      float64 // Hz
	IdleAmplitude float64 // radians

	// ArmSwayGain converts whole-body yaw velocity into upper-arm lag.
	ArmSwayGain float64
	MaxArmSway  float64

	// Whole-body orientation.
	YawPerUnit   float64 // radians per unit of accumulated rotation
	PitchPerUnit float64
	MaxPitch     float64
	Smoothing    float64 // lerp factor per tick

	// ViewHysteresis widens the ±90° front/back boundary so the view does
	// not chatter when yaw hovers near it. Zero gives a hard boundary.
	ViewHysteresis float64 // radians

	// TickRate is the nominal render rate used for preset easing.
	TickRate int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		BreathingRate:      0.25,
		BreathingAmplitude: 0.02,

		ChestGain:       8,
		ChestDirectGain: 2,

		HipGain:         6,
		HipDirectGain:   1.5,
		HipFallbackGain: 2.5,

		Crosstalk: Crosstalk,

		IdleRate:      0.4,
		IdleAmplitude: 0.01,

		ArmSwayGain: 0.08,
		MaxArmSway:  0.35,

		YawPerUnit:   2 * math.Pi,
		PitchPerUnit: math.Pi,
		MaxPitch:     0.5,
		Smoothing:    0.15,

		ViewHysteresis: 5 * math.Pi / 180,

		TickRate: 60,
	}
}

// Transform is the whole-model container transform.
type Transform struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Scale float64 `json:"scale"`
}

// Pose is a snapshot of one tick's output.
type Pose struct {
	Transform Transform        `json:"transform"`
	Joints    map[string]Euler `json:"joints"`
	Gesture   gesture.Type     `json:"gesture"`
	View      View             `json:"view"`
	Preset    state.Preset     `json:"preset"`
	Time      float64          `json:"t"`
	Seq       uint64           `json:"seq"`
}

// Driver advances springs and writes joint rotations each render tick. It
// only reads gesture state.
type Driver struct {
	store *state.Store
	cfg   Config

	mu      sync.Mutex
	skel    Skeleton
	bind    Bindings
	regions []*Region
	arms    [2]*spring.Solver
	blend   *presetBlend
	xf      Transform
	view    View
	elapsed float64
	ticks   uint64
	pose    Pose
}

// New creates a driver reading from store. Mount a skeleton before ticking
// to see joint output; the transform animates regardless.
func New(store *state.Store, cfg Config) *Driver {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	d := &Driver{
		store: store,
		cfg:   cfg,
		blend: newPresetBlend(cfg.TickRate),
		xf:    Transform{Scale: 1},
	}
	for i := range d.arms {
		d.arms[i] = spring.New(0, spring.WithStiffness(60), spring.WithDamping(6))
	}
	d.pose = d.snapshot(gesture.Idle, state.PresetNone)
	return d
}

// Mount binds a skeleton and resets all springs. A nil skeleton unmounts.
func (d *Driver) Mount(s Skeleton) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.skel = s
	d.bind = Bind(s)
	b := d.bind
	cfg := d.cfg

	d.regions = []*Region{
		NewRegion(RegionSpec{
			Name:          "chest",
			View:          ViewFront,
			Gain:          cfg.ChestGain,
			DirectGain:    cfg.ChestDirectGain,
			Isolation:     cfg.Crosstalk,
			IdleRate:      cfg.IdleRate,
			IdleAmplitude: cfg.IdleAmplitude,
			Stiffness:     180,
			Damping:       8,
			FallbackGain:  1,
		}, b.Get(RoleBreastL), b.Get(RoleBreastR), b.Get(RoleChest)),
		NewRegion(RegionSpec{
			Name:          "hips",
			View:          ViewBack,
			Mirror:        true,
			Gain:          cfg.HipGain,
			DirectGain:    cfg.HipDirectGain,
			Isolation:     cfg.Crosstalk,
			IdleRate:      cfg.IdleRate,
			IdleAmplitude: cfg.IdleAmplitude,
			Stiffness:     150,
			Damping:       10,
			FallbackGain:  cfg.HipFallbackGain,
		}, b.Get(RoleGluteL), b.Get(RoleGluteR), b.Get(RoleHips),
			b.Get(RoleChest), b.Get(RoleUpperLegL), b.Get(RoleUpperLegR)),
	}
	for _, a := range d.arms {
		a.Reset(0)
	}
	d.blend.reset()

	if s != nil {
		found := b.Found()
		names := make([]string, len(found))
		for i, r := range found {
			names[i] = r.String()
		}
		log.Info("skeleton mounted", "joints", len(s.Joints()), "roles", names)
	}
}

// Mounted reports whether a skeleton is mounted.
func (d *Driver) Mounted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skel != nil
}

// Bindings returns the current joint bindings.
func (d *Driver) Bindings() Bindings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bind
}

// Region returns the named region, or nil.
func (d *Driver) Region(name string) *Region {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.regions {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// View returns the current facing.
func (d *Driver) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Pose returns the last tick's snapshot.
func (d *Driver) Pose() Pose {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pose
}

// Tick advances the animation by dt seconds and writes joint rotations.
func (d *Driver) Tick(dt float64) Pose {
	g := d.store.Gesture()
	set := d.store.Settings()

	d.mu.Lock()
	defer d.mu.Unlock()

	if dt > 0 {
		d.elapsed += dt
	}
	d.ticks++
	intensity := set.PhysicsIntensity

	prevYaw := d.xf.Yaw
	d.updateTransform(g)
	d.updateView()

	contrib := make(map[Joint]Euler)
	add := func(j Joint, e Euler) {
		if j != nil {
			contrib[j] = contrib[j].Add(e)
		}
	}

	// Breathing.
	breath := d.bind.Get(RoleChest)
	if breath == nil {
		breath = d.bind.Get(RoleSpine)
	}
	add(breath, Euler{X: wave(d.elapsed, d.cfg.BreathingRate) * d.cfg.BreathingAmplitude * intensity})

	in := regionInput{
		view:      d.view,
		gesture:   g.Gesture,
		left:      g.LeftChestOffset,
		right:     g.RightChestOffset,
		intensity: intensity,
		t:         d.elapsed,
		dt:        dt,
	}
	for _, r := range d.regions {
		r.step(in, add)
	}

	// Arms lag behind whole-body turns.
	if dt > 0 {
		yawVel := (d.xf.Yaw - prevYaw) / dt
		sway := clamp(-yawVel*d.cfg.ArmSwayGain*intensity, -d.cfg.MaxArmSway, d.cfg.MaxArmSway)
		for _, a := range d.arms {
			a.SetTarget(sway)
		}
	}
	add(d.bind.Get(RoleUpperArmL), Euler{Y: d.arms[SideLeft].Update(dt)})
	add(d.bind.Get(RoleUpperArmR), Euler{Y: d.arms[SideRight].Update(dt)})

	d.blend.step(set.Preset)
	d.blend.apply(d.elapsed, set.MovementIntensity, func(r Role, e Euler) {
		add(d.bind.Get(r), e)
	})

	for _, j := range d.bind.driven() {
		j.SetRotation(j.Rest().Add(contrib[j]))
	}

	d.pose = d.snapshot(g.Gesture, set.Preset)
	return d.pose
}

func (d *Driver) updateTransform(g state.GestureState) {
	yaw := g.AccumulatedRotation.X * d.cfg.YawPerUnit
	pitch := clamp(g.AccumulatedRotation.Y*d.cfg.PitchPerUnit, -d.cfg.MaxPitch, d.cfg.MaxPitch)
	scale := g.ZoomFactor
	if scale <= 0 {
		scale = 1
	}

	s := d.cfg.Smoothing
	d.xf.Yaw = lerp(d.xf.Yaw, yaw, s)
	d.xf.Pitch = lerp(d.xf.Pitch, pitch, s)
	d.xf.Scale = lerp(d.xf.Scale, scale, s)
}

func (d *Driver) updateView() {
	next := classifyView(d.xf.Yaw, d.view, d.cfg.ViewHysteresis)
	if next != d.view {
		log.Debug("view changed", "view", next.String(), "yaw", d.xf.Yaw)
		d.view = next
	}
}

// classifyView returns front when the wrapped yaw is within ±90° of zero.
// With a non-zero band the current view is kept until yaw passes the
// boundary by the band.
func classifyView(yaw float64, current View, band float64) View {
	a := math.Abs(wrapAngle(yaw))
	edge := math.Pi / 2
	switch {
	case band <= 0:
		if a <= edge {
			return ViewFront
		}
		return ViewBack
	case current == ViewFront && a > edge+band:
		return ViewBack
	case current == ViewBack && a < edge-band:
		return ViewFront
	}
	return current
}

func (d *Driver) snapshot(g gesture.Type, p state.Preset) Pose {
	joints := make(map[string]Euler)
	for _, j := range d.bind.driven() {
		joints[j.Name()] = j.Rotation()
	}
	return Pose{
		Transform: d.xf,
		Joints:    joints,
		Gesture:   g,
		View:      d.view,
		Preset:    p,
		Time:      d.elapsed,
		Seq:       d.ticks,
	}
}
