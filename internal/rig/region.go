package rig

import (
	"github.com/ayusman/marionette/internal/gesture"
	"github.com/ayusman/marionette/internal/spring"
)

// Isolation is the fraction of idle motion the passive side of a region
// keeps while the other side is being interacted with.
type Isolation float64

const (
	// IsolationStrict fully suppresses the passive side.
	IsolationStrict Isolation = 0
	// IsolationDamped lets the passive side keep 30% of its idle motion.
	IsolationDamped Isolation = 0.3
)

// Crosstalk is the default isolation policy.
const Crosstalk = IsolationStrict

// Side is an anatomical side of the character.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) opposite() Side { return 1 - s }

// View is which way the character faces relative to the camera.
type View int

const (
	ViewFront View = iota
	ViewBack
)

func (v View) String() string {
	if v == ViewBack {
		return "back"
	}
	return "front"
}

// MarshalText encodes the view as "front" or "back".
func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// RegionSpec configures one jiggle region.
type RegionSpec struct {
	Name string

	// View is the facing in which the region responds to interaction.
	View View

	// Mirror maps the viewer's left hand to the character's right side,
	// for regions seen from behind.
	Mirror bool

	Gain       float64
	DirectGain float64
	Isolation  Isolation

	// IdleRate and IdleAmplitude describe the slow sway a side follows when
	// it is not being driven.
	IdleRate      float64
	IdleAmplitude float64

	Stiffness float64
	Damping   float64

	// FallbackGain scales the summed contribution applied to the fallback
	// joint when neither side joint exists.
	FallbackGain float64
}

// Region is a pair of springs bound to a left/right joint pair, with a
// whole-region fallback joint and optional counter-rotated joints.
type Region struct {
	spec     RegionSpec
	joints   [2]Joint
	fallback Joint
	counter  []Joint
	springs  [2]*spring.Solver
}

// NewRegion binds a region. Any joint may be nil.
func NewRegion(spec RegionSpec, left, right, fallback Joint, counter ...Joint) *Region {
	r := &Region{
		spec:     spec,
		joints:   [2]Joint{left, right},
		fallback: fallback,
	}
	for _, c := range counter {
		if c != nil {
			r.counter = append(r.counter, c)
		}
	}
	for i := range r.springs {
		r.springs[i] = spring.New(0, spring.WithStiffness(spec.Stiffness), spring.WithDamping(spec.Damping))
	}
	return r
}

// Name returns the region name.
func (r *Region) Name() string { return r.spec.Name }

// Bound reports whether any joint can receive the region's output.
func (r *Region) Bound() bool {
	return r.joints[SideLeft] != nil || r.joints[SideRight] != nil || r.fallback != nil
}

// Value returns the spring output for an anatomical side.
func (r *Region) Value(s Side) float64 {
	return r.springs[s].Value()
}

// Reset settles both springs at zero.
func (r *Region) Reset() {
	for _, s := range r.springs {
		s.Reset(0)
	}
}

type regionInput struct {
	view      View
	gesture   gesture.Type
	left      gesture.Vec2
	right     gesture.Vec2
	intensity float64
	t, dt     float64
}

// driven returns the anatomical side and offset being interacted with.
func (r *Region) driven(in regionInput) (Side, gesture.Vec2, bool) {
	if in.view != r.spec.View {
		return 0, gesture.Vec2{}, false
	}
	var side Side
	var offset gesture.Vec2
	switch in.gesture {
	case gesture.InteractLeft:
		side, offset = SideLeft, in.left
	case gesture.InteractRight:
		side, offset = SideRight, in.right
	default:
		return 0, gesture.Vec2{}, false
	}
	if r.spec.Mirror {
		side = side.opposite()
	}
	return side, offset, true
}

// step advances the springs and emits joint contributions through add.
func (r *Region) step(in regionInput, add func(Joint, Euler)) {
	idle := wave(in.t, r.spec.IdleRate) * r.spec.IdleAmplitude * in.intensity

	side, offset, active := r.driven(in)
	var direct [2]Euler
	if active {
		r.springs[side].SetTarget(magnitude(offset.X, offset.Y) * r.spec.Gain * in.intensity)
		r.springs[side.opposite()].SetTarget(idle * float64(r.spec.Isolation))
		direct[side] = Euler{
			X: -offset.Y * r.spec.DirectGain * in.intensity,
			Z: offset.X * r.spec.DirectGain * in.intensity,
		}
	} else {
		r.springs[SideLeft].SetTarget(idle)
		r.springs[SideRight].SetTarget(-idle)
	}

	var out [2]Euler
	for s := SideLeft; s <= SideRight; s++ {
		out[s] = Euler{X: r.springs[s].Update(in.dt)}.Add(direct[s])
	}

	if r.joints[SideLeft] != nil || r.joints[SideRight] != nil {
		add(r.joints[SideLeft], out[SideLeft])
		add(r.joints[SideRight], out[SideRight])
		return
	}

	if r.fallback == nil {
		return
	}
	gain := r.spec.FallbackGain
	sum := out[SideLeft].Add(out[SideRight])
	whole := Euler{X: sum.X * gain, Y: sum.Y * gain, Z: sum.Z * gain}
	add(r.fallback, whole)
	for _, c := range r.counter {
		add(c, Euler{X: -whole.X, Y: -whole.Y, Z: -whole.Z})
	}
}
