// Package spring provides a damped spring-mass integrator used to turn step
// targets into smooth scalar motion.
package spring

// Default spring parameters.
const (
	DefaultStiffness = 120.0
	DefaultDamping   = 10.0
	DefaultMass      = 1.0

	// MaxStep is the largest time step, in seconds, a single Update integrates.
	// Longer gaps (a backgrounded tab, a stalled render loop) are clamped to it.
	MaxStep = 0.05
)

// Solver is a one-dimensional spring-mass-damper advanced by explicit time steps.
// It is not safe for concurrent use; each animated region owns its own solvers.
type Solver struct {
	value     float64
	velocity  float64
	target    float64
	stiffness float64
	damping   float64
	mass      float64
}

// Option configures a Solver.
type Option func(*Solver)

// WithStiffness sets the spring constant k.
func WithStiffness(k float64) Option {
	return func(s *Solver) { s.stiffness = k }
}

// WithDamping sets the damping coefficient d.
func WithDamping(d float64) Option {
	return func(s *Solver) { s.damping = d }
}

// WithMass sets the mass. Non-positive values are ignored.
func WithMass(m float64) Option {
	return func(s *Solver) {
		if m > 0 {
			s.mass = m
		}
	}
}

// New creates a Solver resting at initial.
func New(initial float64, opts ...Option) *Solver {
	s := &Solver{
		value:     initial,
		target:    initial,
		stiffness: DefaultStiffness,
		damping:   DefaultDamping,
		mass:      DefaultMass,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset jumps the spring to v and stops it.
func (s *Solver) Reset(v float64) {
	s.value = v
	s.target = v
	s.velocity = 0
}

// SetTarget sets the value the spring is pulled toward.
func (s *Solver) SetTarget(t float64) {
	s.target = t
}

// Value returns the current position.
func (s *Solver) Value() float64 { return s.value }

// Velocity returns the current velocity.
func (s *Solver) Velocity() float64 { return s.velocity }

// Target returns the current target.
func (s *Solver) Target() float64 { return s.target }

// Update advances the spring by dt seconds using semi-implicit Euler and
// returns the new value.
func (s *Solver) Update(dt float64) float64 {
	if dt > MaxStep {
		dt = MaxStep
	}
	if dt <= 0 {
		return s.value
	}

	force := -s.stiffness*(s.value-s.target) - s.damping*s.velocity
	accel := force / s.mass

	s.velocity += accel * dt
	s.value += s.velocity * dt

	return s.value
}
