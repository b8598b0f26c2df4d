package rig

import (
	"github.com/charmbracelet/harmonica"

	"github.com/ayusman/marionette/internal/state"
)

// presetMove is a looping procedural pose. It receives elapsed seconds and
// an amplitude and adds rotations to bound roles.
type presetMove func(t, amp float64, add func(Role, Euler))

var presetMoves = map[state.Preset]presetMove{
	state.PresetFlex: func(t, amp float64, add func(Role, Euler)) {
		// Arms raise and pulse, chest puffs with them.
		pulse := 0.8 + 0.2*wave(t, 0.5)
		add(RoleUpperArmL, Euler{Z: 0.9 * pulse * amp})
		add(RoleUpperArmR, Euler{Z: -0.9 * pulse * amp})
		add(RoleChest, Euler{X: -0.08 * pulse * amp})
	},
	state.PresetTwist: func(t, amp float64, add func(Role, Euler)) {
		w := wave(t, 0.4)
		add(RoleSpine, Euler{Y: 0.35 * w * amp})
		add(RoleHips, Euler{Y: -0.15 * w * amp})
	},
	state.PresetSway: func(t, amp float64, add func(Role, Euler)) {
		w := wave(t, 0.3)
		add(RoleHips, Euler{Z: 0.12 * w * amp})
		add(RoleChest, Euler{Z: -0.06 * w * amp})
		add(RoleNeck, Euler{Z: 0.03 * w * amp})
	},
}

// presetBlend eases each preset's weight toward 1 when selected and 0
// otherwise, so switching presets cross-fades instead of popping.
type presetBlend struct {
	spring  harmonica.Spring
	weights map[state.Preset]*blendWeight
}

type blendWeight struct {
	pos, vel float64
}

func newPresetBlend(tickRate int) *presetBlend {
	b := &presetBlend{
		spring:  harmonica.NewSpring(harmonica.FPS(tickRate), 6.0, 1.0),
		weights: make(map[state.Preset]*blendWeight, len(presetMoves)),
	}
	for p := range presetMoves {
		b.weights[p] = &blendWeight{}
	}
	return b
}

// step advances every weight one tick toward the selection.
func (b *presetBlend) step(selected state.Preset) {
	for p, w := range b.weights {
		target := 0.0
		if p == selected {
			target = 1
		}
		w.pos, w.vel = b.spring.Update(w.pos, w.vel, target)
	}
}

// Weight returns the current blend weight of p.
func (b *presetBlend) Weight(p state.Preset) float64 {
	if w, ok := b.weights[p]; ok {
		return w.pos
	}
	return 0
}

func (b *presetBlend) reset() {
	for _, w := range b.weights {
		*w = blendWeight{}
	}
}

// apply adds every preset with a non-negligible weight.
func (b *presetBlend) apply(t, intensity float64, add func(Role, Euler)) {
	for p, move := range presetMoves {
		w := b.Weight(p)
		if w < 1e-4 && w > -1e-4 {
			continue
		}
		move(t, w*intensity, add)
	}
}
