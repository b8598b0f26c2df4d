package rig

import "math"

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lerp moves a toward b by factor t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// wrapAngle maps a to (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func wave(t, hz float64) float64 {
	return math.Sin(t * 2 * math.Pi * hz)
}

func magnitude(x, y float64) float64 {
	return math.Hypot(x, y)
}
