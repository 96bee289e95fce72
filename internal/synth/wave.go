package synth

import "math"

// Wave returns the infection wave multiplier for a day offset: a ~30-day
// outbreak cycle layered on a ~90-day seasonal cycle around a baseline of 1.
// The result always lies in [0.2, 1.8].
func Wave(day int) float64 {
	d := float64(day)
	return 1 + 0.5*math.Sin(d/30) + 0.3*math.Sin(d/90)
}
