// Package field samples planar vector fields over a grid and describes each
// sample as an arrow glyph.
package field

import (
	"math"

	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// Sampling constants.
const (
	DefaultSteps = 15
	MaxSteps     = 512

	// ArrowLength is the length of the longest arrow, and of every arrow
	// when lengths are normalized.
	ArrowLength = 0.2

	// MinMagnitude floors the peak magnitude of a field.
	MinMagnitude = 1e-9

	zeroLengthSq = 1e-12
)

// FallbackDirection is the direction given to arrows at zero samples.
var FallbackDirection = geom.V3(1, 0, 0)

// VectorFunc is a planar vector field. Implementations must be pure and
// safe for concurrent use.
type VectorFunc func(x, y float64) geom.Vec2

// Arrow describes the glyph for one field sample.
type Arrow struct {
	Origin    geom.Vec3  `json:"origin"`
	Direction geom.Vec3  `json:"direction"`
	Length    float64    `json:"length"`
	Color     geom.Color `json:"color"`
	Magnitude float64    `json:"magnitude"`
}

// Tip returns Origin + Direction·Length.
func (a Arrow) Tip() geom.Vec3 {
	return a.Origin.Add(a.Direction.Scale(a.Length))
}

// Sample evaluates f on a steps × steps grid over rng and returns one arrow
// per grid point, ordered with y outer and x inner.
//
// Lengths are ArrowLength when normalize is set, otherwise ArrowLength scaled
// by the sample's magnitude relative to the peak magnitude in the window.
// Colors follow the same blue→red ramp as surfaces. Non-finite components
// count as 0; steps is clamped to [2, MaxSteps].
func Sample(f VectorFunc, normalize bool, rng geom.Range, steps int) []Arrow {
	steps = min(max(steps, 2), MaxSteps)
	rng = rng.Normalize()
	if f == nil {
		f = Zero
	}

	// Pass 1: evaluate, record magnitudes and track the peak.
	n := steps * steps
	vecs := make([]geom.Vec2, n)
	mags := make([]float64, n)
	maxMag := MinMagnitude
	for j := range steps {
		y := rng.Y(j, steps)
		for i := range steps {
			x := rng.X(i, steps)
			v := f(x, y)
			v = geom.V2(geom.Finite(v.X), geom.Finite(v.Y))
			k := j*steps + i
			vecs[k] = v
			mags[k] = min(v.Length(), math.MaxFloat64)
			maxMag = max(maxMag, mags[k])
		}
	}

	// Pass 2: build descriptors from the cached samples.
	arrows := make([]Arrow, 0, n)
	for j := range steps {
		y := rng.Y(j, steps)
		for i := range steps {
			x := rng.X(i, steps)
			k := j*steps + i
			arrows = append(arrows, describe(vecs[k], mags[k], maxMag, normalize, geom.V3(x, 0, y)))
		}
	}
	return arrows
}

func describe(v geom.Vec2, mag, maxMag float64, normalize bool, origin geom.Vec3) Arrow {
	dir := geom.V3(v.X, 0, v.Y)
	if dir.LengthSq() < zeroLengthSq {
		dir = FallbackDirection
	} else {
		dir = dir.Normalize()
	}

	ratio := mag / maxMag
	length := ArrowLength
	if !normalize {
		// A zero sample keeps length 0; only an undefined ratio draws full length.
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			ratio = 1
		}
		length = ArrowLength * ratio
	}

	return Arrow{
		Origin:    origin,
		Direction: dir,
		Length:    length,
		Color:     geom.Ramp(min(1, ratio)),
		Magnitude: mag,
	}
}

// PeakMagnitude returns the largest Magnitude among arrows, floored at MinMagnitude.
func PeakMagnitude(arrows []Arrow) float64 {
	peak := MinMagnitude
	for _, a := range arrows {
		peak = max(peak, a.Magnitude)
	}
	return peak
}
