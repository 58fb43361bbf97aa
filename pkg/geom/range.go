package geom

import (
	"fmt"
	"math"
)

// Range is the rectangular sampling window in the domain plane.
// A valid range has XMin < XMax and YMin < YMax with finite bounds.
type Range struct {
	XMin float64 `json:"xmin" yaml:"xmin" koanf:"xmin"`
	XMax float64 `json:"xmax" yaml:"xmax" koanf:"xmax"`
	YMin float64 `json:"ymin" yaml:"ymin" koanf:"ymin"`
	YMax float64 `json:"ymax" yaml:"ymax" koanf:"ymax"`
}

// DefaultRange returns the [-2, 2]² window.
func DefaultRange() Range {
	return Range{XMin: -2, XMax: 2, YMin: -2, YMax: 2}
}

// Square returns the [-r, r]² window.
func Square(r float64) Range {
	return Range{XMin: -r, XMax: r, YMin: -r, YMax: r}
}

// Validate reports why r is not a valid range.
func (r Range) Validate() error {
	for _, v := range [...]float64{r.XMin, r.XMax, r.YMin, r.YMax} {
		if !IsFinite(v) {
			return fmt.Errorf("range bounds must be finite: %s", r)
		}
	}
	if r.XMin >= r.XMax {
		return fmt.Errorf("xmin must be less than xmax: %s", r)
	}
	if r.YMin >= r.YMax {
		return fmt.Errorf("ymin must be less than ymax: %s", r)
	}
	return nil
}

// Normalize returns a valid range derived from r. Non-finite bounds select
// DefaultRange, reversed bounds are swapped and an empty axis is widened by
// 1 on each side.
func (r Range) Normalize() Range {
	for _, v := range [...]float64{r.XMin, r.XMax, r.YMin, r.YMax} {
		if !IsFinite(v) {
			return DefaultRange()
		}
	}
	r.XMin, r.XMax = normalizeAxis(r.XMin, r.XMax)
	r.YMin, r.YMax = normalizeAxis(r.YMin, r.YMax)
	return r
}

func normalizeAxis(lo, hi float64) (float64, float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

// X returns the i-th of steps evenly spaced x samples, endpoints included.
func (r Range) X(i, steps int) float64 {
	return lerp(r.XMin, r.XMax, i, steps)
}

// Y returns the j-th of steps evenly spaced y samples, endpoints included.
func (r Range) Y(j, steps int) float64 {
	return lerp(r.YMin, r.YMax, j, steps)
}

// Width returns XMax - XMin, saturating at MaxFloat64.
func (r Range) Width() float64 { return min(r.XMax-r.XMin, math.MaxFloat64) }

// Height returns YMax - YMin, saturating at MaxFloat64.
func (r Range) Height() float64 { return min(r.YMax-r.YMin, math.MaxFloat64) }

// Contains reports whether p lies inside r, bounds included.
func (r Range) Contains(p Vec2) bool {
	return p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]x[%g, %g]", r.XMin, r.XMax, r.YMin, r.YMax)
}

func lerp(lo, hi float64, i, steps int) float64 {
	if steps < 2 {
		return lo
	}
	t := float64(i) / float64(steps-1)
	// Weighted form: hi-lo overflows for bounds near ±MaxFloat64.
	return lo*(1-t) + hi*t
}
