package geom

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an RGB color with channels in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Height ramp constants. Hue is in turns: 0.67 is blue, 0 is red.
const (
	RampHueLow     = 0.67
	RampSaturation = 0.9
	RampLightness  = 0.5
)

// HSL creates a color from hue in turns [0, 1), saturation and lightness in [0, 1].
// Hue wraps; saturation and lightness are clamped.
func HSL(h, s, l float64) Color {
	h = math.Mod(Finite(h), 1)
	if h < 0 {
		h++
	}
	c := colorful.Hsl(h*360, clamp01(s), clamp01(l))
	return Color{R: c.R, G: c.G, B: c.B}.clamped()
}

// Ramp maps t in [0, 1] to the blue→red height ramp: t = 0 is blue, t = 1 is red.
// Values outside [0, 1] are clamped and NaN is treated as 0.
func Ramp(t float64) Color {
	t = clamp01(t)
	return HSL((1-t)*RampHueLow, RampSaturation, RampLightness)
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

// ParseHex parses a #rrggbb or #rgb color.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B}, nil
}

// MustParseHex is like ParseHex but panics on error. It is meant for constants.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IsValid reports whether every channel is finite and within [0, 1].
func (c Color) IsValid() bool {
	for _, v := range [...]float64{c.R, c.G, c.B} {
		if !IsFinite(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

func (c Color) clamped() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
