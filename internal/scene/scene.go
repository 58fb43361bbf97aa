// Package scene describes everything a PlotLogic view shows as one plain
// configuration value: the formula and its parameters, the sampling window,
// the vector field and the tangent plane. A Scene renders to immutable
// geometry with Render.
package scene

import (
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

// Default values.
const (
	DefaultExpr         = "a*x^2 - b*y^2"
	DefaultSurfaceSteps = surface.DefaultSteps
	DefaultFieldSteps   = field.DefaultSteps
	DefaultPreset       = field.PresetRotation
	DefaultTangentX     = 0.5
	DefaultTangentY     = 0.5
	DefaultArrowLength  = 0.8
	DefaultPlaneColor   = "#ffd27f"
	DefaultArrowColor   = "#ff3b30"
)

// Slider bounds a parameter the way an interactive control would.
type Slider struct {
	Min  float64 `json:"min" yaml:"min" koanf:"min"`
	Max  float64 `json:"max" yaml:"max" koanf:"max"`
	Step float64 `json:"step" yaml:"step" koanf:"step"`
}

// DefaultSlider returns the [-3, 3] slider with step 0.1.
func DefaultSlider() Slider {
	return Slider{Min: -3, Max: 3, Step: 0.1}
}

// FieldConfig selects and samples the vector field. Script takes precedence
// over U/V formulas, which take precedence over Preset.
type FieldConfig struct {
	Preset    string `json:"preset" yaml:"preset" koanf:"preset"`
	Normalize bool   `json:"normalize" yaml:"normalize" koanf:"normalize"`
	Steps     int    `json:"steps" yaml:"steps" koanf:"steps"`
	U         string `json:"u,omitempty" yaml:"u,omitempty" koanf:"u"`
	V         string `json:"v,omitempty" yaml:"v,omitempty" koanf:"v"`
	Script    string `json:"script,omitempty" yaml:"script,omitempty" koanf:"script"`
}

// Source describes which kind of field the config selects.
func (f FieldConfig) Source() string {
	switch {
	case f.Script != "":
		return "script"
	case f.U != "" || f.V != "":
		return "formula"
	default:
		return "preset"
	}
}

// TangentConfig places the tangent plane.
type TangentConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled" koanf:"enabled"`
	X           float64 `json:"x" yaml:"x" koanf:"x"`
	Y           float64 `json:"y" yaml:"y" koanf:"y"`
	Size        float64 `json:"size" yaml:"size" koanf:"size"`
	ArrowLength float64 `json:"arrow_length" yaml:"arrow_length" koanf:"arrow_length"`
	PlaneColor  string  `json:"plane_color" yaml:"plane_color" koanf:"plane_color"`
	ArrowColor  string  `json:"arrow_color" yaml:"arrow_color" koanf:"arrow_color"`
}

// Point returns the tangent point.
func (t TangentConfig) Point() geom.Vec2 { return geom.V2(t.X, t.Y) }

// Scene is the complete input of one render.
type Scene struct {
	Expr    string            `json:"expr" yaml:"expr" koanf:"expr"`
	Params  expr.Params       `json:"params" yaml:"params" koanf:"params"`
	Sliders map[string]Slider `json:"sliders,omitempty" yaml:"sliders,omitempty" koanf:"sliders"`
	Range   geom.Range        `json:"range" yaml:"range" koanf:"range"`
	Steps   int               `json:"steps" yaml:"steps" koanf:"steps"`
	Field   FieldConfig       `json:"field" yaml:"field" koanf:"field"`
	Tangent TangentConfig     `json:"tangent" yaml:"tangent" koanf:"tangent"`
}

// Default returns the scene PlotLogic opens with.
func Default() *Scene {
	return &Scene{
		Expr:   DefaultExpr,
		Params: expr.Params{"a": 1, "b": 1},
		Sliders: map[string]Slider{
			"a": DefaultSlider(),
			"b": DefaultSlider(),
		},
		Range: geom.DefaultRange(),
		Steps: DefaultSurfaceSteps,
		Field: FieldConfig{
			Preset: DefaultPreset,
			Steps:  DefaultFieldSteps,
		},
		Tangent: TangentConfig{
			Enabled:     true,
			X:           DefaultTangentX,
			Y:           DefaultTangentY,
			Size:        surface.DefaultPlaneSize,
			ArrowLength: DefaultArrowLength,
			PlaneColor:  DefaultPlaneColor,
			ArrowColor:  DefaultArrowColor,
		},
	}
}

// ApplyDefaults fills zero-valued settings with their defaults.
func (s *Scene) ApplyDefaults() {
	if s == nil {
		return
	}
	if s.Params == nil {
		s.Params = expr.Params{}
	}
	if s.Range == (geom.Range{}) {
		s.Range = geom.DefaultRange()
	}
	if s.Steps == 0 {
		s.Steps = DefaultSurfaceSteps
	}
	if s.Field.Steps == 0 {
		s.Field.Steps = DefaultFieldSteps
	}
	if s.Field.Preset == "" {
		s.Field.Preset = DefaultPreset
	}
	if s.Tangent.Size == 0 {
		s.Tangent.Size = surface.DefaultPlaneSize
	}
	if s.Tangent.ArrowLength == 0 {
		s.Tangent.ArrowLength = DefaultArrowLength
	}
	if s.Tangent.PlaneColor == "" {
		s.Tangent.PlaneColor = DefaultPlaneColor
	}
	if s.Tangent.ArrowColor == "" {
		s.Tangent.ArrowColor = DefaultArrowColor
	}
}

// Clone returns a deep copy of s.
func (s *Scene) Clone() *Scene {
	c := *s
	c.Params = s.Params.Clone()
	if s.Sliders != nil {
		c.Sliders = make(map[string]Slider, len(s.Sliders))
		for k, v := range s.Sliders {
			c.Sliders[k] = v
		}
	}
	return &c
}

// Symbols returns the free parameters of the formula. A formula that does
// not parse has no symbols.
func (s *Scene) Symbols() []string {
	prog, err := expr.Parse(s.Expr)
	if err != nil {
		return []string{}
	}
	return prog.Symbols()
}

// MissingParams returns the formula symbols that have no parameter value.
func (s *Scene) MissingParams() []string {
	var missing []string
	for _, name := range s.Symbols() {
		if _, ok := s.Params[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
