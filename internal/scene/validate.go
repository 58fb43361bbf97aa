package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

// ErrUnknownPreset is returned for a field preset that does not exist.
var ErrUnknownPreset = errors.New("unknown field preset")

// ErrInvalidScene wraps every validation failure.
var ErrInvalidScene = errors.New("invalid scene")

// Validate reports every problem with the scene. Rendering never fails on
// an invalid scene, but callers that accept user configuration should
// surface these errors. The formula itself is checked with expr.Parse.
func (s *Scene) Validate() error {
	var errs []error

	if _, err := expr.Parse(s.Expr); err != nil {
		errs = append(errs, fmt.Errorf("expr: %w", err))
	}
	for _, name := range s.Params.Names() {
		if !geom.IsFinite(s.Params[name]) {
			errs = append(errs, fmt.Errorf("params.%s must be finite", name))
		}
	}
	for _, name := range sortedSliderNames(s.Sliders) {
		sl := s.Sliders[name]
		if !(sl.Min < sl.Max) {
			errs = append(errs, fmt.Errorf("sliders.%s: min must be less than max", name))
		}
		if sl.Step < 0 || !geom.IsFinite(sl.Step) {
			errs = append(errs, fmt.Errorf("sliders.%s: step must be a non-negative number", name))
		}
	}
	if err := s.Range.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("range: %w", err))
	}
	if s.Steps < surface.MinSteps || s.Steps > surface.MaxSteps {
		errs = append(errs, fmt.Errorf("steps must be in [%d, %d], got %d", surface.MinSteps, surface.MaxSteps, s.Steps))
	}
	if s.Field.Steps < 2 || s.Field.Steps > field.MaxSteps {
		errs = append(errs, fmt.Errorf("field.steps must be in [2, %d], got %d", field.MaxSteps, s.Field.Steps))
	}
	if s.Field.Source() == "preset" {
		if _, ok := field.Lookup(s.Field.Preset); !ok {
			errs = append(errs, fmt.Errorf("field.preset %q: %w", s.Field.Preset, ErrUnknownPreset))
		}
	}
	if s.Field.Source() == "formula" {
		for key, src := range map[string]string{"u": s.Field.U, "v": s.Field.V} {
			if _, err := expr.Parse(src); err != nil {
				errs = append(errs, fmt.Errorf("field.%s: %w", key, err))
			}
		}
	}
	if !geom.IsFinite(s.Tangent.X) || !geom.IsFinite(s.Tangent.Y) {
		errs = append(errs, errors.New("tangent point must be finite"))
	}
	if !(s.Tangent.Size > 0) || !geom.IsFinite(s.Tangent.Size) {
		errs = append(errs, errors.New("tangent.size must be positive"))
	}
	for key, c := range map[string]string{"plane_color": s.Tangent.PlaneColor, "arrow_color": s.Tangent.ArrowColor} {
		if _, err := geom.ParseHex(c); err != nil {
			errs = append(errs, fmt.Errorf("tangent.%s: %w", key, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidScene, errors.Join(errs...))
}

// Clamp pulls values back into their allowed ranges: parameters into their
// slider bounds (snapped to the slider step), resolutions into the sampler
// limits and the range into a valid window.
func (s *Scene) Clamp() {
	for name, sl := range s.Sliders {
		v, ok := s.Params[name]
		if !ok || !(sl.Min < sl.Max) {
			continue
		}
		s.Params[name] = sl.Clamp(v)
	}
	s.Range = s.Range.Normalize()
	s.Steps = min(max(s.Steps, surface.MinSteps), surface.MaxSteps)
	s.Field.Steps = min(max(s.Field.Steps, 2), field.MaxSteps)
}

// Clamp returns v limited to [Min, Max] and snapped to the nearest Step
// from Min. NaN maps to Min.
func (sl Slider) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return sl.Min
	}
	v = min(max(v, sl.Min), sl.Max)
	if sl.Step > 0 {
		n := math.Round((v - sl.Min) / sl.Step)
		v = min(sl.Min+n*sl.Step, sl.Max)
		// Trim float noise from the step arithmetic, e.g. 0.30000000000000004.
		v = math.Round(v*1e9) / 1e9
	}
	return v
}

func sortedSliderNames(m map[string]Slider) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
