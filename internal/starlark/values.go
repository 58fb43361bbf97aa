package starlark

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
	"go.starlark.net/starlark"
)

// ParamsToStarlark converts formula parameters to a frozen Starlark dict.
func ParamsToStarlark(p expr.Params) *starlark.Dict {
	dict := starlark.NewDict(len(p))
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_ = dict.SetKey(starlark.String(name), starlark.Float(p[name]))
	}
	dict.Freeze()
	return dict
}

// ToFloat converts a Starlark int or float to float64.
func ToFloat(v starlark.Value) (float64, error) {
	switch val := v.(type) {
	case starlark.Float:
		return float64(val), nil
	case starlark.Int:
		return float64(val.Float()), nil
	case starlark.Bool:
		if val {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expected number, got %s", v.Type())
	}
}

// ToVec2 converts a two-element tuple or list of numbers to a vector.
func ToVec2(v starlark.Value) (geom.Vec2, error) {
	seq, ok := v.(starlark.Indexable)
	if !ok {
		return geom.Vec2{}, fmt.Errorf("field must return (u, v), got %s", v.Type())
	}
	if seq.Len() != 2 {
		return geom.Vec2{}, fmt.Errorf("field must return 2 components, got %d", seq.Len())
	}
	u, err := ToFloat(seq.Index(0))
	if err != nil {
		return geom.Vec2{}, fmt.Errorf("component u: %w", err)
	}
	w, err := ToFloat(seq.Index(1))
	if err != nil {
		return geom.Vec2{}, fmt.Errorf("component v: %w", err)
	}
	return geom.V2(u, w), nil
}
