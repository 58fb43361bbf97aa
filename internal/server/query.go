package server

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
)

// queryError is a malformed query parameter.
type queryError struct {
	key string
	err error
}

func (e *queryError) Error() string { return fmt.Sprintf("query parameter %q: %v", e.key, e.err) }

func (e *queryError) Unwrap() error { return e.err }

// applyQuery overrides scene settings from URL query parameters:
//
//	expr, p (repeatable name=value), range, steps,
//	x, y, size, preset, u, v, normalize, field_steps
//
// Scripts are only taken from the config file.
func applyQuery(s *scene.Scene, q url.Values) error {
	if v := q.Get("expr"); v != "" {
		s.Expr = v
	}
	if ps := q["p"]; len(ps) > 0 {
		p, err := scene.ParseParams(ps)
		if err != nil {
			return &queryError{"p", err}
		}
		if s.Params == nil {
			s.Params = expr.Params{}
		}
		for k, v := range p {
			s.Params[k] = v
		}
	}
	if v := q.Get("range"); v != "" {
		rng, err := scene.ParseRange(v)
		if err != nil {
			return &queryError{"range", err}
		}
		s.Range = rng
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"steps", &s.Steps},
		{"field_steps", &s.Field.Steps},
	}
	for _, f := range ints {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return &queryError{f.key, err}
			}
			*f.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"x", &s.Tangent.X},
		{"y", &s.Tangent.Y},
		{"size", &s.Tangent.Size},
	}
	for _, f := range floats {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return &queryError{f.key, err}
			}
			*f.dst = n
		}
	}

	if v := q.Get("preset"); v != "" {
		s.Field.Preset = v
		s.Field.U, s.Field.V, s.Field.Script = "", "", ""
	}
	if u, v := q.Get("u"), q.Get("v"); u != "" || v != "" {
		s.Field.U, s.Field.V, s.Field.Script = u, v, ""
	}
	if v := q.Get("normalize"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &queryError{"normalize", err}
		}
		s.Field.Normalize = b
	}
	return nil
}
