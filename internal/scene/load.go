package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// Load reads a scene file (YAML or JSON) layered over the defaults.
func Load(path string) (*Scene, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(DefaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load scene defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load scene file %s: %w", path, err)
	}
	return unmarshal(k)
}

// LoadBytes parses a YAML or JSON scene document layered over the defaults.
func LoadBytes(data []byte) (*Scene, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(DefaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load scene defaults: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		m, err := yaml.Parser().Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scene: %w", err)
		}
		if err := k.Load(confmap.Provider(m, ""), nil); err != nil {
			return nil, fmt.Errorf("failed to load scene: %w", err)
		}
	}
	return unmarshal(k)
}

// Unmarshal decodes the scene under path of an already populated koanf
// instance. Missing settings take their defaults.
func Unmarshal(k *koanf.Koanf, path string) (*Scene, error) {
	var s Scene
	if err := k.UnmarshalWithConf(path, &s, unmarshalConf()); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	s.ApplyDefaults()
	return &s, nil
}

func unmarshal(k *koanf.Koanf) (*Scene, error) {
	return Unmarshal(k, "")
}

func unmarshalConf() koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       DecodeHook(),
			WeaklyTypedInput: true,
		},
	}
}

// DefaultMap returns the default scene as flat koanf keys.
func DefaultMap() map[string]any {
	d := Default()
	m := map[string]any{
		"expr":                 d.Expr,
		"range.xmin":           d.Range.XMin,
		"range.xmax":           d.Range.XMax,
		"range.ymin":           d.Range.YMin,
		"range.ymax":           d.Range.YMax,
		"steps":                d.Steps,
		"field.preset":         d.Field.Preset,
		"field.normalize":      d.Field.Normalize,
		"field.steps":          d.Field.Steps,
		"tangent.enabled":      d.Tangent.Enabled,
		"tangent.x":            d.Tangent.X,
		"tangent.y":            d.Tangent.Y,
		"tangent.size":         d.Tangent.Size,
		"tangent.arrow_length": d.Tangent.ArrowLength,
		"tangent.plane_color":  d.Tangent.PlaneColor,
		"tangent.arrow_color":  d.Tangent.ArrowColor,
	}
	for name, v := range d.Params {
		m["params."+name] = v
	}
	for name, sl := range d.Sliders {
		m["sliders."+name+".min"] = sl.Min
		m["sliders."+name+".max"] = sl.Max
		m["sliders."+name+".step"] = sl.Step
	}
	return m
}

// DecodeHook returns the mapstructure hooks scene settings need: params
// and ranges may be written in their compact string forms.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		ParamsHook(),
		RangeHook(),
	)
}

// ParamsHook decodes "a=1,b=2" or ["a=1", "b=2"] into expr.Params.
func ParamsHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(expr.Params{})
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return ParseParams(strings.Split(v, ","))
		case []string:
			return ParseParams(v)
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("params: expected name=value, got %v", item)
				}
				items = append(items, s)
			}
			return ParseParams(items)
		}
		return data, nil
	}
}

// ParseParams parses name=value assignments. Empty items are skipped.
func ParseParams(items []string) (expr.Params, error) {
	p := expr.Params{}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("params: expected name=value, got %q", item)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("params: %s: %w", name, err)
		}
		p[name] = f
	}
	return p, nil
}

// RangeHook decodes "xmin,xmax,ymin,ymax" into geom.Range.
func RangeHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(geom.Range{})
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.String {
			return data, nil
		}
		return ParseRange(data.(string))
	}
}

// ParseRange parses "xmin,xmax,ymin,ymax". A single number r means the
// square [-r, r]x[-r, r].
func ParseRange(s string) (geom.Range, error) {
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geom.Range{}, fmt.Errorf("range: %w", err)
		}
		vals = append(vals, f)
	}
	switch len(vals) {
	case 1:
		return geom.Square(vals[0]), nil
	case 4:
		return geom.Range{XMin: vals[0], XMax: vals[1], YMin: vals[2], YMax: vals[3]}, nil
	default:
		return geom.Range{}, fmt.Errorf("range: expected 1 or 4 numbers, got %d", len(vals))
	}
}

// YAML encodes the scene as a YAML document that Load reads back.
func (s *Scene) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
