package output

// EvalOutput is the result of evaluating a formula at one point.
type EvalOutput struct {
	Expr    string             `json:"expr" yaml:"expr"`
	X       float64            `json:"x" yaml:"x"`
	Y       float64            `json:"y" yaml:"y"`
	Params  map[string]float64 `json:"params" yaml:"params"`
	Value   float64            `json:"value" yaml:"value"`
	DfDx    float64            `json:"dfdx" yaml:"dfdx"`
	DfDy    float64            `json:"dfdy" yaml:"dfdy"`
	Symbols []string           `json:"symbols" yaml:"symbols"`
}

// SymbolsOutput lists the free parameters of a formula.
type SymbolsOutput struct {
	Expr    string   `json:"expr" yaml:"expr"`
	Symbols []string `json:"symbols" yaml:"symbols"`
}

// SurfaceSummary describes a built mesh without its buffers.
type SurfaceSummary struct {
	Expr      string  `json:"expr" yaml:"expr"`
	Range     string  `json:"range" yaml:"range"`
	Steps     int     `json:"steps" yaml:"steps"`
	Vertices  int     `json:"vertices" yaml:"vertices"`
	Triangles int     `json:"triangles" yaml:"triangles"`
	ZMin      float64 `json:"zmin" yaml:"zmin"`
	ZMax      float64 `json:"zmax" yaml:"zmax"`
}

// TangentOutput describes a tangent plane.
type TangentOutput struct {
	Expr     string        `json:"expr" yaml:"expr"`
	Point    [2]float64    `json:"point" yaml:"point"`
	Value    float64       `json:"value" yaml:"value"`
	DfDx     float64       `json:"dfdx" yaml:"dfdx"`
	DfDy     float64       `json:"dfdy" yaml:"dfdy"`
	Gradient [3]float64    `json:"gradient" yaml:"gradient"`
	Quad     [4][3]float64 `json:"quad" yaml:"quad"`
	Indices  []int         `json:"indices" yaml:"indices"`
	Size     float64       `json:"size" yaml:"size"`
}

// ArrowRow is one arrow of a sampled field.
type ArrowRow struct {
	X         float64    `json:"x" yaml:"x"`
	Y         float64    `json:"y" yaml:"y"`
	Direction [3]float64 `json:"direction" yaml:"direction"`
	Length    float64    `json:"length" yaml:"length"`
	Magnitude float64    `json:"magnitude" yaml:"magnitude"`
	Color     string     `json:"color" yaml:"color"`
}

// FieldOutput is a sampled vector field.
type FieldOutput struct {
	Source    string     `json:"source" yaml:"source"`
	Steps     int        `json:"steps" yaml:"steps"`
	Normalize bool       `json:"normalize" yaml:"normalize"`
	Peak      float64    `json:"peak" yaml:"peak"`
	Arrows    []ArrowRow `json:"arrows" yaml:"arrows"`
}

// SliceOutput is f(x, y0) sampled along x.
type SliceOutput struct {
	Expr   string    `json:"expr" yaml:"expr"`
	Y      float64   `json:"y" yaml:"y"`
	XMin   float64   `json:"xmin" yaml:"xmin"`
	XMax   float64   `json:"xmax" yaml:"xmax"`
	Values []float64 `json:"values" yaml:"values"`
}

// VersionOutput is the build information.
type VersionOutput struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}
