// Package chart builds declarative Vega-Lite chart specifications from a dataset.
package chart

// SchemaURL identifies the Vega-Lite grammar every Spec targets.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Field types understood by Vega-Lite encodings.
const (
	Quantitative = "quantitative"
	Nominal      = "nominal"
	Ordinal      = "ordinal"
)

// Spec is a (possibly layered) Vega-Lite view.
type Spec struct {
	Schema   string    `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Title    string    `json:"title,omitempty" yaml:"title,omitempty"`
	Width    int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int       `json:"height,omitempty" yaml:"height,omitempty"`
	Data     *Data     `json:"data,omitempty" yaml:"data,omitempty"`
	Mark     *Mark     `json:"mark,omitempty" yaml:"mark,omitempty"`
	Encoding *Encoding `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Params   []Param   `json:"params,omitempty" yaml:"params,omitempty"`
	Layer    []Spec    `json:"layer,omitempty" yaml:"layer,omitempty"`
}

// Data carries inline rows; a nil cell means missing.
type Data struct {
	Values []map[string]any `json:"values" yaml:"values"`
}

type Mark struct {
	Type string `json:"type" yaml:"type"`
}

type Encoding struct {
	X       *Channel  `json:"x,omitempty" yaml:"x,omitempty"`
	Y       *Channel  `json:"y,omitempty" yaml:"y,omitempty"`
	Color   *Channel  `json:"color,omitempty" yaml:"color,omitempty"`
	Text    *Channel  `json:"text,omitempty" yaml:"text,omitempty"`
	Tooltip []Channel `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

// Channel maps a field (or aggregate, or constant) to a visual property.
type Channel struct {
	Field     string     `json:"field,omitempty" yaml:"field,omitempty"`
	Type      string     `json:"type,omitempty" yaml:"type,omitempty"`
	Aggregate string     `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Bin       bool       `json:"bin,omitempty" yaml:"bin,omitempty"`
	Stack     string     `json:"stack,omitempty" yaml:"stack,omitempty"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Value     any        `json:"value,omitempty" yaml:"value,omitempty"`
}

// Condition picks Value when the Vega expression Test holds.
type Condition struct {
	Test  string `json:"test" yaml:"test"`
	Value any    `json:"value" yaml:"value"`
}

// Param declares a selection; bound to "scales" it makes the view pan/zoomable.
type Param struct {
	Name   string     `json:"name" yaml:"name"`
	Select *Selection `json:"select,omitempty" yaml:"select,omitempty"`
	Bind   string     `json:"bind,omitempty" yaml:"bind,omitempty"`
}

type Selection struct {
	Type      string   `json:"type" yaml:"type"`
	Encodings []string `json:"encodings,omitempty" yaml:"encodings,omitempty"`
}

func interactive() []Param {
	return []Param{{
		Name:   "grid",
		Select: &Selection{Type: "interval", Encodings: []string{"x", "y"}},
		Bind:   "scales",
	}}
}

func countChannel() *Channel {
	return &Channel{Aggregate: "count", Type: Quantitative}
}
