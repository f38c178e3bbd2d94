package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/edalens/internal/analysis"
	"github.com/KaramelBytes/edalens/internal/dataset"
)

// Kind names a chart builder.
type Kind string

const (
	KindHistogram Kind = "histogram"
	KindBars      Kind = "bars"
	KindBoxplot   Kind = "boxplot"
	KindScatter   Kind = "scatter"
	KindHeatmap   Kind = "heatmap"
)

// Kinds lists every builder in menu order.
var Kinds = []Kind{KindHistogram, KindBars, KindBoxplot, KindScatter, KindHeatmap}

// ErrUnsupportedChart is returned for a chart kind that cannot be built or rendered.
var ErrUnsupportedChart = errors.New("unsupported chart")

// ParseKind resolves a chart name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedChart, s)
}

// Request carries the columns a chart is built from. Which fields are read
// depends on Kind: histograms use Numeric, bars and boxplots use Numeric and
// Categorical, scatters use X, Y and Color, heatmaps use none.
type Request struct {
	Kind        Kind   `json:"kind"`
	Numeric     string `json:"numeric,omitempty"`
	Categorical string `json:"categorical,omitempty"`
	X           string `json:"x,omitempty"`
	Y           string `json:"y,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Build dispatches a Request to its builder.
func Build(ds *dataset.Dataset, req Request) (*Spec, error) {
	switch req.Kind {
	case KindHistogram:
		return Histogram(ds, req.Numeric)
	case KindBars:
		return StackedBars(ds, req.Numeric, req.Categorical)
	case KindBoxplot:
		return Boxplot(ds, req.Numeric, req.Categorical)
	case KindScatter:
		return Scatter(ds, req.X, req.Y, req.Color)
	case KindHeatmap:
		return CorrelationHeatmap(ds)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedChart, req.Kind)
}

// Histogram bins a numeric column and counts rows per bin.
func Histogram(ds *dataset.Dataset, col string) (*Spec, error) {
	cls := ds.Classification()
	if err := cls.Require("histogram", col, dataset.KindNumeric); err != nil {
		return nil, err
	}
	data, err := inline(ds, col)
	if err != nil {
		return nil, err
	}
	return &Spec{
		Schema: SchemaURL,
		Title:  "Distribution of " + col,
		Width:  600,
		Data:   data,
		Mark:   &Mark{Type: "bar"},
		Encoding: &Encoding{
			X: &Channel{Field: col, Type: Quantitative, Bin: true},
			Y: countChannel(),
			Tooltip: []Channel{
				{Field: col, Type: Quantitative},
				*countChannel(),
			},
		},
		Params: interactive(),
	}, nil
}

// StackedBars stacks a numeric measure along x for each category on y.
func StackedBars(ds *dataset.Dataset, num, cat string) (*Spec, error) {
	if err := requirePair(ds, "bars", num, cat); err != nil {
		return nil, err
	}
	data, err := inline(ds, num, cat)
	if err != nil {
		return nil, err
	}
	return &Spec{
		Schema: SchemaURL,
		Title:  fmt.Sprintf("%s by %s", num, cat),
		Width:  600,
		Data:   data,
		Mark:   &Mark{Type: "bar"},
		Encoding: &Encoding{
			X: &Channel{Field: num, Type: Quantitative, Stack: "zero"},
			Y: &Channel{Field: cat, Type: Nominal},
			Tooltip: []Channel{
				{Field: cat, Type: Nominal},
				{Field: num, Type: Quantitative},
			},
		},
		Params: interactive(),
	}, nil
}

// Boxplot draws the distribution of a numeric column per category.
func Boxplot(ds *dataset.Dataset, num, cat string) (*Spec, error) {
	if err := requirePair(ds, "boxplot", num, cat); err != nil {
		return nil, err
	}
	data, err := inline(ds, num, cat)
	if err != nil {
		return nil, err
	}
	return &Spec{
		Schema: SchemaURL,
		Title:  fmt.Sprintf("%s by %s", num, cat),
		Width:  600,
		Data:   data,
		Mark:   &Mark{Type: "boxplot"},
		Encoding: &Encoding{
			X: &Channel{Field: num, Type: Quantitative},
			Y: &Channel{Field: cat, Type: Nominal},
		},
	}, nil
}

// Scatter plots two numeric columns, colored by any third column.
func Scatter(ds *dataset.Dataset, x, y, color string) (*Spec, error) {
	cls := ds.Classification()
	if err := cls.Require("scatter", x, dataset.KindNumeric); err != nil {
		return nil, err
	}
	if err := cls.Require("scatter", y, dataset.KindNumeric); err != nil {
		return nil, err
	}
	colorKind, ok := cls.Kind(color)
	if !ok {
		return nil, &dataset.ColumnError{Name: color}
	}
	colorType := Nominal
	if colorKind == dataset.KindNumeric {
		colorType = Quantitative
	}
	data, err := inline(ds, x, y, color)
	if err != nil {
		return nil, err
	}
	return &Spec{
		Schema: SchemaURL,
		Title:  fmt.Sprintf("%s vs %s", y, x),
		Width:  800,
		Height: 400,
		Data:   data,
		Mark:   &Mark{Type: "circle"},
		Encoding: &Encoding{
			X:     &Channel{Field: x, Type: Quantitative},
			Y:     &Channel{Field: y, Type: Quantitative},
			Color: &Channel{Field: color, Type: colorType},
			Tooltip: []Channel{
				{Field: x, Type: Quantitative},
				{Field: y, Type: Quantitative},
			},
		},
		Params: interactive(),
	}, nil
}

// Cell is one entry of the long-form correlation table behind the heatmap.
type Cell struct {
	Variable    string
	Variable2   string
	Correlation float64
	Label       string
}

// HeatmapCells flattens a correlation matrix row by row, skipping undefined
// pairs. Labels carry two decimals.
func HeatmapCells(m *analysis.CorrMatrix) []Cell {
	cells := make([]Cell, 0, len(m.Columns)*len(m.Columns))
	for i, a := range m.Columns {
		for j, b := range m.Columns {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			cells = append(cells, Cell{Variable: a, Variable2: b, Correlation: r, Label: fmt.Sprintf("%.2f", r)})
		}
	}
	return cells
}

// CorrelationHeatmap layers colored rectangles and their two-decimal labels
// for the Pearson correlation of every pair of numeric columns.
func CorrelationHeatmap(ds *dataset.Dataset) (*Spec, error) {
	m, err := analysis.Correlation(ds)
	if err != nil {
		return nil, err
	}
	cells := HeatmapCells(m)
	values := make([]map[string]any, len(cells))
	for i, c := range cells {
		values[i] = map[string]any{
			"variable":          c.Variable,
			"variable2":         c.Variable2,
			"correlation":       c.Correlation,
			"correlation_label": c.Label,
		}
	}
	axes := func() *Encoding {
		return &Encoding{
			X: &Channel{Field: "variable2", Type: Ordinal},
			Y: &Channel{Field: "variable", Type: Ordinal},
		}
	}
	rect := Spec{Mark: &Mark{Type: "rect"}, Encoding: axes()}
	rect.Encoding.Color = &Channel{Field: "correlation", Type: Quantitative}
	text := Spec{Mark: &Mark{Type: "text"}, Encoding: axes()}
	text.Encoding.Text = &Channel{Field: "correlation_label", Type: Nominal}
	text.Encoding.Color = &Channel{
		Condition: &Condition{Test: "datum.correlation > 0.5", Value: "white"},
		Value:     "black",
	}
	return &Spec{
		Schema: SchemaURL,
		Title:  "Correlation",
		Width:  800,
		Height: 800,
		Data:   &Data{Values: values},
		Layer:  []Spec{rect, text},
	}, nil
}

func requirePair(ds *dataset.Dataset, op, num, cat string) error {
	cls := ds.Classification()
	if err := cls.Require(op, num, dataset.KindNumeric); err != nil {
		return err
	}
	return cls.Require(op, cat, dataset.KindCategorical)
}

// inline copies the named columns into row records. Missing cells become nil
// so they encode as null.
func inline(ds *dataset.Dataset, cols ...string) (*Data, error) {
	seen := make(map[string]bool, len(cols))
	rows := make([]map[string]any, ds.Rows())
	for i := range rows {
		rows[i] = make(map[string]any, len(cols))
	}
	for _, c := range cols {
		if seen[c] {
			continue
		}
		seen[c] = true
		kind, ok := ds.Classification().Kind(c)
		if !ok {
			return nil, &dataset.ColumnError{Name: c}
		}
		if kind == dataset.KindNumeric {
			vals, err := ds.Floats(c)
			if err != nil {
				return nil, err
			}
			for i, v := range vals {
				if math.IsNaN(v) {
					rows[i][c] = nil
				} else {
					rows[i][c] = v
				}
			}
			continue
		}
		strs, err := ds.Strings(c)
		if err != nil {
			return nil, err
		}
		miss, err := ds.Missing(c)
		if err != nil {
			return nil, err
		}
		for i, s := range strs {
			if miss[i] {
				rows[i][c] = nil
			} else {
				rows[i][c] = s
			}
		}
	}
	return &Data{Values: rows}, nil
}
