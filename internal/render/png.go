// Package render draws static PNG previews of chart specs.
package render

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/KaramelBytes/edalens/internal/chart"
	"github.com/KaramelBytes/edalens/internal/dataset"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// MaxBins matches the Vega-Lite default bin count.
const MaxBins = 10

const (
	defaultWidth  = 800
	defaultHeight = 400
)

// PNG renders spec as a PNG image. Only histogram, bars and scatter specs
// have a raster form; other kinds return chart.ErrUnsupportedChart.
func PNG(w io.Writer, kind chart.Kind, spec *chart.Spec) error {
	if spec == nil || spec.Data == nil || spec.Encoding == nil {
		return dataset.Invalid("render", "%s spec has no data or encoding", kind)
	}
	switch kind {
	case chart.KindHistogram:
		return histogram(w, spec)
	case chart.KindBars:
		return bars(w, spec)
	case chart.KindScatter:
		return scatter(w, spec)
	}
	return fmt.Errorf("%w: no PNG renderer for %s", chart.ErrUnsupportedChart, kind)
}

// pointStyle draws markers only, no connecting line.
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func histogram(w io.Writer, spec *chart.Spec) error {
	field := spec.Encoding.X.Field
	vals := numbers(spec.Data.Values, field)
	if len(vals) == 0 {
		return dataset.Invalid("render", "column %q has no values to plot", field)
	}
	counts, edges := Bin(vals, MaxBins)
	bars := make([]gochart.Value, len(counts))
	top := 1.0
	for i, c := range counts {
		bars[i] = gochart.Value{
			Value: float64(c),
			Label: fmt.Sprintf("%.3g", edges[i]),
			Style: gochart.Style{FillColor: gochart.ColorBlue, StrokeColor: gochart.ColorBlue},
		}
		top = math.Max(top, float64(c))
	}
	return renderBars(w, "Distribution of "+field, "count", bars, top)
}

func bars(w io.Writer, spec *chart.Spec) error {
	num, cat := spec.Encoding.X.Field, spec.Encoding.Y.Field
	sums := map[string]float64{}
	var order []string
	for _, row := range spec.Data.Values {
		label, ok := row[cat].(string)
		if !ok {
			continue
		}
		v, ok := row[num].(float64)
		if !ok {
			continue
		}
		if _, seen := sums[label]; !seen {
			order = append(order, label)
		}
		sums[label] += v
	}
	if len(order) == 0 {
		return dataset.Invalid("render", "no complete %s/%s pairs to plot", num, cat)
	}
	sort.Strings(order)
	values := make([]gochart.Value, len(order))
	lo, hi := 0.0, 1.0
	for i, label := range order {
		values[i] = gochart.Value{
			Value: sums[label],
			Label: label,
			Style: gochart.Style{FillColor: gochart.ColorBlue, StrokeColor: gochart.ColorBlue},
		}
		lo = math.Min(lo, sums[label])
		hi = math.Max(hi, sums[label])
	}
	ch := barChart(fmt.Sprintf("%s by %s", num, cat), num, values)
	ch.YAxis.Range = &gochart.ContinuousRange{Min: lo, Max: hi}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render bars: %w", err)
	}
	return nil
}

func renderBars(w io.Writer, title, yName string, values []gochart.Value, top float64) error {
	ch := barChart(title, yName, values)
	ch.YAxis.Range = &gochart.ContinuousRange{Min: 0, Max: top}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

func barChart(title, yName string, values []gochart.Value) gochart.BarChart {
	width := (defaultWidth - 100) / len(values)
	if width > 50 {
		width = 50
	}
	spacing := width / 4
	if spacing < 1 {
		spacing = 1
	}
	return gochart.BarChart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		BarWidth:   width - spacing,
		BarSpacing: spacing,
		YAxis:      gochart.YAxis{Name: yName},
		Bars:       values,
	}
}

func scatter(w io.Writer, spec *chart.Spec) error {
	xf, yf := spec.Encoding.X.Field, spec.Encoding.Y.Field
	var xs, ys []float64
	for _, row := range spec.Data.Values {
		x, okx := row[xf].(float64)
		y, oky := row[yf].(float64)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) == 0 {
		return dataset.Invalid("render", "no complete %s/%s pairs to plot", xf, yf)
	}
	width, height := spec.Width, spec.Height
	if width == 0 {
		width = defaultWidth
	}
	if height == 0 {
		height = defaultHeight
	}
	ch := gochart.Chart{
		Title:      fmt.Sprintf("%s vs %s", yf, xf),
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: xf, Range: span(xs)},
		YAxis:      gochart.YAxis{Name: yf, Range: span(ys)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: yf, XValues: xs, YValues: ys, Style: pointStyle(gochart.ColorBlue)},
		},
	}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// span is the data range, widened when every value is equal.
func span(vals []float64) *gochart.ContinuousRange {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

// Bin splits vals into at most n equal-width bins. edges has one more entry
// than counts; the last bin is closed on the right.
func Bin(vals []float64, n int) (counts []int, edges []float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []int{len(vals)}, []float64{lo, hi}
	}
	step := (hi - lo) / float64(n)
	counts = make([]int, n)
	edges = make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + step*float64(i)
	}
	edges[n] = hi
	for _, v := range vals {
		i := int((v - lo) / step)
		if i >= n {
			i = n - 1
		}
		counts[i]++
	}
	return counts, edges
}

func numbers(rows []map[string]any, field string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[field].(float64); ok {
			out = append(out, v)
		}
	}
	return out
}
