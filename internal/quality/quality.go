// Package quality rates a dataset on a 0-10 scale from its missing-value and
// outlier prevalence.
package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/edalens/internal/analysis"
	"github.com/KaramelBytes/edalens/internal/dataset"
)

// BaseScore is the score of a dataset without missing values or outliers.
const BaseScore = 10.0

// Metric selects what a score penalizes.
type Metric string

const (
	MissingValue Metric = "MissingValue"
	Outliers     Metric = "Outliers"
)

// Metrics lists both metrics in display order.
var Metrics = []Metric{MissingValue, Outliers}

// ParseMetric accepts the canonical names plus the short CLI/query forms.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "missingvalue", "missing_value", "missing", "mv":
		return MissingValue, nil
	case "outliers", "outlier":
		return Outliers, nil
	}
	return "", dataset.Invalid("metric", "unknown metric %q (use missing|outliers)", s)
}

// Bracket is one rung of the deduction ladder: percentages in (Above, AtMost]
// lose Deduction points.
type Bracket struct {
	Above     float64
	AtMost    float64
	Deduction float64
}

// Ladder is checked top to bottom; only the first matching bracket applies.
var Ladder = []Bracket{
	{Above: 50, AtMost: math.Inf(1), Deduction: 5},
	{Above: 35, AtMost: 50, Deduction: 4},
	{Above: 20, AtMost: 35, Deduction: 3},
	{Above: 5, AtMost: 20, Deduction: 2},
	{Above: 0, AtMost: 5, Deduction: 1},
}

// Deduction returns the points lost for a percentage p. p == 0 loses nothing.
func Deduction(p float64) float64 {
	for _, b := range Ladder {
		if p > b.Above && p <= b.AtMost {
			return b.Deduction
		}
	}
	return 0
}

// Score applies the ladder to BaseScore.
func Score(p float64) float64 { return BaseScore - Deduction(p) }

// Describe renders the ladder as the text shown next to a metric's score.
func Describe(m Metric) []string {
	subject := "missing values"
	if m == Outliers {
		subject = "outliers"
	}
	out := make([]string, 0, len(Ladder))
	for _, b := range Ladder {
		var rng string
		if math.IsInf(b.AtMost, 1) {
			rng = fmt.Sprintf("above %g%%", b.Above)
		} else {
			rng = fmt.Sprintf("above %g%% up to %g%%", b.Above, b.AtMost)
		}
		unit := "points"
		if b.Deduction == 1 {
			unit = "point"
		}
		out = append(out, fmt.Sprintf("average %s %s: -%g %s", subject, rng, b.Deduction, unit))
	}
	return out
}

// Result is the outcome of scoring one metric.
type Result struct {
	Metric     Metric  `json:"metric"`
	Percentage float64 `json:"percentage"`
	Score      float64 `json:"score"`
}

// Rounded returns the percentage rounded to three decimals for display.
func (r Result) Rounded() float64 { return math.Round(r.Percentage*1000) / 1000 }

// MissingPercentage is the mean over columns of each column's missing-cell
// percentage. It is not the cell-level missing fraction.
func MissingPercentage(ds *dataset.Dataset) (float64, error) {
	rows, cols := ds.Rows(), ds.Cols()
	if rows == 0 {
		return 0, dataset.Invalid("missing percentage", "dataset has no rows")
	}
	if cols == 0 {
		return 0, dataset.Invalid("missing percentage", "dataset has no columns")
	}
	var sum float64
	for _, c := range ds.Columns() {
		miss, err := ds.Missing(c)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, m := range miss {
			if m {
				n++
			}
		}
		sum += float64(n) / float64(rows) * 100
	}
	return sum / float64(cols), nil
}

// OutlierPercentage is the mean over numeric columns of each column's Tukey
// outlier count as a percentage of all rows.
func OutlierPercentage(ds *dataset.Dataset) (float64, error) {
	rows := ds.Rows()
	numeric := ds.Classification().Numeric()
	if rows == 0 {
		return 0, dataset.Invalid("outlier percentage", "dataset has no rows")
	}
	if len(numeric) == 0 {
		return 0, dataset.Invalid("outlier percentage", "dataset has no numeric columns")
	}
	var sum float64
	for _, c := range numeric {
		vals, err := ds.Floats(c)
		if err != nil {
			return 0, err
		}
		below, above, _ := analysis.CountOutliers(vals)
		sum += float64(below+above) / float64(rows) * 100
	}
	return sum / float64(len(numeric)), nil
}

// Evaluate computes the percentage and score of one metric from scratch.
func Evaluate(ds *dataset.Dataset, m Metric) (Result, error) {
	var (
		p   float64
		err error
	)
	switch m {
	case MissingValue:
		p, err = MissingPercentage(ds)
	case Outliers:
		p, err = OutlierPercentage(ds)
	default:
		return Result{}, dataset.Invalid("quality", "unknown metric %q", m)
	}
	if err != nil {
		return Result{}, fmt.Errorf("score %s: %w", m, err)
	}
	return Result{Metric: m, Percentage: p, Score: Score(p)}, nil
}
