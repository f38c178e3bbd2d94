package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/edalens/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN values of vals, sorted ascending.
func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// Quantile estimates the q-quantile of sorted values by linear interpolation
// between the closest ranks (position q*(n-1)).
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// ColumnDescription is one row of the describe table.
type ColumnDescription struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Describe summarizes every numeric column. Std is the sample standard
// deviation and stays 0 below two values; an empty column reports Count 0.
func Describe(ds *dataset.Dataset) ([]ColumnDescription, error) {
	cols := ds.Classification().Numeric()
	out := make([]ColumnDescription, 0, len(cols))
	for _, c := range cols {
		vals, err := ds.Floats(c)
		if err != nil {
			return nil, err
		}
		out = append(out, describe(c, present(vals)))
	}
	return out, nil
}

func describe(name string, sorted []float64) ColumnDescription {
	d := ColumnDescription{Column: name, Count: len(sorted)}
	if len(sorted) == 0 {
		return d
	}
	d.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		d.Std = stat.StdDev(sorted, nil)
	}
	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	d.Q1 = Quantile(sorted, 0.25)
	d.Median = Quantile(sorted, 0.5)
	d.Q3 = Quantile(sorted, 0.75)
	return d
}

// Estimate names a location or variability estimate.
type Estimate string

const (
	EstimateMean   Estimate = "mean"
	EstimateMedian Estimate = "median"
	EstimateStd    Estimate = "std"
	EstimateIQR    Estimate = "iqr"
)

// AllEstimates lists every supported estimate in display order.
var AllEstimates = []Estimate{EstimateMean, EstimateMedian, EstimateStd, EstimateIQR}

// ParseEstimate validates an estimate name, ignoring case and surrounding space.
func ParseEstimate(s string) (Estimate, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, e := range AllEstimates {
		if string(e) == name {
			return e, nil
		}
	}
	return "", dataset.Invalid("estimate", "unknown estimate %q (use mean|median|std|iqr)", s)
}

// Estimates holds the requested estimates of one column; unrequested ones are nil.
type Estimates struct {
	Column string   `json:"column"`
	Mean   *float64 `json:"mean,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	IQR    *float64 `json:"iqr,omitempty"`
}

// Locate computes the selected estimates for a numeric column.
func Locate(ds *dataset.Dataset, col string, which ...Estimate) (Estimates, error) {
	if err := ds.Classification().Require("estimates", col, dataset.KindNumeric); err != nil {
		return Estimates{}, err
	}
	raw, err := ds.Floats(col)
	if err != nil {
		return Estimates{}, err
	}
	vals := present(raw)
	if len(vals) == 0 {
		return Estimates{}, dataset.Invalid("estimates", "column %q has no values", col)
	}
	out := Estimates{Column: col}
	for _, e := range which {
		var v float64
		switch e {
		case EstimateMean:
			v = stat.Mean(vals, nil)
			out.Mean = &v
		case EstimateMedian:
			v = Quantile(vals, 0.5)
			out.Median = &v
		case EstimateStd:
			if len(vals) > 1 {
				v = stat.StdDev(vals, nil)
			}
			out.Std = &v
		case EstimateIQR:
			v = Quantile(vals, 0.75) - Quantile(vals, 0.25)
			out.IQR = &v
		default:
			return Estimates{}, dataset.Invalid("estimates", "unknown estimate %q", e)
		}
	}
	return out, nil
}
