package analysis

import (
	"encoding/json"
	"math"

	"github.com/KaramelBytes/edalens/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]; NaN where undefined
}

// Correlation computes pairwise Pearson correlations over rows where both
// values are present. The diagonal is always 1. Pairs with fewer than two
// shared values or zero variance are NaN.
func Correlation(ds *dataset.Dataset) (*CorrMatrix, error) {
	cols := ds.Classification().Numeric()
	if len(cols) == 0 {
		return nil, dataset.Invalid("correlation", "dataset has no numeric columns")
	}
	data := make([][]float64, len(cols))
	for i, c := range cols {
		vals, err := ds.Floats(c)
		if err != nil {
			return nil, err
		}
		data[i] = vals
	}
	n := len(cols)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		mat[a][a] = 1
		for b := a + 1; b < n; b++ {
			r := pearson(data[a], data[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: cols, Values: mat}, nil
}

func pearson(xs, ys []float64) float64 {
	var x, y []float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		x = append(x, xs[i])
		y = append(y, ys[i])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// MarshalJSON encodes undefined coefficients as null.
func (m *CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		vals[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			v := v
			vals[i][j] = &v
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, vals})
}
