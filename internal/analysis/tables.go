package analysis

import (
	"github.com/KaramelBytes/edalens/internal/dataset"
)

// OverviewRow is one row of the dataset overview table.
type OverviewRow struct {
	Column       string  `json:"column"`
	Type         string  `json:"type"`
	Nulls        int     `json:"nulls"`
	NullFraction float64 `json:"null_fraction"`
	Size         int     `json:"size"`
	Uniques      int     `json:"uniques"`
}

// Overview lists type, null counts and distinct non-missing values per column.
// NullFraction is 0 for a dataset without rows.
func Overview(ds *dataset.Dataset) ([]OverviewRow, error) {
	rows := ds.Rows()
	out := make([]OverviewRow, 0, ds.Cols())
	for _, c := range ds.Columns() {
		typ, err := ds.Type(c)
		if err != nil {
			return nil, err
		}
		miss, err := ds.Missing(c)
		if err != nil {
			return nil, err
		}
		vals, err := ds.Strings(c)
		if err != nil {
			return nil, err
		}
		nulls := countTrue(miss)
		distinct := make(map[string]struct{})
		for i, v := range vals {
			if !miss[i] {
				distinct[v] = struct{}{}
			}
		}
		r := OverviewRow{Column: c, Type: typ, Nulls: nulls, Size: rows, Uniques: len(distinct)}
		if rows > 0 {
			r.NullFraction = float64(nulls) / float64(rows)
		}
		out = append(out, r)
	}
	return out, nil
}

// MissingRow is one row of the missing-value table.
type MissingRow struct {
	Column  string  `json:"column"`
	Type    string  `json:"type"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// MissingTable counts missing cells per column, as a percentage of rows.
func MissingTable(ds *dataset.Dataset) ([]MissingRow, error) {
	rows := ds.Rows()
	if rows == 0 {
		return nil, dataset.Invalid("missing table", "dataset has no rows")
	}
	out := make([]MissingRow, 0, ds.Cols())
	for _, c := range ds.Columns() {
		typ, err := ds.Type(c)
		if err != nil {
			return nil, err
		}
		miss, err := ds.Missing(c)
		if err != nil {
			return nil, err
		}
		n := countTrue(miss)
		out = append(out, MissingRow{Column: c, Type: typ, Missing: n, Percent: float64(n) / float64(rows) * 100})
	}
	return out, nil
}

// Fences are Tukey's outlier bounds for one column.
type Fences struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TukeyFences computes [Q1 - 1.5*IQR, Q3 + 1.5*IQR] over the non-missing
// values. ok is false when there are none.
func TukeyFences(vals []float64) (f Fences, ok bool) {
	sorted := present(vals)
	if len(sorted) == 0 {
		return Fences{}, false
	}
	f.Q1 = Quantile(sorted, 0.25)
	f.Q3 = Quantile(sorted, 0.75)
	f.IQR = f.Q3 - f.Q1
	f.Lower = f.Q1 - 1.5*f.IQR
	f.Upper = f.Q3 + 1.5*f.IQR
	return f, true
}

// CountOutliers counts non-missing values strictly outside the Tukey fences.
func CountOutliers(vals []float64) (below, above int, f Fences) {
	f, ok := TukeyFences(vals)
	if !ok {
		return 0, 0, f
	}
	for _, v := range vals {
		switch {
		case v < f.Lower:
			below++
		case v > f.Upper:
			above++
		}
	}
	return below, above, f
}

// OutlierRow is one row of the outlier table.
type OutlierRow struct {
	Column  string  `json:"column"`
	Type    string  `json:"type"`
	Below   int     `json:"below"`
	Above   int     `json:"above"`
	Percent float64 `json:"percent"`
	Fences  Fences  `json:"fences"`
}

// OutlierTable applies Tukey's rule to every numeric column. Percent is the
// outlier count over all rows, missing cells included.
func OutlierTable(ds *dataset.Dataset) ([]OutlierRow, error) {
	rows := ds.Rows()
	if rows == 0 {
		return nil, dataset.Invalid("outlier table", "dataset has no rows")
	}
	cols := ds.Classification().Numeric()
	out := make([]OutlierRow, 0, len(cols))
	for _, c := range cols {
		typ, err := ds.Type(c)
		if err != nil {
			return nil, err
		}
		vals, err := ds.Floats(c)
		if err != nil {
			return nil, err
		}
		below, above, f := CountOutliers(vals)
		out = append(out, OutlierRow{
			Column:  c,
			Type:    typ,
			Below:   below,
			Above:   above,
			Percent: float64(below+above) / float64(rows) * 100,
			Fences:  f,
		})
	}
	return out, nil
}

// UniqueValues returns the distinct values of a column in order of first
// appearance. Missing cells appear once, as "NaN".
func UniqueValues(ds *dataset.Dataset, col string) ([]string, error) {
	vals, err := ds.Strings(col)
	if err != nil {
		return nil, err
	}
	miss, err := ds.Missing(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(vals))
	var out []string
	for i, v := range vals {
		if miss[i] {
			v = "NaN"
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
