// Package report assembles every dashboard view of a dataset into one document.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/edalens/internal/analysis"
	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/KaramelBytes/edalens/internal/quality"
	"github.com/mattn/go-runewidth"
)

// Options controls what a report includes.
type Options struct {
	HeadRows     int
	Correlations bool
	Metrics      []quality.Metric
}

// DefaultOptions returns the options used by the report command.
func DefaultOptions() Options {
	return Options{HeadRows: 5, Correlations: true}
}

// Report is a snapshot of the dataset views. Sections that cannot be computed
// for a dataset are left empty and explained in Warnings.
type Report struct {
	Name        string                       `json:"name"`
	Rows        int                          `json:"rows"`
	Columns     []string                     `json:"columns"`
	Index       string                       `json:"index,omitempty"`
	IndexLabels []string                     `json:"index_labels,omitempty"`
	Numeric     []string                     `json:"numeric"`
	Categorical []string                     `json:"categorical"`
	Describe    []analysis.ColumnDescription `json:"describe,omitempty"`
	Overview    []analysis.OverviewRow       `json:"overview,omitempty"`
	Head        [][]string                   `json:"head,omitempty"`
	Missing     []analysis.MissingRow        `json:"missing,omitempty"`
	Outliers    []analysis.OutlierRow        `json:"outliers,omitempty"`
	Corr        *analysis.CorrMatrix         `json:"correlation,omitempty"`
	Quality     quality.Summary              `json:"quality"`
	Warnings    []string                     `json:"warnings,omitempty"`
}

// Build computes the report. Per-section failures become warnings.
func Build(ds *dataset.Dataset, opt Options) *Report {
	cls := ds.Classification()
	r := &Report{
		Name:        ds.Name(),
		Rows:        ds.Rows(),
		Columns:     ds.Columns(),
		Numeric:     cls.Numeric(),
		Categorical: cls.Categorical(),
	}
	var labels []string
	r.Index, labels = ds.Index()

	var err error
	if r.Describe, err = analysis.Describe(ds); err != nil {
		r.warn("describe", err)
	}
	if r.Overview, err = analysis.Overview(ds); err != nil {
		r.warn("overview", err)
	}
	r.Head = ds.Head(opt.HeadRows)
	if r.Index != "" && len(r.Head) > 0 {
		r.IndexLabels = labels[:len(r.Head)]
	}
	if r.Missing, err = analysis.MissingTable(ds); err != nil {
		r.warn("missing values", err)
	}
	if r.Outliers, err = analysis.OutlierTable(ds); err != nil {
		r.warn("outliers", err)
	}
	if opt.Correlations && len(r.Numeric) > 0 {
		if r.Corr, err = analysis.Correlation(ds); err != nil {
			r.warn("correlations", err)
		}
	}
	r.Quality = quality.Assess(ds).Summarize(opt.Metrics...)
	for _, m := range quality.Metrics {
		if msg, ok := r.Quality.Errors[m]; ok {
			r.Warnings = append(r.Warnings, fmt.Sprintf("quality %s: %s", m, msg))
		}
	}
	return r
}

func (r *Report) warn(section string, err error) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", section, err))
}

// Markdown renders the report as plain sections suited to terminals and files.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d (numeric %d, categorical %d)\n", len(r.Columns), len(r.Numeric), len(r.Categorical)))
	if r.Index != "" {
		b.WriteString(fmt.Sprintf("Index: %s\n", r.Index))
	}

	if len(r.Describe) > 0 {
		b.WriteString("\n[DESCRIBE]\n")
		header := []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
		rows := make([][]string, len(r.Describe))
		for i, d := range r.Describe {
			rows[i] = []string{
				safeName(d.Column), fmt.Sprint(d.Count), num(d.Mean), num(d.Std),
				num(d.Min), num(d.Q1), num(d.Median), num(d.Q3), num(d.Max),
			}
		}
		table(&b, header, rows)
	}

	if len(r.Overview) > 0 {
		b.WriteString("\n[OVERVIEW]\n")
		header := []string{"column", "type", "nulls", "% nulls", "size", "uniques"}
		rows := make([][]string, len(r.Overview))
		for i, o := range r.Overview {
			rows[i] = []string{
				safeName(o.Column), o.Type, fmt.Sprint(o.Nulls), fmt.Sprintf("%.4f", o.NullFraction),
				fmt.Sprint(o.Size), fmt.Sprint(o.Uniques),
			}
		}
		table(&b, header, rows)
	}

	if len(r.Head) > 0 {
		b.WriteString("\n[HEAD]\n")
		var header []string
		if r.Index != "" {
			header = append(header, safeName(r.Index))
		}
		for _, c := range r.Columns {
			header = append(header, safeName(c))
		}
		rows := make([][]string, len(r.Head))
		for i, row := range r.Head {
			if i < len(r.IndexLabels) {
				rows[i] = append(rows[i], r.IndexLabels[i])
			}
			for _, v := range row {
				rows[i] = append(rows[i], runewidth.Truncate(v, 80, "..."))
			}
		}
		table(&b, header, rows)
	}

	if len(r.Missing) > 0 {
		b.WriteString("\n[MISSING VALUES]\n")
		for _, m := range r.Missing {
			b.WriteString(fmt.Sprintf("- %s: %s, %d missing (%.2f%%)\n", safeName(m.Column), m.Type, m.Missing, m.Percent))
		}
	}

	if len(r.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, o := range r.Outliers {
			b.WriteString(fmt.Sprintf("- %s: %d below, %d above (%.2f%%); fences [%s, %s]\n",
				safeName(o.Column), o.Below, o.Above, o.Percent, num(o.Fences.Lower), num(o.Fences.Upper)))
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range topPairs(r.Corr, 10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	b.WriteString("\n[QUALITY]\n")
	for _, res := range r.Quality.Results {
		b.WriteString(fmt.Sprintf("- %s: %.3f%% → score %g/10\n", res.Metric, res.Rounded(), res.Score))
		for _, line := range quality.Describe(res.Metric) {
			b.WriteString("  • ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if r.Quality.Overall != nil {
		b.WriteString(fmt.Sprintf("- Overall: %g/10\n", *r.Quality.Overall))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

type pair struct {
	A, B string
	R    float64
}

// topPairs lists defined off-diagonal pairs by descending |r|.
func topPairs(m *analysis.CorrMatrix, limit int) []pair {
	var pairs []pair
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, pair{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(pairs[i].R)
		aj := math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(header, " | "))
	b.WriteString(" |\n|")
	b.WriteString(strings.Repeat(" --- |", len(header)))
	b.WriteString("\n")
	for _, row := range rows {
		cells := make([]string, len(header))
		for i := range cells {
			if i < len(row) {
				cells[i] = safeVal(row[i])
			}
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}
}

func num(v float64) string { return fmt.Sprintf("%.4g", v) }

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
