package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DefaultNaNValues are the cell tokens treated as missing when no list is configured.
// A literal "NaN" cell is always missing, whatever list is configured: the
// dataframe backend reserves that token for missing elements.
var DefaultNaNValues = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan",
	"null", "NULL", "None", "#N/A", "#NA", "<NA>",
}

// Options controls how raw uploads are turned into a Dataset.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the header line.
	Delimiter rune
	// IndexColumn treats the first column as row labels instead of data.
	IndexColumn bool
	// NaNValues lists cell tokens read as missing. Nil means DefaultNaNValues.
	NaNValues []string
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Dataset is an immutable in-memory table backed by a gota DataFrame.
type Dataset struct {
	name      string
	df        dataframe.DataFrame
	indexName string
	index     []string
	columns   Classification
}

// LoadFile reads a CSV/TSV/XLSX file from disk.
func LoadFile(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f, filepath.Base(path), opt)
}

// Load parses an upload. The name selects the format (".xlsx" is a workbook,
// anything else delimited text) and is kept for reports.
func Load(r io.Reader, name string, opt Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var records [][]string
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		records, err = readXLSX(data, opt.SheetName, opt.SheetIndex)
	} else {
		records, err = readDelimited(data, name, opt.Delimiter)
	}
	if err != nil {
		return nil, err
	}
	return FromRecords(name, records, opt)
}

func readDelimited(data []byte, name string, delim rune) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if delim == 0 {
		delim = sniffDelimiter(name, data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w: %w", len(records)+1, ErrInvalidInput, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// FromRecords builds a Dataset from a header row followed by data rows.
func FromRecords(name string, records [][]string, opt Options) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("load %s: %w", name, ErrEmptyDataset)
	}
	header := uniqueHeader(records[0])
	ncol := len(header)
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		// normalize width
		row := make([]string, ncol)
		copy(row, rec)
		rows = append(rows, row)
	}

	ds := &Dataset{name: name}
	if opt.IndexColumn {
		if ncol < 2 {
			return nil, fmt.Errorf("load %s: index column leaves no data columns: %w", name, ErrEmptyDataset)
		}
		ds.indexName = header[0]
		ds.index = make([]string, len(rows))
		for i, row := range rows {
			ds.index[i] = row[0]
			rows[i] = row[1:]
		}
		header = header[1:]
	}

	nan := opt.NaNValues
	if nan == nil {
		nan = DefaultNaNValues
	}
	normalizeCells(rows, len(header), nan)
	df, err := buildFrame(header, rows, nan)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	ds.df = df
	ds.columns = classify(df)
	return ds, nil
}

func buildFrame(header []string, rows [][]string, nan []string) (dataframe.DataFrame, error) {
	if len(rows) == 0 {
		cols := make([]series.Series, len(header))
		for i, h := range header {
			cols[i] = series.New([]string{}, series.String, h)
		}
		df := dataframe.New(cols...)
		return df, df.Err
	}
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nan),
		dataframe.WithTypes(allMissingColumns(header, rows, nan)),
	)
	return df, df.Err
}

// allMissingColumns types columns without a single present value as float,
// so they count as numeric rather than failing type detection.
func allMissingColumns(header []string, rows [][]string, nan []string) map[string]series.Type {
	isNaN := make(map[string]bool, len(nan))
	for _, v := range nan {
		isNaN[v] = true
	}
	out := map[string]series.Type{}
	for j, name := range header {
		empty := true
		for _, row := range rows {
			if !isNaN[row[j]] && row[j] != "NaN" {
				empty = false
				break
			}
		}
		if empty {
			out[name] = series.Float
		}
	}
	return out
}

var boolTokens = map[string]string{
	"true": "true", "True": "true", "TRUE": "true",
	"false": "false", "False": "false", "FALSE": "false",
}

// normalizeCells rewrites cells in place before type detection. Numbers
// tolerate trailing blanks ("1 " reads as 1), and a column whose present
// values are all true/false tokens (any of the usual casings) becomes bool.
func normalizeCells(rows [][]string, ncol int, nan []string) {
	isNaN := make(map[string]bool, len(nan))
	for _, v := range nan {
		isNaN[v] = true
	}
	for j := 0; j < ncol; j++ {
		allBool, present := true, false
		for _, row := range rows {
			v := row[j]
			if t := strings.TrimRight(v, " \t"); t != v && t != "" {
				if _, err := strconv.ParseFloat(t, 64); err == nil {
					row[j], v = t, t
				}
			}
			if isNaN[v] || v == "NaN" {
				continue
			}
			present = true
			if _, ok := boolTokens[v]; !ok {
				allBool = false
			}
		}
		if !allBool || !present {
			continue
		}
		for _, row := range rows {
			if b, ok := boolTokens[row[j]]; ok {
				row[j] = b
			}
		}
	}
}

// uniqueHeader trims names, fills blanks and suffixes duplicates (".1", ".2"),
// skipping suffixes already taken by another column.
func uniqueHeader(raw []string) []string {
	out := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for _, h := range raw {
		taken[strings.TrimSpace(h)] = true
	}
	used := make(map[string]bool, len(raw))
	dups := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if used[name] {
			base := name
			for {
				dups[base]++
				name = fmt.Sprintf("%s.%d", base, dups[base])
				if !used[name] && !taken[name] {
					break
				}
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// Name returns the upload name (usually the file base name).
func (d *Dataset) Name() string { return d.name }

// Rows returns the number of data rows.
func (d *Dataset) Rows() int { return d.df.Nrow() }

// Cols returns the number of data columns (the index column excluded).
func (d *Dataset) Cols() int { return d.df.Ncol() }

// Columns returns column names in file order.
func (d *Dataset) Columns() []string { return d.df.Names() }

// Classification returns the numeric/categorical partition computed at load.
func (d *Dataset) Classification() Classification { return d.columns }

// Index returns the row labels when loaded with IndexColumn.
func (d *Dataset) Index() (name string, labels []string) {
	if d.index == nil {
		return "", nil
	}
	out := make([]string, len(d.index))
	copy(out, d.index)
	return d.indexName, out
}

// Type returns the detected storage type of a column: int, float, bool or string.
func (d *Dataset) Type(col string) (string, error) {
	s, err := d.series(col)
	if err != nil {
		return "", err
	}
	return string(s.Type()), nil
}

// Floats returns a numeric column with NaN for missing cells.
func (d *Dataset) Floats(col string) ([]float64, error) {
	if k, ok := d.columns.Kind(col); ok && k != KindNumeric {
		return nil, Invalid("floats", "column %q is %s, not numeric", col, k)
	}
	s, err := d.series(col)
	if err != nil {
		return nil, err
	}
	return s.Float(), nil
}

// Missing reports, per row, whether the cell of col is missing.
func (d *Dataset) Missing(col string) ([]bool, error) {
	s, err := d.series(col)
	if err != nil {
		return nil, err
	}
	return s.IsNaN(), nil
}

// Strings returns a column rendered as text; missing cells read "NaN".
func (d *Dataset) Strings(col string) ([]string, error) {
	s, err := d.series(col)
	if err != nil {
		return nil, err
	}
	return s.Records(), nil
}

// Head returns up to n rows as text, in column order.
func (d *Dataset) Head(n int) [][]string {
	if n > d.Rows() {
		n = d.Rows()
	}
	if n <= 0 {
		return nil
	}
	cols := d.Columns()
	out := make([][]string, n)
	for i := range out {
		out[i] = make([]string, len(cols))
	}
	for j, c := range cols {
		vals := d.df.Col(c).Records()
		for i := 0; i < n; i++ {
			out[i][j] = vals[i]
		}
	}
	return out
}

func (d *Dataset) series(col string) (series.Series, error) {
	if _, ok := d.columns.Kind(col); !ok {
		return series.Series{}, &ColumnError{Name: col}
	}
	s := d.df.Col(col)
	if s.Err != nil {
		return series.Series{}, fmt.Errorf("column %q: %w", col, s.Err)
	}
	return s, nil
}
