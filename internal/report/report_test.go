package report

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/KaramelBytes/edalens/internal/quality"
)

func load(t *testing.T, body string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(body), "sales.csv", dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ds
}

func TestMarkdownSections(t *testing.T) {
	ds := load(t, "units,price,region\n1,10,north\n2,20,south\n3,30,north\n4,,east\n100,50,south\n")
	md := Build(ds, DefaultOptions()).Markdown()

	for _, want := range []string{
		"[DATASET SUMMARY]", "File: sales.csv", "Rows: 5", "Columns: 3 (numeric 2, categorical 1)",
		"[DESCRIBE]", "[OVERVIEW]", "[HEAD]", "[MISSING VALUES]", "[OUTLIERS]",
		"[CORRELATIONS]", "- units ~ price: r=", "[QUALITY]", "- MissingValue: ", "- Outliers: ",
		"average outliers above 50%: -5 points", "- Overall: ",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in report:\n%s", want, md)
		}
	}
	if strings.Contains(md, "[NOTES]") {
		t.Fatalf("unexpected notes:\n%s", md)
	}
}

func TestHeadRowsOption(t *testing.T) {
	ds := load(t, "a\n1\n2\n3\n4\n5\n6\n7\n")
	r := Build(ds, Options{HeadRows: 2})
	if len(r.Head) != 2 {
		t.Fatalf("head rows = %d, want 2", len(r.Head))
	}
	if r.Corr != nil {
		t.Fatalf("correlations computed without being requested")
	}
	if r := Build(ds, Options{}); len(r.Head) != 0 || strings.Contains(r.Markdown(), "[HEAD]") {
		t.Fatalf("head shown with zero rows requested")
	}
}

func TestCategoricalOnlyDatasetHasNotes(t *testing.T) {
	ds := load(t, "name,city\nana,rio\nbeto,\n")
	r := Build(ds, DefaultOptions())
	if r.Quality.Overall != nil {
		t.Fatalf("overall score should be undefined without numeric columns")
	}
	if len(r.Quality.Results) != 1 || r.Quality.Results[0].Metric != quality.MissingValue {
		t.Fatalf("unexpected results: %+v", r.Quality.Results)
	}
	md := r.Markdown()
	if !strings.Contains(md, "[NOTES]") || !strings.Contains(md, "quality Outliers:") {
		t.Fatalf("expected outlier note:\n%s", md)
	}
	if strings.Contains(md, "[DESCRIBE]") {
		t.Fatalf("describe shown without numeric columns")
	}
}

func TestEmptyDatasetReport(t *testing.T) {
	ds := load(t, "a,b\n")
	r := Build(ds, DefaultOptions())
	if len(r.Warnings) == 0 {
		t.Fatalf("expected warnings for an empty dataset")
	}
	if _, err := json.Marshal(r); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestJSONHandlesUndefinedCorrelation(t *testing.T) {
	ds := load(t, "x,k\n1,7\n2,7\n3,7\n")
	b, err := json.Marshal(Build(ds, DefaultOptions()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"correlation"`) {
		t.Fatalf("correlation section missing: %s", b)
	}
}

func TestSafeVal(t *testing.T) {
	if got := safeVal("a|b\nc"); got != "a/b c" {
		t.Fatalf("got %q", got)
	}
	if got := safeName("  "); got != "(unnamed)" {
		t.Fatalf("got %q", got)
	}
}

func TestHeadTruncatesByRune(t *testing.T) {
	long := strings.Repeat("é", 100)
	ds := load(t, "note,n\n"+long+",1\n")
	md := Build(ds, DefaultOptions()).Markdown()
	if !utf8.ValidString(md) {
		t.Fatalf("report is not valid UTF-8")
	}
	want := strings.Repeat("é", 77) + "..."
	if !strings.Contains(md, "| "+want+" |") {
		t.Fatalf("expected truncated cell %q in:\n%s", want, md)
	}
}

func TestHeadKeepsIndexLabels(t *testing.T) {
	opt := dataset.DefaultOptions()
	opt.IndexColumn = true
	ds, err := dataset.Load(strings.NewReader("key,x,label\nr1,1,a\nr2,2,b\nr3,3,c\n"), "idx.csv", opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r := Build(ds, Options{HeadRows: 2})
	if len(r.IndexLabels) != 2 || r.IndexLabels[1] != "r2" {
		t.Fatalf("index labels = %v", r.IndexLabels)
	}
	md := r.Markdown()
	for _, want := range []string{"| key | x | label |", "| r1 | 1 | a |", "| r2 | 2 | b |"} {
		if !strings.Contains(md, want) {
			t.Fatalf("missing %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "| r3 |") {
		t.Fatalf("head went past two rows:\n%s", md)
	}
}
