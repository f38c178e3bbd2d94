package chart

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/KaramelBytes/edalens/internal/analysis"
	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

const sample = "x,y,z,k,label\n" +
	"1,2,5,7,a\n" +
	"2,4,3,7,b\n" +
	"3,6,1,7,a\n" +
	"4,8,,7,b\n"

func load(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(sample), "sample.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func TestHistogram(t *testing.T) {
	ds := load(t)
	spec, err := Histogram(ds, "x")
	require.NoError(t, err)

	assert.Equal(t, SchemaURL, spec.Schema)
	assert.Equal(t, 600, spec.Width)
	assert.Equal(t, "bar", spec.Mark.Type)
	assert.True(t, spec.Encoding.X.Bin)
	assert.Equal(t, "count", spec.Encoding.Y.Aggregate)
	require.Len(t, spec.Encoding.Tooltip, 2)
	require.Len(t, spec.Params, 1)
	assert.Equal(t, "scales", spec.Params[0].Bind)

	require.Len(t, spec.Data.Values, 4)
	for _, row := range spec.Data.Values {
		assert.Len(t, row, 1, "only referenced columns are inlined")
	}
	assert.Equal(t, 3.0, spec.Data.Values[2]["x"])
}

func TestBuilderValidation(t *testing.T) {
	ds := load(t)

	_, err := Histogram(ds, "label")
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
	_, err = Histogram(ds, "missing")
	assert.ErrorIs(t, err, dataset.ErrUnknownColumn)

	_, err = StackedBars(ds, "label", "x")
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
	_, err = Boxplot(ds, "x", "y")
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
	_, err = Scatter(ds, "x", "label", "y")
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
	_, err = Scatter(ds, "x", "y", "nope")
	assert.ErrorIs(t, err, dataset.ErrUnknownColumn)

	_, err = Build(ds, Request{Kind: "pie"})
	assert.ErrorIs(t, err, ErrUnsupportedChart)
	_, err = ParseKind("violin")
	assert.ErrorIs(t, err, ErrUnsupportedChart)
	k, err := ParseKind(" Heatmap ")
	require.NoError(t, err)
	assert.Equal(t, KindHeatmap, k)
}

func TestStackedBarsAndBoxplot(t *testing.T) {
	ds := load(t)

	bars, err := Build(ds, Request{Kind: KindBars, Numeric: "y", Categorical: "label"})
	require.NoError(t, err)
	assert.Equal(t, "zero", bars.Encoding.X.Stack)
	assert.Equal(t, Channel{Field: "label", Type: Nominal}, *bars.Encoding.Y)
	assert.Equal(t, []Channel{{Field: "label", Type: Nominal}, {Field: "y", Type: Quantitative}}, bars.Encoding.Tooltip)
	assert.Equal(t, map[string]any{"y": 2.0, "label": "a"}, bars.Data.Values[0])

	box, err := Build(ds, Request{Kind: KindBoxplot, Numeric: "y", Categorical: "label"})
	require.NoError(t, err)
	assert.Equal(t, "boxplot", box.Mark.Type)
	assert.Empty(t, box.Params)
}

func TestScatter(t *testing.T) {
	ds := load(t)

	spec, err := Scatter(ds, "x", "z", "label")
	require.NoError(t, err)
	assert.Equal(t, 800, spec.Width)
	assert.Equal(t, 400, spec.Height)
	assert.Equal(t, Nominal, spec.Encoding.Color.Type)
	assert.Nil(t, spec.Data.Values[3]["z"])
	_, present := spec.Data.Values[3]["z"]
	assert.True(t, present, "missing cells stay as null")

	spec, err = Scatter(ds, "x", "y", "z")
	require.NoError(t, err)
	assert.Equal(t, Quantitative, spec.Encoding.Color.Type)

	spec, err = Scatter(ds, "x", "y", "x")
	require.NoError(t, err)
	assert.Len(t, spec.Data.Values[0], 2)
}

func TestHeatmapCells(t *testing.T) {
	m, err := analysis.Correlation(load(t))
	require.NoError(t, err)
	cells := HeatmapCells(m)

	labels := map[[2]string]string{}
	for _, c := range cells {
		labels[[2]string{c.Variable, c.Variable2}] = c.Label
	}
	for _, col := range m.Columns {
		assert.Equal(t, "1.00", labels[[2]string{col, col}], col)
	}
	assert.Equal(t, "1.00", labels[[2]string{"x", "y"}])
	assert.Equal(t, "-1.00", labels[[2]string{"z", "x"}])
	_, ok := labels[[2]string{"x", "k"}]
	assert.False(t, ok, "undefined pairs are dropped")

	want := []Cell{
		{Variable: "x", Variable2: "x", Correlation: 1, Label: "1.00"},
		{Variable: "x", Variable2: "y", Correlation: 1, Label: "1.00"},
	}
	if diff := cmp.Diff(want, cells[:2], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("leading cells mismatch (-want +got):\n%s", diff)
	}
	// 3x3 defined block for x,y,z plus the k diagonal
	assert.Len(t, cells, 10)
}

func TestCorrelationHeatmapSpec(t *testing.T) {
	spec, err := CorrelationHeatmap(load(t))
	require.NoError(t, err)

	assert.Equal(t, 800, spec.Width)
	assert.Equal(t, 800, spec.Height)
	assert.Nil(t, spec.Mark)
	require.Len(t, spec.Layer, 2)

	rect, text := spec.Layer[0], spec.Layer[1]
	assert.Equal(t, "rect", rect.Mark.Type)
	assert.Equal(t, &Channel{Field: "correlation", Type: Quantitative}, rect.Encoding.Color)
	assert.Equal(t, &Channel{Field: "variable2", Type: Ordinal}, rect.Encoding.X)
	assert.Equal(t, &Channel{Field: "variable", Type: Ordinal}, text.Encoding.Y)

	assert.Equal(t, "text", text.Mark.Type)
	assert.Equal(t, "correlation_label", text.Encoding.Text.Field)
	want := &Channel{
		Condition: &Condition{Test: "datum.correlation > 0.5", Value: "white"},
		Value:     "black",
	}
	if diff := cmp.Diff(want, text.Encoding.Color); diff != "" {
		t.Fatalf("text color mismatch (-want +got):\n%s", diff)
	}

	first := spec.Data.Values[0]
	assert.Equal(t, "x", first["variable"])
	assert.Equal(t, "1.00", first["correlation_label"])

	_, err = CorrelationHeatmap(mustLoad(t, "label\na\nb\n"))
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
}

func TestEncodeFormats(t *testing.T) {
	spec, err := Scatter(load(t), "x", "z", "label")
	require.NoError(t, err)

	var js bytes.Buffer
	require.NoError(t, Encode(&js, spec, FormatJSON))
	assert.Contains(t, js.String(), `"$schema": "https://vega.github.io/schema/vega-lite/v5.json"`)
	assert.Contains(t, js.String(), `"z": null`)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &generic))
	assert.Equal(t, "circle", generic["mark"].(map[string]any)["type"])

	var ym bytes.Buffer
	require.NoError(t, Encode(&ym, spec, FormatYAML))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	assert.Equal(t, SchemaURL, fromYAML["$schema"])
	assert.Equal(t, 400, fromYAML["height"])

	var mp bytes.Buffer
	require.NoError(t, Encode(&mp, spec, FormatMsgPack))
	var fromMP map[string]any
	require.NoError(t, msgpack.Unmarshal(mp.Bytes(), &fromMP))
	assert.Equal(t, SchemaURL, fromMP["$schema"])
	_, hasLayer := fromMP["layer"]
	assert.False(t, hasLayer, "empty fields are omitted")

	assert.ErrorIs(t, Encode(&js, spec, Format("xml")), dataset.ErrInvalidInput)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "mp": FormatMsgPack} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
	assert.Equal(t, "application/yaml", FormatYAML.ContentType())
	assert.Equal(t, ".msgpack", FormatMsgPack.Ext())
}

func mustLoad(t *testing.T, body string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(body), "x.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return ds
}
