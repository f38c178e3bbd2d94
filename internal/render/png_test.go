package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/KaramelBytes/edalens/internal/chart"
	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func load(t *testing.T, body string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(body), "r.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return ds
}

const sample = "x,y,group\n1,2,a\n2,3,b\n3,5,a\n4,,c\n10,7,b\n"

func TestPNGRenders(t *testing.T) {
	ds := load(t, sample)
	cases := []chart.Request{
		{Kind: chart.KindHistogram, Numeric: "x"},
		{Kind: chart.KindBars, Numeric: "y", Categorical: "group"},
		{Kind: chart.KindScatter, X: "x", Y: "y", Color: "group"},
	}
	for _, req := range cases {
		t.Run(string(req.Kind), func(t *testing.T) {
			spec, err := chart.Build(ds, req)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, PNG(&buf, req.Kind, spec))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
		})
	}
}

func TestPNGConstantColumn(t *testing.T) {
	ds := load(t, "x,y\n5,5\n5,5\n5,5\n")
	spec, err := chart.Histogram(ds, "x")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, chart.KindHistogram, spec))

	spec, err = chart.Scatter(ds, "x", "y", "y")
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, PNG(&buf, chart.KindScatter, spec))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPNGUnsupported(t *testing.T) {
	ds := load(t, sample)
	box, err := chart.Boxplot(ds, "x", "group")
	require.NoError(t, err)
	assert.ErrorIs(t, PNG(&bytes.Buffer{}, chart.KindBoxplot, box), chart.ErrUnsupportedChart)

	heat, err := chart.CorrelationHeatmap(ds)
	require.NoError(t, err)
	assert.ErrorIs(t, PNG(&bytes.Buffer{}, chart.KindHeatmap, heat), chart.ErrUnsupportedChart)
}

func TestPNGNothingToPlot(t *testing.T) {
	ds := load(t, "x,g\n,a\n,b\n")
	spec, err := chart.Histogram(ds, "x")
	require.NoError(t, err)
	assert.ErrorIs(t, PNG(&bytes.Buffer{}, chart.KindHistogram, spec), dataset.ErrInvalidInput)
}

func TestBin(t *testing.T) {
	counts, edges := Bin([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10)
	require.Len(t, counts, 10)
	require.Len(t, edges, 11)
	assert.Equal(t, 2, counts[9], "max falls in the last bin")
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 11, total)
	assert.Equal(t, 10.0, edges[10])

	counts, edges = Bin([]float64{3, 3}, 10)
	assert.Equal(t, []int{2}, counts)
	assert.Equal(t, []float64{3, 3}, edges)
}
