package quality

import (
	"fmt"
	"strings"
	"testing"

	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, body string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader(body), "q.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func TestDeductionLadderBoundaries(t *testing.T) {
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 0},
		{0.0001, 1},
		{5, 1},
		{5.0001, 2},
		{20, 2},
		{20.01, 3},
		{35, 3},
		{35.5, 4},
		{50, 4},
		{50.0001, 5},
		{100, 5},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.p), func(t *testing.T) {
			assert.Equal(t, tc.want, Deduction(tc.p))
			assert.Equal(t, BaseScore-tc.want, Score(tc.p))
		})
	}
}

func TestNoMissingValuesScoresTen(t *testing.T) {
	ds := load(t, "a,b\n1,x\n2,y\n3,z\n")
	r, err := Evaluate(ds, MissingValue)
	require.NoError(t, err)
	assert.Equal(t, Result{Metric: MissingValue, Percentage: 0, Score: 10}, r)
}

func TestSixtyPercentMissing(t *testing.T) {
	var b strings.Builder
	b.WriteString("c1,c2,c3,c4,c5\n")
	for i := 0; i < 10; i++ {
		cells := make([]string, 5)
		for j := range cells {
			// rows 0..5 missing in every column
			if i >= 6 {
				cells[j] = fmt.Sprintf("v%d", i)
			}
		}
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	ds := load(t, b.String())

	r, err := Evaluate(ds, MissingValue)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, r.Percentage, 1e-9)
	assert.Equal(t, 5.0, r.Score)
}

func TestMissingPercentageIsMeanOfColumns(t *testing.T) {
	// a: 50%, b: 0%, c: 25%
	ds := load(t, "a,b,c\n,1,x\n,2,y\n3,3,z\n4,4,\n")
	p, err := MissingPercentage(ds)
	require.NoError(t, err)
	assert.InDelta(t, (50.0+0+25.0)/3, p, 1e-9)
}

func TestMissingPercentageWithinBounds(t *testing.T) {
	bodies := []string{
		"a\n1\n",
		"a,b\n,\n,\n",
		"a,b\n1,\n,x\n3,y\n",
		"a,b,c\nNA,NA,NA\n1,2,3\n",
	}
	for _, body := range bodies {
		p, err := MissingPercentage(load(t, body))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
	}
}

func TestOutlierPercentage(t *testing.T) {
	ds := load(t, "v,w,label\n1,1,a\n2,2,b\n3,3,c\n4,4,d\n5,5,e\n100,6,f\n")
	r, err := Evaluate(ds, Outliers)
	require.NoError(t, err)
	assert.InDelta(t, (100.0/6.0)/2, r.Percentage, 1e-9)
	assert.Equal(t, 8.0, r.Score)
	assert.Equal(t, 8.333, r.Rounded())
}

func TestUndefinedInputsFail(t *testing.T) {
	noRows := load(t, "a,b\n")
	_, err := MissingPercentage(noRows)
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
	_, err = OutlierPercentage(noRows)
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)

	noNumeric := load(t, "a,b\nx,y\nz,w\n")
	_, err = Evaluate(noNumeric, Outliers)
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
	_, err = Assess(noNumeric).Overall()
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)

	_, err = Evaluate(noNumeric, Metric("Bogus"))
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)
}

func TestOverallCleanDatasetIsTen(t *testing.T) {
	ds := load(t, "a,b\n1,2\n2,3\n3,4\n4,5\n")
	overall, err := Assess(ds).Overall()
	require.NoError(t, err)
	assert.Equal(t, 10.0, overall)
}

func TestAssessmentMemoizes(t *testing.T) {
	ds := load(t, "v,label\n1,a\n2,\n3,c\n4,d\n5,e\n100,f\n")
	a := Assess(ds)

	s := a.Summarize()
	require.Len(t, s.Results, 2)
	require.NotNil(t, s.Overall)
	_, err := a.Overall()
	require.NoError(t, err)
	_, err = a.Metric(MissingValue)
	require.NoError(t, err)
	assert.Equal(t, 2, a.scanCount())

	mv := s.Results[0]
	assert.InDelta(t, (0+100.0/6.0)/2, mv.Percentage, 1e-9)
	assert.Equal(t, 8.0, mv.Score)
	out := s.Results[1]
	assert.Equal(t, 8.0, out.Score)
	assert.Equal(t, 8.0, *s.Overall)
}

func TestSummarizeReportsMetricErrors(t *testing.T) {
	s := Assess(load(t, "a\nx\ny\n")).Summarize()
	require.Len(t, s.Results, 1)
	assert.Equal(t, MissingValue, s.Results[0].Metric)
	assert.Contains(t, s.Errors[Outliers], "no numeric columns")
	assert.Nil(t, s.Overall)
}

func TestParseMetricAndDescribe(t *testing.T) {
	for in, want := range map[string]Metric{
		"missing": MissingValue, "Missing_Value": MissingValue, "MissingValue": MissingValue,
		"outliers": Outliers, "Outliers": Outliers,
	} {
		got, err := ParseMetric(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMetric("dupes")
	assert.ErrorIs(t, err, dataset.ErrInvalidInput)

	lines := Describe(Outliers)
	require.Len(t, lines, 5)
	assert.Equal(t, "average outliers above 50%: -5 points", lines[0])
	assert.Equal(t, "average outliers above 0% up to 5%: -1 point", lines[4])
}

func TestBoolColumnsCountTowardOutliers(t *testing.T) {
	ds := load(t, "v,flag\n1,true\n2,false\n3,true\n4,false\n5,true\n100,false\n")
	assert.Equal(t, []string{"v", "flag"}, ds.Classification().Numeric())

	p, err := OutlierPercentage(ds)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/12, p, 1e-9)
}
