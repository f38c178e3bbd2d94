package dataset

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is the analytical role of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Classification partitions column names into numeric and categorical sets.
// It is computed once per load and never changes afterwards.
type Classification struct {
	numeric     []string
	categorical []string
	kinds       map[string]Kind
}

// classify maps detected storage types to kinds: int, float and bool columns
// are numeric (bools read as 0/1), string columns categorical.
func classify(df dataframe.DataFrame) Classification {
	c := Classification{kinds: make(map[string]Kind, df.Ncol())}
	types := df.Types()
	for i, name := range df.Names() {
		switch types[i] {
		case series.Int, series.Float, series.Bool:
			c.numeric = append(c.numeric, name)
			c.kinds[name] = KindNumeric
		default:
			c.categorical = append(c.categorical, name)
			c.kinds[name] = KindCategorical
		}
	}
	return c
}

// Numeric returns numeric column names in file order.
func (c Classification) Numeric() []string { return append([]string(nil), c.numeric...) }

// Categorical returns categorical column names in file order.
func (c Classification) Categorical() []string { return append([]string(nil), c.categorical...) }

// Kind looks up the kind of a column.
func (c Classification) Kind(name string) (Kind, bool) {
	k, ok := c.kinds[name]
	return k, ok
}

// Require returns an error unless name exists and has the wanted kind.
func (c Classification) Require(op, name string, want Kind) error {
	k, ok := c.kinds[name]
	if !ok {
		return &ColumnError{Name: name}
	}
	if k != want {
		return Invalid(op, "column %q is %s, want %s", name, k, want)
	}
	return nil
}
