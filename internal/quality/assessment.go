package quality

import (
	"fmt"
	"sync"

	"github.com/KaramelBytes/edalens/internal/dataset"
)

// Assessment scores one dataset and memoizes each metric, so a report that
// shows both metrics and the overall score scans the data once per metric.
type Assessment struct {
	ds    *dataset.Dataset
	once  map[Metric]*sync.Once
	res   map[Metric]Result
	errs  map[Metric]error
	scans int
	mu    sync.Mutex
}

// Assess prepares an Assessment; nothing is computed until a metric is read.
func Assess(ds *dataset.Dataset) *Assessment {
	a := &Assessment{
		ds:   ds,
		once: make(map[Metric]*sync.Once, len(Metrics)),
		res:  make(map[Metric]Result, len(Metrics)),
		errs: make(map[Metric]error, len(Metrics)),
	}
	for _, m := range Metrics {
		a.once[m] = new(sync.Once)
	}
	return a
}

// Metric returns the (memoized) result for m.
func (a *Assessment) Metric(m Metric) (Result, error) {
	once, ok := a.once[m]
	if !ok {
		return Result{}, dataset.Invalid("quality", "unknown metric %q", m)
	}
	once.Do(func() {
		r, err := Evaluate(a.ds, m)
		a.mu.Lock()
		a.res[m], a.errs[m] = r, err
		a.scans++
		a.mu.Unlock()
	})
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.res[m], a.errs[m]
}

// Overall averages the MissingValue and Outliers scores. It fails if either
// metric is undefined for the dataset.
func (a *Assessment) Overall() (float64, error) {
	mv, err := a.Metric(MissingValue)
	if err != nil {
		return 0, fmt.Errorf("overall score: %w", err)
	}
	out, err := a.Metric(Outliers)
	if err != nil {
		return 0, fmt.Errorf("overall score: %w", err)
	}
	return (mv.Score + out.Score) / 2, nil
}

// Summary is the serializable form of an Assessment.
type Summary struct {
	Results []Result          `json:"results"`
	Errors  map[Metric]string `json:"errors,omitempty"`
	Overall *float64          `json:"overall,omitempty"`
}

// Summarize evaluates the selected metrics (all when none given) and the
// overall score. Metric failures are reported in Errors rather than aborting.
func (a *Assessment) Summarize(metrics ...Metric) Summary {
	if len(metrics) == 0 {
		metrics = Metrics
	}
	var s Summary
	for _, m := range metrics {
		r, err := a.Metric(m)
		if err != nil {
			if s.Errors == nil {
				s.Errors = map[Metric]string{}
			}
			s.Errors[m] = err.Error()
			continue
		}
		s.Results = append(s.Results, r)
	}
	if overall, err := a.Overall(); err == nil {
		s.Overall = &overall
	}
	return s
}

func (a *Assessment) scanCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scans
}
