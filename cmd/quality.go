package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/KaramelBytes/edalens/internal/quality"
	"github.com/KaramelBytes/edalens/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	qMetric string
	qLadder bool
	qQuiet  bool
	qJobs   int
)

// scored is the outcome for one input file. Exactly one of err and sum is set.
type scored struct {
	name string
	sum  quality.Summary
	err  error
}

var qualityCmd = &cobra.Command{
	Use:   "quality <files...>",
	Short: "Score the data quality of one or more CSV/TSV/XLSX files (0-10)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var metrics []quality.Metric
		if m := strings.TrimSpace(qMetric); m != "" && m != "all" {
			parsed, err := quality.ParseMetric(m)
			if err != nil {
				return err
			}
			metrics = []quality.Metric{parsed}
		}
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		sort.Strings(files)

		jobs := qJobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		// Each goroutine owns results[i]; failures are recorded, not returned,
		// so one bad file does not cancel the others.
		results := make([]scored, len(files))
		var g errgroup.Group
		g.SetLimit(min(jobs, len(files)))
		for i, path := range files {
			g.Go(func() error {
				ds, err := loadDataset(path)
				if err != nil {
					results[i] = scored{name: path, err: err}
					return nil
				}
				results[i] = scored{name: ds.Name(), sum: quality.Assess(ds).Summarize(metrics...)}
				return nil
			})
		}
		_ = g.Wait()

		w := cmd.OutOrStdout()
		total := len(files)
		failed := 0
		for i, res := range results {
			if !qQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(files[i]))
			}
			if res.err != nil {
				failf(w, "%s: %v", res.name, res.err)
				failed++
				continue
			}
			for _, r := range res.sum.Results {
				successf(w, "%s %s: %.3f%% → score %g/10", res.name, r.Metric, r.Rounded(), r.Score)
				if qLadder {
					for _, line := range quality.Describe(r.Metric) {
						fmt.Fprintf(w, "    • %s\n", line)
					}
				}
			}
			for _, m := range quality.Metrics {
				if msg, ok := res.sum.Errors[m]; ok {
					warnf(w, "%s %s: %s", res.name, m, msg)
				}
			}
			if res.sum.Overall != nil && len(metrics) == 0 {
				successf(w, "%s overall: %g/10", res.name, *res.sum.Overall)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be scored", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
	qualityCmd.Flags().StringVarP(&qMetric, "metric", "m", "all", "metric to score: missing|outliers|all")
	qualityCmd.Flags().BoolVar(&qLadder, "ladder", false, "print the deduction ladder under each score")
	qualityCmd.Flags().BoolVar(&qQuiet, "quiet", false, "suppress progress lines")
	qualityCmd.Flags().IntVarP(&qJobs, "jobs", "j", 0, "files scored in parallel (0 = GOMAXPROCS)")
}
