package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/edalens/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	exColumn    string
	exEstimates string
)

var exploreCmd = &cobra.Command{
	Use:   "explore <file>",
	Short: "Show location/variability estimates, missing values and outliers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		which, err := parseEstimates(exEstimates)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()

		if exColumn != "" {
			est, err := analysis.Locate(ds, exColumn, which...)
			if err != nil {
				return fmt.Errorf("estimates: %w", err)
			}
			heading(w, "ESTIMATES: "+exColumn)
			for _, e := range which {
				var v *float64
				switch e {
				case analysis.EstimateMean:
					v = est.Mean
				case analysis.EstimateMedian:
					v = est.Median
				case analysis.EstimateStd:
					v = est.Std
				case analysis.EstimateIQR:
					v = est.IQR
				}
				if v != nil {
					fmt.Fprintf(w, "- %s: %s\n", e, fnum(*v))
				}
			}
		}

		missing, err := analysis.MissingTable(ds)
		if err != nil {
			return err
		}
		heading(w, "MISSING VALUES")
		rows := make([][]string, len(missing))
		for i, m := range missing {
			rows[i] = []string{m.Column, m.Type, fmt.Sprint(m.Missing), fmt.Sprintf("%.2f", m.Percent)}
		}
		writeTable(w, []string{"column", "type", "NA count", "NA %"}, rows)

		outliers, err := analysis.OutlierTable(ds)
		if err != nil {
			return err
		}
		heading(w, "OUTLIERS")
		if len(outliers) == 0 {
			warnf(w, "no numeric columns")
			return nil
		}
		rows = make([][]string, len(outliers))
		for i, o := range outliers {
			rows[i] = []string{o.Column, o.Type, fmt.Sprint(o.Below), fmt.Sprint(o.Above), fmt.Sprintf("%.2f", o.Percent)}
		}
		writeTable(w, []string{"column", "type", "below", "above", "outliers %"}, rows)
		return nil
	},
}

func parseEstimates(s string) ([]analysis.Estimate, error) {
	if strings.TrimSpace(s) == "" || s == "all" {
		return analysis.AllEstimates, nil
	}
	var out []analysis.Estimate
	for _, name := range strings.Split(s, ",") {
		e, err := analysis.ParseEstimate(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringVarP(&exColumn, "column", "c", "", "numeric column to compute estimates for")
	exploreCmd.Flags().StringVar(&exEstimates, "estimates", "all", "comma-separated estimates: mean,median,std,iqr")
}
