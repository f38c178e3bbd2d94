package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/edalens/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	ovRows   int
	ovUnique string
)

var overviewCmd = &cobra.Command{
	Use:   "overview <file>",
	Short: "Show shape, summary statistics, column overview and the first rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := settings()
		rows := st.PreviewRows
		if cmd.Flags().Changed("rows") {
			if ovRows < 1 || ovRows > st.PreviewMaxRows {
				return fmt.Errorf("--rows must be between 1 and %d", st.PreviewMaxRows)
			}
			rows = ovRows
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()

		heading(w, "SHAPE")
		fmt.Fprintf(w, "Rows: %d\nColumns: %d\n", ds.Rows(), ds.Cols())
		cls := ds.Classification()
		fmt.Fprintf(w, "Numeric: %s\nCategorical: %s\n", strings.Join(cls.Numeric(), ", "), strings.Join(cls.Categorical(), ", "))

		desc, err := analysis.Describe(ds)
		if err != nil {
			return err
		}
		if len(desc) > 0 {
			heading(w, "DESCRIBE")
			table := make([][]string, len(desc))
			for i, d := range desc {
				table[i] = []string{d.Column, fmt.Sprint(d.Count), fnum(d.Mean), fnum(d.Std), fnum(d.Min), fnum(d.Q1), fnum(d.Median), fnum(d.Q3), fnum(d.Max)}
			}
			writeTable(w, []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}, table)
		}

		ov, err := analysis.Overview(ds)
		if err != nil {
			return err
		}
		heading(w, "OVERVIEW")
		table := make([][]string, len(ov))
		for i, o := range ov {
			table[i] = []string{o.Column, o.Type, fmt.Sprint(o.Nulls), fmt.Sprintf("%.4f", o.NullFraction), fmt.Sprint(o.Size), fmt.Sprint(o.Uniques)}
		}
		writeTable(w, []string{"column", "type", "nulls", "% nulls", "size", "uniques"}, table)

		heading(w, fmt.Sprintf("HEAD (%d)", rows))
		head := ds.Head(rows)
		header := ds.Columns()
		if name, labels := ds.Index(); name != "" {
			header = append([]string{name}, header...)
			for i := range head {
				head[i] = append([]string{labels[i]}, head[i]...)
			}
		}
		writeTable(w, header, head)

		if ovUnique != "" {
			vals, err := analysis.UniqueValues(ds, ovUnique)
			if err != nil {
				return err
			}
			heading(w, "UNIQUE VALUES: "+ovUnique)
			fmt.Fprintln(w, strings.Join(vals, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	overviewCmd.Flags().IntVarP(&ovRows, "rows", "n", 5, "number of rows to preview (1..preview_max_rows)")
	overviewCmd.Flags().StringVar(&ovUnique, "unique", "", "list the distinct values of this column")
}
