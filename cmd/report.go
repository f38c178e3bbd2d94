package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/edalens/internal/report"
	"github.com/KaramelBytes/edalens/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repOutputPath string
	repFormat     string
	repRows       int
	repNoCorr     bool
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Produce a full Markdown (or JSON) report of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := settings()
		opt := report.DefaultOptions()
		opt.HeadRows = st.PreviewRows
		if cmd.Flags().Changed("rows") {
			if repRows < 0 || repRows > st.PreviewMaxRows {
				return fmt.Errorf("--rows must be between 0 and %d", st.PreviewMaxRows)
			}
			opt.HeadRows = repRows
		}
		opt.Correlations = !repNoCorr

		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		rep := report.Build(ds, opt)
		for _, w := range rep.Warnings {
			debugf("note: %s", w)
		}

		var out []byte
		switch strings.ToLower(repFormat) {
		case "", "md", "markdown":
			out = []byte(rep.Markdown())
		case "json":
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			out = append(b, '\n')
		default:
			return fmt.Errorf("unsupported --format: %s (use md|json)", repFormat)
		}

		if repOutputPath != "" {
			if err := utils.SafeWriteFile(repOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			successf(cmd.OutOrStdout(), "Wrote report to %s", repOutputPath)
			if len(rep.Warnings) > 0 {
				warnf(cmd.OutOrStdout(), "%d section(s) could not be computed; see [NOTES]", len(rep.Warnings))
			}
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "optional path to write the report")
	reportCmd.Flags().StringVar(&repFormat, "format", "md", "report format: md|json")
	reportCmd.Flags().IntVarP(&repRows, "rows", "n", 5, "number of head rows to include (0 disables)")
	reportCmd.Flags().BoolVar(&repNoCorr, "no-correlations", false, "skip the correlation section")
}
