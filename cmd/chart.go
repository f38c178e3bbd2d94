package cmd

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/edalens/internal/chart"
	"github.com/KaramelBytes/edalens/internal/render"
	"github.com/KaramelBytes/edalens/internal/utils"
	"github.com/spf13/cobra"
)

var (
	chNumeric     string
	chCategorical string
	chX           string
	chY           string
	chColor       string
	chFormat      string
	chOutput      string
	chPNG         string
)

var chartCmd = &cobra.Command{
	Use:   "chart <histogram|bars|boxplot|scatter|heatmap> <file>",
	Short: "Build a Vega-Lite chart spec (and optionally a PNG preview)",
	Long: `Build a Vega-Lite v5 chart specification from a dataset.

  histogram  --numeric COL
  bars       --numeric COL --categorical COL   (stacked horizontal bars)
  boxplot    --numeric COL --categorical COL
  scatter    --x COL --y COL --color COL
  heatmap    Pearson correlation of all numeric columns`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := chart.ParseKind(args[0])
		if err != nil {
			return err
		}
		formatName := settings().ChartFormat
		if cmd.Flags().Changed("format") {
			formatName = chFormat
		}
		format, err := chart.ParseFormat(formatName)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[1])
		if err != nil {
			return err
		}
		spec, err := chart.Build(ds, chart.Request{
			Kind:        kind,
			Numeric:     chNumeric,
			Categorical: chCategorical,
			X:           chX,
			Y:           chY,
			Color:       chColor,
		})
		if err != nil {
			return fmt.Errorf("%s chart: %w", kind, err)
		}
		debugf("%s spec: %d inline rows", kind, len(spec.Data.Values))

		var buf bytes.Buffer
		if err := chart.Encode(&buf, spec, format); err != nil {
			return err
		}
		if chOutput != "" {
			if err := utils.SafeWriteFile(chOutput, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			successf(cmd.ErrOrStderr(), "Wrote %s spec to %s", kind, chOutput)
		} else {
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
		}

		if chPNG != "" {
			var img bytes.Buffer
			if err := render.PNG(&img, kind, spec); err != nil {
				return fmt.Errorf("png preview: %w", err)
			}
			if err := utils.SafeWriteFile(chPNG, img.Bytes()); err != nil {
				return fmt.Errorf("write png: %w", err)
			}
			successf(cmd.ErrOrStderr(), "Wrote PNG preview to %s", chPNG)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chNumeric, "numeric", "", "numeric column (histogram, bars, boxplot)")
	chartCmd.Flags().StringVar(&chCategorical, "categorical", "", "categorical column (bars, boxplot)")
	chartCmd.Flags().StringVar(&chX, "x", "", "scatter: numeric x column")
	chartCmd.Flags().StringVar(&chY, "y", "", "scatter: numeric y column")
	chartCmd.Flags().StringVar(&chColor, "color", "", "scatter: column used for color")
	chartCmd.Flags().StringVarP(&chFormat, "format", "f", "json", "spec encoding: json|yaml|msgpack (default from config)")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "write the spec to this file instead of stdout")
	chartCmd.Flags().StringVar(&chPNG, "png", "", "also render a PNG preview to this file (histogram, bars, scatter)")
}
