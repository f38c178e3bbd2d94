package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/edalens/internal/config"
	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Loading flags (override config if set)
	flagIndex      bool
	flagDelimiter  string
	flagSheetName  string
	flagSheetIndex int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "edalens",
	Short: "edalens: exploratory data analysis for CSV/TSV/XLSX files",
	Long: `edalens loads a tabular dataset and reports its shape, summary statistics,
missing values, outliers, a 0-10 data quality score and Vega-Lite chart specs,
from the command line or over an HTTP JSON API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		failf(os.Stderr, "Error: %v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edalens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&flagIndex, "index", false, "treat the first column as the row index (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "field delimiter: a character or tab|comma|semicolon|pipe (default: sniff)")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load")
	rootCmd.PersistentFlags().IntVar(&flagSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so commands still run
		warnf(os.Stderr, "Warning: failed to load config: %v", err)
		cfg = nil
		return
	}
	cfg = c
	debugf("config loaded (preview_rows=%d, chart_format=%s)", cfg.PreviewRows, cfg.ChartFormat)
}

// settings returns the loaded configuration, or built-in defaults when
// loading failed.
func settings() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{
		NaNValues:      dataset.DefaultNaNValues,
		PreviewRows:    5,
		PreviewMaxRows: 50,
		ChartFormat:    "json",
		ServerAddr:     "127.0.0.1:8501",
		MaxUploadMB:    32,
		SessionLimit:   64,
	}
}

// datasetOptions merges the configuration with the global loading flags.
func datasetOptions() (dataset.Options, error) {
	opt := settings().DatasetOptions()
	f := rootCmd.PersistentFlags()
	if f.Changed("index") {
		opt.IndexColumn = flagIndex
	}
	if f.Changed("delimiter") {
		d, err := cfgpkg.ParseDelimiter(flagDelimiter)
		if err != nil {
			return opt, fmt.Errorf("--delimiter: %w", err)
		}
		opt.Delimiter = d
	}
	if f.Changed("sheet-name") {
		opt.SheetName = flagSheetName
	}
	if f.Changed("sheet-index") {
		if flagSheetIndex < 1 {
			return opt, fmt.Errorf("--sheet-index must be >= 1")
		}
		opt.SheetIndex = flagSheetIndex
	}
	return opt, nil
}

func loadDataset(path string) (*dataset.Dataset, error) {
	opt, err := datasetOptions()
	if err != nil {
		return nil, err
	}
	debugf("loading %s (delimiter=%q index=%v sheet=%q/%d)", path, opt.Delimiter, opt.IndexColumn, opt.SheetName, opt.SheetIndex)
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	cls := ds.Classification()
	debugf("%s: %d rows x %d columns (numeric %v, categorical %v)", ds.Name(), ds.Rows(), ds.Cols(), cls.Numeric(), cls.Categorical())
	return ds, nil
}
