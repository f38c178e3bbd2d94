package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edalens/internal/chart"
	"github.com/KaramelBytes/edalens/internal/dataset"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Loading
	Delimiter   string   `mapstructure:"delimiter" yaml:"delimiter"`
	IndexColumn bool     `mapstructure:"index_column" yaml:"index_column"`
	NaNValues   []string `mapstructure:"nan_values" yaml:"nan_values"`

	// Views
	PreviewRows    int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	PreviewMaxRows int    `mapstructure:"preview_max_rows" yaml:"preview_max_rows"`
	ChartFormat    string `mapstructure:"chart_format" yaml:"chart_format"`

	// HTTP server
	ServerAddr   string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadMB  int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	SessionLimit int    `mapstructure:"session_limit" yaml:"session_limit"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"delimiter", "index_column", "nan_values",
	"preview_rows", "preview_max_rows", "chart_format",
	"server_addr", "max_upload_mb", "session_limit",
}

// Dir returns ~/.edalens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edalens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edalens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDALENS")
	v.AutomaticEnv()

	v.SetDefault("delimiter", "")
	v.SetDefault("index_column", false)
	v.SetDefault("nan_values", dataset.DefaultNaNValues)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("preview_max_rows", 50)
	v.SetDefault("chart_format", "json")
	v.SetDefault("server_addr", "127.0.0.1:8501")
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("session_limit", 64)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if _, err := chart.ParseFormat(c.ChartFormat); err != nil {
		return err
	}
	if c.PreviewRows < 1 || c.PreviewMaxRows < c.PreviewRows {
		return fmt.Errorf("preview_rows must be in 1..preview_max_rows (got %d, max %d)", c.PreviewRows, c.PreviewMaxRows)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be positive (got %d)", c.MaxUploadMB)
	}
	if c.SessionLimit < 1 {
		return fmt.Errorf("session_limit must be positive (got %d)", c.SessionLimit)
	}
	return nil
}

// DelimiterRune converts the configured delimiter; 0 means sniff.
func (c *Global) DelimiterRune() (rune, error) {
	return ParseDelimiter(c.Delimiter)
}

// ParseDelimiter accepts a single character or one of the names tab, comma,
// semicolon and pipe. The empty string selects auto-detection.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("unsupported delimiter %q (use a single character or tab|comma|semicolon|pipe)", s)
	}
	return r[0], nil
}

// DatasetOptions builds loader options from the configuration.
func (c *Global) DatasetOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	opt.Delimiter, _ = c.DelimiterRune()
	opt.IndexColumn = c.IndexColumn
	if len(c.NaNValues) > 0 {
		opt.NaNValues = append([]string(nil), c.NaNValues...)
	}
	return opt
}

// Get returns the textual value of a key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "delimiter":
		return c.Delimiter, nil
	case "index_column":
		return strconv.FormatBool(c.IndexColumn), nil
	case "nan_values":
		return strings.Join(c.NaNValues, ","), nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "preview_max_rows":
		return strconv.Itoa(c.PreviewMaxRows), nil
	case "chart_format":
		return c.ChartFormat, nil
	case "server_addr":
		return c.ServerAddr, nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "session_limit":
		return strconv.Itoa(c.SessionLimit), nil
	}
	return "", unknownKey(key)
}

// Set parses and assigns a value, then validates the result.
func (c *Global) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "delimiter":
		next.Delimiter = value
	case "index_column":
		next.IndexColumn, err = strconv.ParseBool(value)
	case "nan_values":
		next.NaNValues = nil
		for _, v := range strings.Split(value, ",") {
			next.NaNValues = append(next.NaNValues, strings.TrimSpace(v))
		}
	case "preview_rows":
		next.PreviewRows, err = strconv.Atoi(value)
	case "preview_max_rows":
		next.PreviewMaxRows, err = strconv.Atoi(value)
	case "chart_format":
		next.ChartFormat = strings.ToLower(strings.TrimSpace(value))
	case "server_addr":
		next.ServerAddr = value
	case "max_upload_mb":
		next.MaxUploadMB, err = strconv.Atoi(value)
	case "session_limit":
		next.SessionLimit, err = strconv.Atoi(value)
	default:
		return unknownKey(key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func unknownKey(key string) error {
	keys := append([]string(nil), Keys...)
	sort.Strings(keys)
	return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(keys, ", "))
}
