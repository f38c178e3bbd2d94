package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/edalens/internal/dataset"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.PreviewRows != 5 || c.PreviewMaxRows != 50 {
		t.Fatalf("preview defaults: %d/%d", c.PreviewRows, c.PreviewMaxRows)
	}
	if c.ServerAddr != "127.0.0.1:8501" || c.ChartFormat != "json" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.NaNValues) != len(dataset.DefaultNaNValues) {
		t.Fatalf("nan values: %v", c.NaNValues)
	}
	opt := c.DatasetOptions()
	if opt.Delimiter != 0 || opt.SheetIndex != 1 {
		t.Fatalf("dataset options: %+v", opt)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("HOME", t.TempDir())
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if err := c.Set("delimiter", "semicolon"); err != nil {
		t.Fatalf("set delimiter: %v", err)
	}
	if err := c.Set("preview_rows", "10"); err != nil {
		t.Fatalf("set preview_rows: %v", err)
	}
	if err := c.Set("nan_values", "-, n/a"); err != nil {
		t.Fatalf("set nan_values: %v", err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.PreviewRows != 10 {
		t.Fatalf("preview_rows = %d", again.PreviewRows)
	}
	if r, _ := again.DelimiterRune(); r != ';' {
		t.Fatalf("delimiter = %q", r)
	}
	if got, _ := again.Get("nan_values"); got != "-,n/a" {
		t.Fatalf("nan_values = %q", got)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server_addr: 0.0.0.0:9000\nsession_limit: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("EDALENS_SESSION_LIMIT", "7")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ServerAddr != "0.0.0.0:9000" {
		t.Fatalf("server_addr = %s", c.ServerAddr)
	}
	if c.SessionLimit != 7 {
		t.Fatalf("session_limit = %d", c.SessionLimit)
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	bad := [][2]string{
		{"preview_rows", "0"},
		{"preview_rows", "500"},
		{"max_upload_mb", "abc"},
		{"chart_format", "xml"},
		{"delimiter", "ab"},
		{"colour", "blue"},
	}
	for _, kv := range bad {
		if err := c.Set(kv[0], kv[1]); err == nil {
			t.Fatalf("expected error for %s=%s", kv[0], kv[1])
		}
	}
	if c.PreviewRows != 5 {
		t.Fatalf("failed Set mutated config: %+v", c)
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{"": 0, "tab": '\t', `\t`: '\t', ",": ',', "pipe": '|', ";": ';'}
	for in, want := range cases {
		got, err := ParseDelimiter(in)
		if err != nil || got != want {
			t.Fatalf("ParseDelimiter(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDelimiter(`"`); err == nil {
		t.Fatalf("quote accepted as delimiter")
	}
}
