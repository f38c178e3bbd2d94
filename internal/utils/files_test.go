package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/edalens/internal/utils"
)

func TestSafeWriteFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "nested", "spec.json")
	if err := utils.SafeWriteFile(path, []byte("{}")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "{}" {
		t.Fatalf("unexpected content %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "c.tsv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n1\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	missing := filepath.Join(dir, "nope*.csv")
	got, err := utils.ExpandInputs([]string{
		filepath.Join(dir, "*.csv"),
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "c.tsv"),
		missing,
	})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "c.tsv"),
		missing,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := utils.ExpandInputs([]string{"[bad"}); err == nil {
		t.Fatalf("expected malformed pattern error")
	}
}
