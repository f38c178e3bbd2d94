package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
	headColor  = color.New(color.FgCyan, color.Bold)
	debugColor = color.New(color.Faint)
)

func successf(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func warnf(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", args...)
}

func failf(w io.Writer, format string, args ...any) {
	failColor.Fprintf(w, "✗ "+format+"\n", args...)
}

func heading(w io.Writer, title string) {
	headColor.Fprintf(w, "\n[%s]\n", title)
}

// debugf prints to stderr when --debug is set.
func debugf(format string, args ...any) {
	if !debug {
		return
	}
	debugColor.Fprintf(os.Stderr, "[debug] "+format+"\n", args...)
}

// writeTable prints a pipe table with a header row. Cells are padded to the
// display width of the widest entry in their column.
func writeTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(3, runewidth.StringWidth(h))
	}
	for _, row := range rows {
		for i := range header {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}
	line := func(cells []string) {
		fmt.Fprint(w, "|")
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprint(w, " ", runewidth.FillRight(cell, widths[i]), " |")
		}
		fmt.Fprintln(w)
	}
	line(header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = strings.Repeat("-", widths[i])
	}
	line(sep)
	for _, row := range rows {
		line(row)
	}
}

func fnum(v float64) string { return fmt.Sprintf("%.4g", v) }
