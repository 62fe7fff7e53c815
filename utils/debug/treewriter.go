// Package debug renders human readable dumps of imported themes.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.w.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes "label: value" with value quoted.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.Swatch(depth, label, value, "")
}

// Swatch writes token value followed by its hex form unless both are the
// same.
func (tw TreeWriter) Swatch(depth int, label, value, hex string) {
	var suffix string
	if hex != "" && !strings.EqualFold(hex, value) {
		suffix = " -> " + hex
	}
	tw.Line(depth, "%s: %s%s", label, quote(value), suffix)
}

func quote(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
