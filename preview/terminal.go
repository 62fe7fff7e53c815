package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"themeport/theme"
)

// Terminal prints theme swatches for the console. Colour depth follows
// terminal capabilities detected for w, plain text is produced when w is
// not a terminal.
func Terminal(w io.Writer, res *theme.Result, columns int) error {
	if columns <= 0 {
		columns = DefaultColumns
	}
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	dim := r.NewStyle().Faint(true)

	var out []string
	for _, v := range theme.Variants() {
		t := res.Get(v)
		if len(t) == 0 {
			continue
		}
		out = append(out, title.Render(fmt.Sprintf("%s (%s)", v, v.Selector())))

		keys := colorKeys(t)
		width := 9 // "#rrggbbaa"
		for _, k := range keys {
			width = max(width, len(k))
		}
		label := r.NewStyle().Width(width + 1)

		var row, rows []string
		for _, k := range keys {
			sw := r.NewStyle().Width(width + 1)
			text := "n/a"
			if hex, ok := t.PickerHex(k); ok {
				rgb, _ := splitAlpha(hex)
				sw = sw.Background(lipgloss.Color(rgb)).Foreground(lipgloss.Color(hexOf(textOn(rgb))))
				text = hex
			}
			row = append(row, lipgloss.JoinVertical(lipgloss.Left, sw.Render(text), label.Render(k.String())))
			if len(row) == columns {
				rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
		}
		out = append(out, rows...)

		for _, k := range t.Keys() {
			if !k.IsColor() {
				out = append(out, dim.Render(fmt.Sprintf("%s: %s", k.CustomProperty(), t[k])))
			}
		}
	}
	if len(out) == 0 {
		out = append(out, dim.Render("no tokens"))
	}
	_, err := io.WriteString(w, strings.Join(out, "\n")+"\n")
	return err
}
