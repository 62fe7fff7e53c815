package theme

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"themeport/css"
	"themeport/tokens"
	"themeport/utils/debug"
)

// Variant is light or dark theme.
type Variant int

const (
	Light Variant = iota
	Dark
)

// Variants returns all variants in output order.
func Variants() []Variant {
	return []Variant{Light, Dark}
}

func (v Variant) String() string {
	if v == Dark {
		return "dark"
	}
	return "light"
}

// Selector returns root selector tokens of the variant are scoped to when
// applied to a document.
func (v Variant) Selector() string {
	if v == Dark {
		return ".dark"
	}
	return ":root"
}

func (v Variant) scope() css.Scope {
	if v == Dark {
		return css.ScopeDark
	}
	return css.ScopeLight
}

// ParseVariant converts variant name.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Light, fmt.Errorf("unknown theme variant %q", name)
}

// Tokens is a partial token map, values are raw CSS values as authored.
type Tokens map[tokens.Key]string

// Keys returns present keys in canonical order.
func (t Tokens) Keys() []tokens.Key {
	return slices.SortedFunc(maps.Keys(t), tokens.Compare)
}

// PickerHex returns hex view of token value for color pickers.
func (t Tokens) PickerHex(k tokens.Key) (string, bool) {
	raw, ok := t[k]
	if !ok {
		return "", false
	}
	return PickerHex(raw)
}

// Skipped describes dropped declaration.
type Skipped struct {
	Variant Variant
	Name    string
	Value   string
	Offset  int // Byte offset of the declaration in the source text
	Reason  string
}

// Result of theme import. Either map may be empty, but never nil.
type Result struct {
	Light   Tokens
	Dark    Tokens
	Skipped []Skipped
}

// Get returns tokens for variant.
func (r *Result) Get(v Variant) Tokens {
	if v == Dark {
		return r.Dark
	}
	return r.Light
}

// Len returns number of tokens in both variants.
func (r *Result) Len() int {
	return len(r.Light) + len(r.Dark)
}

// Equal compares token maps, skipped declarations are ignored.
func (r *Result) Equal(o *Result) bool {
	if r == nil || o == nil {
		return r == o
	}
	return maps.Equal(r.Light, o.Light) && maps.Equal(r.Dark, o.Dark)
}

// Merge returns new result where tokens missing from r are taken from
// defaults.
func (r *Result) Merge(defaults *Result) *Result {
	out := &Result{Light: Tokens{}, Dark: Tokens{}, Skipped: slices.Clone(r.Skipped)}
	for _, v := range Variants() {
		if defaults != nil {
			maps.Copy(out.Get(v), defaults.Get(v))
		}
		maps.Copy(out.Get(v), r.Get(v))
	}
	return out
}

// Dump returns human readable tree of the result for debugging.
func (r *Result) Dump() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Theme: light=%d dark=%d skipped=%d", len(r.Light), len(r.Dark), len(r.Skipped))
	for _, v := range Variants() {
		t := r.Get(v)
		tw.Line(1, "%s (%s)", v, v.Selector())
		for _, k := range t.Keys() {
			if hex, ok := t.PickerHex(k); ok {
				tw.Swatch(2, k.String(), t[k], hex)
			} else {
				tw.TextBlock(2, k.String(), t[k])
			}
		}
	}
	if len(r.Skipped) > 0 {
		tw.Line(1, "skipped")
		for _, s := range r.Skipped {
			tw.Line(2, "%s %s @%d: %s %q", s.Variant, s.Name, s.Offset, s.Reason, s.Value)
		}
	}
	return tw.String()
}

// WriteTo renders result as stylesheet with one rule per non empty variant,
// declarations in canonical order.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, v := range Variants() {
		t := r.Get(v)
		if len(t) == 0 {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		WriteRule(&buf, v.Selector(), t)
	}
	return buf.WriteTo(w)
}

// WriteRule renders tokens as custom property declarations scoped to
// selector.
func WriteRule(buf *bytes.Buffer, selector string, t Tokens) {
	buf.WriteString(selector)
	buf.WriteString(" {\n")
	for _, k := range t.Keys() {
		fmt.Fprintf(buf, "  %s: %s;\n", k.CustomProperty(), t[k])
	}
	buf.WriteString("}\n")
}
