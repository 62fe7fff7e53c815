package live

import (
	"bytes"
	"io"
	"maps"
	"sync"

	"themeport/theme"
)

// Applier applies variant tokens to rendering surface.
type Applier interface {
	Apply(v theme.Variant, t theme.Tokens) error
}

// ApplierFunc adapts function to Applier.
type ApplierFunc func(v theme.Variant, t theme.Tokens) error

func (f ApplierFunc) Apply(v theme.Variant, t theme.Tokens) error {
	return f(v, t)
}

// StyleApplier renders tokens as custom properties scoped to variant root
// selector. Last sheet of every variant is kept, and when writer is set every
// applied sheet is also written to it.
type StyleApplier struct {
	mu     sync.Mutex
	w      io.Writer
	sheets map[theme.Variant]string
	count  int
}

// NewStyleApplier creates applier, w may be nil.
func NewStyleApplier(w io.Writer) *StyleApplier {
	return &StyleApplier{w: w, sheets: make(map[theme.Variant]string, 2)}
}

func (a *StyleApplier) Apply(v theme.Variant, t theme.Tokens) error {
	var buf bytes.Buffer
	theme.WriteRule(&buf, v.Selector(), t)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.sheets[v] = buf.String()
	a.count++
	if a.w != nil {
		if _, err := buf.WriteTo(a.w); err != nil {
			return err
		}
	}
	return nil
}

// Sheet returns last rule applied for variant.
func (a *StyleApplier) Sheet(v theme.Variant) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sheets[v]
}

// Applied returns number of Apply calls.
func (a *StyleApplier) Applied() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func cloneTokens(t theme.Tokens) theme.Tokens {
	if t == nil {
		return theme.Tokens{}
	}
	return maps.Clone(t)
}
