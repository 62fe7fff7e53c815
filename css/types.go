package css

import (
	"strings"
)

// Scope identifies theme variant a selector block belongs to.
type Scope int

const (
	ScopeLight Scope = iota // light variant, usually ":root"
	ScopeDark               // dark variant, usually ".dark"
)

// String returns the name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeLight:
		return "light"
	case ScopeDark:
		return "dark"
	default:
		return ""
	}
}

// Block is the body of the first selector block found for a scope.
type Block struct {
	Selector string // Normalized selector which matched
	Body     string // Text between opening and matching closing brace
	Offset   int    // Byte offset of the body in the source text
	Found    bool
}

// Blocks holds extracted bodies for both scopes.
type Blocks struct {
	Light Block
	Dark  Block
}

// Get returns block for requested scope.
func (b Blocks) Get(s Scope) Block {
	if s == ScopeDark {
		return b.Dark
	}
	return b.Light
}

// Any reports whether at least one scope block was found.
func (b Blocks) Any() bool {
	return b.Light.Found || b.Dark.Found
}

// Declaration is a single custom property declaration from a block body.
type Declaration struct {
	Name   string // Property name including leading "--"
	Value  string // Raw value, trimmed
	Offset int    // Byte offset of the declaration in the block body
}

// NormalizeSelector brings a single selector to the form used for matching:
// comments removed, whitespace collapsed, attribute selectors written as
// [name="value"] with no inner whitespace.
func NormalizeSelector(sel string) string {
	sel = stripComments(sel)

	var sb strings.Builder
	sb.Grow(len(sel))

	inAttr, pendingSpace := false, false
	for i := 0; i < len(sel); i++ {
		c := sel[i]
		switch {
		case c == '[':
			inAttr = true
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteByte(c)
		case inAttr && c == ']':
			inAttr = false
			sb.WriteByte(c)
		case inAttr && c == '=':
			sb.WriteByte(c)
			// unify value quoting
			j := i + 1
			for j < len(sel) && isSpace(sel[j]) {
				j++
			}
			val, next := attrValue(sel, j)
			sb.WriteByte('"')
			sb.WriteString(val)
			sb.WriteByte('"')
			i = next - 1
		case inAttr && isSpace(c):
			// no whitespace inside attribute selectors
		case isSpace(c):
			pendingSpace = true
		default:
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// attrValue reads attribute value starting at i, quoted or not, and returns
// it without quotes together with index of the first byte after it.
func attrValue(s string, i int) (string, int) {
	if i >= len(s) {
		return "", i
	}
	if q := s[i]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[i+1:], q)
		if end < 0 {
			return s[i+1:], len(s)
		}
		return s[i+1 : i+1+end], i + 2 + end
	}
	j := i
	for j < len(s) && s[j] != ']' && !isSpace(s[j]) {
		j++
	}
	return s[i:j], j
}

// SplitSelectorList splits grouped selectors on top level commas.
func SplitSelectorList(prelude string) []string {
	var (
		out   []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(prelude); i++ {
		c := prelude[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case (c == ')' || c == ']') && depth > 0:
			depth--
		case c == ',' && depth == 0:
			if s := strings.TrimSpace(prelude[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(prelude[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// stripComments removes /* ... */ comments outside of strings.
func stripComments(s string) string {
	if !strings.Contains(s, "/*") {
		return s
	}
	var (
		sb    strings.Builder
		quote byte
	)
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		if c == '/' && i+1 < len(s) && s[i+1] == '*' {
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				break
			}
			i += end + 3
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
