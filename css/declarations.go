package css

import (
	"strings"
)

// Declarations splits block body into custom property declarations in source
// order. Semicolons and colons are only significant at the top level: inside
// parentheses, strings or comments they are part of the value. Standard
// properties, nested blocks, segments without colon and empty values are
// skipped.
func Declarations(body string) []Declaration {
	var (
		out    []Declaration
		parens int
		braces int
		quote  byte
		start  int
		nested bool
	)

	flush := func(end int) {
		if !nested {
			if d, ok := splitDeclaration(body[start:end]); ok {
				d.Offset = start
				out = append(out, d)
			}
		}
		start, nested = end+1, false
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			switch {
			case c == '\\':
				i++
			case c == quote:
				quote = 0
			case c == '\n':
				// unterminated string ends at line break
				quote = 0
				if braces == 0 && startsDeclaration(body[i+1:]) {
					parens = 0
					flush(i)
				}
			}
			continue
		}
		switch c {
		case '/':
			if i+1 < len(body) && body[i+1] == '*' {
				end := strings.Index(body[i+2:], "*/")
				if end < 0 {
					i = len(body)
				} else {
					i += end + 3
				}
			}
		case '"', '\'':
			quote = c
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		case '{':
			braces++
			nested = true
		case '}':
			if braces > 0 {
				braces--
				if braces == 0 {
					flush(i)
				}
			}
		case ';':
			if braces != 0 {
				break
			}
			if parens == 0 {
				flush(i)
			} else if startsDeclaration(body[i+1:]) {
				// unbalanced parenthesis does not swallow next declaration
				parens = 0
				flush(i)
			}
		}
	}
	if start < len(body) {
		flush(len(body))
	}
	return out
}

// startsDeclaration reports whether s begins, after optional whitespace, with
// a custom property name followed by colon.
func startsDeclaration(s string) bool {
	s = strings.TrimLeft(s, " \t\r\n\f")
	if !strings.HasPrefix(s, "--") {
		return false
	}
	i := 2
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	if i == 2 {
		return false
	}
	return strings.HasPrefix(strings.TrimLeft(s[i:], " \t"), ":")
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// splitDeclaration splits a single "name: value" segment on first top level
// colon.
func splitDeclaration(seg string) (Declaration, bool) {
	seg = strings.TrimSpace(stripComments(seg))
	if !strings.HasPrefix(seg, "--") {
		return Declaration{}, false
	}

	colon := topLevelIndex(seg, ':')
	if colon < 0 {
		return Declaration{}, false
	}

	name := strings.TrimSpace(seg[:colon])
	value := strings.TrimSpace(seg[colon+1:])
	// tolerate stray separators left by generators
	value = strings.TrimSpace(strings.TrimRight(value, ",;"))
	value = trimPriority(value)
	if len(name) <= 2 || value == "" || strings.ContainsAny(name, " \t\r\n") {
		return Declaration{}, false
	}
	return Declaration{Name: name, Value: value}, true
}

// trimPriority removes trailing "!important" annotation from value.
func trimPriority(value string) string {
	const important = "important"
	if len(value) < len(important) || !strings.EqualFold(value[len(value)-len(important):], important) {
		return value
	}
	rest := strings.TrimRight(value[:len(value)-len(important)], " \t\r\n\f")
	if !strings.HasSuffix(rest, "!") {
		return value
	}
	return strings.TrimSpace(rest[:len(rest)-1])
}

// topLevelIndex returns index of the first c outside of parentheses and
// strings, or -1.
func topLevelIndex(s string, c byte) int {
	var (
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')' && depth > 0:
			depth--
		case ch == c && depth == 0:
			return i
		}
	}
	return -1
}
