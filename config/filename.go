package config

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNameBytes keeps generated names well under common file system limits
// leaving room for extension and collision suffixes.
const maxNameBytes = 200

const badFileName = "_bad_file_name_"

// CleanFileName removes characters which are not allowed in file names on
// the current platform, control characters and leading dots, and shortens
// the result on rune boundary.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || reservedRune(sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimSpace(strings.TrimLeft(out, "."))
	if len(out) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	if len(out) == 0 {
		out = badFileName
	}
	return out
}
