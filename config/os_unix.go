//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

func reservedRune(sym rune) bool {
	return strings.ContainsRune(string(os.PathSeparator)+string(os.PathListSeparator), sym)
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	if stream == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(stream.Fd()))
}
