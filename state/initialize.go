package state

import (
	_ "embed"
	"time"
)

// builtinDefaults is neutral palette used to complete partial themes.
//
//go:embed defaults.css
var builtinDefaults string

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}
