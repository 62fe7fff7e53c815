// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"themeport/config"
	"themeport/theme"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by convert and watch subcommands
	NoDirs    bool
	Overwrite bool
	Fill      bool
	Format    config.OutputFmt

	importer *theme.Importer
	defaults *theme.Result

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// Importer returns theme importer built from configuration, created on first
// use.
func (e *LocalEnv) Importer() (*theme.Importer, error) {
	if e.importer != nil {
		return e.importer, nil
	}
	if e.Cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	im, err := e.Cfg.Import.Importer(e.Log)
	if err != nil {
		return nil, err
	}
	e.importer = im
	return im, nil
}

// Defaults returns tokens used to fill gaps in imported themes: either
// stylesheet from configured defaults path or built in neutral theme.
func (e *LocalEnv) Defaults() (*theme.Result, error) {
	if e.defaults != nil {
		return e.defaults, nil
	}

	src, text := "built-in", builtinDefaults
	if e.Cfg != nil && e.Cfg.Output.DefaultsPath != "" {
		data, err := os.ReadFile(e.Cfg.Output.DefaultsPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read default theme from %q: %w", e.Cfg.Output.DefaultsPath, err)
		}
		src, text = e.Cfg.Output.DefaultsPath, string(data)
	}

	im, err := e.Importer()
	if err != nil {
		return nil, err
	}
	res, err := im.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse default theme (%s): %w", src, err)
	}
	if e.Log != nil {
		e.Log.Debug("Default theme loaded", zap.String("source", src), zap.Int("tokens", res.Len()))
	}
	e.defaults = res
	return res, nil
}
