package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"themeport/live"
	"themeport/state"
	"themeport/theme"
)

// Watch is "watch" command action: keeps destination stylesheet in sync with
// source theme, re-importing source whenever it changes. Bursts of changes
// are applied once per frame. With --once failed updates are reported as
// command error.
func Watch(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("watch")

	src := cmd.Args().Get(0)
	if len(src) == 0 || src == stdinName {
		return errors.New("source file has to be specified")
	}
	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + ".tokens.css"
	}
	env.Fill = cmd.Bool("fill")
	once := cmd.Bool("once")

	w := newWatcher(src, dst, env.Cfg.Live.Frame(), log)
	defer func() {
		cerr := w.close()
		if once {
			err = multierr.Append(err, cerr)
			return
		}
		if cerr != nil {
			log.Warn("Some updates were not applied", zap.Error(cerr))
		}
	}()

	log.Info("Watching", zap.String("source", src), zap.String("destination", dst), zap.Duration("poll", env.Cfg.Live.Poll()))
	return w.run(ctx, env.Cfg.Live.Poll(), once)
}

type watcher struct {
	src, dst string
	log      *zap.Logger
	sched    *live.FrameScheduler
	sheet    *live.StyleApplier
	session  *live.Session

	modTime time.Time
	size    int64
}

func newWatcher(src, dst string, frame time.Duration, log *zap.Logger) *watcher {
	w := &watcher{src: src, dst: dst, log: log, sched: live.NewFrameScheduler(frame), sheet: live.NewStyleApplier(nil)}
	w.session = live.NewSession(nil, live.ApplierFunc(w.apply), w.sched, log)
	return w
}

// apply records variant sheet and rewrites destination with both variants.
func (w *watcher) apply(v theme.Variant, t theme.Tokens) error {
	if err := w.sheet.Apply(v, t); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, v := range theme.Variants() {
		if s := w.sheet.Sheet(v); s != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(s)
		}
	}
	if err := writeFileAtomic(w.dst, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to update %s: %w", w.dst, err)
	}
	w.log.Debug("Destination updated", zap.Stringer("variant", v), zap.Int("tokens", len(t)))
	return nil
}

// changed reports whether source was modified since the last check.
func (w *watcher) changed() (bool, error) {
	fi, err := os.Stat(w.src)
	if err != nil {
		return false, err
	}
	if fi.ModTime().Equal(w.modTime) && fi.Size() == w.size {
		return false, nil
	}
	w.modTime, w.size = fi.ModTime(), fi.Size()
	return true, nil
}

// reload imports source and hands tokens to the session. Import errors are
// logged, previous tokens stay applied.
func (w *watcher) reload(ctx context.Context) error {
	res, _, err := loadTheme(ctx, w.src, w.log)
	if err != nil {
		return err
	}
	return w.session.Load(res)
}

func (w *watcher) run(ctx context.Context, poll time.Duration, once bool) error {
	check := func() error {
		ok, err := w.changed()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := w.reload(ctx); err != nil {
			if once {
				return err
			}
			w.log.Warn("Unable to reload theme", zap.String("source", w.src), zap.Error(err))
		}
		return nil
	}

	if err := check(); err != nil {
		return err
	}
	if once {
		w.session.Flush()
		return nil
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watching stopped")
			return nil
		case <-ticker.C:
			if err := check(); err != nil {
				w.log.Warn("Unable to check source", zap.String("source", w.src), zap.Error(err))
			}
		}
	}
}

func (w *watcher) close() error {
	return w.session.Close()
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
