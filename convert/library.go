package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"themeport/state"
	"themeport/store"
)

// withLibrary opens configured theme library for the duration of fn.
func withLibrary(ctx context.Context, fn func(lib *store.Library, log *zap.Logger) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("library")

	lib, err := store.Open(env.Cfg.Library.Path, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lib.Close())
	}()
	return fn(lib, log)
}

// LibrarySave is "library save" command action.
func LibrarySave(ctx context.Context, cmd *cli.Command) error {
	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	state.EnvFromContext(ctx).Fill = cmd.Bool("fill")

	return withLibrary(ctx, func(lib *store.Library, log *zap.Logger) error {
		res, text, err := loadTheme(ctx, src, log)
		if err != nil {
			return err
		}
		name := cmd.String("name")
		if name == "" {
			if src == stdinName {
				return errors.New("theme name is required when reading standard input")
			}
			name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		}
		e, err := lib.Save(name, text, res)
		if err != nil {
			return err
		}
		log.Info("Theme saved", zap.String("name", e.Name), zap.String("slug", e.Slug), zap.Stringer("id", e.ID))
		fmt.Fprintln(stdout, e.Slug)
		return nil
	})
}

// LibraryList is "library list" command action.
func LibraryList(ctx context.Context, _ *cli.Command) error {
	return withLibrary(ctx, func(lib *store.Library, _ *zap.Logger) error {
		list, err := lib.List()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLUG\tNAME\tLIGHT\tDARK\tUPDATED")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.Slug, s.Name, s.Light, s.Dark, s.Updated.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

// LibraryShow is "library show" command action.
func LibraryShow(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.Args().Get(0)
	if len(ref) == 0 {
		return errors.New("no theme has been specified")
	}
	return withLibrary(ctx, func(lib *store.Library, _ *zap.Logger) error {
		e, err := lib.Get(ref)
		if err != nil {
			return err
		}
		if cmd.Bool("source") {
			_, err := fmt.Fprint(stdout, e.Source)
			return err
		}
		return showTheme(stdout, e.Theme, cmd.String("as"), state.EnvFromContext(ctx))
	})
}

// LibraryDelete is "library delete" command action.
func LibraryDelete(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("no theme has been specified")
	}
	return withLibrary(ctx, func(lib *store.Library, log *zap.Logger) error {
		var err error
		for _, ref := range cmd.Args().Slice() {
			if er := lib.Delete(ref); er != nil {
				err = multierr.Append(err, er)
				continue
			}
			log.Info("Theme deleted", zap.String("theme", ref))
		}
		return err
	})
}

// LibraryExport is "library export" command action: writes zip archive of
// stylesheets.
func LibraryExport(ctx context.Context, cmd *cli.Command) error {
	dst := cmd.Args().Get(0)
	if len(dst) == 0 {
		return errors.New("no destination has been specified")
	}
	if _, err := os.Stat(dst); err == nil && !cmd.Bool("overwrite") {
		return fmt.Errorf("output file already exists: %s", dst)
	}
	return withLibrary(ctx, func(lib *store.Library, log *zap.Logger) (err error) {
		out, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("unable to create archive: %w", err)
		}
		defer func() {
			err = multierr.Append(err, out.Close())
			if err != nil {
				os.Remove(dst)
			}
		}()
		if err := lib.Export(out, cmd.Args().Slice()[1:]...); err != nil {
			return err
		}
		log.Info("Themes exported", zap.String("file", dst))
		return nil
	})
}
