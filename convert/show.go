package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"themeport/config"
	"themeport/preview"
	"themeport/state"
	"themeport/theme"
)

var stdout io.Writer = os.Stdout

// Show is "show" command action: prints imported theme either as debug tree
// with picker hex values, as terminal swatches or as normalized stylesheet.
func Show(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("show")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	env.Fill = cmd.Bool("fill")

	res, _, err := loadTheme(ctx, src, log)
	if err != nil {
		return err
	}
	return showTheme(stdout, res, cmd.String("as"), env)
}

func showTheme(w io.Writer, res *theme.Result, as string, env *state.LocalEnv) error {
	switch strings.ToLower(as) {
	case "", "tree":
		_, err := io.WriteString(w, res.Dump())
		return err
	case "swatches":
		return preview.Terminal(w, res, env.Cfg.Preview.Columns)
	default:
		format, err := config.ParseOutputFmt(as)
		if err != nil {
			return fmt.Errorf("unknown presentation %q: %w", as, err)
		}
		return writeTheme(w, res, format)
	}
}

// Preview is "preview" command action: renders swatch sheet image.
func Preview(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("preview")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	env.Fill = cmd.Bool("fill")

	format := env.Cfg.Preview.Format
	if cmd.IsSet("format") {
		var err error
		if format, err = config.ParsePreviewFmt(cmd.String("format")); err != nil {
			return err
		}
	}

	res, _, err := loadTheme(ctx, src, log)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		base := "stdin"
		if src != stdinName {
			base = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		}
		dst = config.CleanFileName(base) + format.Ext()
	}
	if _, err := os.Stat(dst); err == nil && !cmd.Bool("overwrite") {
		return fmt.Errorf("output file already exists: %s", dst)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create preview: %w", err)
	}
	if err := renderPreview(out, res, format, &env.Cfg.Preview); err != nil {
		out.Close()
		return fmt.Errorf("unable to render preview: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Info("Preview written", zap.String("file", dst), zap.Stringer("format", format))

	if env.Rpt != nil {
		if err := env.Rpt.StoreCopy("preview"+format.Ext(), dst); err != nil {
			log.Warn("Unable to store preview in report", zap.Error(err))
		}
	}
	return nil
}

func renderPreview(w io.Writer, res *theme.Result, format config.PreviewFmt, conf *config.PreviewConfig) error {
	opts := preview.Options{Size: conf.SwatchSize, Columns: conf.Columns, Labels: conf.Labels}
	switch format {
	case config.PreviewFmtSvg:
		return preview.WriteSVG(w, res, opts)
	case config.PreviewFmtPng:
		return preview.WritePNG(w, res, opts)
	default:
		// this should never happen
		panic(fmt.Sprintf("unsupported preview format %d", format))
	}
}
