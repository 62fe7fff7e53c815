package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"themeport/state"
	"themeport/theme"
)

// stdinName is source name meaning standard input (pasted text).
const stdinName = "-"

var stdin io.Reader = os.Stdin

// loadTheme reads single theme from stylesheet, previously exported YAML
// file or standard input. Returned text is the stylesheet source (empty for
// YAML).
func loadTheme(ctx context.Context, src string, log *zap.Logger) (*theme.Result, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	env := state.EnvFromContext(ctx)

	if src == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("unable to read standard input: %w", err)
		}
		return loadText(ctx, data, "stdin", log)
	}

	switch strings.ToLower(filepath.Ext(src)) {
	case ".yaml", ".yml":
		f, err := os.Open(src)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		res, err := readYAML(f)
		if err != nil {
			return nil, "", fmt.Errorf("unable to load theme (%s): %w", src, err)
		}
		if env.Fill {
			defaults, err := env.Defaults()
			if err != nil {
				return nil, "", err
			}
			res = res.Merge(defaults)
		}
		return res, "", nil
	}

	ok, _, err := isThemeFile(src, "")
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", fmt.Errorf("input was not recognized as stylesheet (%s)", src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, "", err
	}
	return loadText(ctx, data, filepath.Base(src), log)
}

func loadText(ctx context.Context, data []byte, name string, log *zap.Logger) (*theme.Result, string, error) {
	enc := detectUTF(data)
	if isBinary(data[:min(len(data), sniffLen)]) {
		return nil, "", fmt.Errorf("input was not recognized as stylesheet (%s)", name)
	}
	text, err := decodeText(bytes.NewReader(data), enc, state.EnvFromContext(ctx).Cfg.Import.MaxInputSize)
	if err != nil {
		return nil, "", fmt.Errorf("unable to read stylesheet (%s): %w", name, err)
	}
	res, err := importTheme(ctx, text, name, log)
	if err != nil {
		return nil, "", err
	}
	return res, text, nil
}
