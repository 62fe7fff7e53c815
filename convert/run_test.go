package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	zip "github.com/hidez8891/zip"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"themeport/archive"
	"themeport/config"
	"themeport/state"
	"themeport/theme"
	"themeport/tokens"
)

const sampleCSS = `@layer base {
  :root {
    --background: 0 0% 100%;
    --primary: oklch(0.55 0.2 260);
    --radius: 0.5rem;
  }
  .dark {
    --background: #09090b;
    --primary: hsl(217 91% 60%);
  }
}
`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeArchive(t *testing.T, path string, files map[string]string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	p := archive.NewPacker(f)
	for name, content := range files {
		if err := p.AddBytes(name, time.Now(), []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadOutput(t *testing.T, path string) *theme.Result {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	res, err := theme.Parse(string(data))
	if err != nil {
		t.Fatalf("output is not a theme: %v", err)
	}
	return res
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeFile(t, filepath.Join(t.TempDir(), "ocean.css"), sampleCSS)
	dst := t.TempDir()

	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	got := loadOutput(t, filepath.Join(dst, "ocean.css"))
	want, _ := theme.Parse(sampleCSS)
	if !got.Equal(want) {
		t.Errorf("output = %v, want %v", got, want)
	}
	if _, ok := got.Light[tokens.Key("radius")]; ok {
		t.Error("unknown token must not be written")
	}
}

func TestProcess_Yaml(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Format = config.OutputFmtYaml
	src := writeFile(t, filepath.Join(t.TempDir(), "ocean.css"), sampleCSS)
	dst := t.TempDir()

	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	f, err := os.Open(filepath.Join(dst, "ocean.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := readYAML(f)
	if err != nil {
		t.Fatalf("readYAML() error = %v", err)
	}
	want, _ := theme.Parse(sampleCSS)
	if !got.Equal(want) {
		t.Errorf("yaml output = %v, want %v", got, want)
	}
}

func TestProcess_Fill(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Fill = true
	src := writeFile(t, filepath.Join(t.TempDir(), "ocean.css"), sampleCSS)
	dst := t.TempDir()

	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	got := loadOutput(t, filepath.Join(dst, "ocean.css"))
	defaults, err := env.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Light) != len(defaults.Light) || len(got.Dark) != len(defaults.Dark) {
		t.Errorf("filled output has %d/%d tokens, want %d/%d", len(got.Light), len(got.Dark), len(defaults.Light), len(defaults.Dark))
	}
	if got.Dark[tokens.Background] != "#09090b" {
		t.Errorf("imported value must win over default, got %q", got.Dark[tokens.Background])
	}
}

func TestProcess_Directory(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ocean.css"), sampleCSS)
	writeFile(t, filepath.Join(dir, "nested", "forest.css"), ".dark { --ring: #00ff00; }")
	writeFile(t, filepath.Join(dir, "notes.txt"), ":root { --ring: red; }")
	writeFile(t, filepath.Join(dir, "broken.css"), "body { color: red; }")
	writeArchive(t, filepath.Join(dir, "packs", "more.zip"), map[string]string{
		"a/sun.css":  ":root { --primary: #ffcc00; }",
		"a/note.txt": "ignored",
	})
	dst := t.TempDir()

	if err := process(ctx, dir, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	for _, name := range []string{"ocean.css", "nested/forest.css", "packs/a/sun.css"} {
		loadOutput(t, filepath.Join(dst, filepath.FromSlash(name)))
	}
	for _, name := range []string{"notes.css", "broken.css", "packs/a/note.css"} {
		if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(name))); err == nil {
			t.Errorf("unexpected output %s", name)
		}
	}
}

func TestProcess_ArchivePath(t *testing.T) {
	ctx, env := setupTestEnv(t)
	zipPath := writeArchive(t, filepath.Join(t.TempDir(), "themes.zip"), map[string]string{
		"set/ocean.css":  sampleCSS,
		"set/forest.css": ".dark { --ring: #00ff00; }",
		"other/sun.css":  ":root { --primary: #ffcc00; }",
		"set/plain.txt":  ":root { --primary: #ffcc00; }",
	})

	t.Run("directory inside archive", func(t *testing.T) {
		dst := t.TempDir()
		if err := process(ctx, filepath.Join(zipPath, "set"), dst, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		loadOutput(t, filepath.Join(dst, "set", "ocean.css"))
		loadOutput(t, filepath.Join(dst, "set", "forest.css"))
		if _, err := os.Stat(filepath.Join(dst, "other")); err == nil {
			t.Error("entries outside requested path must be skipped")
		}
		if _, err := os.Stat(filepath.Join(dst, "set", "plain.css")); err == nil {
			t.Error("entries not matching pattern must be skipped")
		}
	})

	t.Run("named entry ignores pattern", func(t *testing.T) {
		dst := t.TempDir()
		if err := process(ctx, filepath.Join(zipPath, "set", "plain.txt"), dst, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		loadOutput(t, filepath.Join(dst, "set", "plain.css"))
	})
}

func TestProcess_Errors(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()

	t.Run("not found", func(t *testing.T) {
		if err := process(ctx, filepath.Join(dir, "missing", "ocean.css"), t.TempDir(), env.Log); err == nil {
			t.Error("expected error for missing source")
		}
	})

	t.Run("path under regular file", func(t *testing.T) {
		src := writeFile(t, filepath.Join(dir, "plain.css"), sampleCSS)
		if err := process(ctx, filepath.Join(src, "inner.css"), t.TempDir(), env.Log); err == nil {
			t.Error("expected error for path below regular file")
		}
	})

	t.Run("no recognized block", func(t *testing.T) {
		src := writeFile(t, filepath.Join(dir, "body.css"), "body { color: red; }")
		err := process(ctx, src, t.TempDir(), env.Log)
		if !errors.Is(err, theme.ErrNoRecognizedBlock) {
			t.Errorf("process() error = %v, want ErrNoRecognizedBlock", err)
		}
	})

	t.Run("binary", func(t *testing.T) {
		src := writeFile(t, filepath.Join(dir, "image.css"), "\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
		if err := process(ctx, src, t.TempDir(), env.Log); err == nil {
			t.Error("expected error for binary input")
		}
	})

	t.Run("too big", func(t *testing.T) {
		old := env.Cfg.Import.MaxInputSize
		env.Cfg.Import.MaxInputSize = 10
		defer func() { env.Cfg.Import.MaxInputSize = old }()
		src := writeFile(t, filepath.Join(dir, "big.css"), sampleCSS)
		if err := process(ctx, src, t.TempDir(), env.Log); err == nil {
			t.Error("expected error for oversized input")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		src := writeFile(t, filepath.Join(dir, "ocean.css"), sampleCSS)
		if err := process(cctx, src, t.TempDir(), env.Log); !errors.Is(err, context.Canceled) {
			t.Errorf("process() error = %v, want context.Canceled", err)
		}
	})
}

func TestProcess_Overwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeFile(t, filepath.Join(t.TempDir(), "ocean.css"), sampleCSS)
	dst := t.TempDir()
	out := writeFile(t, filepath.Join(dst, "ocean.css"), "old")

	err := process(ctx, src, dst, env.Log)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("process() error = %v, want already exists", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "old" {
		t.Error("existing output must be preserved")
	}

	env.Overwrite = true
	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	loadOutput(t, out)
}

func TestProcessTheme_Encodings(t *testing.T) {
	ctx, env := setupTestEnv(t)
	want, _ := theme.Parse(sampleCSS)

	for _, enc := range []srcEncoding{encUnknown, encUTF8, encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian} {
		t.Run(enc.String(), func(t *testing.T) {
			data := []byte(sampleCSS)
			if enc == encUTF8 {
				data = append([]byte{0xEF, 0xBB, 0xBF}, data...)
			} else {
				data = readerForEncoding(t, data, enc)
			}
			dst := t.TempDir()
			if err := processTheme(ctx, bytes.NewReader(data), enc, "ocean.css", dst, env.Log); err != nil {
				t.Fatalf("processTheme() error = %v", err)
			}
			if got := loadOutput(t, filepath.Join(dst, "ocean.css")); !got.Equal(want) {
				t.Errorf("output = %v, want %v", got, want)
			}
		})
	}
}

func TestProcessTheme_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	env.Rpt = rpt

	dst := t.TempDir()
	if err := processTheme(ctx, strings.NewReader(sampleCSS), encUnknown, "ocean.css", dst, env.Log); err != nil {
		t.Fatalf("processTheme() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("report Close() error = %v", err)
	}

	var names []string
	err = archive.Walk(rpt.Name(), "", func(_ string, f *zip.File) error {
		names = append(names, f.Name)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"dump-ocean.css.txt", "result-ocean.css"} {
		if !strings.Contains(joined, want) {
			t.Errorf("report entries %v do not contain %s", names, want)
		}
	}
}
