package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	zip "github.com/hidez8891/zip"
	"go.uber.org/zap/zaptest"

	"themeport/archive"
	"themeport/theme"
	"themeport/tokens"
)

const oceanCSS = `:root {
  --background: #f0f8ff;
  --primary: oklch(0.55 0.15 240);
}
.dark {
  --background: #001122;
}`

func openTest(t *testing.T) *Library {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "themes.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := l.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return l
}

func mustParse(t *testing.T, text string) *theme.Result {
	t.Helper()
	res, err := theme.Parse(text)
	if err != nil {
		t.Fatalf("theme.Parse() error = %v", err)
	}
	return res
}

func TestLibrary_SaveGet(t *testing.T) {
	l := openTest(t)
	res := mustParse(t, oceanCSS)

	saved, err := l.Save("Ocean Breeze", oceanCSS, res)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Slug != "ocean-breeze" {
		t.Errorf("Slug = %q, want ocean-breeze", saved.Slug)
	}
	if saved.ID.Version() != 7 {
		t.Errorf("ID version = %d, want 7", saved.ID.Version())
	}

	for _, ref := range []string{"ocean-breeze", "Ocean Breeze", saved.ID.String()} {
		t.Run(ref, func(t *testing.T) {
			got, err := l.Get(ref)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.ID != saved.ID || got.Name != "Ocean Breeze" || got.Source != oceanCSS {
				t.Errorf("Get() = %+v, want saved entry", got)
			}
			if !got.Theme.Equal(res) {
				t.Errorf("Get() tokens = %v, want %v", got.Theme, res)
			}
		})
	}
}

func TestLibrary_SaveReplaces(t *testing.T) {
	l := openTest(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return base }

	first, err := l.Save("Ocean", "", mustParse(t, oceanCSS))
	if err != nil {
		t.Fatal(err)
	}

	l.now = func() time.Time { return base.Add(time.Hour) }
	second, err := l.Save("ocean", "", mustParse(t, `:root { --primary: #ff0000; }`))
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed on replace: %s != %s", second.ID, first.ID)
	}
	if !second.Created.Equal(base) || !second.Updated.Equal(base.Add(time.Hour)) {
		t.Errorf("Created/Updated = %v/%v", second.Created, second.Updated)
	}

	got, err := l.Get("ocean")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Theme.Light) != 1 || len(got.Theme.Dark) != 0 {
		t.Errorf("old tokens survived replace: %v", got.Theme)
	}
	if got.Theme.Light[tokens.Primary] != "#ff0000" {
		t.Errorf("primary = %q", got.Theme.Light[tokens.Primary])
	}
	if got.Name != "ocean" {
		t.Errorf("Name = %q, want ocean", got.Name)
	}
}

func TestLibrary_SaveErrors(t *testing.T) {
	l := openTest(t)
	if _, err := l.Save("  ", "", mustParse(t, oceanCSS)); err == nil {
		t.Error("Save() expected error for empty name")
	}
	if _, err := l.Save("x", "", nil); err == nil {
		t.Error("Save() expected error for nil result")
	}
}

func TestLibrary_ListDelete(t *testing.T) {
	l := openTest(t)
	res := mustParse(t, oceanCSS)
	for _, name := range []string{"theme 10", "theme 2", "Autumn"} {
		if _, err := l.Save(name, "", res); err != nil {
			t.Fatal(err)
		}
	}

	list, err := l.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, s := range list {
		names = append(names, s.Name)
		if s.Light != 2 || s.Dark != 1 {
			t.Errorf("%s: light=%d dark=%d, want 2/1", s.Name, s.Light, s.Dark)
		}
	}
	want := []string{"Autumn", "theme 2", "theme 10"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if err := l.Delete("theme-2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := l.Get("theme 2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := l.Delete("theme-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if list, _ := l.List(); len(list) != 2 {
		t.Errorf("List() after delete has %d entries, want 2", len(list))
	}
}

func TestLibrary_Export(t *testing.T) {
	l := openTest(t)
	res := mustParse(t, oceanCSS)
	if _, err := l.Save("Ocean", "", res); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Save("Forest", "", mustParse(t, `.dark { --primary: hsl(120 50% 40%); }`)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := l.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "export.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	got := map[string]*theme.Result{}
	err := archive.Walk(path, "*.css", func(_ string, f *zip.File) error {
		data, err := archive.ReadFile(f, 0)
		if err != nil {
			return err
		}
		r, err := theme.Parse(string(data))
		if err != nil {
			return err
		}
		got[f.Name] = r
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("exported %d themes, want 2", len(got))
	}
	if !got["ocean.css"].Equal(res) {
		t.Errorf("ocean.css = %v, want %v", got["ocean.css"], res)
	}

	if err := l.Export(&bytes.Buffer{}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Export(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLibrary_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.db")
	l, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Save("Ocean", oceanCSS, mustParse(t, oceanCSS)); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	l, err = Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if _, err := l.Get("ocean"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Ocean Breeze": "ocean-breeze",
		"  Trim  Me  ": "trim-me",
		"a/b":          "a-b",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
