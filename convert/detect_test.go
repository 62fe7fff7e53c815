package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	zip "github.com/hidez8891/zip"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"themeport/archive"
)

// readerForEncoding returns data encoded with byte order mark.
func readerForEncoding(t *testing.T, data []byte, enc srcEncoding) []byte {
	t.Helper()
	var e encoding.Encoding
	switch enc {
	case encUTF16BigEndian:
		e = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case encUTF16LittleEndian:
		e = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case encUTF32BigEndian:
		e = utf32.UTF32(utf32.BigEndian, utf32.UseBOM)
	case encUTF32LittleEndian:
		e = utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)
	default:
		return data
	}
	out, err := e.NewEncoder().Bytes(data)
	if err != nil {
		t.Fatalf("unable to encode test data: %v", err)
	}
	return out
}

func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("non-zip extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.txt")
		if err := os.WriteFile(filePath, []byte("not a zip"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil || got {
			t.Errorf("isArchiveFile() = %v, %v, want false", got, err)
		}
	})

	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil || got {
			t.Errorf("isArchiveFile() = %v, %v, want false", got, err)
		}
	})

	t.Run("valid zip file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "themes.zip")
		f, err := os.Create(filePath)
		if err != nil {
			t.Fatal(err)
		}
		p := archive.NewPacker(f)
		if err := p.AddBytes("a.css", time.Now(), []byte(":root{}")); err != nil {
			t.Fatal(err)
		}
		if err := p.Close(); err != nil {
			t.Fatal(err)
		}
		f.Close()

		got, err := isArchiveFile(filePath)
		if err != nil || !got {
			t.Errorf("isArchiveFile() = %v, %v, want true", got, err)
		}
	})
}

func TestIsArchiveFile_NonExistent(t *testing.T) {
	if _, err := isArchiveFile("/nonexistent/file.zip"); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{"UTF-8 BOM", []byte{0xEF, 0xBB, 0xBF, 0x00}, encUTF8},
		{"UTF-16 Big Endian BOM", []byte{0xFE, 0xFF, 0x00, 0x00}, encUTF16BigEndian},
		{"UTF-16 Little Endian BOM", []byte{0xFF, 0xFE, 0x01, 0x00}, encUTF16LittleEndian},
		{"UTF-32 Big Endian BOM", []byte{0x00, 0x00, 0xFE, 0xFF}, encUTF32BigEndian},
		{"UTF-32 Little Endian BOM", []byte{0xFF, 0xFE, 0x00, 0x00}, encUTF32LittleEndian},
		{"No BOM", []byte(":root"), encUnknown},
		{"Short", []byte{0xEF}, encUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectUTF(tt.buf); got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsThemeFile(t *testing.T) {
	tmpDir := t.TempDir()
	css := []byte(":root { --primary: #fff; }")
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

	tests := []struct {
		name     string
		filename string
		pattern  string
		content  []byte
		want     bool
		wantEnc  srcEncoding
	}{
		{"stylesheet", "theme.css", "*.css", css, true, encUnknown},
		{"stylesheet with BOM", "bom.css", "*.css", append([]byte{0xEF, 0xBB, 0xBF}, css...), true, encUTF8},
		{"uppercase extension", "THEME.CSS", "*.css", css, true, encUnknown},
		{"pattern mismatch", "theme.txt", "*.css", css, false, encUnknown},
		{"empty pattern", "theme.txt", "", css, true, encUnknown},
		{"binary", "image.css", "*.css", png, false, encUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.filename)
			if err := os.WriteFile(path, tt.content, 0644); err != nil {
				t.Fatal(err)
			}
			got, enc, err := isThemeFile(path, tt.pattern)
			if err != nil {
				t.Fatalf("isThemeFile() error = %v", err)
			}
			if got != tt.want || enc != tt.wantEnc {
				t.Errorf("isThemeFile() = %v, %v, want %v, %v", got, enc, tt.want, tt.wantEnc)
			}
		})
	}

	if _, _, err := isThemeFile(filepath.Join(tmpDir, "missing.css"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsThemeInArchive(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "themes.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	p := archive.NewPacker(f)
	p.AddBytes("a/ocean.css", time.Now(), []byte(":root{}"))
	p.AddBytes("a/readme.md", time.Now(), []byte("# themes"))
	p.AddBytes("a/bom.css", time.Now(), append([]byte{0xFE, 0xFF}, 0, ':'))
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	want := map[string]struct {
		ok  bool
		enc srcEncoding
	}{
		"a/ocean.css": {true, encUnknown},
		"a/readme.md": {false, encUnknown},
		"a/bom.css":   {true, encUTF16BigEndian},
	}
	err = archive.Walk(zipPath, "", func(_ string, f *zip.File) error {
		ok, enc, err := isThemeInArchive(f, "*.css")
		if err != nil {
			return err
		}
		if w := want[f.Name]; ok != w.ok || enc != w.enc {
			t.Errorf("%s: got %v/%v, want %v/%v", f.Name, ok, enc, w.ok, w.enc)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSelectReader(t *testing.T) {
	for _, enc := range []srcEncoding{encUnknown, encUTF8, encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian} {
		t.Run(enc.String(), func(t *testing.T) {
			if selectReader(bytes.NewReader(nil), enc) == nil {
				t.Error("selectReader() returned nil")
			}
		})
	}
}

func TestSelectReader_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid encoding, but didn't panic")
		}
	}()
	selectReader(bytes.NewReader([]byte("test")), srcEncoding(999))
}

func TestDecodeText(t *testing.T) {
	const css = ":root { --primary: #fff; } /* тема */"

	latin, err := charmap.ISO8859_1.NewEncoder().String(`@charset "iso-8859-1"; .dark { --ring: #000; } /* café */`)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		data    []byte
		enc     srcEncoding
		limit   int64
		want    string
		wantErr bool
	}{
		{"plain", []byte(css), encUnknown, 0, css, false},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, css...), encUTF8, 0, css, false},
		{"utf16", readerForEncoding(t, []byte(css), encUTF16LittleEndian), encUTF16LittleEndian, 0, css, false},
		{"utf32", readerForEncoding(t, []byte(css), encUTF32BigEndian), encUTF32BigEndian, 0, css, false},
		{"charset rule", []byte(latin), encUnknown, 0, `@charset "iso-8859-1"; .dark { --ring: #000; } /* café */`, false},
		{"limit", []byte(css), encUnknown, 5, "", true},
		{"invalid utf8", []byte{':', 0xff, 0xfe, 'x'}, encUnknown, 0, "", true},
		{"nul bytes", []byte{':', 0, 'x'}, encUnknown, 0, "", true},
		{"unknown charset", []byte(`@charset "klingon"; :root{}`), encUnknown, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(bytes.NewReader(tt.data), tt.enc, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("decodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCharsetRule(t *testing.T) {
	tests := map[string]string{
		`@charset "UTF-8"; :root{}`: "utf-8",
		`@charset "koi8-r";`:        "koi8-r",
		`@charset 'utf-8';`:         "",
		` @charset "utf-8";`:        "",
		`@charset "utf-8"`:          "",
		`:root{}`:                   "",
		`@charset "` + strings.Repeat("x", 50) + `";`: "",
	}
	for in, want := range tests {
		if got := charsetRule([]byte(in)); got != want {
			t.Errorf("charsetRule(%q) = %q, want %q", in, got, want)
		}
	}
}
