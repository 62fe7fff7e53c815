package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	zip "github.com/hidez8891/zip"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"themeport/archive"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUTF8:
		return "utf8"
	case encUTF16BigEndian:
		return "utf16be"
	case encUTF16LittleEndian:
		return "utf16le"
	case encUTF32BigEndian:
		return "utf32be"
	case encUTF32LittleEndian:
		return "utf32le"
	default:
		return "unknown"
	}
}

// sniffLen is how much of the file is looked at to decide on its type.
const sniffLen = 512

var errBinary = errors.New("binary content")

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks for byte order mark, UTF-32 checks go first since UTF-32LE
// mark starts with UTF-16LE one.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	default:
		return encUnknown
	}
}

// selectReader wraps r with decoder for detected encoding, BOM is consumed.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	default:
		// this should never happen
		panic(fmt.Sprintf("unexpected source encoding %d", enc))
	}
}

// isBinary reports content recognized as some known binary format (image,
// font, archive, etc.).
func isBinary(head []byte) bool {
	if detectUTF(head) != encUnknown {
		return false
	}
	kind, err := filetype.Match(head)
	return err == nil && kind != filetype.Unknown
}

// isArchiveFile checks if file has zip extension and zip content.
func isArchiveFile(path string) (bool, error) {
	head, err := readHead(path)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	return filetype.Is(head, "zip"), nil
}

// isThemeFile checks if file name matches pattern and content looks like
// text.
func isThemeFile(path, pattern string) (bool, srcEncoding, error) {
	head, err := readHead(path)
	if err != nil {
		return false, encUnknown, err
	}
	if !archive.Match(pattern, filepath.Base(path)) || isBinary(head) {
		return false, encUnknown, nil
	}
	return true, detectUTF(head), nil
}

// isThemeInArchive is isThemeFile for archive entries.
func isThemeInArchive(f *zip.File, pattern string) (bool, srcEncoding, error) {
	if !archive.Match(pattern, f.Name) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, encUnknown, err
	}
	head = head[:n]
	if isBinary(head) {
		return false, encUnknown, nil
	}
	return true, detectUTF(head), nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}

// decodeText reads stylesheet honouring BOM or leading @charset rule and
// refusing more than limit bytes (non positive limit means no limit).
func decodeText(r io.Reader, enc srcEncoding, limit int64) (string, error) {
	src := selectReader(r, enc)
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("input is bigger than %d bytes", limit)
	}
	if enc == encUnknown {
		if label := charsetRule(data); label != "" {
			dr, err := charset.NewReaderLabel(label, bytes.NewReader(data))
			if err != nil {
				return "", fmt.Errorf("unsupported stylesheet charset %q: %w", label, err)
			}
			if data, err = io.ReadAll(dr); err != nil {
				return "", err
			}
		}
	}
	if !utf8.Valid(data) {
		return "", errors.New("input is not valid UTF-8 text")
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", errBinary
	}
	return string(data), nil
}

// charsetRule returns encoding label of `@charset "...";` rule, which must
// be the very first thing in stylesheet.
func charsetRule(data []byte) string {
	const prefix = `@charset "`
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return ""
	}
	rest := data[len(prefix):]
	end := bytes.IndexByte(rest, '"')
	if end <= 0 || end > 40 || !bytes.HasPrefix(rest[end:], []byte(`";`)) {
		return ""
	}
	return strings.ToLower(string(rest[:end]))
}
