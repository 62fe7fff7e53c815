package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	zip "github.com/hidez8891/zip"
)

// Packer writes deflated entries into zip archive.
type Packer struct {
	w     *zip.Writer
	names map[string]struct{}
}

// NewPacker starts archive in w. Close must be called to write central
// directory.
func NewPacker(w io.Writer) *Packer {
	return &Packer{w: zip.NewWriter(w), names: make(map[string]struct{})}
}

// Add copies r into archive entry name. Duplicate names are rejected.
func (p *Packer) Add(name string, modified time.Time, r io.Reader) error {
	if !isSafePath(name) {
		return fmt.Errorf("zip entry %q: unsafe path", name)
	}
	if _, exists := p.names[name]; exists {
		return fmt.Errorf("zip entry %q already exists", name)
	}
	w, err := p.w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return err
	}
	p.names[name] = struct{}{}
	return nil
}

// AddBytes stores data as archive entry name.
func (p *Packer) AddBytes(name string, modified time.Time, data []byte) error {
	return p.Add(name, modified, bytes.NewReader(data))
}

// Len returns number of entries added.
func (p *Packer) Len() int {
	return len(p.names)
}

func (p *Packer) Close() error {
	return p.w.Close()
}
