// Package archive reads and writes zip archives of theme files.
package archive

import (
	"fmt"
	"io"
	"path"
	"strings"

	zip "github.com/hidez8891/zip"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk. The file argument is the zip.File structure for file in archive which
// satisfies match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks all files in the archive whose base name matches glob pattern
// (empty pattern matches everything), calling walkFn for each item in archive
// order. Archives with path traversal components ("..") or absolute paths are
// rejected to prevent Zip Slip attacks.
func Walk(archive, pattern string, walkFn WalkFunc) error {
	if pattern != "" {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
	}

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !Match(pattern, name) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// Match reports whether base name of slash separated name matches glob
// pattern, case insensitively. Empty pattern matches everything.
func Match(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(path.Base(name)))
	return err == nil && ok
}

// ReadFile reads archived file content refusing files bigger than limit
// bytes (non positive limit means no limit).
func ReadFile(f *zip.File, limit int64) ([]byte, error) {
	if limit > 0 && int64(f.UncompressedSize64) > limit {
		return nil, fmt.Errorf("zip entry %q is too big: %d bytes", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open zip entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	var src io.Reader = rc
	if limit > 0 {
		// size in header may lie
		src = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read zip entry %q: %w", f.Name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("zip entry %q is too big", f.Name)
	}
	return data, nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
