package config

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"themeport/archive"
	"themeport/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates report archive at configured destination falling back to
// temporary file when destination is not writable.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), file: f}, nil
}

// entry is either in-memory data or path to file or directory read when
// report is finalized.
type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report collects inputs, intermediate dumps and results of a run into a
// single zip archive for troubleshooting. Nil report is valid and ignores
// everything. Not safe for concurrent use.
type Report struct {
	entries map[string]entry
	// temporary directories made by StoreCopy
	copies []string
	file   *os.File
}

// Close writes the archive and removes temporary copies.
func (r *Report) Close() (err error) {
	if r == nil || r.file == nil {
		return nil
	}
	defer func() {
		for _, dir := range r.copies {
			err = multierr.Append(err, os.RemoveAll(dir))
		}
		r.copies = nil
	}()
	return multierr.Append(r.finalize(), r.file.Close())
}

// Name returns absolute name of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	name := r.file.Name()
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	return name
}

// Store references file or directory to be archived as is on Close. Storing
// different path under the same name is a programming error.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, ok := r.entries[name]; ok && old.original != path {
		panic(fmt.Sprintf("report entry %q is already taken by %s, refusing %s", name, old.original, path))
	}
	actual := path
	if abs, err := filepath.Abs(path); err == nil {
		actual = abs
	}
	r.entries[name] = entry{original: path, actual: actual}
}

// StoreData puts data into the report. Repeated names get time suffix.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	e := entry{data: data, stamp: time.Now()}
	r.entries[r.uniqueName(name, e.stamp)] = e
}

// StoreCopy snapshots file or directory as it is now, so later changes do
// not affect the report. Repeated names get time suffix.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}
	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() && !info.IsDir() {
		return fmt.Errorf("unable to copy %s: not a regular file or directory", path)
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}
	r.copies = append(r.copies, dir)

	e := entry{original: path, stamp: time.Now(), actual: dir}
	if info.IsDir() {
		err = copyTree(dir, src)
	} else {
		e.actual, err = copyFile(dir, src, info.ModTime())
	}
	if err != nil {
		return err
	}
	r.entries[r.uniqueName(name, e.stamp)] = e
	return nil
}

func (r *Report) uniqueName(name string, stamp time.Time) string {
	if _, ok := r.entries[name]; ok {
		return fmt.Sprintf("%s-%d", name, stamp.UnixNano())
	}
	return name
}

// copyFile copies src into dir keeping base name and modification time.
func copyFile(dir, src string, modTime time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(out, in)
	if err = multierr.Append(err, out.Close()); err != nil {
		return "", err
	}
	return dst, os.Chtimes(dst, modTime, modTime)
}

// walkRegular calls fn for every regular file under root with slash
// separated relative path. Links, sockets and such are ignored.
func walkRegular(root string, fn func(path, rel string, info fs.FileInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel), info)
	})
}

func copyTree(dir, src string) error {
	return walkRegular(src, func(path, rel string, info fs.FileInfo) error {
		_, err := copyFile(filepath.Dir(filepath.Join(dir, filepath.FromSlash(rel))), path, info.ModTime())
		return err
	})
}

// finalize writes MANIFEST followed by all entries in natural name order.
// Missing files are skipped.
func (r *Report) finalize() (err error) {
	arc := archive.NewPacker(r.file)
	defer func() {
		err = multierr.Append(err, arc.Close())
	}()

	names, manifest := prepareManifest(r.entries)
	if err := arc.Add("MANIFEST", time.Now(), manifest); err != nil {
		return err
	}
	for _, name := range names {
		if err := r.archiveEntry(arc, name, r.entries[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) archiveEntry(arc *archive.Packer, name string, e entry) error {
	if len(e.data) > 0 {
		return arc.AddBytes(name, e.stamp, e.data)
	}
	info, err := os.Stat(e.actual)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return addFile(arc, name, e.actual, info.ModTime())
	}
	return walkRegular(e.actual, func(path, rel string, info fs.FileInfo) error {
		return addFile(arc, name+"/"+rel, path, info.ModTime())
	})
}

func prepareManifest(entries map[string]entry) ([]string, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	if len(entries) == 0 {
		return nil, buf
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	now := time.Now()
	for _, name := range names {
		e := entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", stamp.UTC().Format(time.UnixDate), name, e.original, e.actual)
	}
	return names, buf
}

func addFile(arc *archive.Packer, name, path string, modTime time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return arc.Add(name, modTime, f)
}
