// Package store keeps imported themes in a local sqlite library.
package store

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"themeport/archive"
	"themeport/theme"
	"themeport/tokens"
)

// ErrNotFound is returned when theme reference does not match any library entry.
var ErrNotFound = errors.New("theme not found")

const schema = `
CREATE TABLE IF NOT EXISTS themes (
	id      TEXT PRIMARY KEY,
	slug    TEXT NOT NULL UNIQUE,
	name    TEXT NOT NULL,
	source  TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL,
	updated INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tokens (
	theme_id TEXT NOT NULL REFERENCES themes(id) ON DELETE CASCADE,
	variant  TEXT NOT NULL,
	key      TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (theme_id, variant, key)
);
`

// Entry is a theme stored in the library.
type Entry struct {
	ID      uuid.UUID
	Name    string
	Slug    string
	Source  string // original stylesheet text, may be empty
	Created time.Time
	Updated time.Time
	Theme   *theme.Result
}

// Summary describes library entry without tokens.
type Summary struct {
	ID      uuid.UUID
	Name    string
	Slug    string
	Updated time.Time
	Light   int
	Dark    int
}

// Library is theme storage backed by single sqlite connection. Methods are
// safe for concurrent use.
type Library struct {
	log  *zap.Logger
	mu   sync.Mutex
	conn *sqlite.Conn
	now  func() time.Time
}

// Open opens (creating when necessary) library database at path. Use
// ":memory:" for transient library.
func Open(path string, log *zap.Logger) (*Library, error) {
	if log == nil {
		log = zap.NewNop()
	}
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if path == ":memory:" {
		flags = append(flags, sqlite.OpenMemory)
	} else {
		flags = append(flags, sqlite.OpenWAL)
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open theme library %q: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, "PRAGMA foreign_keys = ON;"+schema, nil); err != nil {
		return nil, multierr.Append(fmt.Errorf("unable to prepare theme library: %w", err), conn.Close())
	}
	log = log.Named("store")
	log.Debug("Theme library opened", zap.String("path", path))
	return &Library{log: log, conn: conn, now: time.Now}, nil
}

// Close releases database.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}

// Slug returns library slug for theme name.
func Slug(name string) string {
	return slug.Make(name)
}

// Save stores theme under name replacing tokens of existing entry with the
// same slug.
func (l *Library) Save(name, source string, res *theme.Result) (_ *Entry, err error) {
	name = strings.TrimSpace(name)
	s := Slug(name)
	if s == "" {
		return nil, fmt.Errorf("bad theme name %q", name)
	}
	if res == nil {
		return nil, errors.New("nothing to save")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	defer sqlitex.Save(l.conn)(&err)

	e := &Entry{Name: name, Slug: s, Source: source, Updated: l.now().UTC()}
	old, err := l.lookup(s)
	switch {
	case errors.Is(err, ErrNotFound):
		if e.ID, err = uuid.NewV7(); err != nil {
			return nil, fmt.Errorf("unable to generate theme id: %w", err)
		}
		e.Created = e.Updated
		err = sqlitex.Execute(l.conn, `INSERT INTO themes (id, slug, name, source, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{e.ID.String(), s, name, source, e.Created.UnixMilli(), e.Updated.UnixMilli()}})
	case err == nil:
		e.ID, e.Created = old.ID, old.Created
		err = sqlitex.Execute(l.conn, `UPDATE themes SET name = ?, source = ?, updated = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{name, source, e.Updated.UnixMilli(), e.ID.String()}})
		if err == nil {
			err = sqlitex.Execute(l.conn, `DELETE FROM tokens WHERE theme_id = ?`,
				&sqlitex.ExecOptions{Args: []any{e.ID.String()}})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("unable to save theme %q: %w", name, err)
	}

	for _, v := range theme.Variants() {
		t := res.Get(v)
		for _, k := range t.Keys() {
			if err = sqlitex.Execute(l.conn, `INSERT INTO tokens (theme_id, variant, key, value) VALUES (?, ?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{e.ID.String(), v.String(), k.String(), t[k]}}); err != nil {
				return nil, fmt.Errorf("unable to save theme %q: %w", name, err)
			}
		}
	}
	e.Theme = res.Merge(nil)
	e.Theme.Skipped = nil

	l.log.Debug("Theme saved", zap.String("name", name), zap.Stringer("id", e.ID), zap.Int("tokens", res.Len()))
	return e, nil
}

// Get finds theme by id, slug or name.
func (l *Library) Get(ref string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.lookup(ref)
	if err != nil {
		return nil, err
	}
	e.Theme = &theme.Result{Light: theme.Tokens{}, Dark: theme.Tokens{}}
	err = sqlitex.Execute(l.conn, `SELECT variant, key, value FROM tokens WHERE theme_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{e.ID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				v, err := theme.ParseVariant(stmt.ColumnText(0))
				if err != nil {
					return err
				}
				k, err := tokens.ParseKey(stmt.ColumnText(1))
				if err != nil {
					// library written by newer version, ignore
					l.log.Warn("Ignoring unknown stored token", zap.String("theme", e.Name), zap.Error(err))
					return nil
				}
				e.Theme.Get(v)[k] = stmt.ColumnText(2)
				return nil
			}})
	if err != nil {
		return nil, fmt.Errorf("unable to read theme %q: %w", e.Name, err)
	}
	return e, nil
}

// lookup resolves reference to entry header, tokens are not loaded.
func (l *Library) lookup(ref string) (*Entry, error) {
	ref = strings.TrimSpace(ref)
	var e *Entry
	err := sqlitex.Execute(l.conn, `SELECT id, slug, name, source, created, updated FROM themes WHERE id = ? OR slug = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{ref, Slug(ref)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id, err := uuid.Parse(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("corrupted theme id: %w", err)
				}
				e = &Entry{
					ID:      id,
					Slug:    stmt.ColumnText(1),
					Name:    stmt.ColumnText(2),
					Source:  stmt.ColumnText(3),
					Created: time.UnixMilli(stmt.ColumnInt64(4)).UTC(),
					Updated: time.UnixMilli(stmt.ColumnInt64(5)).UTC(),
				}
				return nil
			}})
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return e, nil
}

// List returns all library entries in natural name order.
func (l *Library) List() ([]Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var list []Summary
	err := sqlitex.Execute(l.conn, `
SELECT t.id, t.slug, t.name, t.updated,
	(SELECT COUNT(*) FROM tokens k WHERE k.theme_id = t.id AND k.variant = 'light'),
	(SELECT COUNT(*) FROM tokens k WHERE k.theme_id = t.id AND k.variant = 'dark')
FROM themes t`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id, err := uuid.Parse(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("corrupted theme id: %w", err)
				}
				list = append(list, Summary{
					ID:      id,
					Slug:    stmt.ColumnText(1),
					Name:    stmt.ColumnText(2),
					Updated: time.UnixMilli(stmt.ColumnInt64(3)).UTC(),
					Light:   int(stmt.ColumnInt64(4)),
					Dark:    int(stmt.ColumnInt64(5)),
				})
				return nil
			}})
	if err != nil {
		return nil, fmt.Errorf("unable to list themes: %w", err)
	}
	sort.Sort(byName(list))
	return list, nil
}

type byName []Summary

func (s byName) Len() int      { return len(s) }
func (s byName) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byName) Less(i, j int) bool {
	if s[i].Name == s[j].Name {
		return s[i].Slug < s[j].Slug
	}
	return natural.Less(s[i].Name, s[j].Name)
}

// Delete removes theme from library.
func (l *Library) Delete(ref string) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	defer sqlitex.Save(l.conn)(&err)

	e, err := l.lookup(ref)
	if err != nil {
		return err
	}
	// cascade is not relied upon, databases created by other tools may lack it
	if err = sqlitex.Execute(l.conn, `DELETE FROM tokens WHERE theme_id = ?`,
		&sqlitex.ExecOptions{Args: []any{e.ID.String()}}); err != nil {
		return fmt.Errorf("unable to delete theme %q: %w", e.Name, err)
	}
	if err = sqlitex.Execute(l.conn, `DELETE FROM themes WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{e.ID.String()}}); err != nil {
		return fmt.Errorf("unable to delete theme %q: %w", e.Name, err)
	}
	l.log.Debug("Theme deleted", zap.String("name", e.Name), zap.Stringer("id", e.ID))
	return nil
}

// Export writes zip archive with one stylesheet per requested theme (all
// themes when refs is empty) into w.
func (l *Library) Export(w io.Writer, refs ...string) (err error) {
	if len(refs) == 0 {
		list, err := l.List()
		if err != nil {
			return err
		}
		for _, s := range list {
			refs = append(refs, s.ID.String())
		}
	}

	arc := archive.NewPacker(w)
	defer func() {
		err = multierr.Append(err, arc.Close())
	}()

	for _, ref := range refs {
		e, err := l.Get(ref)
		if err != nil {
			return err
		}
		var buf strings.Builder
		fmt.Fprintf(&buf, "/* %s */\n", strings.ReplaceAll(e.Name, "*/", "* /"))
		if _, err := e.Theme.WriteTo(&buf); err != nil {
			return err
		}
		if err := arc.AddBytes(e.Slug+".css", e.Updated, []byte(buf.String())); err != nil {
			return fmt.Errorf("unable to export theme %q: %w", e.Name, err)
		}
	}
	l.log.Debug("Themes exported", zap.Int("count", arc.Len()))
	return nil
}
