// Package store persists lemma mappings and annotations in SQLite.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
//
// Rows are grouped by document key so one database can serve a whole
// project. View adapts one document to the annotation.Set and
// annotation.LemmaTable interfaces the compiler consumes.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Vellum/core/annotation"
	"github.com/FocuswithJustin/Vellum/core/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS lemmas (
	doc        TEXT    NOT NULL,
	word_index INTEGER NOT NULL,
	lemma      TEXT    NOT NULL,
	analysis   TEXT    NOT NULL DEFAULT '',
	normalized TEXT    NOT NULL DEFAULT '',
	confirmed  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (doc, word_index)
);
CREATE TABLE IF NOT EXISTS annotations (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	doc         TEXT    NOT NULL,
	id          TEXT    NOT NULL,
	type        TEXT    NOT NULL,
	target_kind TEXT    NOT NULL,
	word_index  INTEGER NOT NULL DEFAULT 0,
	start_pos   INTEGER NOT NULL DEFAULT 0,
	end_pos     INTEGER NOT NULL DEFAULT 0,
	category    TEXT    NOT NULL DEFAULT '',
	subcategory TEXT    NOT NULL DEFAULT '',
	attribute   TEXT    NOT NULL DEFAULT '',
	value       TEXT    NOT NULL DEFAULT '',
	UNIQUE (doc, id)
);
CREATE INDEX IF NOT EXISTS annotations_word ON annotations (doc, word_index);
`

// Info describes the SQLite driver compiled in.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	Package    string `json:"package"`
}

// DriverInfo returns the active driver configuration.
func DriverInfo() Info {
	return Info{DriverName: driverName, DriverType: driverType, Package: driverPackage}
}

// Store is a SQLite-backed lemma and annotation store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutLemma stores or replaces the mapping for word i of doc.
func (s *Store) PutLemma(ctx context.Context, doc string, i int, m annotation.LemmaMapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lemmas (doc, word_index, lemma, analysis, normalized, confirmed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (doc, word_index) DO UPDATE SET
			lemma = excluded.lemma,
			analysis = excluded.analysis,
			normalized = excluded.normalized,
			confirmed = excluded.confirmed`,
		doc, i, m.Lemma, m.Analysis, m.Normalized, boolInt(m.Confirmed))
	if err != nil {
		return fmt.Errorf("failed to store lemma %s/%d: %w", doc, i, err)
	}
	return nil
}

// Lemma returns the mapping for word i of doc.
func (s *Store) Lemma(ctx context.Context, doc string, i int) (annotation.LemmaMapping, bool, error) {
	var m annotation.LemmaMapping
	var confirmed int
	err := s.db.QueryRowContext(ctx,
		`SELECT lemma, analysis, normalized, confirmed FROM lemmas WHERE doc = ? AND word_index = ?`,
		doc, i).Scan(&m.Lemma, &m.Analysis, &m.Normalized, &confirmed)
	if err == sql.ErrNoRows {
		return annotation.LemmaMapping{}, false, nil
	}
	if err != nil {
		return annotation.LemmaMapping{}, false, fmt.Errorf("failed to read lemma %s/%d: %w", doc, i, err)
	}
	m.Confirmed = confirmed != 0
	return m, true, nil
}

// LemmaTable loads every mapping of doc into memory.
func (s *Store) LemmaTable(ctx context.Context, doc string) (annotation.MapTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word_index, lemma, analysis, normalized, confirmed FROM lemmas WHERE doc = ?`, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to list lemmas of %s: %w", doc, err)
	}
	defer rows.Close()

	t := annotation.MapTable{}
	for rows.Next() {
		var i, confirmed int
		var m annotation.LemmaMapping
		if err := rows.Scan(&i, &m.Lemma, &m.Analysis, &m.Normalized, &confirmed); err != nil {
			return nil, err
		}
		m.Confirmed = confirmed != 0
		t[i] = m
	}
	return t, rows.Err()
}

// AddAnnotation stores a. An empty ID is replaced with a new UUID, which
// is returned.
func (s *Store) AddAnnotation(ctx context.Context, doc string, a annotation.Annotation) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annotations (doc, id, type, target_kind, word_index, start_pos, end_pos,
			category, subcategory, attribute, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc, a.ID, string(a.Type), string(a.Target.Kind), a.Target.WordIndex, a.Target.Start, a.Target.End,
		a.Category, a.Subcategory, a.Attribute, a.Value)
	if err != nil {
		return "", fmt.Errorf("failed to store annotation %s: %w", a.ID, err)
	}
	return a.ID, nil
}

// DeleteAnnotation removes annotation id from doc.
func (s *Store) DeleteAnnotation(ctx context.Context, doc, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE doc = ? AND id = ?`, doc, id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFound("annotation", id)
	}
	return nil
}

const annotationColumns = `id, type, target_kind, word_index, start_pos, end_pos, category, subcategory, attribute, value`

// ForWord returns word annotations on word i followed by spans covering it,
// each group in insertion order.
func (s *Store) ForWord(ctx context.Context, doc string, i int) ([]annotation.Annotation, error) {
	return s.query(ctx, `SELECT `+annotationColumns+` FROM annotations
		WHERE doc = ? AND (
			(target_kind = 'word' AND word_index = ?) OR
			(target_kind = 'span' AND start_pos <= ? AND end_pos >= ?))
		ORDER BY CASE target_kind WHEN 'span' THEN 1 ELSE 0 END, seq`,
		doc, i, i, i)
}

// CharRanges returns character-range annotations inside word i.
func (s *Store) CharRanges(ctx context.Context, doc string, i int) ([]annotation.Annotation, error) {
	return s.query(ctx, `SELECT `+annotationColumns+` FROM annotations
		WHERE doc = ? AND target_kind = 'char_range' AND word_index = ?
		ORDER BY seq`,
		doc, i)
}

// AnnotationSet loads every annotation of doc into memory.
func (s *Store) AnnotationSet(ctx context.Context, doc string) (*annotation.MemorySet, error) {
	as, err := s.query(ctx, `SELECT `+annotationColumns+` FROM annotations WHERE doc = ? ORDER BY seq`, doc)
	if err != nil {
		return nil, err
	}
	return annotation.NewMemorySet(as...), nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]annotation.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var out []annotation.Annotation
	for rows.Next() {
		var a annotation.Annotation
		var typ, kind string
		if err := rows.Scan(&a.ID, &typ, &kind, &a.Target.WordIndex, &a.Target.Start, &a.Target.End,
			&a.Category, &a.Subcategory, &a.Attribute, &a.Value); err != nil {
			return nil, err
		}
		a.Type = annotation.Type(typ)
		a.Target.Kind = annotation.TargetKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// View exposes one document of a Store through the compiler's lookup
// interfaces. Lookups that fail are reported as misses; the first error is
// kept and returned by Err.
type View struct {
	store *Store
	doc   string
	ctx   context.Context
	err   error
}

// View returns a lookup view over doc.
func (s *Store) View(ctx context.Context, doc string) *View {
	return &View{store: s, doc: doc, ctx: ctx}
}

// Lookup implements annotation.LemmaTable.
func (v *View) Lookup(i int) (annotation.LemmaMapping, bool) {
	m, ok, err := v.store.Lemma(v.ctx, v.doc, i)
	v.keep(err)
	return m, ok
}

// ForWord implements annotation.Set.
func (v *View) ForWord(i int) []annotation.Annotation {
	as, err := v.store.ForWord(v.ctx, v.doc, i)
	v.keep(err)
	return as
}

// CharRanges implements annotation.Set.
func (v *View) CharRanges(i int) []annotation.Annotation {
	as, err := v.store.CharRanges(v.ctx, v.doc, i)
	v.keep(err)
	return as
}

// Err returns the first lookup error, if any.
func (v *View) Err() error {
	return v.err
}

func (v *View) keep(err error) {
	if err != nil && v.err == nil {
		v.err = err
	}
}
