// Package sqlite stores named circuit projects in a SQLite database.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/project"
)

//go:embed schema.sql
var schema string

var (
	ErrNotFound      = errors.New("sqlite: project not found")
	ErrAlreadyExists = errors.New("sqlite: project already exists")
)

// Summary describes one stored project without decoding it.
type Summary struct {
	Name       string
	Components int
	Wires      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store persists projects in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the project database at path, creating the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Save stores d under name, replacing any previous version. The creation
// time of an existing project is kept.
func (s *Store) Save(ctx context.Context, name string, d project.Dump) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	var buf bytes.Buffer
	if err := project.Encode(&buf, d, project.FormatJSON); err != nil {
		return err
	}
	now := toMillis(s.now())
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO projects (name, dump, components, wires, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   dump = excluded.dump,
		   components = excluded.components,
		   wires = excluded.wires,
		   updated_at = excluded.updated_at`,
		name, buf.String(), len(d.Components), len(d.Wires), now, now,
	)
	if err != nil {
		return fmt.Errorf("save project %q: %w", name, err)
	}
	return nil
}

// Load returns the dump stored under name.
func (s *Store) Load(ctx context.Context, name string) (project.Dump, error) {
	if err := s.ready(ctx); err != nil {
		return project.Dump{}, err
	}
	var text string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT dump FROM projects WHERE name = ?`, name).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Dump{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return project.Dump{}, fmt.Errorf("load project %q: %w", name, err)
	}
	return project.Decode(strings.NewReader(text), project.FormatJSON)
}

// List returns every stored project, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, components, wires, created_at, updated_at
		 FROM projects ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created, updated int64
		if err := rows.Scan(&sum.Name, &sum.Components, &sum.Wires, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		sum.CreatedAt, sum.UpdatedAt = fromMillis(created), fromMillis(updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// Rename moves a project to a new name. It fails with ErrAlreadyExists when
// the new name is taken.
func (s *Store) Rename(ctx context.Context, from, to string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("project name is required")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE projects SET name = ?, updated_at = ? WHERE name = ?`,
		to, toMillis(s.now()), from)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %q: %w", to, ErrAlreadyExists)
		}
		return fmt.Errorf("rename project %q: %w", from, err)
	}
	return expectRow(res, from)
}

// Delete removes a project.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete project %q: %w", name, err)
	}
	return expectRow(res, name)
}

func expectRow(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("project %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
