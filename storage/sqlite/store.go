// Package sqlite provides the SQLite-backed case repository and token index.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"e7-casework/shared"
	"e7-casework/storage"
	"e7-casework/storage/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Store persists cases as JSON payloads, one row per case.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get fetches a case by id.
func (s *Store) Get(ctx context.Context, id string) (shared.Case, error) {
	if err := s.ready(ctx); err != nil {
		return shared.Case{}, err
	}
	var payload string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT payload FROM cases WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return shared.Case{}, storage.ErrNotFound
	}
	if err != nil {
		return shared.Case{}, fmt.Errorf("get case: %w", err)
	}
	return decode(payload)
}

// Put upserts a case.
func (s *Store) Put(ctx context.Context, c shared.Case) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("case id is required")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO cases (id, payload, last_updated) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	payload = excluded.payload,
	last_updated = excluded.last_updated
`,
		c.ID,
		string(payload),
		c.LastUpdated.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put case: %w", err)
	}
	return nil
}

// Delete removes a case.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns every case, most recently updated first.
func (s *Store) List(ctx context.Context) ([]shared.Case, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT payload FROM cases ORDER BY last_updated DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []shared.Case
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c, err := decode(payload)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

// PutToken records a token mapping.
func (s *Store) PutToken(ctx context.Context, key string, entry storage.TokenEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO case_tokens (token_key, case_id, role) VALUES (?, ?, ?)`,
		key, entry.CaseID, string(entry.Role),
	)
	if err != nil {
		return fmt.Errorf("put token: %w", err)
	}
	return nil
}

// LookupToken resolves a token key.
func (s *Store) LookupToken(ctx context.Context, key string) (storage.TokenEntry, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TokenEntry{}, err
	}
	var entry storage.TokenEntry
	var role string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT case_id, role FROM case_tokens WHERE token_key = ?`, key,
	).Scan(&entry.CaseID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.TokenEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.TokenEntry{}, fmt.Errorf("lookup token: %w", err)
	}
	entry.Role = shared.Role(role)
	return entry, nil
}

// DeleteToken removes a token mapping if present.
func (s *Store) DeleteToken(ctx context.Context, key string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM case_tokens WHERE token_key = ?`, key); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
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

func decode(payload string) (shared.Case, error) {
	var c shared.Case
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return shared.Case{}, fmt.Errorf("unmarshal case: %w", err)
	}
	c.Normalize()
	return c, nil
}

var (
	_ storage.CaseRepository = (*Store)(nil)
	_ storage.TokenIndex     = (*Store)(nil)
)
