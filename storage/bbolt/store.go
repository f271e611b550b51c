// Package bbolt provides a BoltDB-backed case repository and token index.
package bbolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"e7-casework/shared"
	"e7-casework/storage"

	"go.etcd.io/bbolt"
)

const (
	caseBucket  = "case"
	tokenBucket = "token"
)

// Store keeps one JSON payload per case in the case bucket and token
// mappings in a separate bucket.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get fetches a case by id.
func (s *Store) Get(ctx context.Context, id string) (shared.Case, error) {
	if err := s.ready(ctx); err != nil {
		return shared.Case{}, err
	}
	var c shared.Case
	err := s.db.View(func(tx *bbolt.Tx) error {
		payload := tx.Bucket([]byte(caseBucket)).Get([]byte(id))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &c); err != nil {
			return fmt.Errorf("unmarshal case: %w", err)
		}
		return nil
	})
	if err != nil {
		return shared.Case{}, err
	}
	c.Normalize()
	return c, nil
}

// Put persists a case record.
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
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(caseBucket)).Put([]byte(c.ID), payload)
	})
}

// Delete removes a case record.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(caseBucket))
		if bucket.Get([]byte(id)) == nil {
			return storage.ErrNotFound
		}
		return bucket.Delete([]byte(id))
	})
}

// List returns every case, most recently updated first.
func (s *Store) List(ctx context.Context) ([]shared.Case, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var cases []shared.Case
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(caseBucket)).ForEach(func(_, payload []byte) error {
			var c shared.Case
			if err := json.NewDecoder(bytes.NewReader(payload)).Decode(&c); err != nil {
				return fmt.Errorf("unmarshal case: %w", err)
			}
			c.Normalize()
			cases = append(cases, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cases, func(i, j int) bool {
		return cases[i].LastUpdated.After(cases[j].LastUpdated)
	})
	return cases, nil
}

// PutToken records a token mapping.
func (s *Store) PutToken(ctx context.Context, key string, entry storage.TokenEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(tokenBucket)).Put([]byte(key), payload)
	})
}

// LookupToken resolves a token key.
func (s *Store) LookupToken(ctx context.Context, key string) (storage.TokenEntry, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TokenEntry{}, err
	}
	var entry storage.TokenEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		payload := tx.Bucket([]byte(tokenBucket)).Get([]byte(key))
		if payload == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(payload, &entry)
	})
	if err != nil {
		return storage.TokenEntry{}, err
	}
	return entry, nil
}

// DeleteToken removes a token mapping if present.
func (s *Store) DeleteToken(ctx context.Context, key string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(tokenBucket)).Delete([]byte(key))
	})
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{caseBucket, tokenBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

var (
	_ storage.CaseRepository = (*Store)(nil)
	_ storage.TokenIndex     = (*Store)(nil)
)
