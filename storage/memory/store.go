// Package memory provides an in-process case repository and token index,
// used by tests and by the "memory" store setting.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"e7-casework/shared"
	"e7-casework/storage"
)

// Store keeps JSON-encoded case records so callers never share maps with the
// stored copy.
type Store struct {
	mu     sync.RWMutex
	cases  map[string][]byte
	tokens map[string]storage.TokenEntry
}

// New returns an empty store.
func New() *Store {
	return &Store{
		cases:  map[string][]byte{},
		tokens: map[string]storage.TokenEntry{},
	}
}

// Get fetches a case by id.
func (s *Store) Get(ctx context.Context, id string) (shared.Case, error) {
	if err := ctx.Err(); err != nil {
		return shared.Case{}, err
	}
	s.mu.RLock()
	payload, ok := s.cases[id]
	s.mu.RUnlock()
	if !ok {
		return shared.Case{}, storage.ErrNotFound
	}
	return decode(payload)
}

// Put stores a case, replacing any previous record with the same id.
func (s *Store) Put(ctx context.Context, c shared.Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("case id is required")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	s.mu.Lock()
	s.cases[c.ID] = payload
	s.mu.Unlock()
	return nil
}

// Delete removes a case.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.cases, id)
	return nil
}

// List returns every case ordered by id.
func (s *Store) List(ctx context.Context) ([]shared.Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	payloads := make([][]byte, 0, len(ids))
	for _, id := range ids {
		payloads = append(payloads, s.cases[id])
	}
	s.mu.RUnlock()

	cases := make([]shared.Case, 0, len(payloads))
	for _, p := range payloads {
		c, err := decode(p)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// PutToken records a token mapping.
func (s *Store) PutToken(ctx context.Context, key string, entry storage.TokenEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.tokens[key] = entry
	s.mu.Unlock()
	return nil
}

// LookupToken resolves a token key.
func (s *Store) LookupToken(ctx context.Context, key string) (storage.TokenEntry, error) {
	if err := ctx.Err(); err != nil {
		return storage.TokenEntry{}, err
	}
	s.mu.RLock()
	entry, ok := s.tokens[key]
	s.mu.RUnlock()
	if !ok {
		return storage.TokenEntry{}, storage.ErrNotFound
	}
	return entry, nil
}

// DeleteToken removes a token mapping if present.
func (s *Store) DeleteToken(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.tokens, key)
	s.mu.Unlock()
	return nil
}

func decode(payload []byte) (shared.Case, error) {
	var c shared.Case
	if err := json.Unmarshal(payload, &c); err != nil {
		return shared.Case{}, fmt.Errorf("unmarshal case: %w", err)
	}
	c.Normalize()
	return c, nil
}

var (
	_ storage.CaseRepository = (*Store)(nil)
	_ storage.TokenIndex     = (*Store)(nil)
)
