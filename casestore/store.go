// Package casestore owns case records on top of a storage.CaseRepository.
// Every write goes through a per-case lock, stamps lastUpdated and
// refreshes the stored status snapshot.
package casestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"e7-casework/caseerr"
	"e7-casework/review"
	"e7-casework/shared"
	"e7-casework/storage"
)

// ErrNoChange is returned by an Update callback that left the case as it
// was. Update then writes nothing and returns the stored case.
var ErrNoChange = errors.New("case unchanged")

// StatusFunc derives the status snapshot stored with a case.
type StatusFunc func(c *shared.Case) shared.CaseStatus

// Store is the case store.
type Store struct {
	repo   storage.CaseRepository
	now    func() time.Time
	status StatusFunc
	locks  KeyedMutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithStatus installs the status deriver run on every write.
func WithStatus(fn StatusFunc) Option {
	return func(s *Store) { s.status = fn }
}

// New returns a Store over repo.
func New(repo storage.CaseRepository, opts ...Option) *Store {
	s := &Store{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store clock in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

// Create persists a new case. The id must be set and unused.
func (s *Store) Create(ctx context.Context, c shared.Case) (shared.Case, error) {
	if c.ID == "" {
		return shared.Case{}, caseerr.New(caseerr.CodeInvalidInput, "case id is required")
	}
	unlock := s.locks.Lock(c.ID)
	defer unlock()

	if _, err := s.repo.Get(ctx, c.ID); err == nil {
		return shared.Case{}, caseerr.WithMetadata(caseerr.CodeInvalidInput, "case already exists", map[string]string{"case_id": c.ID})
	} else if !errors.Is(err, storage.ErrNotFound) {
		return shared.Case{}, fmt.Errorf("get case: %w", err)
	}

	c.Normalize()
	now := s.Now()
	c.CreatedAt = now
	c.LastUpdated = now
	if !c.CurrentStep.Valid() {
		c.CurrentStep = shared.StepForeignerDocuments
	}
	s.snapshot(&c)
	if err := s.repo.Put(ctx, c); err != nil {
		return shared.Case{}, fmt.Errorf("put case: %w", err)
	}
	return c, nil
}

// Get loads a case.
func (s *Store) Get(ctx context.Context, id string) (shared.Case, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return shared.Case{}, translate(err, id)
	}
	c.Normalize()
	return c, nil
}

// Update applies fn to the current case under the case lock and persists
// the result. Nothing is written when fn fails.
func (s *Store) Update(ctx context.Context, id string, fn func(c *shared.Case) error) (shared.Case, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return shared.Case{}, err
	}
	if err := fn(&c); err != nil {
		if errors.Is(err, ErrNoChange) {
			return s.Get(ctx, id)
		}
		return shared.Case{}, err
	}
	for _, role := range shared.Roles {
		if err := review.Check(c.Party(role)); err != nil {
			return shared.Case{}, fmt.Errorf("check %s review state: %w", role, err)
		}
	}
	c.LastUpdated = s.Now()
	s.snapshot(&c)
	if err := s.repo.Put(ctx, c); err != nil {
		return shared.Case{}, fmt.Errorf("put case: %w", err)
	}
	return c, nil
}

// Delete removes a case and returns the record as it was.
func (s *Store) Delete(ctx context.Context, id string) (shared.Case, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return shared.Case{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return shared.Case{}, translate(err, id)
	}
	return c, nil
}

// List returns every case, most recently updated first.
func (s *Store) List(ctx context.Context) ([]shared.Case, error) {
	cases, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	for i := range cases {
		cases[i].Normalize()
	}
	sortByLastUpdated(cases)
	return cases, nil
}

func (s *Store) snapshot(c *shared.Case) {
	if s.status != nil {
		c.Status = s.status(c)
	}
}

func translate(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &caseerr.Error{
			Code:     caseerr.CodeNotFound,
			Message:  "case not found",
			Metadata: map[string]string{"case_id": id},
			Cause:    err,
		}
	}
	return fmt.Errorf("get case %s: %w", id, err)
}

func sortByLastUpdated(cases []shared.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		if cases[i].LastUpdated.Equal(cases[j].LastUpdated) {
			return cases[i].ID < cases[j].ID
		}
		return cases[i].LastUpdated.After(cases[j].LastUpdated)
	})
}
