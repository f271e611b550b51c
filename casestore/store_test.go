package casestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e7-casework/caseerr"
	"e7-casework/shared"
	"e7-casework/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newStore() (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := New(memory.New(), WithClock(clock.Now), WithStatus(func(c *shared.Case) shared.CaseStatus {
		if c.Completed {
			return shared.StatusCompleted
		}
		return shared.StatusCollecting
	}))
	return s, clock
}

func TestCreate_StampsTimesAndStatus(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()

	c, err := s.Create(ctx, shared.Case{ID: "c1", ForeignerName: "Nguyen Van A"})
	require.NoError(t, err)
	assert.Equal(t, c.CreatedAt, c.LastUpdated)
	assert.Equal(t, shared.StatusCollecting, c.Status)
	assert.Equal(t, shared.StepForeignerDocuments, c.CurrentStep)
	assert.NotNil(t, c.Foreigner.Docs)

	_, err = s.Create(ctx, shared.Case{ID: "c1"})
	assert.ErrorIs(t, err, caseerr.ErrInvalidInput)

	_, err = s.Create(ctx, shared.Case{})
	assert.ErrorIs(t, err, caseerr.ErrInvalidInput)
}

func TestUpdate_AdvancesLastUpdated(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	created, err := s.Create(ctx, shared.Case{ID: "c1"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, "c1", func(c *shared.Case) error {
		c.Completed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.LastUpdated.After(created.LastUpdated))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, shared.StatusCompleted, updated.Status)

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, updated.LastUpdated, got.LastUpdated)
}

func TestUpdate_FailedMutationIsNotPersisted(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	_, err := s.Create(ctx, shared.Case{ID: "c1", Memo: "before"})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "c1", func(c *shared.Case) error {
		c.Memo = "after"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "before", got.Memo)
}

func TestUpdate_NoChangeSkipsWrite(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	created, err := s.Create(ctx, shared.Case{ID: "c1", Memo: "before"})
	require.NoError(t, err)

	got, err := s.Update(ctx, "c1", func(c *shared.Case) error {
		c.Memo = "scratch"
		return ErrNoChange
	})
	require.NoError(t, err)
	assert.Equal(t, "before", got.Memo)
	assert.Equal(t, created.LastUpdated, got.LastUpdated)

	stored, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, created.LastUpdated, stored.LastUpdated)
}

func TestUpdate_RejectsOrphanReviewState(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	_, err := s.Create(ctx, shared.Case{ID: "c1"})
	require.NoError(t, err)

	_, err = s.Update(ctx, "c1", func(c *shared.Case) error {
		c.Foreigner.Reviews["passport"] = shared.DocumentReview{Status: shared.ReviewConfirmed}
		return nil
	})
	assert.Error(t, err)

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got.Foreigner.Reviews)
}

func TestMissingCaseIsNotFound(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
	_, err = s.Update(ctx, "nope", func(*shared.Case) error { return nil })
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
	_, err = s.Delete(ctx, "nope")
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
}

func TestDeleteAndList(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, shared.Case{ID: id})
		require.NoError(t, err)
	}
	_, err := s.Update(ctx, "a", func(*shared.Case) error { return nil })
	require.NoError(t, err)

	cases, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, "a", cases[0].ID)
	assert.Equal(t, "c", cases[1].ID)

	deleted, err := s.Delete(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", deleted.ID)
	cases, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cases, 2)
}

func TestUpdate_SerializedPerCase(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	_, err := s.Create(ctx, shared.Case{ID: "c1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "c1", func(c *shared.Case) error {
				c.Memo += "x"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, got.Memo, 20)
	assert.Zero(t, s.locks.size())
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	var k KeyedMutex
	unlock := k.Lock("a")
	assert.Equal(t, 1, k.size())
	unlock()
	assert.Equal(t, 0, k.size())
}
