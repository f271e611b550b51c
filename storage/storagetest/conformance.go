// Package storagetest holds the behavior every storage backend must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e7-casework/shared"
	"e7-casework/storage"
)

// Backend is a store implementing both persistence interfaces.
type Backend interface {
	storage.CaseRepository
	storage.TokenIndex
}

// Run exercises a backend created fresh by open for every subtest.
func Run(t *testing.T, open func(t *testing.T) Backend) {
	t.Run("case round trip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		c := sampleCase("case-1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

		require.NoError(t, s.Put(ctx, c))
		got, err := s.Get(ctx, "case-1")
		require.NoError(t, err)

		assert.Equal(t, "Nguyen Van A", got.ForeignerName)
		assert.Equal(t, "passport.pdf", got.Foreigner.Docs["passport"].Name)
		assert.Equal(t, shared.ReviewSubmitted, got.Foreigner.Reviews["passport"].Status)
		assert.NotNil(t, got.Company.Docs, "maps are allocated after decode")
		assert.True(t, got.LastUpdated.Equal(c.LastUpdated))
	})

	t.Run("get missing case", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("put replaces", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		c := sampleCase("case-1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
		require.NoError(t, s.Put(ctx, c))

		c.Memo = "call employer on Monday"
		require.NoError(t, s.Put(ctx, c))

		got, err := s.Get(ctx, "case-1")
		require.NoError(t, err)
		assert.Equal(t, "call employer on Monday", got.Memo)
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, sampleCase("case-1", time.Now().UTC())))

		require.NoError(t, s.Delete(ctx, "case-1"))
		_, err := s.Get(ctx, "case-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "case-1"), storage.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, s.Put(ctx, sampleCase("case-a", base)))
		require.NoError(t, s.Put(ctx, sampleCase("case-b", base.Add(time.Hour))))

		cases, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, cases, 2)
		ids := []string{cases[0].ID, cases[1].ID}
		assert.ElementsMatch(t, []string{"case-a", "case-b"}, ids)
	})

	t.Run("token index", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		key := storage.TokenKey(shared.RoleCompany, "ABCDEFGHJKLM")

		require.NoError(t, s.PutToken(ctx, key, storage.TokenEntry{CaseID: "case-1", Role: shared.RoleCompany}))
		entry, err := s.LookupToken(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "case-1", entry.CaseID)
		assert.Equal(t, shared.RoleCompany, entry.Role)

		require.NoError(t, s.DeleteToken(ctx, key))
		_, err = s.LookupToken(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		assert.NoError(t, s.DeleteToken(ctx, key), "deleting an absent token succeeds")
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Get(ctx, "case-1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func sampleCase(id string, updated time.Time) shared.Case {
	c := shared.Case{
		ID:            id,
		ForeignerName: "Nguyen Van A",
		CompanyName:   "Hanbit Precision",
		VisaType:      "E-7",
		Status:        shared.StatusCollecting,
		CurrentStep:   shared.StepForeignerDocuments,
		CreatedAt:     updated,
		LastUpdated:   updated,
		Foreigner:     shared.NewParty(),
		Company:       shared.NewParty(),
	}
	c.Foreigner.Docs["passport"] = shared.DocumentRecord{
		Name:       "passport.pdf",
		Size:       4,
		MimeType:   "application/pdf",
		Content:    "JVBERg==",
		UploadedAt: updated,
	}
	c.Foreigner.Reviews["passport"] = shared.DocumentReview{Status: shared.ReviewSubmitted}
	return c
}
