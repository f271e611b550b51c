// Package storage defines the persistence boundary of the casework core: a
// key-value case repository and a token index kept apart from case records.
package storage

import (
	"context"
	"errors"

	"e7-casework/shared"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// CaseRepository persists whole case records keyed by case id.
type CaseRepository interface {
	Get(ctx context.Context, id string) (shared.Case, error)
	Put(ctx context.Context, c shared.Case) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]shared.Case, error)
}

// TokenEntry is what an upload token resolves to.
type TokenEntry struct {
	CaseID string      `json:"caseId"`
	Role   shared.Role `json:"role"`
}

// TokenIndex maps "{role}_{token}" keys to case ids.
type TokenIndex interface {
	PutToken(ctx context.Context, key string, entry TokenEntry) error
	LookupToken(ctx context.Context, key string) (TokenEntry, error)
	// DeleteToken succeeds when the key is already absent.
	DeleteToken(ctx context.Context, key string) error
}

// TokenKey builds the index key of a role's token.
func TokenKey(role shared.Role, token string) string {
	return string(role) + "_" + token
}
