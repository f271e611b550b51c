// Package tokens issues and resolves the opaque per-role upload tokens that
// bind an unauthenticated submitter to one case.
package tokens

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"e7-casework/caseerr"
	"e7-casework/shared"
	"e7-casework/storage"
)

// Alphabet excludes visually ambiguous characters (I, O, i, o, 0, 1), 56
// symbols in total.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjklmnpqrstuvwxyz23456789"

// Length is the fixed token length.
const Length = 12

// maxIssueAttempts bounds retries on the (astronomically unlikely) collision
// with an existing token.
const maxIssueAttempts = 5

// Service owns the token index.
type Service struct {
	index  storage.TokenIndex
	random io.Reader
}

// Option configures a Service.
type Option func(*Service)

// WithRandom replaces the entropy source. Tests use it for deterministic tokens.
func WithRandom(r io.Reader) Option {
	return func(s *Service) { s.random = r }
}

// NewService returns a Service backed by index.
func NewService(index storage.TokenIndex, opts ...Option) *Service {
	s := &Service{index: index, random: rand.Reader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates one token per role for caseID and records both mappings.
func (s *Service) Issue(ctx context.Context, caseID string) (shared.Tokens, error) {
	foreigner, err := s.issueOne(ctx, caseID, shared.RoleForeigner)
	if err != nil {
		return shared.Tokens{}, err
	}
	company, err := s.issueOne(ctx, caseID, shared.RoleCompany)
	if err != nil {
		_ = s.index.DeleteToken(ctx, storage.TokenKey(shared.RoleForeigner, foreigner))
		return shared.Tokens{}, err
	}
	return shared.Tokens{ForeignerToken: foreigner, CompanyToken: company}, nil
}

func (s *Service) issueOne(ctx context.Context, caseID string, role shared.Role) (string, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, err := s.generate()
		if err != nil {
			return "", err
		}
		key := storage.TokenKey(role, token)
		_, err = s.index.LookupToken(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("check token: %w", err)
		}
		if err := s.index.PutToken(ctx, key, storage.TokenEntry{CaseID: caseID, Role: role}); err != nil {
			return "", fmt.Errorf("store token: %w", err)
		}
		return token, nil
	}
	return "", fmt.Errorf("issue %s token: exhausted %d attempts", role, maxIssueAttempts)
}

func (s *Service) generate() (string, error) {
	limit := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(s.random, limit)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}

// Resolve returns the case id a role's token points at. Malformed tokens are
// rejected before the index is consulted; every failure is NotFound so the
// caller cannot tell a bad format from an unknown token.
func (s *Service) Resolve(ctx context.Context, token string, role shared.Role) (string, error) {
	if !role.Valid() || !WellFormed(token) {
		return "", caseerr.New(caseerr.CodeNotFound, "invalid link")
	}
	entry, err := s.index.LookupToken(ctx, storage.TokenKey(role, token))
	if errors.Is(err, storage.ErrNotFound) {
		return "", caseerr.New(caseerr.CodeNotFound, "invalid link")
	}
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	if entry.Role != role {
		return "", caseerr.New(caseerr.CodeNotFound, "invalid link")
	}
	return entry.CaseID, nil
}

// Revoke removes both mappings of a case. Missing mappings are not an error.
func (s *Service) Revoke(ctx context.Context, t shared.Tokens) error {
	for _, role := range shared.Roles {
		token := t.For(role)
		if token == "" {
			continue
		}
		if err := s.index.DeleteToken(ctx, storage.TokenKey(role, token)); err != nil {
			return fmt.Errorf("revoke %s token: %w", role, err)
		}
	}
	return nil
}

// WellFormed reports whether token has the exact length and alphabet.
func WellFormed(token string) bool {
	if len(token) != Length {
		return false
	}
	for i := 0; i < len(token); i++ {
		if !inAlphabet(token[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return c != 'I' && c != 'O'
	case c >= 'a' && c <= 'z':
		return c != 'i' && c != 'o'
	case c >= '2' && c <= '9':
		return true
	default:
		return false
	}
}
