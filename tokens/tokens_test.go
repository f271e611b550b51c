package tokens

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"e7-casework/caseerr"
	"e7-casework/shared"
	"e7-casework/storage"
	"e7-casework/storage/memory"
)

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) PutToken(ctx context.Context, key string, entry storage.TokenEntry) error {
	return m.Called(ctx, key, entry).Error(0)
}

func (m *mockIndex) LookupToken(ctx context.Context, key string) (storage.TokenEntry, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(storage.TokenEntry), args.Error(1)
}

func (m *mockIndex) DeleteToken(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestIssueResolve_RoundTrip(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "case-1")
	require.NoError(t, err)
	assert.True(t, WellFormed(issued.ForeignerToken))
	assert.True(t, WellFormed(issued.CompanyToken))
	assert.NotEqual(t, issued.ForeignerToken, issued.CompanyToken)

	caseID, err := svc.Resolve(ctx, issued.ForeignerToken, shared.RoleForeigner)
	require.NoError(t, err)
	assert.Equal(t, "case-1", caseID)

	caseID, err = svc.Resolve(ctx, issued.CompanyToken, shared.RoleCompany)
	require.NoError(t, err)
	assert.Equal(t, "case-1", caseID)
}

func TestResolve_WrongRoleIsNotFound(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()
	issued, err := svc.Issue(ctx, "case-1")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, issued.ForeignerToken, shared.RoleCompany)
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
}

func TestResolve_MalformedNeverTouchesIndex(t *testing.T) {
	index := &mockIndex{}
	svc := NewService(index)

	for _, token := range []string{
		"ABCDEFGHJKL",   // 11 chars
		"ABCDEFGHJKLMN", // 13 chars
		"ABCDEFGHJKL0",  // ambiguous zero
		"ABCDEFGHJKLI",  // ambiguous I
		"ABCDEFGHJKL-",
		"",
	} {
		_, err := svc.Resolve(context.Background(), token, shared.RoleForeigner)
		assert.ErrorIs(t, err, caseerr.ErrNotFound, token)
	}
	index.AssertNotCalled(t, "LookupToken", mock.Anything, mock.Anything)
}

func TestResolve_UnknownToken(t *testing.T) {
	index := &mockIndex{}
	index.On("LookupToken", mock.Anything, "foreigner_ABCDEFGHJKLM").
		Return(storage.TokenEntry{}, storage.ErrNotFound)
	svc := NewService(index)

	_, err := svc.Resolve(context.Background(), "ABCDEFGHJKLM", shared.RoleForeigner)
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
	index.AssertExpectations(t)
}

func TestResolve_InvalidRole(t *testing.T) {
	index := &mockIndex{}
	svc := NewService(index)

	_, err := svc.Resolve(context.Background(), "ABCDEFGHJKLM", shared.Role("agent"))
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
	index.AssertNotCalled(t, "LookupToken", mock.Anything, mock.Anything)
}

func TestIssue_RetriesOnCollision(t *testing.T) {
	// Every byte 0 maps to Alphabet[0], so both draws produce "AAAAAAAAAAAA".
	index := &mockIndex{}
	index.On("LookupToken", mock.Anything, "foreigner_AAAAAAAAAAAA").
		Return(storage.TokenEntry{CaseID: "other"}, nil).Once()
	index.On("LookupToken", mock.Anything, "foreigner_AAAAAAAAAAAA").
		Return(storage.TokenEntry{}, storage.ErrNotFound).Once()
	index.On("LookupToken", mock.Anything, "company_AAAAAAAAAAAA").
		Return(storage.TokenEntry{}, storage.ErrNotFound).Once()
	index.On("PutToken", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(index, WithRandom(zeroReader{}))
	issued, err := svc.Issue(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", Length), issued.ForeignerToken)
	index.AssertNumberOfCalls(t, "PutToken", 2)
}

func TestRevoke_IdempotentAndRemovesBoth(t *testing.T) {
	store := memory.New()
	svc := NewService(store)
	ctx := context.Background()
	issued, err := svc.Issue(ctx, "case-1")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, issued))
	require.NoError(t, svc.Revoke(ctx, issued), "second revoke must not fail")

	_, err = svc.Resolve(ctx, issued.ForeignerToken, shared.RoleForeigner)
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
	_, err = svc.Resolve(ctx, issued.CompanyToken, shared.RoleCompany)
	assert.ErrorIs(t, err, caseerr.ErrNotFound)
}

func TestWellFormed_Alphabet(t *testing.T) {
	assert.Len(t, Alphabet, 56)
	assert.True(t, WellFormed("Ab2Cd3Ef4Gh5"))
	assert.False(t, WellFormed("Ab2Cd3Ef4Gho"))
	assert.False(t, WellFormed("Ab2Cd3Ef4Gh1"))
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
