package casework

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"e7-casework/caseerr"
	"e7-casework/shared"
)

func sampleForm() shared.FormData {
	return shared.FormData{
		CompanyName:   "Hanbit Robotics",
		Industry:      "industrial automation",
		JobTitle:      "Robotics Engineer",
		JobSummary:    "designing control software",
		HiringReason:  "a new export contract",
		Salary:        "KRW 42,000,000",
		ForeignerName: "Tran Minh",
		Major:         "mechatronics",
	}
}

func TestScenario_CollectReviewReviseComplete(t *testing.T) {
	n := new(mockNotifier)
	n.On("CaseCreated", mock.Anything, mock.Anything).Return(nil)
	n.On("RoleSubmitted", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	n.On("RevisionRequested", mock.Anything, mock.MatchedBy(func(notice shared.RevisionNotice) bool {
		return notice.DocumentID == "employment_contract" && notice.Note == "Signature missing" && notice.Phone == "02-555-0100"
	})).Return(nil)
	n.On("CaseCompleted", mock.Anything, mock.Anything).Return(nil)

	s := newService(t, n)
	c := newCase(t, s)
	ctx := context.Background()
	percent := func() int {
		ov, err := s.Overview(ctx, c.ID)
		require.NoError(t, err)
		return ov.Progress
	}
	status := func() shared.CaseStatus {
		got, err := s.GetCase(ctx, c.ID)
		require.NoError(t, err)
		return got.Status
	}
	last := percent()
	advance := func(step string) {
		p := percent()
		assert.GreaterOrEqual(t, p, last, step)
		last = p
	}

	uploadAll(t, s, shared.RoleForeigner, c.Tokens.ForeignerToken, foreignerDocs)
	advance("foreigner uploads")
	uploadAll(t, s, shared.RoleCompany, c.Tokens.CompanyToken, companyDocs)
	advance("company uploads")

	for _, role := range shared.Roles {
		ok, _, err := s.CanSubmit(ctx, role, c.Tokens.For(role))
		require.NoError(t, err)
		assert.True(t, ok, role)
		_, err = s.Submit(ctx, role, c.Tokens.For(role))
		require.NoError(t, err)
	}
	assert.NotEqual(t, shared.StatusCollecting, status())

	for _, id := range foreignerDocs {
		require.NoError(t, s.Confirm(ctx, c.ID, shared.RoleForeigner, id))
		advance("confirm " + id)
	}
	for _, id := range companyDocs[:4] {
		require.NoError(t, s.Confirm(ctx, c.ID, shared.RoleCompany, id))
		advance("confirm " + id)
	}
	require.NoError(t, s.RequestRevision(ctx, c.ID, shared.RoleCompany, "employment_contract", "Signature missing"))
	assert.Equal(t, shared.StatusRevision, status())

	info, err := s.NotifySubmitter(ctx, c.ID, shared.RoleCompany, "employment_contract")
	require.NoError(t, err)
	require.NotNil(t, info.SentAt)

	// targeted re-open: only the flagged document may be replaced
	_, err = s.Upload(ctx, shared.RoleCompany, c.Tokens.CompanyToken, "sales_proof", pdf("v2"))
	assert.ErrorIs(t, err, caseerr.ErrLockedBySubmission)
	st, err := s.Upload(ctx, shared.RoleCompany, c.Tokens.CompanyToken, "employment_contract", pdf("signed"))
	require.NoError(t, err)
	assert.Equal(t, shared.ReviewResubmitted, st)
	assert.Equal(t, shared.StatusWriting, status())

	states, err := s.ListRequirements(ctx, c.ID, shared.RoleCompany)
	require.NoError(t, err)
	for _, state := range states {
		if state.ID == "employment_contract" {
			require.NotNil(t, state.Revision)
			assert.Equal(t, "Signature missing", state.Revision.Note)
		}
	}

	require.NoError(t, s.Confirm(ctx, c.ID, shared.RoleCompany, "employment_contract"))
	advance("confirm employment_contract")
	assert.Equal(t, shared.StatusWriting, status(), "all confirmed but nothing generated")

	_, err = s.Complete(ctx, c.ID)
	assert.ErrorIs(t, err, caseerr.ErrInvalidTransition)

	_, err = s.SetStep(ctx, c.ID, shared.StepDrafting)
	require.NoError(t, err)
	advance("step 3")
	_, err = s.SaveFormData(ctx, c.ID, sampleForm())
	require.NoError(t, err)
	docs, err := s.GenerateDocuments(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, docs.Version)
	assert.Equal(t, shared.StatusReady, status())
	advance("generate")

	edited, err := s.EditGenerated(ctx, c.ID, docs.EmploymentReason+"\nEdited.", docs.JobDescription)
	require.NoError(t, err)
	assert.Equal(t, 2, edited.Version)

	_, err = s.SetStep(ctx, c.ID, shared.StepExport)
	require.NoError(t, err)
	advance("step 4")
	assert.Equal(t, 100, last)

	art, err := s.Export(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, art.Manifest.Documents, 9)

	done, err := s.Complete(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, shared.StatusCompleted, done.Status)
	_, err = s.Complete(ctx, c.ID)
	require.NoError(t, err)
	n.AssertNumberOfCalls(t, "CaseCompleted", 1)
	n.AssertNumberOfCalls(t, "RoleSubmitted", 2)
	n.AssertExpectations(t)
}
