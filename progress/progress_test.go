package progress

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e7-casework/review"
	"e7-casework/shared"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

var (
	foreignerDocs = []string{"passport", "arc", "photo", "diploma"}
	companyDocs   = []string{"business_license", "insurance_list", "sales_proof", "office_photos", "employment_contract"}
)

func requirements(ids []string) []shared.DocumentRequirement {
	out := make([]shared.DocumentRequirement, len(ids))
	for i, id := range ids {
		out[i] = shared.DocumentRequirement{ID: id, Title: id, Required: true}
	}
	return out
}

func newInput() Input {
	return Input{
		Case: &shared.Case{
			ID:          "case-1",
			CurrentStep: shared.StepForeignerDocuments,
			Foreigner:   shared.NewParty(),
			Company:     shared.NewParty(),
		},
		ForeignerRequired: requirements(foreignerDocs),
		CompanyRequired:   requirements(companyDocs),
		ForeignerActive:   requirements(append(slices.Clone(foreignerDocs), "transcript")),
		CompanyActive:     requirements(companyDocs),
	}
}

func upload(t *testing.T, p *shared.Party, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := review.RecordUpload(p, id, shared.DocumentRecord{Name: id})
		require.NoError(t, err)
	}
}

func generate(c *shared.Case) {
	c.Generated = &shared.GeneratedDocuments{EmploymentReason: "reason", JobDescription: "duties", Version: 1}
}

func TestDeriveStatus_EmptyCaseIsCollecting(t *testing.T) {
	in := newInput()
	assert.Equal(t, shared.StatusCollecting, DeriveStatus(in))
	assert.Equal(t, 0, DerivePercent(in))
}

func TestDeriveStatus_Scenario(t *testing.T) {
	in := newInput()
	c := in.Case

	upload(t, &c.Foreigner, foreignerDocs...)
	assert.Equal(t, shared.StatusCollecting, DeriveStatus(in))
	upload(t, &c.Company, companyDocs...)
	c.Foreigner.Submission.IsSubmitted = true
	c.Company.Submission.IsSubmitted = true
	assert.Equal(t, shared.StatusWriting, DeriveStatus(in))

	for _, id := range foreignerDocs {
		require.NoError(t, review.Confirm(&c.Foreigner, id, now))
	}
	for _, id := range companyDocs[:4] {
		require.NoError(t, review.Confirm(&c.Company, id, now))
	}
	require.NoError(t, review.RequestRevision(&c.Company, "employment_contract", "unsigned", now))
	assert.Equal(t, shared.StatusRevision, DeriveStatus(in))

	generate(c)
	assert.Equal(t, shared.StatusRevision, DeriveStatus(in), "revision outranks ready")

	upload(t, &c.Company, "employment_contract")
	assert.Equal(t, shared.ReviewResubmitted, review.Status(&c.Company, "employment_contract"))
	assert.Equal(t, shared.StatusWriting, DeriveStatus(in))

	require.NoError(t, review.Confirm(&c.Company, "employment_contract", now))
	assert.Equal(t, shared.StatusReady, DeriveStatus(in))

	c.Generated = nil
	assert.Equal(t, shared.StatusWriting, DeriveStatus(in))

	c.Completed = true
	assert.Equal(t, shared.StatusCompleted, DeriveStatus(in))
}

func TestDeriveStatus_RevisionOnOptionalDocument(t *testing.T) {
	in := newInput()
	upload(t, &in.Case.Foreigner, "transcript")
	require.NoError(t, review.RequestRevision(&in.Case.Foreigner, "transcript", "", now))
	assert.Equal(t, shared.StatusRevision, DeriveStatus(in))
}

func TestDeriveStatus_IgnoresInactiveDocuments(t *testing.T) {
	in := newInput()
	c := in.Case
	for _, role := range shared.Roles {
		p := c.Party(role)
		ids := foreignerDocs
		if role == shared.RoleCompany {
			ids = companyDocs
		}
		upload(t, p, ids...)
		for _, id := range ids {
			require.NoError(t, review.Confirm(p, id, now))
		}
		p.Submission.IsSubmitted = true
	}
	upload(t, &c.Company, "corporate_register")
	require.NoError(t, review.RequestRevision(&c.Company, "corporate_register", "stamp missing", now))
	generate(c)

	assert.Equal(t, shared.StatusReady, DeriveStatus(in))

	in.CompanyActive = append(requirements(companyDocs), shared.DocumentRequirement{ID: "corporate_register", Required: true})
	assert.Equal(t, shared.StatusRevision, DeriveStatus(in))
}

func TestDeriveStatus_IgnoresStep(t *testing.T) {
	in := newInput()
	in.Case.CurrentStep = shared.StepDrafting
	assert.Equal(t, shared.StatusCollecting, DeriveStatus(in))

	upload(t, &in.Case.Foreigner, foreignerDocs...)
	upload(t, &in.Case.Company, companyDocs...)
	in.Case.CurrentStep = shared.StepForeignerDocuments
	assert.Equal(t, shared.StatusWriting, DeriveStatus(in))
}

func TestDerivePercent_Monotonic(t *testing.T) {
	in := newInput()
	c := in.Case
	last := DerivePercent(in)
	check := func(step string) {
		pct := DerivePercent(in)
		assert.GreaterOrEqual(t, pct, last, step)
		assert.LessOrEqual(t, pct, 100, step)
		last = pct
	}

	for _, id := range foreignerDocs {
		upload(t, &c.Foreigner, id)
		check("upload " + id)
		require.NoError(t, review.Confirm(&c.Foreigner, id, now))
		check("confirm " + id)
	}
	for _, id := range companyDocs {
		upload(t, &c.Company, id)
		check("upload " + id)
		require.NoError(t, review.Confirm(&c.Company, id, now))
		check("confirm " + id)
	}
	assert.Equal(t, 50, last)

	generate(c)
	check("generate")
	c.CurrentStep = shared.StepDrafting
	check("step 3")
	c.CurrentStep = shared.StepExport
	check("step 4")
	assert.Equal(t, 100, last)
}

func TestDerivePercent_NoRequirementsCountsAsCollected(t *testing.T) {
	in := newInput()
	in.ForeignerRequired = nil
	in.CompanyRequired = nil
	assert.Equal(t, 50, DerivePercent(in))
}

func TestActivationAndRecommendedStep(t *testing.T) {
	in := newInput()
	c := in.Case

	a := Activation(in)
	assert.True(t, a.Enabled(shared.StepForeignerDocuments))
	assert.True(t, a.Enabled(shared.StepCompanyDocuments))
	assert.False(t, a.Enabled(shared.StepDrafting))
	assert.False(t, a.Enabled(shared.StepExport))
	assert.Equal(t, shared.StepForeignerDocuments, a.Recommended)
	assert.Equal(t, "foreigner documents 0/4", StepProgress(in))

	upload(t, &c.Foreigner, foreignerDocs...)
	upload(t, &c.Company, "business_license")
	assert.Equal(t, shared.StepCompanyDocuments, RecommendedStep(in))
	assert.Equal(t, "company documents 1/5", StepProgress(in))

	c.Company.Submission.IsSubmitted = true
	a = Activation(in)
	assert.True(t, a.Step3)
	assert.Equal(t, shared.StepDrafting, a.Recommended)
	assert.Equal(t, "drafting documents", StepProgress(in))

	generate(c)
	a = Activation(in)
	assert.True(t, a.Step4)
	assert.Equal(t, shared.StepExport, a.Recommended)

	c.Completed = true
	assert.Equal(t, "completed", StepProgress(in))
}
