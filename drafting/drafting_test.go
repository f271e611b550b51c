package drafting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e7-casework/caseerr"
	"e7-casework/shared"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleForm() shared.FormData {
	return shared.FormData{
		CompanyName:   "Hanbit Robotics",
		Industry:      "industrial automation",
		EmployeeCount: "42",
		JobTitle:      "Robotics Engineer",
		JobSummary:    "designing control software for assembly robots",
		HiringReason:  "a new export contract",
		Salary:        "KRW 42,000,000 per year",
		ForeignerName: "Tran Minh",
		Nationality:   "Vietnam",
		Major:         "mechatronics",
	}
}

func TestGenerate_RendersBothTexts(t *testing.T) {
	d := Default()
	docs, err := d.Generate(sampleForm(), nil, now)
	require.NoError(t, err)

	assert.True(t, docs.Ready())
	assert.Equal(t, 1, docs.Version)
	assert.Equal(t, now, docs.GeneratedAt)
	assert.Contains(t, docs.EmploymentReason, "Hanbit Robotics is a specialist company in the industrial automation sector")
	assert.Contains(t, docs.EmploymentReason, "Tran Minh (Vietnam) majored in mechatronics")
	assert.Contains(t, docs.JobDescription, "Position: Robotics Engineer")
	assert.Contains(t, docs.JobDescription, "(42 employees)")
}

func TestGenerate_AppliesDefaults(t *testing.T) {
	docs, err := Default().Generate(sampleForm(), nil, now)
	require.NoError(t, err)

	assert.Contains(t, docs.EmploymentReason, "- Working hours: "+DefaultWorkHours)
	assert.Contains(t, docs.EmploymentReason, "- Dormitory: "+DefaultDormitory)
	assert.Contains(t, docs.JobDescription, "- Working hours: "+DefaultWorkHours)
}

func TestGenerate_VersionIncrements(t *testing.T) {
	d := Default()
	first, err := d.Generate(sampleForm(), nil, now)
	require.NoError(t, err)

	form := sampleForm()
	form.WorkHours = "35 hours/week"
	second, err := d.Generate(form, &first, now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, second.Version)
	assert.Contains(t, second.EmploymentReason, "35 hours/week")
}

func TestGenerate_RequiresCoreFields(t *testing.T) {
	form := sampleForm()
	form.CompanyName = "  "
	form.JobTitle = ""

	_, err := Default().Generate(form, nil, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, caseerr.ErrInvalidInput)
	assert.Equal(t, []string{"companyName", "jobTitle"}, caseerr.MissingOf(err))
}
