package export

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e7-casework/caseerr"
	"e7-casework/shared"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func record(name, mime, content string) shared.DocumentRecord {
	return shared.DocumentRecord{
		Name:     name,
		MimeType: mime,
		Size:     int64(len(content)),
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
	}
}

func sampleCase() shared.Case {
	c := shared.Case{
		ID:            "01JCASE",
		ForeignerName: "Tran Minh",
		CompanyName:   "Hanbit Robotics",
		VisaType:      "E-7",
		Status:        shared.StatusReady,
		Foreigner:     shared.NewParty(),
		Company:       shared.NewParty(),
		Generated:     &shared.GeneratedDocuments{EmploymentReason: "reason text", JobDescription: "job text", Version: 3},
	}
	c.Foreigner.Docs["passport"] = record("Passport.PDF", "application/pdf", "passport-bytes")
	c.Foreigner.Reviews["passport"] = shared.DocumentReview{Status: shared.ReviewConfirmed}
	c.Company.Docs["business_license"] = record("scan", "image/png", "license-bytes")
	return c
}

func sampleRequirements() Requirements {
	return Requirements{
		shared.RoleForeigner: {
			{ID: "passport", Title: "Passport", Required: true},
			{ID: "arc", Title: "Alien registration card", Required: true},
		},
		shared.RoleCompany: {
			{ID: "business_license", Title: "Business license", Required: true},
		},
	}
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = body
	}
	return files
}

func TestBuild(t *testing.T) {
	art, err := Build(sampleCase(), sampleRequirements(), now)
	require.NoError(t, err)
	assert.Equal(t, "e7-01JCASE.zip", art.Filename)
	assert.Equal(t, ContentType, art.ContentType)

	files := readZip(t, art.Data)
	assert.Equal(t, []byte("passport-bytes"), files["foreigner/01_passport.pdf"])
	assert.Equal(t, []byte("license-bytes"), files["company/01_business_license.png"])
	assert.Equal(t, []byte("reason text"), files["generated/employment_reason.txt"])
	assert.Equal(t, []byte("job text"), files["generated/job_description.txt"])
	assert.NotContains(t, files, "foreigner/02_arc")

	var manifest Manifest
	require.NoError(t, json.Unmarshal(files["manifest.json"], &manifest))
	assert.NotEmpty(t, manifest.ID)
	assert.Equal(t, "01JCASE", manifest.CaseID)
	assert.Equal(t, 3, manifest.GeneratedVersion)
	require.Len(t, manifest.Documents, 2)
	assert.Equal(t, shared.ReviewConfirmed, manifest.Documents[0].ReviewStatus)
	assert.Equal(t, shared.ReviewSubmitted, manifest.Documents[1].ReviewStatus)
	assert.Equal(t, art.Manifest.ID, manifest.ID)
}

func TestBuild_WithoutGeneratedTexts(t *testing.T) {
	c := sampleCase()
	c.Generated = nil
	art, err := Build(c, sampleRequirements(), now)
	require.NoError(t, err)

	files := readZip(t, art.Data)
	assert.NotContains(t, files, "generated/employment_reason.txt")
	assert.Zero(t, art.Manifest.GeneratedVersion)
}

func TestBuild_CorruptContent(t *testing.T) {
	c := sampleCase()
	c.Foreigner.Docs["passport"] = shared.DocumentRecord{Name: "p.pdf", Content: "%%%"}

	_, err := Build(c, sampleRequirements(), now)
	assert.ErrorIs(t, err, caseerr.ErrInvalidInput)
}
