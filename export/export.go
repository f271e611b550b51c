// Package export packages a finished case into a single zip artifact: a
// manifest, the decoded uploads of both roles and the generated texts.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"e7-casework/caseerr"
	"e7-casework/review"
	"e7-casework/shared"
)

// ContentType of every artifact.
const ContentType = "application/zip"

// Requirements are the active requirement lists of both roles, used to
// title and order the packaged documents.
type Requirements map[shared.Role][]shared.DocumentRequirement

// Manifest describes the archive contents.
type Manifest struct {
	ID               string     `json:"id"`
	CaseID           string     `json:"caseId"`
	ForeignerName    string     `json:"foreignerName"`
	CompanyName      string     `json:"companyName"`
	VisaType         string     `json:"visaType"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	Documents        []Document `json:"documents"`
	GeneratedVersion int        `json:"generatedVersion,omitempty"`
}

// Document is one packaged upload.
type Document struct {
	Role         shared.Role         `json:"role"`
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Required     bool                `json:"required"`
	Name         string              `json:"name"`
	MimeType     string              `json:"mimeType"`
	Size         int64               `json:"size"`
	ReviewStatus shared.ReviewStatus `json:"reviewStatus"`
	Path         string              `json:"path"`
}

// Artifact is a built package.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	Manifest    Manifest
}

// Filename returns the download name of a case package.
func Filename(c shared.Case) string {
	return fmt.Sprintf("e7-%s.zip", c.ID)
}

// Build packages c. Uploads are written in requirement order, each under the
// directory of its role.
func Build(c shared.Case, reqs Requirements, now time.Time) (Artifact, error) {
	c.Normalize()
	now = now.UTC()
	manifest := Manifest{
		ID:            uuid.NewString(),
		CaseID:        c.ID,
		ForeignerName: c.ForeignerName,
		CompanyName:   c.CompanyName,
		VisaType:      c.VisaType,
		Status:        string(c.Status),
		CreatedAt:     now,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	for _, role := range shared.Roles {
		party := c.Party(role)
		for i, req := range reqs[role] {
			rec, ok := party.Docs[req.ID]
			if !ok {
				continue
			}
			content, err := base64.StdEncoding.DecodeString(rec.Content)
			if err != nil {
				return Artifact{}, caseerr.Wrap(caseerr.CodeInvalidInput, fmt.Sprintf("decode %s/%s", role, req.ID), err)
			}
			name := path.Join(string(role), fmt.Sprintf("%02d_%s%s", i+1, req.ID, extension(rec)))
			if err := write(name, content); err != nil {
				return Artifact{}, err
			}
			manifest.Documents = append(manifest.Documents, Document{
				Role:         role,
				ID:           req.ID,
				Title:        req.Title,
				Required:     req.Required,
				Name:         rec.Name,
				MimeType:     rec.MimeType,
				Size:         int64(len(content)),
				ReviewStatus: review.Status(party, req.ID),
				Path:         name,
			})
		}
	}

	if c.Generated.Ready() {
		manifest.GeneratedVersion = c.Generated.Version
		if err := write("generated/employment_reason.txt", []byte(c.Generated.EmploymentReason)); err != nil {
			return Artifact{}, err
		}
		if err := write("generated/job_description.txt", []byte(c.Generated.JobDescription)); err != nil {
			return Artifact{}, err
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := write("manifest.json", data); err != nil {
		return Artifact{}, err
	}
	if err := zw.Close(); err != nil {
		return Artifact{}, fmt.Errorf("close archive: %w", err)
	}

	return Artifact{
		Filename:    Filename(c),
		ContentType: ContentType,
		Data:        buf.Bytes(),
		Manifest:    manifest,
	}, nil
}

func extension(rec shared.DocumentRecord) string {
	if ext := path.Ext(rec.Name); ext != "" && !strings.ContainsAny(ext, `/\`) {
		return strings.ToLower(ext)
	}
	switch rec.MimeType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
