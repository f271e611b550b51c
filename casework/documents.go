package casework

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"e7-casework/caseerr"
	"e7-casework/casestore"
	"e7-casework/gate"
	"e7-casework/review"
	"e7-casework/shared"
)

// File is an incoming upload. Content is read fully before the case is
// touched.
type File struct {
	Name     string
	MimeType string
	Content  io.Reader
}

// ResolveUpload returns the upload page behind a link. Every failure to
// resolve is NotFound with no further detail.
func (s *Service) ResolveUpload(ctx context.Context, role shared.Role, token string) (UploadPage, error) {
	caseID, err := s.tokens.Resolve(ctx, token, role)
	if err != nil {
		return UploadPage{}, err
	}
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return UploadPage{}, invalidLink(err)
	}
	return s.uploadPage(&c, role)
}

// Upload stores a submitter's file for docID.
func (s *Service) Upload(ctx context.Context, role shared.Role, token, docID string, f File) (shared.ReviewStatus, error) {
	caseID, err := s.tokens.Resolve(ctx, token, role)
	if err != nil {
		return "", err
	}
	status, err := s.upload(ctx, caseID, role, docID, f)
	return status, invalidLink(err)
}

// UploadAsAgent stores a file on the submitter's behalf. The same
// submission lock applies.
func (s *Service) UploadAsAgent(ctx context.Context, caseID string, role shared.Role, docID string, f File) (shared.ReviewStatus, error) {
	return s.upload(ctx, caseID, role, docID, f)
}

func (s *Service) upload(ctx context.Context, caseID string, role shared.Role, docID string, f File) (shared.ReviewStatus, error) {
	if !role.Valid() {
		return "", caseerr.Newf(caseerr.CodeInvalidInput, "unknown role %q", role)
	}
	unlock := s.uploads.Lock(caseID + "/" + string(role) + "/" + docID)
	defer unlock()

	rec, err := s.readFile(f)
	if err != nil {
		return "", err
	}

	var status shared.ReviewStatus
	_, err = s.store.Update(ctx, caseID, func(c *shared.Case) error {
		if _, ok := s.catalog.Lookup(c, role, docID); !ok {
			return caseerr.WithMetadata(caseerr.CodeInvalidInput,
				fmt.Sprintf("%s is not requested from %s", docID, role),
				map[string]string{"document_id": docID, "role": string(role)})
		}
		party := c.Party(role)
		if err := gate.CheckUpload(party, docID); err != nil {
			return err
		}
		rec.UploadedAt = s.now()
		var rerr error
		status, rerr = review.RecordUpload(party, docID, rec)
		return rerr
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("document uploaded",
		zap.String("case_id", caseID),
		zap.String("role", string(role)),
		zap.String("document_id", docID),
		zap.String("review_status", string(status)),
		zap.Int64("size", rec.Size),
	)
	return status, nil
}

func (s *Service) readFile(f File) (shared.DocumentRecord, error) {
	if f.Content == nil {
		return shared.DocumentRecord{}, caseerr.New(caseerr.CodeFileReadFailed, "no file content")
	}
	data, err := io.ReadAll(io.LimitReader(f.Content, s.maxUploadBytes+1))
	if err != nil {
		return shared.DocumentRecord{}, caseerr.Wrap(caseerr.CodeFileReadFailed, "read upload", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return shared.DocumentRecord{}, caseerr.Newf(caseerr.CodeInvalidInput, "file exceeds %d bytes", s.maxUploadBytes)
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(f.Name), `\`, "/"))
	if name == "." || name == "/" {
		name = "upload"
	}
	return shared.DocumentRecord{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: strings.TrimSpace(f.MimeType),
		Content:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

// RemoveUpload deletes a submitter's file. It is rejected after the role
// has submitted.
func (s *Service) RemoveUpload(ctx context.Context, role shared.Role, token, docID string) error {
	caseID, err := s.tokens.Resolve(ctx, token, role)
	if err != nil {
		return err
	}
	return invalidLink(s.RemoveDocument(ctx, caseID, role, docID))
}

// RemoveDocument deletes the upload of docID under the same lock rule as
// RemoveUpload.
func (s *Service) RemoveDocument(ctx context.Context, caseID string, role shared.Role, docID string) error {
	if !role.Valid() {
		return caseerr.Newf(caseerr.CodeInvalidInput, "unknown role %q", role)
	}
	unlock := s.uploads.Lock(caseID + "/" + string(role) + "/" + docID)
	defer unlock()

	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		return review.RecordRemoval(c.Party(role), docID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("document removed",
		zap.String("case_id", caseID),
		zap.String("role", string(role)),
		zap.String("document_id", docID),
	)
	return nil
}

// CanSubmit reports whether the role behind token may submit, and what is
// still missing.
func (s *Service) CanSubmit(ctx context.Context, role shared.Role, token string) (bool, []string, error) {
	page, err := s.ResolveUpload(ctx, role, token)
	if err != nil {
		return false, nil, err
	}
	return page.CanSubmit, page.Missing, nil
}

// Submit freezes the role's document set. Repeated calls return the first
// submission time.
func (s *Service) Submit(ctx context.Context, role shared.Role, token string) (time.Time, error) {
	caseID, err := s.tokens.Resolve(ctx, token, role)
	if err != nil {
		return time.Time{}, err
	}

	var (
		submittedAt time.Time
		already     bool
	)
	_, err = s.store.Update(ctx, caseID, func(c *shared.Case) error {
		required, err := s.catalog.Required(c, role)
		if err != nil {
			return err
		}
		party := c.Party(role)
		if party.Submission.IsSubmitted && party.Submission.SubmittedAt != nil {
			already = true
			submittedAt = *party.Submission.SubmittedAt
			return casestore.ErrNoChange
		}
		submittedAt, err = gate.Submit(party, role, required, s.now())
		return err
	})
	if err != nil {
		return time.Time{}, invalidLink(err)
	}
	if already {
		return submittedAt, nil
	}
	s.logger.Info("role submitted", zap.String("case_id", caseID), zap.String("role", string(role)))
	s.notify("role submitted", caseID, s.notifier.RoleSubmitted(ctx, caseID, role))
	return submittedAt, nil
}

// invalidLink hides a vanished case behind the generic link error.
func invalidLink(err error) error {
	if caseerr.CodeOf(err) == caseerr.CodeNotFound {
		return caseerr.New(caseerr.CodeNotFound, "invalid link")
	}
	return err
}
