package casework

import (
	"context"

	"go.uber.org/zap"

	"e7-casework/caseerr"
	"e7-casework/catalog"
	"e7-casework/review"
	"e7-casework/shared"
)

func party(c *shared.Case, role shared.Role) (*shared.Party, error) {
	p := c.Party(role)
	if p == nil {
		return nil, caseerr.Newf(caseerr.CodeInvalidInput, "unknown role %q", role)
	}
	p.Normalize()
	return p, nil
}

// Confirm accepts an uploaded document.
func (s *Service) Confirm(ctx context.Context, caseID string, role shared.Role, docID string) error {
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		p, err := party(c, role)
		if err != nil {
			return err
		}
		return review.Confirm(p, docID, s.now())
	})
	if err != nil {
		return err
	}
	s.logger.Info("document confirmed", zap.String("case_id", caseID), zap.String("role", string(role)), zap.String("document_id", docID))
	return nil
}

// RequestRevision asks the submitter to replace docID. The note is
// optional.
func (s *Service) RequestRevision(ctx context.Context, caseID string, role shared.Role, docID, note string) error {
	note = catalog.CleanText(note)
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		p, err := party(c, role)
		if err != nil {
			return err
		}
		return review.RequestRevision(p, docID, note, s.now())
	})
	if err != nil {
		return err
	}
	s.logger.Info("revision requested", zap.String("case_id", caseID), zap.String("role", string(role)), zap.String("document_id", docID))
	return nil
}

// NotifySubmitter records that the submitter was told about an outstanding
// revision and hands the notice to the notifier.
func (s *Service) NotifySubmitter(ctx context.Context, caseID string, role shared.Role, docID string) (shared.RevisionInfo, error) {
	var (
		info  shared.RevisionInfo
		phone string
	)
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		p, err := party(c, role)
		if err != nil {
			return err
		}
		info, err = review.MarkNotified(p, docID, s.now())
		if role == shared.RoleCompany {
			phone = c.CompanyPhone
		} else {
			phone = c.ForeignerPhone
		}
		return err
	})
	if err != nil {
		return shared.RevisionInfo{}, err
	}
	s.logger.Info("submitter notified", zap.String("case_id", caseID), zap.String("role", string(role)), zap.String("document_id", docID))
	s.notify("revision requested", caseID, s.notifier.RevisionRequested(ctx, shared.RevisionNotice{
		CaseID:      caseID,
		Role:        role,
		DocumentID:  docID,
		Note:        info.Note,
		Phone:       phone,
		RequestedAt: info.RequestedAt,
	}))
	return info, nil
}
