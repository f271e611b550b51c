package casework

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"e7-casework/caseerr"
	"e7-casework/casestore"
	"e7-casework/export"
	"e7-casework/progress"
	"e7-casework/shared"
)

// SetStep moves the agent to step. Steps that are not yet unlocked are
// rejected.
func (s *Service) SetStep(ctx context.Context, caseID string, step shared.Step) (shared.Case, error) {
	if !step.Valid() {
		return shared.Case{}, caseerr.Newf(caseerr.CodeInvalidInput, "unknown step %d", step)
	}
	return s.store.Update(ctx, caseID, func(c *shared.Case) error {
		in, err := s.input(c)
		if err != nil {
			return err
		}
		if !progress.Activation(in).Enabled(step) {
			return caseerr.WithMetadata(caseerr.CodeInvalidTransition,
				fmt.Sprintf("step %d is not available yet", step),
				map[string]string{"case_id": c.ID})
		}
		c.CurrentStep = step
		return nil
	})
}

// SaveFormData stores the drafting form.
func (s *Service) SaveFormData(ctx context.Context, caseID string, form shared.FormData) (shared.Case, error) {
	return s.store.Update(ctx, caseID, func(c *shared.Case) error {
		c.FormData = &form
		return nil
	})
}

// GenerateDocuments drafts both texts from the saved form. Each run bumps
// the version.
func (s *Service) GenerateDocuments(ctx context.Context, caseID string) (shared.GeneratedDocuments, error) {
	var docs shared.GeneratedDocuments
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		if c.FormData == nil {
			return caseerr.New(caseerr.CodeInvalidInput, "form data has not been saved")
		}
		var err error
		docs, err = s.drafter.Generate(*c.FormData, c.Generated, s.now())
		if err != nil {
			return err
		}
		c.Generated = &docs
		return nil
	})
	if err != nil {
		return shared.GeneratedDocuments{}, err
	}
	s.logger.Info("documents generated", zap.String("case_id", caseID), zap.Int("version", docs.Version))
	return docs, nil
}

// EditGenerated saves agent edits to the drafted texts as a new version.
func (s *Service) EditGenerated(ctx context.Context, caseID, employmentReason, jobDescription string) (shared.GeneratedDocuments, error) {
	var docs shared.GeneratedDocuments
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		if !c.Generated.Ready() {
			return caseerr.New(caseerr.CodeInvalidTransition, "documents have not been generated")
		}
		docs = shared.GeneratedDocuments{
			EmploymentReason: employmentReason,
			JobDescription:   jobDescription,
			Version:          c.Generated.Version + 1,
			GeneratedAt:      s.now(),
		}
		if !docs.Ready() {
			return caseerr.New(caseerr.CodeInvalidInput, "generated texts cannot be blank")
		}
		c.Generated = &docs
		return nil
	})
	if err != nil {
		return shared.GeneratedDocuments{}, err
	}
	return docs, nil
}

// SetMemo replaces the case memo.
func (s *Service) SetMemo(ctx context.Context, caseID, memo string) (shared.Case, error) {
	return s.store.Update(ctx, caseID, func(c *shared.Case) error {
		at := s.now()
		c.Memo = memo
		c.MemoUpdatedAt = &at
		return nil
	})
}

// Complete marks the case completed. Only a ready case can complete;
// completing twice changes nothing.
func (s *Service) Complete(ctx context.Context, caseID string) (shared.Case, error) {
	var already bool
	c, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		if c.Completed {
			already = true
			return casestore.ErrNoChange
		}
		in, err := s.input(c)
		if err != nil {
			return err
		}
		if status := progress.DeriveStatus(in); status != shared.StatusReady {
			return caseerr.WithMetadata(caseerr.CodeInvalidTransition,
				fmt.Sprintf("case is %s, not ready", status),
				map[string]string{"case_id": c.ID, "status": string(status)})
		}
		at := s.now()
		c.Completed = true
		c.CompletedAt = &at
		c.CurrentStep = shared.StepExport
		return nil
	})
	if err != nil {
		return shared.Case{}, err
	}
	if !already {
		s.logger.Info("case completed", zap.String("case_id", caseID))
		s.notify("case completed", caseID, s.notifier.CaseCompleted(ctx, caseID))
	}
	return c, nil
}

// Requirements returns the active requirement lists of both roles.
func (s *Service) Requirements(c *shared.Case) (export.Requirements, error) {
	reqs := export.Requirements{}
	for _, role := range shared.Roles {
		list, err := s.catalog.List(c, role)
		if err != nil {
			return nil, err
		}
		reqs[role] = list
	}
	return reqs, nil
}

// Export packages the case as it stands.
func (s *Service) Export(ctx context.Context, caseID string) (export.Artifact, error) {
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return export.Artifact{}, err
	}
	reqs, err := s.Requirements(&c)
	if err != nil {
		return export.Artifact{}, err
	}
	return export.Build(c, reqs, s.now())
}
