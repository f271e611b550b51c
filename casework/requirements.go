package casework

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"e7-casework/caseerr"
	"e7-casework/shared"
)

// ListRequirements returns the active requirements of a role with their
// upload and review state.
func (s *Service) ListRequirements(ctx context.Context, caseID string, role shared.Role) ([]RequirementState, error) {
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.requirementStates(&c, role)
}

// OptionalRequirements lists every optional definition of a role.
func (s *Service) OptionalRequirements(role shared.Role) []shared.DocumentRequirement {
	return s.catalog.Optional(role)
}

// ActivateOptional requests an optional document.
func (s *Service) ActivateOptional(ctx context.Context, caseID string, role shared.Role, docID string) error {
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		return s.catalog.Activate(c, role, docID)
	})
	return err
}

// DeactivateOptional stops requesting an optional document and discards
// its upload and review.
func (s *Service) DeactivateOptional(ctx context.Context, caseID string, role shared.Role, docID string) error {
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		return s.catalog.Deactivate(c, role, docID)
	})
	if err == nil {
		s.logger.Info("optional document deactivated", zap.String("case_id", caseID), zap.String("role", string(role)), zap.String("document_id", docID))
	}
	return err
}

// AddCustom adds a free-text requirement.
func (s *Service) AddCustom(ctx context.Context, caseID string, role shared.Role, title, description string) (shared.DocumentRequirement, error) {
	var req shared.DocumentRequirement
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		var err error
		req, err = s.catalog.AddCustom(c, role, title, description)
		return err
	})
	if err != nil {
		return shared.DocumentRequirement{}, err
	}
	return req, nil
}

// RemoveCustom deletes a custom requirement and its upload.
func (s *Service) RemoveCustom(ctx context.Context, caseID string, role shared.Role, docID string) error {
	_, err := s.store.Update(ctx, caseID, func(c *shared.Case) error {
		return s.catalog.RemoveCustom(c, role, docID)
	})
	return err
}

// SetFlags replaces the case flags. Uploads of conditional documents that
// stop applying are kept; they simply no longer count. Flags that would
// request a new document from a role that already submitted are rejected.
func (s *Service) SetFlags(ctx context.Context, caseID string, flags shared.CaseFlags) (shared.Case, error) {
	return s.store.Update(ctx, caseID, func(c *shared.Case) error {
		before := map[shared.Role][]shared.DocumentRequirement{}
		for _, role := range shared.Roles {
			list, err := s.catalog.List(c, role)
			if err != nil {
				return err
			}
			before[role] = list
		}
		c.Flags = flags
		for _, role := range shared.Roles {
			if !c.Party(role).Submission.IsSubmitted {
				continue
			}
			after, err := s.catalog.List(c, role)
			if err != nil {
				return err
			}
			for _, req := range after {
				if !slices.ContainsFunc(before[role], func(r shared.DocumentRequirement) bool { return r.ID == req.ID }) {
					return caseerr.WithMetadata(caseerr.CodeLockedBySubmission,
						fmt.Sprintf("%s already submitted, cannot request %s", role, req.ID),
						map[string]string{"role": string(role), "document": req.ID})
				}
			}
		}
		return nil
	})
}
