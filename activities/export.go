package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"e7-casework/shared"
)

// ExportCasePackage builds the zip package of a completed case and, when an
// archiver is configured, stores it. Idempotency: rebuilding overwrites the
// same object key.
func (a *Activities) ExportCasePackage(ctx context.Context, caseID string) (shared.ExportResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Building case package", "caseId", caseID)

	art, err := a.Cases.Export(ctx, caseID)
	if err != nil {
		return shared.ExportResult{}, caseError(caseID, err)
	}
	result := shared.ExportResult{
		CaseID:   caseID,
		Filename: art.Filename,
		Size:     len(art.Data),
	}
	if a.Archiver == nil {
		logger.Info("No archive configured, package not stored", "caseId", caseID, "size", result.Size)
		return result, nil
	}

	location, err := a.Archiver.Store(ctx, caseID, art)
	if err != nil {
		return shared.ExportResult{}, fmt.Errorf("archive case package: %w", err)
	}
	result.Location = location
	logger.Info("Case package archived", "caseId", caseID, "location", location, "manifestId", art.Manifest.ID)
	return result, nil
}
