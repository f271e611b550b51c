package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"e7-casework/shared"
)

// PackageWorkflowID returns the id of the packaging child workflow.
func PackageWorkflowID(caseID string) string {
	return "case-package-" + caseID
}

// CasePackageWorkflow is a child workflow that files a completed case: it
// builds and archives the export package, then tells both submitters.
func CasePackageWorkflow(ctx workflow.Context, req shared.CaseWorkflowRequest) (shared.ExportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Case package workflow started", "caseId", req.CaseID)

	// Building and uploading the package can take a while for large scans.
	exportOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			NonRetryableErrorTypes: []string{shared.ErrTypeCaseNotFound},
		},
	}

	noticeOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}

	var result shared.ExportResult
	exportCtx := workflow.WithActivityOptions(ctx, exportOpts)
	err := workflow.ExecuteActivity(exportCtx, a.ExportCasePackage, req.CaseID).Get(ctx, &result)
	if err != nil {
		logger.Error("Case package export failed", "caseId", req.CaseID, "error", err)
		return shared.ExportResult{}, fmt.Errorf("export case package: %w", err)
	}
	logger.Info("Case package exported", "caseId", req.CaseID, "filename", result.Filename, "location", result.Location)

	noticeCtx := workflow.WithActivityOptions(ctx, noticeOpts)
	for _, role := range shared.Roles {
		notice := shared.CompletionNotice{CaseID: req.CaseID, Role: role, Phone: req.Phone(role)}
		if err := workflow.ExecuteActivity(noticeCtx, a.SendCompletionNotice, notice).Get(ctx, nil); err != nil {
			// A missed notice does not undo the filing.
			logger.Error("Failed to send completion notice", "caseId", req.CaseID, "role", role, "error", err)
		}
	}
	return result, nil
}
