package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"e7-casework/shared"
)

// caseLifecycle holds workflow state and provides methods for each phase of
// a case.
type caseLifecycle struct {
	// Business state
	status         shared.LifecycleStatus
	completed      bool
	nextReminderAt time.Time

	// Workflow context
	req         shared.CaseWorkflowRequest
	logger      log.Logger
	actCtx      workflow.Context
	submittedCh workflow.ReceiveChannel
	revisionCh  workflow.ReceiveChannel
	completedCh workflow.ReceiveChannel
}

// newCaseLifecycle initializes the workflow struct, registers the query
// handler, and sets up the signal channels and activity options.
func newCaseLifecycle(ctx workflow.Context, req shared.CaseWorkflowRequest) (*caseLifecycle, error) {
	if req.ReminderInterval <= 0 {
		req.ReminderInterval = shared.DefaultReminderInterval
	}
	if req.MaxReminders < 0 {
		req.MaxReminders = 0
	}
	w := &caseLifecycle{
		status:         shared.LifecycleStatus{Phase: shared.PhaseCollecting},
		nextReminderAt: workflow.Now(ctx).Add(req.ReminderInterval),
		req:            req,
		logger:         workflow.GetLogger(ctx),
		submittedCh:    workflow.GetSignalChannel(ctx, shared.SignalRoleSubmitted),
		revisionCh:     workflow.GetSignalChannel(ctx, shared.SignalRevisionRequested),
		completedCh:    workflow.GetSignalChannel(ctx, shared.SignalCaseCompleted),
	}

	// Register query handler so the dashboard can check the lifecycle.
	err := workflow.SetQueryHandler(ctx, shared.QueryCaseLifecycle, func() (shared.LifecycleStatus, error) {
		return w.status, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set query handler: %w", err)
	}

	actOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{shared.ErrTypeCaseNotFound},
		},
	}
	w.actCtx = workflow.WithActivityOptions(ctx, actOpts)

	return w, nil
}

func (w *caseLifecycle) submitted(role shared.Role) bool {
	if role == shared.RoleCompany {
		return w.status.CompanySubmitted
	}
	return w.status.ForeignerSubmitted
}

func (w *caseLifecycle) bothSubmitted() bool {
	return w.status.ForeignerSubmitted && w.status.CompanySubmitted
}

func (w *caseLifecycle) remindersDue() bool {
	return !w.bothSubmitted() && w.status.RemindersSent < w.req.MaxReminders
}

func (w *caseLifecycle) markSubmitted(role shared.Role) {
	switch role {
	case shared.RoleForeigner:
		w.status.ForeignerSubmitted = true
	case shared.RoleCompany:
		w.status.CompanySubmitted = true
	default:
		w.logger.Warn("Ignoring submission signal for unknown role", "caseId", w.req.CaseID, "role", role)
		return
	}
	w.logger.Info("Role submitted", "caseId", w.req.CaseID, "role", role)
	if w.bothSubmitted() {
		w.status.Phase = shared.PhaseReviewing
	}
}

// awaitCompletion runs until the agent completes the case. It reminds
// submitters on the configured cadence while either role has not
// submitted, and forwards revision requests to the submitter.
func (w *caseLifecycle) awaitCompletion(ctx workflow.Context) error {
	for !w.completed {
		selector := workflow.NewSelector(ctx)
		timerCtx, timerCancel := workflow.WithCancel(ctx)

		reminderDue := false
		if w.remindersDue() {
			wait := w.nextReminderAt.Sub(workflow.Now(ctx))
			if wait < 0 {
				wait = 0
			}
			selector.AddFuture(workflow.NewTimer(timerCtx, wait), func(f workflow.Future) {
				reminderDue = f.Get(ctx, nil) == nil
			})
		}

		var (
			notice      shared.RevisionNotice
			noticeReady bool
		)
		selector.AddReceive(w.submittedCh, func(ch workflow.ReceiveChannel, more bool) {
			var role shared.Role
			ch.Receive(ctx, &role)
			w.markSubmitted(role)
		})
		selector.AddReceive(w.revisionCh, func(ch workflow.ReceiveChannel, more bool) {
			ch.Receive(ctx, &notice)
			noticeReady = true
		})
		selector.AddReceive(w.completedCh, func(ch workflow.ReceiveChannel, more bool) {
			ch.Receive(ctx, nil)
			w.logger.Info("Case completion signal received", "caseId", w.req.CaseID)
			w.completed = true
		})
		selector.AddReceive(ctx.Done(), func(ch workflow.ReceiveChannel, more bool) {})

		selector.Select(ctx)
		timerCancel()

		if err := ctx.Err(); err != nil {
			w.logger.Info("Case lifecycle cancelled", "caseId", w.req.CaseID)
			return err
		}
		if reminderDue {
			w.sendReminders(ctx)
		}
		if noticeReady {
			w.sendRevisionNotice(ctx, notice)
		}
	}
	return nil
}

// sendReminders reminds every role that has not submitted yet.
func (w *caseLifecycle) sendReminders(ctx workflow.Context) {
	w.status.RemindersSent++
	w.nextReminderAt = workflow.Now(ctx).Add(w.req.ReminderInterval)

	for _, role := range shared.Roles {
		if w.submitted(role) {
			continue
		}
		req := shared.ReminderRequest{
			CaseID:   w.req.CaseID,
			Role:     role,
			Phone:    w.req.Phone(role),
			Sequence: w.status.RemindersSent,
		}
		var reminderID string
		err := workflow.ExecuteActivity(w.actCtx, a.SendReminder, req).Get(ctx, &reminderID)
		if err != nil {
			w.logger.Error("Failed to send reminder", "caseId", w.req.CaseID, "role", role, "error", err)
			// Continue: a failed reminder shouldn't block the case.
			continue
		}
		w.logger.Info("Reminder sent", "caseId", w.req.CaseID, "role", role, "reminderID", reminderID)
	}
}

func (w *caseLifecycle) sendRevisionNotice(ctx workflow.Context, notice shared.RevisionNotice) {
	if notice.Phone == "" {
		notice.Phone = w.req.Phone(notice.Role)
	}
	var noticeID string
	err := workflow.ExecuteActivity(w.actCtx, a.SendRevisionNotice, notice).Get(ctx, &noticeID)
	if err != nil {
		w.logger.Error("Failed to send revision notice", "caseId", w.req.CaseID, "documentId", notice.DocumentID, "error", err)
		return
	}
	if noticeID != "" {
		w.status.NoticesSent++
	}
	w.logger.Info("Revision notice handled", "caseId", w.req.CaseID, "documentId", notice.DocumentID, "noticeID", noticeID)
}

// fileCase runs the packaging child workflow.
func (w *caseLifecycle) fileCase(ctx workflow.Context) (shared.ExportResult, error) {
	w.status.Phase = shared.PhaseExporting

	childOpts := workflow.ChildWorkflowOptions{
		WorkflowID: PackageWorkflowID(w.req.CaseID),
		TaskQueue:  shared.CaseWorkflowTaskQueue,
	}
	childCtx := workflow.WithChildOptions(ctx, childOpts)

	var result shared.ExportResult
	err := workflow.ExecuteChildWorkflow(childCtx, CasePackageWorkflow, w.req).Get(ctx, &result)
	if err != nil {
		return shared.ExportResult{}, fmt.Errorf("case package child workflow failed: %w", err)
	}

	w.status.Phase = shared.PhaseCompleted
	w.logger.Info("Case filed", "caseId", w.req.CaseID, "location", result.Location)
	return result, nil
}

// CaseLifecycleWorkflow follows one E-7 case from creation to filing.
//
// Started when the agent creates the case, one per case id.
//
// Timeline:
//
//	Created           → reminders every ReminderInterval to roles that have not submitted
//	RoleSubmitted     → that role stops receiving reminders
//	RevisionRequested → revision notice sent to the submitter
//	CaseCompleted     → package child workflow exports and archives the case
//
// Temporal features used:
//   - Durable timers (reminder cadence)
//   - Signals (RoleSubmitted, RevisionRequested, CaseCompleted)
//   - Queries (case lifecycle status)
//   - Child workflows (case packaging)
//   - Retry policies with non-retryable error types
func CaseLifecycleWorkflow(ctx workflow.Context, req shared.CaseWorkflowRequest) (shared.ExportResult, error) {
	w, err := newCaseLifecycle(ctx, req)
	if err != nil {
		return shared.ExportResult{}, err
	}

	w.logger.Info("Case lifecycle workflow started", "caseId", req.CaseID)

	// Phase 1: collect and review until the agent completes the case.
	if err := w.awaitCompletion(ctx); err != nil {
		return shared.ExportResult{}, err
	}

	// Phase 2: package and archive.
	return w.fileCase(ctx)
}
