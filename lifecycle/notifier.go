// Package lifecycle connects the casework service to the case lifecycle
// workflow running in Temporal.
package lifecycle

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"e7-casework/casework"
	"e7-casework/shared"
	"e7-casework/workflows"
)

// WorkflowClient is the part of client.Client the notifier uses.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error
	CancelWorkflow(ctx context.Context, workflowID string, runID string) error
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Notifier starts and signals one CaseLifecycleWorkflow per case.
type Notifier struct {
	client WorkflowClient
	logger *zap.Logger
}

var _ casework.Notifier = (*Notifier)(nil)

// NewNotifier wraps a Temporal client.
func NewNotifier(c WorkflowClient, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{client: c, logger: logger}
}

// CaseCreated starts the lifecycle workflow. The case id doubles as the
// workflow id so a case never gets two lifecycles.
func (n *Notifier) CaseCreated(ctx context.Context, req shared.CaseWorkflowRequest) error {
	workflowID := shared.WorkflowID(req.CaseID)
	_, err := n.client.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: shared.CaseWorkflowTaskQueue,
		},
		workflows.CaseLifecycleWorkflow,
		req,
	)
	if err != nil {
		return fmt.Errorf("start case lifecycle: %w", err)
	}
	n.logger.Info("case lifecycle started", zap.String("case_id", req.CaseID), zap.String("workflow_id", workflowID))
	return nil
}

// RoleSubmitted stops reminders for role.
func (n *Notifier) RoleSubmitted(ctx context.Context, caseID string, role shared.Role) error {
	return n.signal(ctx, caseID, shared.SignalRoleSubmitted, role)
}

// RevisionRequested hands a revision notice to the workflow for delivery.
func (n *Notifier) RevisionRequested(ctx context.Context, notice shared.RevisionNotice) error {
	return n.signal(ctx, notice.CaseID, shared.SignalRevisionRequested, notice)
}

// CaseCompleted triggers packaging.
func (n *Notifier) CaseCompleted(ctx context.Context, caseID string) error {
	return n.signal(ctx, caseID, shared.SignalCaseCompleted, nil)
}

// CaseDeleted cancels the lifecycle of a deleted case.
func (n *Notifier) CaseDeleted(ctx context.Context, caseID string) error {
	if err := n.client.CancelWorkflow(ctx, shared.WorkflowID(caseID), ""); err != nil {
		return fmt.Errorf("cancel case lifecycle: %w", err)
	}
	return nil
}

// Status queries the lifecycle workflow of a case.
func (n *Notifier) Status(ctx context.Context, caseID string) (shared.LifecycleStatus, error) {
	resp, err := n.client.QueryWorkflow(ctx, shared.WorkflowID(caseID), "", shared.QueryCaseLifecycle)
	if err != nil {
		return shared.LifecycleStatus{}, fmt.Errorf("query case lifecycle: %w", err)
	}
	var status shared.LifecycleStatus
	if err := resp.Get(&status); err != nil {
		return shared.LifecycleStatus{}, fmt.Errorf("decode case lifecycle: %w", err)
	}
	return status, nil
}

func (n *Notifier) signal(ctx context.Context, caseID, name string, arg interface{}) error {
	if err := n.client.SignalWorkflow(ctx, shared.WorkflowID(caseID), "", name, arg); err != nil {
		return fmt.Errorf("signal %s: %w", name, err)
	}
	n.logger.Debug("case lifecycle signalled", zap.String("case_id", caseID), zap.String("signal", name))
	return nil
}
