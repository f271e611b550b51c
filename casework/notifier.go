package casework

import (
	"context"

	"e7-casework/shared"
)

// Notifier receives case lifecycle events. Delivery is fire-and-forget: the
// service logs notifier failures and never rolls back the change that
// triggered them.
type Notifier interface {
	CaseCreated(ctx context.Context, req shared.CaseWorkflowRequest) error
	RoleSubmitted(ctx context.Context, caseID string, role shared.Role) error
	RevisionRequested(ctx context.Context, notice shared.RevisionNotice) error
	CaseCompleted(ctx context.Context, caseID string) error
	CaseDeleted(ctx context.Context, caseID string) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) CaseCreated(context.Context, shared.CaseWorkflowRequest) error {
	return nil
}

func (NopNotifier) RoleSubmitted(context.Context, string, shared.Role) error {
	return nil
}

func (NopNotifier) RevisionRequested(context.Context, shared.RevisionNotice) error {
	return nil
}

func (NopNotifier) CaseCompleted(context.Context, string) error {
	return nil
}

func (NopNotifier) CaseDeleted(context.Context, string) error {
	return nil
}
