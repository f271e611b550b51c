package shared

import "time"

// Task queue names.
const (
	CaseWorkflowTaskQueue = "case-lifecycle-tq"
	ActivityTaskQueue     = "casework-activity-tq"
)

// Signal and query names.
const (
	SignalRoleSubmitted     = "signal-role-submitted"
	SignalRevisionRequested = "signal-revision-requested"
	SignalCaseCompleted     = "signal-case-completed"
	QueryCaseLifecycle      = "query-case-lifecycle"
)

// Reminder cadence defaults for submitters that have not submitted yet.
const (
	DefaultReminderInterval = 3 * 24 * time.Hour
	DefaultMaxReminders     = 3
)

// Error types for non-retryable activity failures.
const (
	ErrTypeCaseNotFound = "CaseNotFound"
)

// WorkflowID returns the lifecycle workflow id of a case. The case id doubles
// as an idempotency key: one lifecycle per case.
func WorkflowID(caseID string) string {
	return "case-lifecycle-" + caseID
}
