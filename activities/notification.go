package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"e7-casework/review"
	"e7-casework/shared"
)

// SendReminder texts a submitter who has not submitted yet. A role that
// submitted since the reminder was scheduled is skipped and "" returned.
// Idempotency: not naturally idempotent (retries would send duplicate
// messages). In production, pass the reminder id as an idempotency key to the
// SMS provider.
func (a *Activities) SendReminder(ctx context.Context, req shared.ReminderRequest) (string, error) {
	logger := activity.GetLogger(ctx)

	c, err := a.Cases.GetCase(ctx, req.CaseID)
	if err != nil {
		return "", caseError(req.CaseID, err)
	}
	if p := c.Party(req.Role); p == nil || p.Submission.IsSubmitted {
		logger.Info("Skipping reminder, role already submitted", "caseId", req.CaseID, "role", req.Role)
		return "", nil
	}

	logger.Info("Sending reminder",
		"caseId", req.CaseID,
		"role", req.Role,
		"sequence", req.Sequence,
		"phone", req.Phone,
	)

	// In production: integrate with an SMS/Kakao gateway.
	reminderID := fmt.Sprintf("REMIND-%s-%s-%d", req.CaseID, req.Role, req.Sequence)
	logger.Info("Reminder sent successfully", "reminderID", reminderID)
	return reminderID, nil
}

// SendRevisionNotice tells a submitter which document to replace and why.
// Notices for documents that were already re-uploaded are skipped.
func (a *Activities) SendRevisionNotice(ctx context.Context, notice shared.RevisionNotice) (string, error) {
	logger := activity.GetLogger(ctx)

	c, err := a.Cases.GetCase(ctx, notice.CaseID)
	if err != nil {
		return "", caseError(notice.CaseID, err)
	}
	p := c.Party(notice.Role)
	if p == nil || review.Status(p, notice.DocumentID) != shared.ReviewRevisionRequested {
		logger.Info("Skipping revision notice, document no longer awaits revision",
			"caseId", notice.CaseID,
			"documentId", notice.DocumentID,
		)
		return "", nil
	}

	logger.Info("Sending revision notice",
		"caseId", notice.CaseID,
		"role", notice.Role,
		"documentId", notice.DocumentID,
		"phone", notice.Phone,
	)

	noticeID := fmt.Sprintf("REVISE-%s-%s-%d", notice.CaseID, notice.DocumentID, notice.RequestedAt.Unix())
	logger.Info("Revision notice sent successfully", "noticeID", noticeID)
	return noticeID, nil
}

// SendCompletionNotice tells a submitter the case package was filed.
func (a *Activities) SendCompletionNotice(ctx context.Context, notice shared.CompletionNotice) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Sending completion notice", "caseId", notice.CaseID, "role", notice.Role, "phone", notice.Phone)

	noticeID := fmt.Sprintf("DONE-%s-%s", notice.CaseID, notice.Role)
	logger.Info("Completion notice sent successfully", "noticeID", noticeID)
	return noticeID, nil
}
