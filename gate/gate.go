// Package gate implements the per-role submission gate: a one-way submit
// that freezes a role's document set once every required document is
// present.
package gate

import (
	"fmt"
	"time"

	"e7-casework/caseerr"
	"e7-casework/review"
	"e7-casework/shared"
)

// Missing returns the ids of required documents with no upload, in
// requirement order.
func Missing(p *shared.Party, required []shared.DocumentRequirement) []string {
	var missing []string
	for _, req := range required {
		if !p.HasDocument(req.ID) {
			missing = append(missing, req.ID)
		}
	}
	return missing
}

// CanSubmit reports whether every required document is present. Review
// status is not considered; review happens after submission.
func CanSubmit(p *shared.Party, required []shared.DocumentRequirement) bool {
	return len(Missing(p, required)) == 0
}

// Submit marks the role submitted and returns the submission time. A role
// that already submitted keeps its original timestamp.
func Submit(p *shared.Party, role shared.Role, required []shared.DocumentRequirement, now time.Time) (time.Time, error) {
	if p.Submission.IsSubmitted && p.Submission.SubmittedAt != nil {
		return *p.Submission.SubmittedAt, nil
	}
	if missing := Missing(p, required); len(missing) > 0 {
		return time.Time{}, caseerr.Incomplete(string(role), missing)
	}
	at := now.UTC()
	p.Submission = shared.Submission{IsSubmitted: true, SubmittedAt: &at}
	return at, nil
}

// Satisfied reports whether a role no longer holds up the case: it has
// submitted, or all of its required documents are present.
func Satisfied(p *shared.Party, required []shared.DocumentRequirement) bool {
	return p.Submission.IsSubmitted || CanSubmit(p, required)
}

// CheckUpload guards a submitter upload. Before submission anything goes.
// After submission only a document the agent flagged for revision may be
// replaced.
func CheckUpload(p *shared.Party, docID string) error {
	if !p.Submission.IsSubmitted {
		return nil
	}
	if review.Status(p, docID) == shared.ReviewRevisionRequested {
		return nil
	}
	return caseerr.WithMetadata(caseerr.CodeLockedBySubmission,
		fmt.Sprintf("cannot upload %s after submission", docID),
		map[string]string{"document_id": docID})
}
