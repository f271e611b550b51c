// Package review is the per-document review state machine driven by the
// agent after submitters upload documents.
//
//	not_submitted      --upload-->           submitted
//	submitted          --confirm-->          confirmed
//	submitted          --request_revision--> revision_requested
//	revision_requested --upload-->           resubmitted
//	resubmitted        --confirm-->          confirmed
//	resubmitted        --request_revision--> revision_requested
//	any                --remove-->           not_submitted (unless the role submitted)
//
// A document is not_submitted exactly when the party holds no record for it.
package review

import (
	"fmt"
	"time"

	"e7-casework/caseerr"
	"e7-casework/shared"
)

type event string

const (
	eventUpload          event = "upload"
	eventConfirm         event = "confirm"
	eventRequestRevision event = "request_revision"
)

var transitions = map[shared.ReviewStatus]map[event]shared.ReviewStatus{
	shared.ReviewNotSubmitted: {
		eventUpload: shared.ReviewSubmitted,
	},
	shared.ReviewSubmitted: {
		eventUpload:          shared.ReviewSubmitted,
		eventConfirm:         shared.ReviewConfirmed,
		eventRequestRevision: shared.ReviewRevisionRequested,
	},
	shared.ReviewConfirmed: {
		eventUpload: shared.ReviewSubmitted,
	},
	shared.ReviewRevisionRequested: {
		eventUpload: shared.ReviewResubmitted,
	},
	shared.ReviewResubmitted: {
		eventUpload:          shared.ReviewResubmitted,
		eventConfirm:         shared.ReviewConfirmed,
		eventRequestRevision: shared.ReviewRevisionRequested,
	},
}

func next(from shared.ReviewStatus, ev event, docID string) (shared.ReviewStatus, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, caseerr.WithMetadata(caseerr.CodeInvalidTransition,
			fmt.Sprintf("cannot %s %s in status %s", ev, docID, from),
			map[string]string{"document_id": docID, "status": string(from)})
	}
	return to, nil
}

// Status returns the review status of docID.
func Status(p *shared.Party, docID string) shared.ReviewStatus {
	if !p.HasDocument(docID) {
		return shared.ReviewNotSubmitted
	}
	if r, ok := p.Reviews[docID]; ok && r.Status != "" && r.Status != shared.ReviewNotSubmitted {
		return r.Status
	}
	return shared.ReviewSubmitted
}

// Revision returns the outstanding revision request of docID, if any.
func Revision(p *shared.Party, docID string) *shared.RevisionInfo {
	if r, ok := p.Reviews[docID]; ok {
		return r.Revision
	}
	return nil
}

// RecordUpload stores rec, replacing any earlier upload wholesale, and moves
// the document to submitted, or to resubmitted when a revision was pending.
// The revision note is kept so the agent still sees it until re-confirming.
func RecordUpload(p *shared.Party, docID string, rec shared.DocumentRecord) (shared.ReviewStatus, error) {
	p.Normalize()
	to, err := next(Status(p, docID), eventUpload, docID)
	if err != nil {
		return "", err
	}
	entry := p.Reviews[docID]
	entry.Status = to
	entry.ConfirmedAt = nil
	if to != shared.ReviewResubmitted {
		entry.Revision = nil
	}
	p.Docs[docID] = rec
	p.Reviews[docID] = entry
	return to, nil
}

// RecordRemoval deletes the upload of docID and its review state. It is
// rejected once the role has submitted.
func RecordRemoval(p *shared.Party, docID string) error {
	if p.Submission.IsSubmitted {
		return caseerr.WithMetadata(caseerr.CodeLockedBySubmission,
			fmt.Sprintf("cannot remove %s after submission", docID),
			map[string]string{"document_id": docID})
	}
	delete(p.Docs, docID)
	delete(p.Reviews, docID)
	return nil
}

// Confirm accepts a submitted or resubmitted document and clears any
// revision note. Confirming a confirmed document changes nothing.
func Confirm(p *shared.Party, docID string, now time.Time) error {
	p.Normalize()
	from := Status(p, docID)
	if from == shared.ReviewConfirmed {
		return nil
	}
	to, err := next(from, eventConfirm, docID)
	if err != nil {
		return err
	}
	at := now.UTC()
	p.Reviews[docID] = shared.DocumentReview{Status: to, ConfirmedAt: &at}
	return nil
}

// RequestRevision flags a submitted or resubmitted document for
// replacement. The note may be empty; any earlier request is overwritten and
// its sent stamp cleared.
func RequestRevision(p *shared.Party, docID, note string, now time.Time) error {
	p.Normalize()
	to, err := next(Status(p, docID), eventRequestRevision, docID)
	if err != nil {
		return err
	}
	p.Reviews[docID] = shared.DocumentReview{
		Status:   to,
		Revision: &shared.RevisionInfo{Note: note, RequestedAt: now.UTC()},
	}
	return nil
}

// MarkNotified stamps the time the submitter was told about an outstanding
// revision request. The status stays revision_requested until re-upload.
func MarkNotified(p *shared.Party, docID string, now time.Time) (shared.RevisionInfo, error) {
	from := Status(p, docID)
	entry := p.Reviews[docID]
	if from != shared.ReviewRevisionRequested || entry.Revision == nil {
		return shared.RevisionInfo{}, caseerr.WithMetadata(caseerr.CodeInvalidTransition,
			fmt.Sprintf("cannot notify submitter of %s in status %s", docID, from),
			map[string]string{"document_id": docID, "status": string(from)})
	}
	at := now.UTC()
	info := *entry.Revision
	info.SentAt = &at
	entry.Revision = &info
	p.Reviews[docID] = entry
	return info, nil
}

// Check verifies that review state exists only for uploaded documents.
func Check(p *shared.Party) error {
	for docID, r := range p.Reviews {
		if !p.HasDocument(docID) {
			return fmt.Errorf("review state %s for %s without an upload", r.Status, docID)
		}
		if r.Status == shared.ReviewNotSubmitted {
			return fmt.Errorf("uploaded document %s recorded as not_submitted", docID)
		}
	}
	return nil
}
