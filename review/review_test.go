package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e7-casework/caseerr"
	"e7-casework/shared"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func upload(t *testing.T, p *shared.Party, docID string) shared.ReviewStatus {
	t.Helper()
	status, err := RecordUpload(p, docID, shared.DocumentRecord{Name: docID + ".pdf", Size: 10, MimeType: "application/pdf", Content: "AAAA", UploadedAt: now})
	require.NoError(t, err)
	return status
}

func TestStatus_NotSubmittedWithoutRecord(t *testing.T) {
	p := shared.NewParty()
	assert.Equal(t, shared.ReviewNotSubmitted, Status(&p, "passport"))

	upload(t, &p, "passport")
	assert.Equal(t, shared.ReviewSubmitted, Status(&p, "passport"))
}

func TestStatus_DocumentWithoutReviewEntryIsSubmitted(t *testing.T) {
	p := shared.NewParty()
	p.Docs["passport"] = shared.DocumentRecord{Name: "p.pdf"}
	assert.Equal(t, shared.ReviewSubmitted, Status(&p, "passport"))
}

func TestConfirm_FromSubmitted(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "passport")

	require.NoError(t, Confirm(&p, "passport", now))
	assert.Equal(t, shared.ReviewConfirmed, Status(&p, "passport"))
	require.NotNil(t, p.Reviews["passport"].ConfirmedAt)
	assert.Equal(t, now, *p.Reviews["passport"].ConfirmedAt)
}

func TestConfirm_AlreadyConfirmedIsNoOp(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "passport")
	require.NoError(t, Confirm(&p, "passport", now))

	require.NoError(t, Confirm(&p, "passport", now.Add(time.Hour)))
	assert.Equal(t, now, *p.Reviews["passport"].ConfirmedAt)
}

func TestConfirm_RejectedWithoutUpload(t *testing.T) {
	p := shared.NewParty()
	err := Confirm(&p, "passport", now)
	assert.ErrorIs(t, err, caseerr.ErrInvalidTransition)
	assert.Empty(t, p.Reviews)
}

func TestConfirm_RejectedWhileRevisionRequested(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "photo")
	require.NoError(t, RequestRevision(&p, "photo", "blurry", now))

	err := Confirm(&p, "photo", now)
	assert.ErrorIs(t, err, caseerr.ErrInvalidTransition)
	assert.Equal(t, shared.ReviewRevisionRequested, Status(&p, "photo"))
}

func TestRevisionCycle(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "photo")

	require.NoError(t, RequestRevision(&p, "photo", "Photo is blurry", now))
	assert.Equal(t, shared.ReviewRevisionRequested, Status(&p, "photo"))
	rev := Revision(&p, "photo")
	require.NotNil(t, rev)
	assert.Equal(t, "Photo is blurry", rev.Note)
	assert.Nil(t, rev.SentAt)

	sentAt := now.Add(time.Minute)
	info, err := MarkNotified(&p, "photo", sentAt)
	require.NoError(t, err)
	require.NotNil(t, info.SentAt)
	assert.Equal(t, sentAt, *info.SentAt)
	assert.Equal(t, shared.ReviewRevisionRequested, Status(&p, "photo"))

	assert.Equal(t, shared.ReviewResubmitted, upload(t, &p, "photo"))
	require.NotNil(t, Revision(&p, "photo"), "note kept until confirmation")

	require.NoError(t, Confirm(&p, "photo", now.Add(time.Hour)))
	assert.Equal(t, shared.ReviewConfirmed, Status(&p, "photo"))
	assert.Nil(t, Revision(&p, "photo"))
}

func TestRequestRevision_AgainFromResubmittedOverwritesNote(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "photo")
	require.NoError(t, RequestRevision(&p, "photo", "first", now))
	_, err := MarkNotified(&p, "photo", now)
	require.NoError(t, err)
	upload(t, &p, "photo")

	require.NoError(t, RequestRevision(&p, "photo", "", now.Add(time.Hour)))
	rev := Revision(&p, "photo")
	require.NotNil(t, rev)
	assert.Empty(t, rev.Note)
	assert.Nil(t, rev.SentAt)
	assert.Equal(t, now.Add(time.Hour), rev.RequestedAt)
}

func TestRequestRevision_RejectedFromConfirmed(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "arc")
	require.NoError(t, Confirm(&p, "arc", now))

	err := RequestRevision(&p, "arc", "x", now)
	assert.ErrorIs(t, err, caseerr.ErrInvalidTransition)
}

func TestMarkNotified_RequiresOutstandingRevision(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "arc")

	_, err := MarkNotified(&p, "arc", now)
	assert.ErrorIs(t, err, caseerr.ErrInvalidTransition)
}

func TestRecordUpload_ReplacesRecordWholesale(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "passport")
	require.NoError(t, Confirm(&p, "passport", now))

	status, err := RecordUpload(&p, "passport", shared.DocumentRecord{Name: "new.png", MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, shared.ReviewSubmitted, status)
	assert.Equal(t, "new.png", p.Docs["passport"].Name)
	assert.Nil(t, p.Reviews["passport"].ConfirmedAt)
}

func TestRecordRemoval(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "passport")
	require.NoError(t, RequestRevision(&p, "passport", "x", now))

	require.NoError(t, RecordRemoval(&p, "passport"))
	assert.Equal(t, shared.ReviewNotSubmitted, Status(&p, "passport"))
	assert.NotContains(t, p.Reviews, "passport")
}

func TestRecordRemoval_LockedAfterSubmission(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "passport")
	p.Submission.IsSubmitted = true

	err := RecordRemoval(&p, "passport")
	assert.ErrorIs(t, err, caseerr.ErrLockedBySubmission)
	assert.True(t, p.HasDocument("passport"))
}

func TestCheck(t *testing.T) {
	p := shared.NewParty()
	upload(t, &p, "passport")
	require.NoError(t, Check(&p))

	p.Reviews["arc"] = shared.DocumentReview{Status: shared.ReviewConfirmed}
	assert.Error(t, Check(&p))
}
