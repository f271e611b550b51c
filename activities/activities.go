package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"e7-casework/caseerr"
	"e7-casework/export"
	"e7-casework/shared"
)

// Cases is the slice of the casework service the activities read from.
type Cases interface {
	GetCase(ctx context.Context, caseID string) (shared.Case, error)
	Export(ctx context.Context, caseID string) (export.Artifact, error)
}

// Archiver keeps a copy of a finished case package.
type Archiver interface {
	Store(ctx context.Context, caseID string, art export.Artifact) (string, error)
}

// Activities is the receiver for all activity methods. Using a struct allows
// Temporal to auto-discover and register all methods via RegisterActivity(a),
// and lets us inject the case service and archive each method needs. Archiver
// may be nil, in which case packages are built but not stored.
type Activities struct {
	Cases    Cases
	Archiver Archiver
}

// caseError turns a vanished case into a non-retryable failure.
func caseError(caseID string, err error) error {
	if errors.Is(err, caseerr.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError("case "+caseID+" no longer exists", shared.ErrTypeCaseNotFound, err)
	}
	return err
}
