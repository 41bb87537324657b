package diagnosis

import (
	"errors"
	"fmt"
)

// Error kinds. Every pipeline error wraps exactly one of these, so callers
// branch with errors.Is regardless of which operation produced it.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrPrecondition    = errors.New("precondition failed")
	ErrExternalService = errors.New("external service failure")
)

var (
	ErrNoActiveModel     = fmt.Errorf("no active model version: %w", ErrPrecondition)
	ErrActiveModelDelete = fmt.Errorf("cannot delete the active model version: %w", ErrConflict)

	ErrAnalysisLive = fmt.Errorf("image already has a live analysis: %w", ErrConflict)

	ErrNotReviewable     = fmt.Errorf("analysis is not completed: %w", ErrPrecondition)
	ErrReviewExists      = fmt.Errorf("analysis already has a review: %w", ErrConflict)
	ErrReviewConsumed    = fmt.Errorf("review is referenced by a generated report: %w", ErrConflict)
	ErrRejectionComment  = fmt.Errorf("rejecting a review requires a comment: %w", ErrValidation)
	ErrReviewNotApproved = fmt.Errorf("analysis review is missing or not approved: %w", ErrPrecondition)
)
