package diagnosis

import "fmt"

// Analysis state machine:
//
//	pending -> processing -> completed
//	                      -> failed
//
// completed and failed are terminal. A re-run never mutates a terminal row;
// it submits a fresh analysis for the image.

func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisStatusCompleted || s == AnalysisStatusFailed
}

// Live reports whether the analysis still occupies its image: everything but
// failed. A completed analysis stays live so a second submit conflicts.
func (s AnalysisStatus) Live() bool {
	return s != AnalysisStatusFailed
}

// CheckTransition validates a status change against the state machine.
func CheckTransition(from, to AnalysisStatus) error {
	ok := false
	switch from {
	case AnalysisStatusPending:
		ok = to == AnalysisStatusProcessing
	case AnalysisStatusProcessing:
		ok = to == AnalysisStatusCompleted || to == AnalysisStatusFailed
	}

	if !ok {
		return fmt.Errorf("illegal analysis transition %s -> %s: %w", from, to, ErrConflict)
	}
	return nil
}

// ImageStatusFor returns the image status that must accompany an analysis
// status. Both sides of the pair change inside one transaction.
func ImageStatusFor(s AnalysisStatus) ImageStatus {
	switch s {
	case AnalysisStatusProcessing:
		return ImageStatusProcessing
	case AnalysisStatusCompleted:
		return ImageStatusAnalyzed
	case AnalysisStatusFailed:
		return ImageStatusError
	default:
		return ImageStatusUploaded
	}
}
