package analyses

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("analysis not found")

// IncompleteDataError reports an analysis requested before its inputs exist.
type IncompleteDataError struct {
	Reason string
}

func (e *IncompleteDataError) Error() string {
	return "analysis preconditions not met: " + e.Reason
}

// AnalysisUnavailableError reports that the completion service failed after
// exhausting retries. The caller may try again later; nothing was persisted.
type AnalysisUnavailableError struct {
	Attempts int
	Err      error
}

func (e *AnalysisUnavailableError) Error() string {
	return fmt.Sprintf("analysis unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AnalysisUnavailableError) Unwrap() error {
	return e.Err
}
