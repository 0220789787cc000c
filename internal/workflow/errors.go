package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAnalysisInProgress is returned when Analyze is triggered while an
// earlier analysis for the same page is still outstanding.
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// ValidationError reports an operation whose precondition was not met.
// It is surfaced to the user and never propagated further.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// TransportError wraps a failed call to the analysis or recipe backend.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectedInputError reports a file refused by the drop/pick surface.
type RejectedInputError struct {
	Filename string
	Reasons  []Rejection
}

func (e *RejectedInputError) Error() string {
	reasons := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		reasons = append(reasons, string(r))
	}
	return fmt.Sprintf("file %q rejected: %s", e.Filename, strings.Join(reasons, ", "))
}
