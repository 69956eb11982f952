package classifier

import (
	"fmt"
)

// ClassificationError indicates the external model returned output that could
// not be parsed into the expected structured form. It is fatal for the
// current submission: no partial results are applied and no retry happens at
// this layer.
type ClassificationError struct {
	Reason string
	// raw model output, truncated, for operator debugging
	Raw string
	Err error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classification failed: %s", e.Reason)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

const rawTruncateLen = 512

func newClassificationError(reason, raw string, err error) *ClassificationError {
	classificationFailureCount.Inc()
	if len(raw) > rawTruncateLen {
		raw = raw[:rawTruncateLen]
	}
	return &ClassificationError{Reason: reason, Raw: raw, Err: err}
}
