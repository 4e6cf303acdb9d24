package model

import "errors"

// ErrNotFound is returned when an operation references an unknown event id.
var ErrNotFound = errors.New("event not found")

// ValidationKind identifies which draft rule was violated.
type ValidationKind string

const (
	KindTitleInvalid       ValidationKind = "title-invalid"
	KindDescriptionTooLong ValidationKind = "description-too-long"
	KindStartInvalid       ValidationKind = "start-invalid"
	KindEndInvalid         ValidationKind = "end-invalid"
)

// ValidationError reports the first draft rule a create/update violated.
// It is a reportable condition for the caller to surface, not a crash path.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
