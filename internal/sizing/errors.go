package sizing

import (
	"errors"
	"fmt"

	"solar-sizer/internal/catalog"
)

// InvalidInputError reports a malformed or out-of-range calculation input.
// Raised before any catalog access; the caller can fix and resubmit.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// NoCandidateError reports that a required category has no usable catalog
// entries for the selection criterion. A catalog-completeness problem, not
// a user mistake.
type NoCandidateError struct {
	Category catalog.Category
	Column   string
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("no usable %s candidate with attribute %q", e.Category, e.Column)
}

// IncompatibleConfigurationError reports a hard electrical constraint
// violation between chosen components.
type IncompatibleConfigurationError struct {
	Reason string
}

func (e *IncompatibleConfigurationError) Error() string {
	return "incompatible configuration: " + e.Reason
}

func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}

func IsNoCandidate(err error) bool {
	var e *NoCandidateError
	return errors.As(err, &e)
}

func IsIncompatible(err error) bool {
	var e *IncompatibleConfigurationError
	return errors.As(err, &e)
}
