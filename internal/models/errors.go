package models

import (
	"errors"
	"fmt"
)

// Run error taxonomy. Only ErrInvalidInput and total unavailability of the
// search collaborator abort a run; everything else is recorded per result.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrCollectionFailure = errors.New("collection failure")
	ErrRateLimited       = errors.New("rate limited")
	ErrExtractionFailure = errors.New("extraction failure")
	ErrValidationFailure = errors.New("validation failure")
	ErrUnavailable       = errors.New("collaborator unavailable")
	ErrRunNotFound       = errors.New("run not found")
)

// InputError reports a rejected run parameter.
type InputError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Wrapped)
}

func (e *InputError) Unwrap() error { return e.Wrapped }

// StageError ties a failure to the pipeline stage and subject (query text or URL) it hit.
type StageError struct {
	Stage   string
	Subject string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Subject, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
