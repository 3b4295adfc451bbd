package verification

import (
	"fmt"

	"github.com/google/uuid"
)

// RetrievalError is a failure fetching candidates for one link. It is recorded in the
// audit log and retried on the next run.
type RetrievalError struct {
	Site  string
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for %s: %v", e.Site, e.Cause)
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// ConfigurationError means the retrieval collaborator is not set up. It is reported per
// attempt like a RetrievalError.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NotFoundError is a validation failure: the canonical record or listing link does not
// exist. No log entry is written.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ForbiddenError means the caller may not trigger the operation.
type ForbiddenError struct {
	Caller uuid.UUID
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("caller %s is not allowed to %s", e.Caller, e.Action)
}

// InvalidInputError is a request the engine rejects before touching any state.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
