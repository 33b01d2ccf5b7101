package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing documents, batches and catalog entries.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is raised before any network call leaves the process.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransport marks a failed round trip to the processing service. It is
	// never retried automatically; the caller decides.
	ErrTransport = errors.New("transport failure")
	// ErrSchema marks a processing-service response missing expected fields.
	ErrSchema = errors.New("malformed response")
	// ErrConflict rejects a second in-flight operation on the same exception.
	ErrConflict = errors.New("operation already in flight")
	// ErrTemporary marks failures worth trying again later (circuit open,
	// service unavailable).
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
