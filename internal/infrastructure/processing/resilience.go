package processing

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "processing status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("processing %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("processing %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// classifyProcessingError feeds the circuit breaker. Nothing is marked
// retryable: a failed submission or resolution is surfaced once and retried
// only by the user, but repeated transport failures should still trip the
// breaker.
func classifyProcessingError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 500 {
			return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	if domain.IsKind(err, domain.ErrSchema) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// classifySnapshotError marks transient failures retryable. Used only for
// the idempotent GET listings.
func classifySnapshotError(err error) resilience.ErrorClassification {
	class := classifyProcessingError(err)
	if err == nil {
		return class
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		class.Retryable = statusErr.StatusCode >= 500 || statusErr.StatusCode == 429
		return class
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		class.Retryable = true
	}
	return class
}

// wrapProcessingError maps low-level failures onto the domain taxonomy so
// callers and the HTTP layer can react by kind.
func wrapProcessingError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrSchema) || domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrTransport) {
		return err
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == 404 {
			return domain.WrapError(domain.ErrNotFound, operation, err)
		}
		return domain.WrapError(domain.ErrTransport, operation, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.WrapError(domain.ErrTransport, operation, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.WrapError(domain.ErrTransport, operation, err)
}
