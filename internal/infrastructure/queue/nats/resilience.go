package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/intakeworks/docflow/internal/infrastructure/resilience"
)

// A lost batch-processed notification is cheap to repeat (publishing is
// idempotent: the reconciler re-reads the full snapshot), so connection-level
// failures are retryable.
func classifyNATSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrConnectionDraining) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	if errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoServers) || errors.Is(err, nats.ErrDisconnected) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
