package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/core/ports"
)

// IngestBatchUseCase submits a set of raw files to the processing service and
// merges the confirmed result into the registry and catalog. A transport
// failure fails the whole submission: nothing is merged and nothing is
// retried automatically.
type IngestBatchUseCase struct {
	store     ports.IntakeStore
	service   ports.ProcessingService
	queue     ports.EventQueue
	preflight ports.FilePreflight
	maxFiles  int
}

func NewIngestBatchUseCase(
	store ports.IntakeStore,
	service ports.ProcessingService,
	queue ports.EventQueue,
	preflight ports.FilePreflight,
	maxFiles int,
) *IngestBatchUseCase {
	if maxFiles <= 0 {
		maxFiles = 100
	}
	return &IngestBatchUseCase{
		store:     store,
		service:   service,
		queue:     queue,
		preflight: preflight,
		maxFiles:  maxFiles,
	}
}

func (uc *IngestBatchUseCase) Submit(ctx context.Context, files []domain.FileUpload) (*domain.ProcessingOutcome, error) {
	if err := uc.validate(files); err != nil {
		return nil, err
	}

	result, err := uc.service.ProcessBatch(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("process batch: %w", err)
	}
	if result.Degraded {
		slog.Warn("processing response missing expected fields, defaults substituted",
			"status_code", result.Outcome.StatusCode,
			"files", len(files),
		)
	}

	if err := uc.store.MergeProcessingResult(ctx, result.Documents, result.Exceptions); err != nil {
		return nil, fmt.Errorf("merge processing result: %w", err)
	}

	for _, batchID := range batchIDs(result.Documents, result.Exceptions) {
		if err := uc.queue.PublishBatchProcessed(ctx, batchID); err != nil {
			// The merge already happened; the reconciler catches up on its
			// next event, so a lost notification is logged, not fatal.
			slog.Warn("publish batch processed event", "batch_id", batchID, "error", err)
		}
	}

	outcome := result.Outcome
	return &outcome, nil
}

func (uc *IngestBatchUseCase) validate(files []domain.FileUpload) error {
	if len(files) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("no files provided"))
	}
	if len(files) > uc.maxFiles {
		return domain.WrapError(domain.ErrInvalidInput, "submit batch",
			fmt.Errorf("%d files exceeds limit of %d", len(files), uc.maxFiles))
	}
	for i, file := range files {
		if strings.TrimSpace(file.Name) == "" {
			return domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("file %d has no name", i))
		}
		if len(file.Content) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("file %q is empty", file.Name))
		}
		if uc.preflight != nil {
			if err := uc.preflight.Check(file); err != nil {
				return domain.WrapError(domain.ErrInvalidInput, "submit batch", err)
			}
		}
	}
	return nil
}

func batchIDs(docs []domain.Document, exceptions []domain.Exception) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, doc := range docs {
		if doc.BatchID == "" {
			continue
		}
		if _, ok := seen[doc.BatchID]; !ok {
			seen[doc.BatchID] = struct{}{}
			ids = append(ids, doc.BatchID)
		}
	}
	for _, ex := range exceptions {
		if ex.BatchID == "" {
			continue
		}
		if _, ok := seen[ex.BatchID]; !ok {
			seen[ex.BatchID] = struct{}{}
			ids = append(ids, ex.BatchID)
		}
	}
	return ids
}
