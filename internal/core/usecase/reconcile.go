package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/core/ports"
)

// ReconcileUseCase refreshes the local registry and catalog from the
// processing service after a batch has been processed. Documents and
// exceptions are fetched concurrently; the snapshot merge, including closing
// entries resolved upstream, is one transaction.
type ReconcileUseCase struct {
	store   ports.IntakeStore
	service ports.ProcessingService
}

func NewReconcileUseCase(store ports.IntakeStore, service ports.ProcessingService) *ReconcileUseCase {
	return &ReconcileUseCase{store: store, service: service}
}

func (uc *ReconcileUseCase) Reconcile(ctx context.Context, batchID string) error {
	var (
		docs       []domain.Document
		exceptions []domain.Exception
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = uc.service.ListDocuments(gctx)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		exceptions, err = uc.service.ListExceptions(gctx)
		if err != nil {
			return fmt.Errorf("list exceptions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if batchID != "" {
		docs = keepBatchDocuments(docs, batchID)
		exceptions = keepBatchExceptions(exceptions, batchID)
	}

	if err := uc.store.MergeSnapshot(ctx, batchID, docs, exceptions); err != nil {
		return fmt.Errorf("merge snapshot: %w", err)
	}

	slog.Info("reconciled from processing service",
		"batch_id", batchID,
		"documents", len(docs),
		"open_exceptions", len(exceptions),
	)
	return nil
}

func keepBatchDocuments(docs []domain.Document, batchID string) []domain.Document {
	out := docs[:0]
	for _, doc := range docs {
		if doc.BatchID == batchID {
			out = append(out, doc)
		}
	}
	return out
}

func keepBatchExceptions(exceptions []domain.Exception, batchID string) []domain.Exception {
	out := exceptions[:0]
	for _, ex := range exceptions {
		if ex.BatchID == batchID {
			out = append(out, ex)
		}
	}
	return out
}
