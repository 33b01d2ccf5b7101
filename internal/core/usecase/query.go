package usecase

import (
	"context"
	"fmt"

	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/core/ports"
)

// QueryUseCase is the read side: filtered views over the registry, the
// derived batch rollups, and the exception catalog. It never writes.
type QueryUseCase struct {
	registry ports.DocumentRegistry
	catalog  ports.ExceptionCatalog
}

func NewQueryUseCase(registry ports.DocumentRegistry, catalog ports.ExceptionCatalog) *QueryUseCase {
	return &QueryUseCase{registry: registry, catalog: catalog}
}

func (uc *QueryUseCase) Documents(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	docs, err := uc.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return domain.FilterDocuments(docs, filter), nil
}

func (uc *QueryUseCase) Document(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.registry.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Batches recomputes rollups from the registry on every call; there is no
// cached batch state to go stale.
func (uc *QueryUseCase) Batches(ctx context.Context, filter domain.BatchFilter) ([]domain.Batch, error) {
	docs, err := uc.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return domain.FilterBatches(domain.RollupBatches(docs), filter), nil
}

func (uc *QueryUseCase) Exceptions(ctx context.Context, filter domain.ExceptionFilter) ([]domain.Exception, error) {
	entries, err := uc.catalog.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	return domain.FilterExceptions(entries, filter), nil
}
