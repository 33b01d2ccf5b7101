package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/core/ports"
)

// Overview is the dashboard projection: intake volume, completion rate,
// pending exceptions and the document type mix.
type Overview struct {
	DocumentsToday    int                         `json:"documentsToday"`
	CompletionRate    float64                     `json:"completionRate"`
	PendingExceptions int                         `json:"pendingExceptions"`
	ActiveBatches     int                         `json:"activeBatches"`
	TypeDistribution  map[domain.DocumentType]int `json:"typeDistribution"`
}

type OverviewUseCase struct {
	registry ports.DocumentRegistry
	catalog  ports.ExceptionCatalog
	now      func() time.Time
}

func NewOverviewUseCase(registry ports.DocumentRegistry, catalog ports.ExceptionCatalog) *OverviewUseCase {
	return &OverviewUseCase{
		registry: registry,
		catalog:  catalog,
		now:      time.Now,
	}
}

func (uc *OverviewUseCase) Overview(ctx context.Context) (*Overview, error) {
	docs, err := uc.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	open, err := uc.catalog.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}

	out := &Overview{
		PendingExceptions: len(open),
		TypeDistribution:  make(map[domain.DocumentType]int),
	}

	dayStart := uc.now().UTC().Truncate(24 * time.Hour)
	completed := 0
	for _, doc := range docs {
		out.TypeDistribution[doc.Type]++
		if !doc.CreatedAt.Before(dayStart) {
			out.DocumentsToday++
		}
		if doc.Status == domain.StatusCompleted {
			completed++
		}
	}
	if len(docs) > 0 {
		out.CompletionRate = float64(completed) / float64(len(docs))
	}

	for _, batch := range domain.RollupBatches(docs) {
		if batch.Status != domain.BatchComplete {
			out.ActiveBatches++
		}
	}
	return out, nil
}
