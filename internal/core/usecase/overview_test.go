package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/intakeworks/docflow/internal/core/domain"
)

func TestOverviewAggregates(t *testing.T) {
	now := time.Date(2026, time.August, 21, 15, 30, 0, 0, time.UTC)
	registry := &queryRegistryFake{docs: []domain.Document{
		{ID: "DOC-4", Type: domain.TypeCheck, BatchID: "B-2", Status: domain.StatusException, CreatedAt: day(21)},
		{ID: "DOC-3", Type: domain.TypeClaim, BatchID: "B-2", Status: domain.StatusCompleted, CreatedAt: day(21), UpdatedAt: day(21)},
		{ID: "DOC-2", Type: domain.TypeClaim, BatchID: "B-1", Status: domain.StatusCompleted, CreatedAt: day(10), UpdatedAt: day(11)},
		{ID: "DOC-1", Type: domain.TypeMortgage, BatchID: "B-1", Status: domain.StatusCompleted, CreatedAt: day(10), UpdatedAt: day(11)},
	}}
	catalog := &queryCatalogFake{exceptions: []domain.Exception{
		{ID: "EX-4", DocumentID: "DOC-4"},
	}}

	uc := NewOverviewUseCase(registry, catalog)
	uc.now = func() time.Time { return now }

	overview, err := uc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.DocumentsToday != 2 {
		t.Fatalf("expected 2 documents today, got %d", overview.DocumentsToday)
	}
	if overview.CompletionRate != 0.75 {
		t.Fatalf("expected completion rate 0.75, got %f", overview.CompletionRate)
	}
	if overview.PendingExceptions != 1 {
		t.Fatalf("expected 1 pending exception, got %d", overview.PendingExceptions)
	}
	if overview.ActiveBatches != 1 {
		t.Fatalf("expected 1 active batch, got %d", overview.ActiveBatches)
	}
	if overview.TypeDistribution[domain.TypeClaim] != 2 || overview.TypeDistribution[domain.TypeCheck] != 1 {
		t.Fatalf("unexpected type distribution: %v", overview.TypeDistribution)
	}
}

func TestOverviewEmptyRegistry(t *testing.T) {
	uc := NewOverviewUseCase(&queryRegistryFake{}, &queryCatalogFake{})

	overview, err := uc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.CompletionRate != 0 {
		t.Fatalf("expected zero completion rate on empty registry, got %f", overview.CompletionRate)
	}
	if overview.DocumentsToday != 0 || overview.ActiveBatches != 0 {
		t.Fatalf("expected empty overview, got %+v", overview)
	}
}
