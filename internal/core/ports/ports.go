package ports

import (
	"context"

	"github.com/intakeworks/docflow/internal/core/domain"
)

// DocumentRegistry holds the service's current known state of every document.
// Listings are returned newest first; filtering happens above this port.
type DocumentRegistry interface {
	List(ctx context.Context) ([]domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// ExceptionCatalog reads the open exception entries, newest first.
type ExceptionCatalog interface {
	ListOpen(ctx context.Context) ([]domain.Exception, error)
	GetOpenByID(ctx context.Context, exceptionID string) (*domain.Exception, error)
	OpenCountByDocument(ctx context.Context, documentID string) (int, error)
}

// IntakeStore applies the write paths that must be transactional: merging a
// processing result, reconciling a snapshot, and completing a resolution.
// Implementations guarantee a document never reads Completed while an open
// exception row still references it. MergeSnapshot additionally closes open
// exception rows absent from the snapshot, since the processing service no
// longer considers them open.
type IntakeStore interface {
	MergeProcessingResult(ctx context.Context, docs []domain.Document, exceptions []domain.Exception) error
	MergeSnapshot(ctx context.Context, batchID string, docs []domain.Document, exceptions []domain.Exception) error
	CompleteResolution(ctx context.Context, documentID, exceptionID, resolutionDetails string, fields map[string]string) error
}

// ProcessingService is the external extraction/storage backend. It is the
// single mutable source of truth; no local transition is assumed until the
// backend confirms it.
type ProcessingService interface {
	ProcessBatch(ctx context.Context, files []domain.FileUpload) (*domain.ProcessingResult, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	ListExceptions(ctx context.Context) ([]domain.Exception, error)
	FetchExceptionDetails(ctx context.Context, exceptionID, documentID string) (*domain.ExceptionDetails, error)
	UpdateDocumentFields(ctx context.Context, documentID string, documentType domain.DocumentType, fields map[string]string) error
	ResolveException(ctx context.Context, exceptionID, resolutionDetails string) error
}

// EventQueue fans batch-processed notifications out to the reconciler. The
// publisher stamps each event so subscribers can observe queue lag.
type EventQueue interface {
	PublishBatchProcessed(ctx context.Context, batchID string) error
	SubscribeBatchProcessed(ctx context.Context, handler func(context.Context, domain.BatchProcessedEvent) error) error
}

// FilePreflight rejects obviously unusable files before a batch submission.
type FilePreflight interface {
	Check(file domain.FileUpload) error
}

// BatchSubmitter is the inbound contract for the ingestion pipeline.
type BatchSubmitter interface {
	Submit(ctx context.Context, files []domain.FileUpload) (*domain.ProcessingOutcome, error)
}

// Reconciler refreshes local state from the processing service.
type Reconciler interface {
	Reconcile(ctx context.Context, batchID string) error
}
