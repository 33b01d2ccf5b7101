package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/intakeworks/docflow/internal/core/domain"
)

type ingestStoreFake struct {
	mergedDocs       []domain.Document
	mergedExceptions []domain.Exception
	mergeCalls       int
	snapshotBatchID  string
	snapshotCalls    int
	err              error
}

func (f *ingestStoreFake) MergeProcessingResult(_ context.Context, docs []domain.Document, exceptions []domain.Exception) error {
	f.mergeCalls++
	if f.err != nil {
		return f.err
	}
	f.mergedDocs = docs
	f.mergedExceptions = exceptions
	return nil
}

func (f *ingestStoreFake) MergeSnapshot(_ context.Context, batchID string, docs []domain.Document, exceptions []domain.Exception) error {
	f.snapshotCalls++
	if f.err != nil {
		return f.err
	}
	f.snapshotBatchID = batchID
	f.mergedDocs = docs
	f.mergedExceptions = exceptions
	return nil
}

func (f *ingestStoreFake) CompleteResolution(context.Context, string, string, string, map[string]string) error {
	return errors.New("not implemented")
}

type ingestServiceFake struct {
	result *domain.ProcessingResult
	err    error
	calls  int
}

func (f *ingestServiceFake) ProcessBatch(_ context.Context, files []domain.FileUpload) (*domain.ProcessingResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *ingestServiceFake) ListDocuments(context.Context) ([]domain.Document, error) {
	return nil, errors.New("not implemented")
}
func (f *ingestServiceFake) ListExceptions(context.Context) ([]domain.Exception, error) {
	return nil, errors.New("not implemented")
}
func (f *ingestServiceFake) FetchExceptionDetails(context.Context, string, string) (*domain.ExceptionDetails, error) {
	return nil, errors.New("not implemented")
}
func (f *ingestServiceFake) UpdateDocumentFields(context.Context, string, domain.DocumentType, map[string]string) error {
	return errors.New("not implemented")
}
func (f *ingestServiceFake) ResolveException(context.Context, string, string) error {
	return errors.New("not implemented")
}

type ingestQueueFake struct {
	published []string
	err       error
}

func (f *ingestQueueFake) PublishBatchProcessed(_ context.Context, batchID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, batchID)
	return nil
}

func (f *ingestQueueFake) SubscribeBatchProcessed(context.Context, func(context.Context, domain.BatchProcessedEvent) error) error {
	return errors.New("not implemented")
}

type preflightFake struct {
	rejectName string
}

func (f *preflightFake) Check(file domain.FileUpload) error {
	if f.rejectName != "" && file.Name == f.rejectName {
		return errors.New("file " + file.Name + " failed preflight")
	}
	return nil
}

func pdfFile(name string) domain.FileUpload {
	return domain.FileUpload{Name: name, Content: []byte("%PDF-1.4 stub")}
}

func TestSubmitRejectsEmptyBatch(t *testing.T) {
	store := &ingestStoreFake{}
	service := &ingestServiceFake{}
	queue := &ingestQueueFake{}
	uc := NewIngestBatchUseCase(store, service, queue, nil, 10)

	_, err := uc.Submit(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if service.calls != 0 {
		t.Fatalf("expected no backend call for empty batch, got %d", service.calls)
	}
	if store.mergeCalls != 0 {
		t.Fatalf("expected no merge for empty batch")
	}
}

func TestSubmitRejectsOversizedBatch(t *testing.T) {
	service := &ingestServiceFake{}
	uc := NewIngestBatchUseCase(&ingestStoreFake{}, service, &ingestQueueFake{}, nil, 2)

	_, err := uc.Submit(context.Background(), []domain.FileUpload{pdfFile("a.pdf"), pdfFile("b.pdf"), pdfFile("c.pdf")})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if service.calls != 0 {
		t.Fatalf("expected no backend call, got %d", service.calls)
	}
}

func TestSubmitRejectsEmptyFileContent(t *testing.T) {
	service := &ingestServiceFake{}
	uc := NewIngestBatchUseCase(&ingestStoreFake{}, service, &ingestQueueFake{}, nil, 10)

	_, err := uc.Submit(context.Background(), []domain.FileUpload{{Name: "empty.pdf"}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty.pdf") {
		t.Fatalf("expected offending file name in error, got %v", err)
	}
	if service.calls != 0 {
		t.Fatalf("expected no backend call, got %d", service.calls)
	}
}

func TestSubmitPreflightRejectionSkipsBackend(t *testing.T) {
	service := &ingestServiceFake{}
	uc := NewIngestBatchUseCase(&ingestStoreFake{}, service, &ingestQueueFake{}, &preflightFake{rejectName: "bad.pdf"}, 10)

	_, err := uc.Submit(context.Background(), []domain.FileUpload{pdfFile("ok.pdf"), pdfFile("bad.pdf")})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if service.calls != 0 {
		t.Fatalf("expected no backend call after preflight rejection, got %d", service.calls)
	}
}

func TestSubmitSuccessMergesAndPublishes(t *testing.T) {
	store := &ingestStoreFake{}
	queue := &ingestQueueFake{}
	service := &ingestServiceFake{
		result: &domain.ProcessingResult{
			Outcome: domain.ProcessingOutcome{
				StatusCode:      200,
				Message:         "Batch processed",
				SuccessfulCount: 2,
				ExceptionCount:  1,
				Exceptions:      []string{"DOC-3 missing policy number"},
			},
			Documents: []domain.Document{
				{ID: "DOC-1", BatchID: "B-1", Status: domain.StatusCompleted},
				{ID: "DOC-2", BatchID: "B-2", Status: domain.StatusCompleted},
				{ID: "DOC-3", BatchID: "B-1", Status: domain.StatusException},
			},
			Exceptions: []domain.Exception{
				{ID: "EX-3", DocumentID: "DOC-3", BatchID: "B-1", ExceptionType: domain.ExceptionMissingData},
			},
		},
	}
	uc := NewIngestBatchUseCase(store, service, queue, nil, 10)

	outcome, err := uc.Submit(context.Background(), []domain.FileUpload{pdfFile("a.pdf"), pdfFile("b.pdf"), pdfFile("c.pdf")})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if outcome.SuccessfulCount != 2 || outcome.ExceptionCount != 1 {
		t.Fatalf("unexpected outcome counts: %+v", outcome)
	}
	if len(outcome.Exceptions) != 1 || !strings.HasPrefix(outcome.Exceptions[0], "DOC-3") {
		t.Fatalf("unexpected exception summaries: %v", outcome.Exceptions)
	}
	if len(store.mergedDocs) != 3 || len(store.mergedExceptions) != 1 {
		t.Fatalf("expected full merge, got %d docs and %d exceptions",
			len(store.mergedDocs), len(store.mergedExceptions))
	}
	if len(queue.published) != 2 || queue.published[0] != "B-1" || queue.published[1] != "B-2" {
		t.Fatalf("expected batch events for B-1 and B-2, got %v", queue.published)
	}
}

func TestSubmitBackendFailureMergesNothing(t *testing.T) {
	store := &ingestStoreFake{}
	service := &ingestServiceFake{
		err: domain.WrapError(domain.ErrTransport, "process batch", errors.New("connection refused")),
	}
	uc := NewIngestBatchUseCase(store, service, &ingestQueueFake{}, nil, 10)

	_, err := uc.Submit(context.Background(), []domain.FileUpload{pdfFile("a.pdf")})
	if !domain.IsKind(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if store.mergeCalls != 0 {
		t.Fatalf("expected no merge after backend failure")
	}
}

func TestSubmitDegradedOutcomeIsMerged(t *testing.T) {
	store := &ingestStoreFake{}
	service := &ingestServiceFake{
		result: &domain.ProcessingResult{
			Outcome: domain.ProcessingOutcome{
				StatusCode: 500,
				Message:    "Batch processing encountered an error",
				Exceptions: []string{},
			},
			Degraded: true,
		},
	}
	uc := NewIngestBatchUseCase(store, service, &ingestQueueFake{}, nil, 10)

	outcome, err := uc.Submit(context.Background(), []domain.FileUpload{pdfFile("a.pdf")})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if outcome.StatusCode != 500 {
		t.Fatalf("expected degraded status 500, got %d", outcome.StatusCode)
	}
	if outcome.Exceptions == nil || len(outcome.Exceptions) != 0 {
		t.Fatalf("expected empty exception list, got %v", outcome.Exceptions)
	}
	if store.mergeCalls != 1 {
		t.Fatalf("expected degraded result to still merge, got %d merges", store.mergeCalls)
	}
}

func TestSubmitPublishFailureIsNotFatal(t *testing.T) {
	store := &ingestStoreFake{}
	queue := &ingestQueueFake{err: errors.New("nats down")}
	service := &ingestServiceFake{
		result: &domain.ProcessingResult{
			Outcome:   domain.ProcessingOutcome{StatusCode: 200, SuccessfulCount: 1, Exceptions: []string{}},
			Documents: []domain.Document{{ID: "DOC-1", BatchID: "B-1", Status: domain.StatusCompleted}},
		},
	}
	uc := NewIngestBatchUseCase(store, service, queue, nil, 10)

	outcome, err := uc.Submit(context.Background(), []domain.FileUpload{pdfFile("a.pdf")})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if outcome.SuccessfulCount != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if store.mergeCalls != 1 {
		t.Fatalf("expected merge despite publish failure")
	}
}
