package processing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/infrastructure/resilience"
)

// Client talks to the external extraction/processing service. The service is
// the source of truth for document and exception state; this client never
// invents a transition the backend has not confirmed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// ProcessBatch submits the files as one multipart request. A malformed
// response body is normalized to safe defaults (statusCode 500, empty
// exception list) with Degraded set, so the caller can still render an
// outcome; a failed round trip is returned as ErrTransport untouched.
func (c *Client) ProcessBatch(ctx context.Context, files []domain.FileUpload) (*domain.ProcessingResult, error) {
	var payload processResponse
	err := c.execute(ctx, "process_batch", func(callCtx context.Context) error {
		return c.postMultipart(callCtx, "/documents/process", files, &payload, "process batch")
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrSchema) {
			return &domain.ProcessingResult{
				Degraded: true,
				Outcome: domain.ProcessingOutcome{
					StatusCode: 500,
					Exceptions: []string{},
				},
			}, nil
		}
		return nil, err
	}
	return payload.toResult(), nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var payload []documentRecord
	err := c.executeRead(ctx, "list_documents", func(callCtx context.Context) error {
		return c.getJSON(callCtx, "/documents", &payload, "list documents")
	})
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(payload))
	for _, record := range payload {
		docs = append(docs, record.toDomain())
	}
	return docs, nil
}

func (c *Client) ListExceptions(ctx context.Context) ([]domain.Exception, error) {
	var payload []exceptionRecord
	err := c.executeRead(ctx, "list_exceptions", func(callCtx context.Context) error {
		return c.getJSON(callCtx, "/exceptions", &payload, "list exceptions")
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Exception, 0, len(payload))
	for _, record := range payload {
		entries = append(entries, record.toDomain())
	}
	return entries, nil
}

func (c *Client) FetchExceptionDetails(ctx context.Context, exceptionID, documentID string) (*domain.ExceptionDetails, error) {
	request := map[string]string{"documentId": documentID}
	var payload detailsResponse

	err := c.execute(ctx, "exception_details", func(callCtx context.Context) error {
		path := fmt.Sprintf("/exceptions/%s/details", exceptionID)
		return c.postJSON(callCtx, path, request, &payload, "fetch exception details")
	})
	if err != nil {
		return nil, err
	}

	details, err := payload.toDomain(exceptionID, documentID)
	if err != nil {
		// Defaults would be unsafe here: resolving against a wrong or empty
		// schema could overwrite good data.
		return nil, domain.WrapError(domain.ErrSchema, "fetch exception details", err)
	}
	return details, nil
}

func (c *Client) UpdateDocumentFields(ctx context.Context, documentID string, documentType domain.DocumentType, fields map[string]string) error {
	request := updateDocumentRequest{
		DocumentID:   documentID,
		DocumentType: documentType.Wire(),
		Fields:       fields,
	}
	return c.execute(ctx, "update_document", func(callCtx context.Context) error {
		return c.putJSON(callCtx, "/documents/"+documentID, request, "update document fields")
	})
}

func (c *Client) ResolveException(ctx context.Context, exceptionID, resolutionDetails string) error {
	request := map[string]string{
		"exceptionId":       exceptionID,
		"resolutionDetails": resolutionDetails,
	}
	return c.execute(ctx, "resolve_exception", func(callCtx context.Context) error {
		path := fmt.Sprintf("/exceptions/%s/resolve", exceptionID)
		return c.postJSON(callCtx, path, request, nil, "resolve exception")
	})
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	return c.executeWith(ctx, operation, call, classifyProcessingError)
}

// Read-only snapshot listings are safe to retry; everything else is
// surfaced once and retried only by the caller.
func (c *Client) executeRead(ctx context.Context, operation string, call func(context.Context) error) error {
	return c.executeWith(ctx, operation, call, classifySnapshotError)
}

func (c *Client) executeWith(ctx context.Context, operation string, call func(context.Context) error, classifier resilience.ErrorClassifier) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifier)
	} else {
		err = call(ctx)
	}
	return wrapProcessingError(operation, err)
}
