package processing

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intakeworks/docflow/internal/core/domain"
)

type documentRecord struct {
	ID        string            `json:"id"`
	FileName  string            `json:"fileName"`
	BatchID   string            `json:"batchId"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (r documentRecord) toDomain() domain.Document {
	doc := domain.Document{
		ID:        r.ID,
		FileName:  r.FileName,
		BatchID:   r.BatchID,
		Fields:    r.Fields,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.CreatedAt.UTC(),
	}
	if parsed, ok := domain.ParseDocumentType(r.Type); ok {
		doc.Type = parsed
	} else {
		doc.Type = domain.DocumentType(r.Type)
	}
	if parsed, ok := domain.ParseDocumentStatus(r.Status); ok {
		doc.Status = parsed
	} else {
		doc.Status = domain.StatusPending
	}
	return doc
}

// exceptionRecord tolerates both shapes the backend has shipped: a full
// object, or a bare string summary like "DOC-1 missing policy #" whose first
// token is the document id.
type exceptionRecord struct {
	ExceptionID    string    `json:"exceptionId"`
	DocumentID     string    `json:"documentId"`
	FileName       string    `json:"fileName"`
	Type           string    `json:"type"`
	ExceptionType  string    `json:"exceptionType"`
	BatchID        string    `json:"batchId"`
	DateIdentified time.Time `json:"dateIdentified"`
	Summary        string    `json:"summary"`
}

func (r *exceptionRecord) UnmarshalJSON(raw []byte) error {
	var summary string
	if err := json.Unmarshal(raw, &summary); err == nil {
		r.Summary = summary
		if fields := strings.Fields(summary); len(fields) > 0 {
			r.DocumentID = fields[0]
		}
		return nil
	}

	type plain exceptionRecord
	var decoded plain
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*r = exceptionRecord(decoded)
	return nil
}

func (r exceptionRecord) toDomain() domain.Exception {
	entry := domain.Exception{
		ID:             r.ExceptionID,
		DocumentID:     r.DocumentID,
		FileName:       r.FileName,
		BatchID:        r.BatchID,
		DateIdentified: r.DateIdentified.UTC(),
	}
	// The list endpoint omits exceptionId; a document carries at most one
	// open exception, so the document id identifies it.
	if entry.ID == "" {
		entry.ID = r.DocumentID
	}
	if parsed, ok := domain.ParseDocumentType(r.Type); ok {
		entry.DocumentType = parsed
	} else {
		entry.DocumentType = domain.DocumentType(r.Type)
	}
	if parsed, ok := domain.ParseExceptionType(r.ExceptionType); ok {
		entry.ExceptionType = parsed
	} else {
		entry.ExceptionType = domain.ExceptionMissingData
	}
	if entry.DateIdentified.IsZero() {
		entry.DateIdentified = time.Now().UTC()
	}
	return entry
}

func (r exceptionRecord) summaryLine() string {
	if r.Summary != "" {
		return r.Summary
	}
	parts := []string{r.DocumentID}
	if r.FileName != "" {
		parts = append(parts, r.FileName)
	}
	if r.ExceptionType != "" {
		parts = append(parts, r.ExceptionType)
	}
	return strings.Join(parts, " ")
}

type processResponse struct {
	StatusCode       *int              `json:"statusCode"`
	Message          string            `json:"message"`
	SuccessfulCount  *int              `json:"successfulCount"`
	TotalCheckAmount float64           `json:"totalCheckAmount"`
	Documents        []documentRecord  `json:"documents"`
	Exceptions       []exceptionRecord `json:"exceptions"`
}

// toResult normalizes the response. Missing statusCode or successfulCount
// means the backend sent something unexpected: substitute safe defaults
// (statusCode 500, empty exception list) and flag the result as degraded
// rather than failing the whole submission over a parse problem.
func (p processResponse) toResult() *domain.ProcessingResult {
	result := &domain.ProcessingResult{}

	if p.StatusCode == nil {
		result.Degraded = true
		result.Outcome = domain.ProcessingOutcome{
			StatusCode: 500,
			Message:    p.Message,
			Exceptions: []string{},
		}
		return result
	}

	docs := make([]domain.Document, 0, len(p.Documents)+len(p.Exceptions))
	for _, record := range p.Documents {
		doc := record.toDomain()
		if record.Status == "" {
			doc.Status = domain.StatusCompleted
		}
		docs = append(docs, doc)
	}

	summaries := make([]string, 0, len(p.Exceptions))
	exceptions := make([]domain.Exception, 0, len(p.Exceptions))
	for _, record := range p.Exceptions {
		entry := record.toDomain()
		if entry.DocumentID == "" {
			result.Degraded = true
			continue
		}
		exceptions = append(exceptions, entry)
		summaries = append(summaries, record.summaryLine())
		docs = append(docs, domain.Document{
			ID:        entry.DocumentID,
			FileName:  entry.FileName,
			Type:      entry.DocumentType,
			BatchID:   entry.BatchID,
			Status:    domain.StatusException,
			CreatedAt: entry.DateIdentified,
			UpdatedAt: entry.DateIdentified,
		})
	}

	successful := len(p.Documents)
	if p.SuccessfulCount != nil {
		successful = *p.SuccessfulCount
	}

	result.Outcome = domain.ProcessingOutcome{
		StatusCode:       *p.StatusCode,
		Message:          p.Message,
		SuccessfulCount:  successful,
		ExceptionCount:   len(exceptions),
		TotalCheckAmount: p.TotalCheckAmount,
		Exceptions:       summaries,
	}
	result.Documents = docs
	result.Exceptions = exceptions
	return result
}

type detailsResponse struct {
	ExceptionID       string            `json:"exceptionId"`
	Fields            []domain.Field    `json:"typeSpecificFields"`
	FieldMap          map[string]string `json:"fields"`
	ResolutionDetails string            `json:"resolutionDetails"`
}

func (d detailsResponse) toDomain(exceptionID, documentID string) (*domain.ExceptionDetails, error) {
	fields := d.Fields
	if len(fields) == 0 && len(d.FieldMap) > 0 {
		// Older backend revisions return a plain object; the original order
		// is lost there, so fall back to name order for a stable schema.
		fields = make([]domain.Field, 0, len(d.FieldMap))
		for name, value := range d.FieldMap {
			fields = append(fields, domain.Field{Name: name, Value: value})
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no type-specific fields in response")
	}

	id := d.ExceptionID
	if id == "" {
		id = exceptionID
	}
	return &domain.ExceptionDetails{
		ExceptionID:       id,
		DocumentID:        documentID,
		Fields:            fields,
		ResolutionDetails: d.ResolutionDetails,
	}, nil
}

type updateDocumentRequest struct {
	DocumentID   string            `json:"documentId"`
	DocumentType string            `json:"documentType"`
	Fields       map[string]string `json:"fields"`
}
