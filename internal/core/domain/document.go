package domain

import (
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "Uploaded"
	StatusProcessing DocumentStatus = "Processing"
	StatusCompleted  DocumentStatus = "Completed"
	StatusFailed     DocumentStatus = "Failed"
	StatusException  DocumentStatus = "Exception"
	StatusPending    DocumentStatus = "Pending"
)

// ParseDocumentStatus normalizes backend status spellings. The processing
// service is inconsistent about casing ("pending" vs "Pending").
func ParseDocumentStatus(raw string) (DocumentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "uploaded":
		return StatusUploaded, true
	case "processing":
		return StatusProcessing, true
	case "completed":
		return StatusCompleted, true
	case "failed":
		return StatusFailed, true
	case "exception":
		return StatusException, true
	case "pending":
		return StatusPending, true
	default:
		return "", false
	}
}

// Terminal reports whether a document in this status is done moving.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type DocumentType string

const (
	TypeClaim        DocumentType = "Claim"
	TypeAgency       DocumentType = "Agency"
	TypeMortgage     DocumentType = "Mortgage"
	TypeCheck        DocumentType = "Check"
	TypeCancellation DocumentType = "Cancellation"
)

func ParseDocumentType(raw string) (DocumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "claim":
		return TypeClaim, true
	case "agency":
		return TypeAgency, true
	case "mortgage":
		return TypeMortgage, true
	case "check":
		return TypeCheck, true
	case "cancellation":
		return TypeCancellation, true
	default:
		return "", false
	}
}

// Wire returns the lowercase form the processing service expects on
// document field updates.
func (t DocumentType) Wire() string {
	return strings.ToLower(string(t))
}

// Document is the registry's view of a single scanned document. Fields holds
// the type-specific extracted values; absent keys mean not yet extracted.
type Document struct {
	ID        string            `json:"id"`
	FileName  string            `json:"fileName"`
	Type      DocumentType      `json:"type"`
	BatchID   string            `json:"batchId"`
	Status    DocumentStatus    `json:"status"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// FileUpload is one raw file handed to the ingestion pipeline.
type FileUpload struct {
	Name    string
	Content []byte
}
