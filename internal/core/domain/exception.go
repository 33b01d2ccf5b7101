package domain

import (
	"strings"
	"time"
)

type ExceptionType string

const (
	ExceptionMissingData     ExceptionType = "Missing Data"
	ExceptionValidationError ExceptionType = "Validation Error"
	ExceptionFormatIssue     ExceptionType = "Format Issue"
)

func ParseExceptionType(raw string) (ExceptionType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "missing data":
		return ExceptionMissingData, true
	case "validation error":
		return ExceptionValidationError, true
	case "format issue":
		return ExceptionFormatIssue, true
	default:
		return "", false
	}
}

// Exception is an open catalog entry requiring human correction. A document
// has at most one open exception at a time.
type Exception struct {
	ID                string        `json:"exceptionId"`
	DocumentID        string        `json:"documentId"`
	FileName          string        `json:"fileName"`
	DocumentType      DocumentType  `json:"type"`
	BatchID           string        `json:"batchId"`
	ExceptionType     ExceptionType `json:"exceptionType"`
	DateIdentified    time.Time     `json:"dateIdentified"`
	ResolutionDetails string        `json:"resolutionDetails,omitempty"`
}

// Field is one entry of the type-specific schema fetched when a resolution
// workflow opens. Order matters for display, so the schema is a slice, not a
// map. An empty Value means the extractor could not fill it.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExceptionDetails is the lazily fetched resolution payload for one exception.
type ExceptionDetails struct {
	ExceptionID       string  `json:"exceptionId"`
	DocumentID        string  `json:"documentId"`
	Fields            []Field `json:"typeSpecificFields"`
	ResolutionDetails string  `json:"resolutionDetails,omitempty"`
}
