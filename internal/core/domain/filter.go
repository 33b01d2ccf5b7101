package domain

import (
	"strings"
	"time"
)

// DocumentFilter is a conjunction of optional predicates over documents.
// Zero values mean "no constraint".
type DocumentFilter struct {
	Status  DocumentStatus
	Type    DocumentType
	IDQuery string // substring match on document id
	From    time.Time
	To      time.Time // inclusive
}

func (f DocumentFilter) Match(doc Document) bool {
	if f.Status != "" && doc.Status != f.Status {
		return false
	}
	if f.Type != "" && doc.Type != f.Type {
		return false
	}
	if f.IDQuery != "" && !strings.Contains(strings.ToLower(doc.ID), strings.ToLower(f.IDQuery)) {
		return false
	}
	return inRange(doc.CreatedAt, f.From, f.To)
}

// ExceptionFilter constrains catalog listings.
type ExceptionFilter struct {
	DocumentType  DocumentType
	ExceptionType ExceptionType
	From          time.Time
	To            time.Time // inclusive
}

func (f ExceptionFilter) Match(ex Exception) bool {
	if f.DocumentType != "" && ex.DocumentType != f.DocumentType {
		return false
	}
	if f.ExceptionType != "" && ex.ExceptionType != f.ExceptionType {
		return false
	}
	return inRange(ex.DateIdentified, f.From, f.To)
}

type BatchFilter struct {
	Status BatchStatus
	From   time.Time
	To     time.Time // inclusive, against StartDate
}

func (f BatchFilter) Match(batch Batch) bool {
	if f.Status != "" && batch.Status != f.Status {
		return false
	}
	return inRange(batch.StartDate, f.From, f.To)
}

// FilterDocuments returns the documents matching every set predicate, in the
// order they were given. The input is never mutated.
func FilterDocuments(docs []Document, f DocumentFilter) []Document {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if f.Match(doc) {
			out = append(out, doc)
		}
	}
	return out
}

func FilterExceptions(exceptions []Exception, f ExceptionFilter) []Exception {
	out := make([]Exception, 0, len(exceptions))
	for _, ex := range exceptions {
		if f.Match(ex) {
			out = append(out, ex)
		}
	}
	return out
}

func FilterBatches(batches []Batch, f BatchFilter) []Batch {
	out := make([]Batch, 0, len(batches))
	for _, batch := range batches {
		if f.Match(batch) {
			out = append(out, batch)
		}
	}
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
