package domain

import (
	"testing"
)

func TestFilterDocumentsDoesNotMutateInput(t *testing.T) {
	docs := []Document{
		{ID: "DOC-2", Status: StatusCompleted, CreatedAt: at(2)},
		{ID: "DOC-1", Status: StatusException, CreatedAt: at(1)},
	}

	out := FilterDocuments(docs, DocumentFilter{Status: StatusException})
	if len(out) != 1 || out[0].ID != "DOC-1" {
		t.Fatalf("unexpected filter result: %+v", out)
	}
	if docs[0].ID != "DOC-2" || docs[1].ID != "DOC-1" {
		t.Fatalf("input slice was mutated: %+v", docs)
	}
}

func TestDocumentFilterIDQueryCaseInsensitive(t *testing.T) {
	doc := Document{ID: "DOC-abc-1", CreatedAt: at(1)}
	if !(DocumentFilter{IDQuery: "ABC"}).Match(doc) {
		t.Fatalf("expected case-insensitive substring match")
	}
	if (DocumentFilter{IDQuery: "xyz"}).Match(doc) {
		t.Fatalf("expected no match for absent substring")
	}
}

func TestDocumentFilterDateRangeEndpoints(t *testing.T) {
	doc := Document{ID: "DOC-1", CreatedAt: at(5)}

	if !(DocumentFilter{From: at(5), To: at(5)}).Match(doc) {
		t.Fatalf("expected both endpoints inclusive")
	}
	if (DocumentFilter{From: at(6)}).Match(doc) {
		t.Fatalf("expected match rejected before lower bound")
	}
	if (DocumentFilter{To: at(4)}).Match(doc) {
		t.Fatalf("expected match rejected after upper bound")
	}
}

func TestDocumentFilterConjunction(t *testing.T) {
	doc := Document{ID: "DOC-1", Type: TypeClaim, Status: StatusCompleted, CreatedAt: at(5)}

	if !(DocumentFilter{Type: TypeClaim, Status: StatusCompleted}).Match(doc) {
		t.Fatalf("expected all-predicates match")
	}
	// One failing predicate rejects even when others match.
	if (DocumentFilter{Type: TypeClaim, Status: StatusFailed}).Match(doc) {
		t.Fatalf("expected conjunction to reject on one mismatch")
	}
}

func TestExceptionFilterMatch(t *testing.T) {
	ex := Exception{
		ID:             "EX-1",
		DocumentType:   TypeCheck,
		ExceptionType:  ExceptionMissingData,
		DateIdentified: at(5),
	}

	if !(ExceptionFilter{DocumentType: TypeCheck, ExceptionType: ExceptionMissingData}).Match(ex) {
		t.Fatalf("expected match")
	}
	if (ExceptionFilter{DocumentType: TypeClaim}).Match(ex) {
		t.Fatalf("expected document type mismatch to reject")
	}
	if (ExceptionFilter{ExceptionType: ExceptionFormatIssue}).Match(ex) {
		t.Fatalf("expected exception type mismatch to reject")
	}
}

func TestFilterBatchesByStatusAndStart(t *testing.T) {
	batches := []Batch{
		{ID: "B-2", Status: BatchExceptions, StartDate: at(10)},
		{ID: "B-1", Status: BatchComplete, StartDate: at(1)},
	}

	out := FilterBatches(batches, BatchFilter{Status: BatchExceptions, From: at(5)})
	if len(out) != 1 || out[0].ID != "B-2" {
		t.Fatalf("unexpected batch filter result: %+v", out)
	}
}

func TestParseDocumentStatusCaseInsensitive(t *testing.T) {
	status, ok := ParseDocumentStatus(" pending ")
	if !ok || status != StatusPending {
		t.Fatalf("expected Pending, got %q ok=%v", status, ok)
	}
	if _, ok := ParseDocumentStatus("archived"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestDocumentTypeWire(t *testing.T) {
	if TypeCancellation.Wire() != "cancellation" {
		t.Fatalf("expected lowercase wire form, got %q", TypeCancellation.Wire())
	}
}
