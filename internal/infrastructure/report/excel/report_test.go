package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/intakeworks/docflow/internal/core/domain"
)

func TestWriteBatchReport(t *testing.T) {
	end := time.Date(2026, time.August, 21, 17, 0, 0, 0, time.UTC)
	batches := []domain.Batch{
		{ID: "B-2", TotalDocuments: 3, ExceptionCount: 1, Status: domain.BatchExceptions, StartDate: end},
		{ID: "B-1", TotalDocuments: 2, Status: domain.BatchComplete, StartDate: end.Add(-48 * time.Hour), EndDate: &end},
	}
	exceptions := []domain.Exception{
		{
			ID:             "EX-1",
			DocumentID:     "DOC-3",
			FileName:       "c.pdf",
			DocumentType:   domain.TypeCheck,
			BatchID:        "B-2",
			ExceptionType:  domain.ExceptionMissingData,
			DateIdentified: end,
		},
	}

	var buf bytes.Buffer
	if err := WriteBatchReport(&buf, batches, exceptions); err != nil {
		t.Fatalf("WriteBatchReport() error = %v", err)
	}

	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() {
		_ = book.Close()
	}()

	sheets := book.GetSheetList()
	if len(sheets) != 2 || sheets[0] != batchSheet || sheets[1] != exceptionSheet {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	got, err := book.GetCellValue(batchSheet, "A2")
	if err != nil || got != "B-2" {
		t.Fatalf("expected B-2 in first batch row, got %q err=%v", got, err)
	}
	got, err = book.GetCellValue(batchSheet, "F3")
	if err != nil || got != "2026-08-21" {
		t.Fatalf("expected end date for B-1, got %q err=%v", got, err)
	}
	got, err = book.GetCellValue(batchSheet, "F2")
	if err != nil || got != "" {
		t.Fatalf("expected empty end date for running batch, got %q err=%v", got, err)
	}

	got, err = book.GetCellValue(exceptionSheet, "A2")
	if err != nil || got != "DOC-3" {
		t.Fatalf("expected DOC-3 in exception row, got %q err=%v", got, err)
	}
	got, err = book.GetCellValue(exceptionSheet, "D2")
	if err != nil || got != "Missing Data" {
		t.Fatalf("expected exception type, got %q err=%v", got, err)
	}
}

func TestWriteBatchReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBatchReport(&buf, nil, nil); err != nil {
		t.Fatalf("WriteBatchReport() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected workbook bytes even when empty")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, time.August, 31, 3, 0, 0, 0, time.UTC)
	if got := FileName(now); got != "batch-report-2026-08-31.xlsx" {
		t.Fatalf("unexpected file name %q", got)
	}
}
