package excel

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/intakeworks/docflow/internal/core/domain"
)

const (
	batchSheet     = "Batches"
	exceptionSheet = "Open Exceptions"
	dateFormat     = "2006-01-02"
)

// WriteBatchReport renders the current batch rollups and open exception
// catalog as an xlsx workbook, one sheet each, in the given order.
func WriteBatchReport(w io.Writer, batches []domain.Batch, exceptions []domain.Exception) error {
	book := excelize.NewFile()
	defer func() {
		_ = book.Close()
	}()

	if err := writeBatchSheet(book, batches); err != nil {
		return err
	}
	if err := writeExceptionSheet(book, exceptions); err != nil {
		return err
	}
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeBatchSheet(book *excelize.File, batches []domain.Batch) error {
	if _, err := book.NewSheet(batchSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", batchSheet, err)
	}

	header := []any{"Batch ID", "Total Documents", "Status", "Exceptions", "Start Date", "End Date"}
	if err := book.SetSheetRow(batchSheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", batchSheet, err)
	}
	for i, batch := range batches {
		endDate := ""
		if batch.EndDate != nil {
			endDate = batch.EndDate.Format(dateFormat)
		}
		row := []any{
			batch.ID,
			batch.TotalDocuments,
			string(batch.Status),
			batch.ExceptionCount,
			batch.StartDate.Format(dateFormat),
			endDate,
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := book.SetSheetRow(batchSheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", batchSheet, i+2, err)
		}
	}
	return nil
}

func writeExceptionSheet(book *excelize.File, exceptions []domain.Exception) error {
	if _, err := book.NewSheet(exceptionSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", exceptionSheet, err)
	}

	header := []any{"Document ID", "File Name", "Type", "Exception Type", "Batch ID", "Date Identified"}
	if err := book.SetSheetRow(exceptionSheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", exceptionSheet, err)
	}
	for i, ex := range exceptions {
		row := []any{
			ex.DocumentID,
			ex.FileName,
			string(ex.DocumentType),
			string(ex.ExceptionType),
			ex.BatchID,
			ex.DateIdentified.UTC().Format(dateFormat),
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := book.SetSheetRow(exceptionSheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", exceptionSheet, i+2, err)
		}
	}
	return nil
}

// FileName builds the attachment name for a report generated now.
func FileName(now time.Time) string {
	return fmt.Sprintf("batch-report-%s.xlsx", now.UTC().Format(dateFormat))
}
