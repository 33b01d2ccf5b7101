package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/intakeworks/docflow/internal/core/domain"
)

const exceptionColumns = `id, document_id, file_name, doc_type, batch_id, exception_type, date_identified, resolution_details`

func (s *Store) ListOpen(ctx context.Context) ([]domain.Exception, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+exceptionColumns+`
FROM exceptions
WHERE resolved_at IS NULL
ORDER BY date_identified DESC, id
`)
	if err != nil {
		return nil, fmt.Errorf("query exceptions: %w", err)
	}
	defer rows.Close()

	var entries []domain.Exception
	for rows.Next() {
		entry, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exceptions: %w", err)
	}
	return entries, nil
}

func (s *Store) GetOpenByID(ctx context.Context, exceptionID string) (*domain.Exception, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+exceptionColumns+`
FROM exceptions
WHERE id = $1 AND resolved_at IS NULL
`, exceptionID)

	entry, err := scanException(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get exception", fmt.Errorf("id %s", exceptionID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *Store) OpenCountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM exceptions WHERE document_id = $1 AND resolved_at IS NULL
`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open exceptions: %w", err)
	}
	return count, nil
}

// CompleteResolution closes the catalog entry and moves the document to
// Completed in one transaction. The document update is guarded so it only
// fires once no other open exception references the document, which keeps the
// status/catalog invariant intact even under concurrent writers.
func (s *Store) CompleteResolution(ctx context.Context, documentID, exceptionID, resolutionDetails string, fields map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resolution tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
UPDATE exceptions
SET resolution_details = $2, resolved_at = $3
WHERE id = $1 AND resolved_at IS NULL
`, exceptionID, resolutionDetails, now)
	if err != nil {
		return fmt.Errorf("close exception: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.WrapError(domain.ErrNotFound, "close exception", fmt.Errorf("id %s not open", exceptionID))
	}

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	if fields == nil {
		fieldsJSON = []byte(`{}`)
	}

	res, err = tx.ExecContext(ctx, `
UPDATE documents
SET status = 'Completed', fields = fields || $2::jsonb, updated_at = $3
WHERE id = $1
	AND NOT EXISTS (
		SELECT 1 FROM exceptions
		WHERE document_id = $1 AND resolved_at IS NULL
	)
`, documentID, fieldsJSON, now)
	if err != nil {
		return fmt.Errorf("complete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.WrapError(domain.ErrNotFound, "complete document",
			fmt.Errorf("document %s missing or still blocked by an open exception", documentID))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resolution tx: %w", err)
	}
	return nil
}

// closeOpenExceptions resolves every open entry before a snapshot merge; the
// entries the snapshot still carries are re-opened right after by
// upsertOpenException. An empty batchID closes across all batches.
func closeOpenExceptions(ctx context.Context, tx *sql.Tx, batchID string, now time.Time) error {
	query := `UPDATE exceptions SET resolved_at = $1 WHERE resolved_at IS NULL`
	args := []any{now}
	if batchID != "" {
		query += ` AND batch_id = $2`
		args = append(args, batchID)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("close open exceptions: %w", err)
	}
	return nil
}

// The processing service is the source of truth: an entry it reports as open
// is open here too, even if a previous round closed it.
func upsertOpenException(ctx context.Context, tx *sql.Tx, ex domain.Exception) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO exceptions (id, document_id, file_name, doc_type, batch_id, exception_type, date_identified)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	exception_type = EXCLUDED.exception_type,
	date_identified = EXCLUDED.date_identified,
	resolved_at = NULL
`,
		ex.ID, ex.DocumentID, ex.FileName, string(ex.DocumentType), ex.BatchID, string(ex.ExceptionType), ex.DateIdentified,
	)
	if err != nil {
		return fmt.Errorf("upsert exception %s: %w", ex.ID, err)
	}
	return nil
}

func scanException(row rowScanner) (*domain.Exception, error) {
	var (
		entry         domain.Exception
		docType       string
		exceptionType string
	)
	err := row.Scan(
		&entry.ID, &entry.DocumentID, &entry.FileName, &docType, &entry.BatchID,
		&exceptionType, &entry.DateIdentified, &entry.ResolutionDetails,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan exception: %w", err)
	}
	entry.DocumentType = domain.DocumentType(docType)
	entry.ExceptionType = domain.ExceptionType(exceptionType)
	return &entry, nil
}
