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

const documentColumns = `id, file_name, doc_type, batch_id, status, fields, created_at, updated_at`

func (s *Store) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
ORDER BY created_at DESC, id
`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return doc, nil
}

// MergeProcessingResult upserts the documents and open exceptions produced by
// one processing round in a single transaction, so a submission is either
// fully visible or not at all. Exceptions go in first: the document upsert
// refuses a Completed status while any open entry references the document,
// and that check has to see the incoming entries.
func (s *Store) MergeProcessingResult(ctx context.Context, docs []domain.Document, exceptions []domain.Exception) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, ex := range exceptions {
		if err := upsertOpenException(ctx, tx, ex); err != nil {
			return err
		}
	}
	for _, doc := range docs {
		if err := upsertDocument(ctx, tx, doc, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge tx: %w", err)
	}
	return nil
}

// MergeSnapshot reconciles local state against an authoritative snapshot from
// the processing service. Open catalog entries absent from the snapshot were
// resolved upstream, so they are closed first; the snapshot's entries are then
// re-opened and its documents merged last, all in one transaction, so the
// Completed guard in the document upsert sees the final open set. An empty
// batchID reconciles everything.
func (s *Store) MergeSnapshot(ctx context.Context, batchID string, docs []domain.Document, exceptions []domain.Exception) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	if err := closeOpenExceptions(ctx, tx, batchID, now); err != nil {
		return err
	}
	for _, ex := range exceptions {
		if err := upsertOpenException(ctx, tx, ex); err != nil {
			return err
		}
	}
	for _, doc := range docs {
		if err := upsertDocument(ctx, tx, doc, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

func upsertDocument(ctx context.Context, tx *sql.Tx, doc domain.Document, now time.Time) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	if doc.Fields == nil {
		fieldsJSON = []byte(`{}`)
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	// A document already Completed never regresses to Exception from a stale
	// snapshot, and a document never reads Completed while an open catalog
	// entry still references it; every other transition follows the incoming
	// record.
	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (id, file_name, doc_type, batch_id, status, fields, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	file_name = EXCLUDED.file_name,
	doc_type = EXCLUDED.doc_type,
	batch_id = EXCLUDED.batch_id,
	status = CASE
		WHEN documents.status = 'Completed' AND EXCLUDED.status = 'Exception' THEN documents.status
		WHEN EXCLUDED.status = 'Completed' AND EXISTS (
			SELECT 1 FROM exceptions
			WHERE exceptions.document_id = documents.id AND exceptions.resolved_at IS NULL
		) THEN documents.status
		ELSE EXCLUDED.status
	END,
	fields = documents.fields || EXCLUDED.fields,
	updated_at = EXCLUDED.updated_at
`,
		doc.ID, doc.FileName, string(doc.Type), doc.BatchID, string(doc.Status), fieldsJSON, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc       domain.Document
		docType   string
		status    string
		fieldsRaw []byte
	)
	err := row.Scan(&doc.ID, &doc.FileName, &docType, &doc.BatchID, &status, &fieldsRaw, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	if err := json.Unmarshal(fieldsRaw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}
