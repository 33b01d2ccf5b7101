package domain

import (
	"sort"
	"time"
)

type BatchStatus string

const (
	BatchComplete   BatchStatus = "Complete"
	BatchExceptions BatchStatus = "Exceptions"
	BatchProcessing BatchStatus = "Processing"
)

// Batch is a derived rollup over member documents. It is never stored; the
// registry is the only source of truth and rollups are recomputed on read.
type Batch struct {
	ID             string      `json:"batchId"`
	TotalDocuments int         `json:"totalDocuments"`
	ExceptionCount int         `json:"exceptionCount"`
	Status         BatchStatus `json:"status"`
	StartDate      time.Time   `json:"startDate"`
	EndDate        *time.Time  `json:"endDate,omitempty"`
}

// RollupBatches projects the current document set into per-batch rollups.
// Status is Complete when every member is Completed, Exceptions when any
// member is in Exception, otherwise Processing. EndDate stays nil while any
// member is still moving. Batches are ordered by StartDate descending, newest
// first, matching how the backend lists recent batches.
func RollupBatches(docs []Document) []Batch {
	byBatch := make(map[string][]Document)
	order := make([]string, 0)
	for _, doc := range docs {
		if doc.BatchID == "" {
			continue
		}
		if _, seen := byBatch[doc.BatchID]; !seen {
			order = append(order, doc.BatchID)
		}
		byBatch[doc.BatchID] = append(byBatch[doc.BatchID], doc)
	}

	batches := make([]Batch, 0, len(order))
	for _, id := range order {
		batches = append(batches, rollupOne(id, byBatch[id]))
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].StartDate.After(batches[j].StartDate)
	})
	return batches
}

func rollupOne(id string, members []Document) Batch {
	batch := Batch{ID: id, TotalDocuments: len(members)}

	allCompleted := true
	allTerminal := true
	var last time.Time
	for i, doc := range members {
		if i == 0 || doc.CreatedAt.Before(batch.StartDate) {
			batch.StartDate = doc.CreatedAt
		}
		if doc.UpdatedAt.After(last) {
			last = doc.UpdatedAt
		}
		if doc.Status == StatusException {
			batch.ExceptionCount++
		}
		if doc.Status != StatusCompleted {
			allCompleted = false
		}
		if !doc.Status.Terminal() {
			allTerminal = false
		}
	}

	switch {
	case batch.ExceptionCount > 0:
		batch.Status = BatchExceptions
	case allCompleted:
		batch.Status = BatchComplete
	default:
		batch.Status = BatchProcessing
	}
	if allTerminal && !last.IsZero() {
		batch.EndDate = &last
	}
	return batch
}
