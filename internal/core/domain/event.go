package domain

import "time"

// BatchProcessedEvent announces that a batch finished a processing round.
// PublishedAt is stamped by the publisher so consumers can measure how long
// the event sat on the queue.
type BatchProcessedEvent struct {
	BatchID     string    `json:"batchId"`
	PublishedAt time.Time `json:"publishedAt"`
}
