package domain

// ProcessingOutcome is the caller-facing summary of one batch submission.
// Exceptions carries human-readable one-line summaries in backend order.
type ProcessingOutcome struct {
	StatusCode       int      `json:"statusCode"`
	Message          string   `json:"message"`
	SuccessfulCount  int      `json:"successfulCount"`
	ExceptionCount   int      `json:"exceptionCount"`
	TotalCheckAmount float64  `json:"totalCheckAmount"`
	Exceptions       []string `json:"exceptions"`
}

// ProcessingResult is the full parsed response of a batch submission: the
// outcome summary plus the per-file records to merge into the registry and
// catalog.
type ProcessingResult struct {
	Outcome    ProcessingOutcome
	Documents  []Document
	Exceptions []Exception
	// Degraded is set when the response was missing expected fields and safe
	// defaults were substituted.
	Degraded bool
}
