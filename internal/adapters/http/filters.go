package httpadapter

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/intakeworks/docflow/internal/core/domain"
)

const filterDateLayout = "2006-01-02"

func documentFilterFromQuery(r *http.Request) (domain.DocumentFilter, error) {
	var filter domain.DocumentFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status, ok := domain.ParseDocumentStatus(raw)
		if !ok {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse document filter",
				fmt.Errorf("unknown status %q", raw))
		}
		filter.Status = status
	}
	if raw := q.Get("type"); raw != "" {
		docType, ok := domain.ParseDocumentType(raw)
		if !ok {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse document filter",
				fmt.Errorf("unknown document type %q", raw))
		}
		filter.Type = docType
	}
	filter.IDQuery = strings.TrimSpace(q.Get("q"))

	var err error
	filter.From, filter.To, err = dateRangeFromQuery(r)
	if err != nil {
		return filter, err
	}
	return filter, nil
}

func exceptionFilterFromQuery(r *http.Request) (domain.ExceptionFilter, error) {
	var filter domain.ExceptionFilter
	q := r.URL.Query()

	if raw := q.Get("type"); raw != "" {
		docType, ok := domain.ParseDocumentType(raw)
		if !ok {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse exception filter",
				fmt.Errorf("unknown document type %q", raw))
		}
		filter.DocumentType = docType
	}
	if raw := q.Get("exceptionType"); raw != "" {
		exType, ok := domain.ParseExceptionType(raw)
		if !ok {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse exception filter",
				fmt.Errorf("unknown exception type %q", raw))
		}
		filter.ExceptionType = exType
	}

	var err error
	filter.From, filter.To, err = dateRangeFromQuery(r)
	if err != nil {
		return filter, err
	}
	return filter, nil
}

func batchFilterFromQuery(r *http.Request) (domain.BatchFilter, error) {
	var filter domain.BatchFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "complete":
			filter.Status = domain.BatchComplete
		case "exceptions":
			filter.Status = domain.BatchExceptions
		case "processing":
			filter.Status = domain.BatchProcessing
		default:
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse batch filter",
				fmt.Errorf("unknown batch status %q", raw))
		}
	}

	var err error
	filter.From, filter.To, err = dateRangeFromQuery(r)
	if err != nil {
		return filter, err
	}
	return filter, nil
}

// dateRangeFromQuery reads from/to as calendar dates. The upper bound is
// widened to the end of its day so both endpoints are inclusive.
func dateRangeFromQuery(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		from, err = time.Parse(filterDateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, domain.WrapError(domain.ErrInvalidInput, "parse date filter",
				fmt.Errorf("from must be %s: %w", filterDateLayout, err))
		}
	}
	if raw := q.Get("to"); raw != "" {
		to, err = time.Parse(filterDateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, domain.WrapError(domain.ErrInvalidInput, "parse date filter",
				fmt.Errorf("to must be %s: %w", filterDateLayout, err))
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

func isZeroExceptionFilter(filter domain.ExceptionFilter) bool {
	return filter.DocumentType == "" && filter.ExceptionType == "" &&
		filter.From.IsZero() && filter.To.IsZero()
}
