package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/intakeworks/docflow/internal/config"
	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/core/ports"
	"github.com/intakeworks/docflow/internal/core/usecase"
	"github.com/intakeworks/docflow/internal/infrastructure/report/excel"
	"github.com/intakeworks/docflow/internal/observability/metrics"
)

const serviceName = "docflow-api"

type Router struct {
	cfg        config.Config
	ingest     ports.BatchSubmitter
	query      *usecase.QueryUseCase
	resolution *usecase.ResolutionUseCase
	overview   *usecase.OverviewUseCase
	metrics    *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.BatchSubmitter,
	query *usecase.QueryUseCase,
	resolution *usecase.ResolutionUseCase,
	overview *usecase.OverviewUseCase,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:        cfg,
		ingest:     ingest,
		query:      query,
		resolution: resolution,
		overview:   overview,
		metrics:    httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/openapi.json", rt.openAPISpec)
	mux.HandleFunc("/v1/documents", rt.listDocuments)
	mux.HandleFunc("/v1/documents/process", rt.processBatch)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/batches", rt.listBatches)
	mux.HandleFunc("/v1/reports/batches.xlsx", rt.batchReport)
	mux.HandleFunc("/v1/exceptions", rt.listExceptions)
	mux.HandleFunc("/v1/exceptions/", rt.exceptionWorkflow)
	mux.HandleFunc("/v1/dashboard", rt.dashboard)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	if rt.cfg.APIMaxConns > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxConns, 100*time.Millisecond)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) processBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	files := make([]domain.FileUpload, 0, len(headers))
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart part " + header.Filename})
			return
		}
		content, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart part " + header.Filename})
			return
		}
		files = append(files, domain.FileUpload{Name: header.Filename, Content: content})
	}

	start := time.Now()
	outcome, err := rt.ingest.Submit(r.Context(), files)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordIntakeBatch(
			serviceName,
			len(files),
			outcome.SuccessfulCount,
			outcome.ExceptionCount,
			time.Since(start),
			outcome.StatusCode != http.StatusOK,
		)
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := documentFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	docs, err := rt.query.Documents(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.query.Document(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := batchFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	batches, err := rt.query.Batches(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

func (rt *Router) batchReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	batches, err := rt.query.Batches(r.Context(), domain.BatchFilter{})
	if err != nil {
		writeError(w, err)
		return
	}
	exceptions, err := rt.query.Exceptions(r.Context(), domain.ExceptionFilter{})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+excel.FileName(time.Now())+`"`)
	if err := excel.WriteBatchReport(w, batches, exceptions); err != nil {
		// Headers are already out; the truncated body is all we can signal.
		writeError(w, err)
	}
}

func (rt *Router) listExceptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := exceptionFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	exceptions, err := rt.query.Exceptions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil && isZeroExceptionFilter(filter) {
		rt.metrics.SetOpenExceptions(serviceName, len(exceptions))
	}
	writeJSON(w, http.StatusOK, map[string]any{"exceptions": exceptions})
}

// exceptionWorkflow dispatches /v1/exceptions/{id}/{action}: open starts a
// session and returns the type-specific schema, resolve submits it, session
// reads the current snapshot without side effects.
func (rt *Router) exceptionWorkflow(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/exceptions/")
	exceptionID, action, ok := strings.Cut(rest, "/")
	if !ok || exceptionID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	switch action {
	case "open":
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		session, err := rt.resolution.Open(r.Context(), exceptionID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	case "resolve":
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req struct {
			ResolutionDetails string            `json:"resolutionDetails"`
			FieldValues       map[string]string `json:"fieldValues"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		start := time.Now()
		session, err := rt.resolution.Submit(r.Context(), exceptionID, req.ResolutionDetails, req.FieldValues)
		if rt.metrics != nil {
			rt.metrics.RecordResolution(serviceName, time.Since(start), err)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	case "session":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, rt.resolution.Session(exceptionID))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	overview, err := rt.overview.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
