package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/intakeworks/docflow/internal/core/domain"
	"github.com/intakeworks/docflow/internal/core/ports"
)

// SessionState is the per-exception resolution workflow state.
type SessionState string

const (
	StateIdle          SessionState = "idle"
	StateSchemaLoading SessionState = "schema_loading"
	StateAwaitingInput SessionState = "awaiting_input"
	StateSubmitting    SessionState = "submitting"
	StateResolved      SessionState = "resolved"
)

// ResolutionSession is the caller-visible snapshot of one workflow instance.
type ResolutionSession struct {
	ExceptionID string         `json:"exceptionId"`
	DocumentID  string         `json:"documentId"`
	State       SessionState   `json:"state"`
	Fields      []domain.Field `json:"typeSpecificFields,omitempty"`
	LastError   string         `json:"lastError,omitempty"`
}

type session struct {
	exceptionID  string
	documentID   string
	documentType domain.DocumentType
	state        SessionState
	fields       []domain.Field
	lastError    string
}

// ResolutionUseCase drives the exception resolution workflow. Each exception
// gets an independent session; two users resolving different exceptions never
// block each other. Within one session, Open and Submit are strictly ordered
// and at most one submission is in flight.
type ResolutionUseCase struct {
	catalog ports.ExceptionCatalog
	store   ports.IntakeStore
	service ports.ProcessingService

	mu       sync.Mutex
	sessions map[string]*session
}

func NewResolutionUseCase(
	catalog ports.ExceptionCatalog,
	store ports.IntakeStore,
	service ports.ProcessingService,
) *ResolutionUseCase {
	return &ResolutionUseCase{
		catalog:  catalog,
		store:    store,
		service:  service,
		sessions: make(map[string]*session),
	}
}

// Open starts (or restarts) the workflow for an exception: it fetches the
// document's current type-specific field values and moves the session to
// awaiting_input. On fetch failure the session stays idle with no partial
// schema. Opening while a submission is in flight is rejected without a
// network call.
func (uc *ResolutionUseCase) Open(ctx context.Context, exceptionID string) (*ResolutionSession, error) {
	entry, err := uc.catalog.GetOpenByID(ctx, exceptionID)
	if err != nil {
		return nil, fmt.Errorf("load catalog entry: %w", err)
	}

	_, err = uc.beginSchemaLoad(entry)
	if err != nil {
		return nil, err
	}

	details, err := uc.service.FetchExceptionDetails(ctx, entry.ID, entry.DocumentID)
	if err != nil {
		uc.transition(exceptionID, StateIdle, nil, err.Error())
		return nil, fmt.Errorf("fetch exception details: %w", err)
	}

	snap := uc.transition(exceptionID, StateAwaitingInput, details.Fields, "")
	slog.Info("resolution opened",
		"exception_id", entry.ID,
		"document_id", entry.DocumentID,
		"field_count", len(details.Fields),
	)
	return snap, nil
}

// Submit runs the two-step resolution as one logical unit: persist the field
// updates, then mark the exception resolved. Only after both calls confirm
// does the local store close the catalog entry and complete the document. On
// any failure the session returns to awaiting_input with the fetched schema
// intact so the user's values are not lost; the document stays in Exception
// and the catalog entry stays open.
func (uc *ResolutionUseCase) Submit(ctx context.Context, exceptionID, resolutionDetails string, fieldValues map[string]string) (*ResolutionSession, error) {
	if strings.TrimSpace(resolutionDetails) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit resolution",
			fmt.Errorf("resolution details are required"))
	}

	sess, err := uc.beginSubmit(exceptionID, fieldValues)
	if err != nil {
		return nil, err
	}

	// A reconcile may have closed the entry between Open and Submit. When
	// nothing open references the document anymore there is nothing left to
	// resolve, so the saga never starts.
	open, err := uc.catalog.OpenCountByDocument(ctx, sess.documentID)
	if err != nil {
		uc.transition(exceptionID, StateAwaitingInput, sess.fields, err.Error())
		return nil, fmt.Errorf("check open exceptions: %w", err)
	}
	if open == 0 {
		uc.transition(exceptionID, StateResolved, nil, "")
		return nil, domain.WrapError(domain.ErrConflict, "submit resolution",
			fmt.Errorf("exception %s was resolved upstream", exceptionID))
	}

	if err := uc.service.UpdateDocumentFields(ctx, sess.documentID, sess.documentType, fieldValues); err != nil {
		uc.transition(exceptionID, StateAwaitingInput, sess.fields, err.Error())
		return nil, fmt.Errorf("update document fields: %w", err)
	}

	if err := uc.service.ResolveException(ctx, exceptionID, resolutionDetails); err != nil {
		// The field update already landed. Re-running the same submission is
		// safe: both backend calls are idempotent by document and exception
		// id, so no compensation is attempted here.
		uc.transition(exceptionID, StateAwaitingInput, sess.fields, err.Error())
		return nil, fmt.Errorf("resolve exception: %w", err)
	}

	if err := uc.store.CompleteResolution(ctx, sess.documentID, exceptionID, resolutionDetails, fieldValues); err != nil {
		uc.transition(exceptionID, StateAwaitingInput, sess.fields, err.Error())
		return nil, fmt.Errorf("complete resolution: %w", err)
	}

	snap := uc.transition(exceptionID, StateResolved, nil, "")
	slog.Info("resolution submitted",
		"exception_id", exceptionID,
		"document_id", sess.documentID,
		"updated_fields", len(fieldValues),
	)
	return snap, nil
}

// Session returns the current snapshot for an exception, idle if none exists.
func (uc *ResolutionUseCase) Session(exceptionID string) *ResolutionSession {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	sess, ok := uc.sessions[exceptionID]
	if !ok {
		return &ResolutionSession{ExceptionID: exceptionID, State: StateIdle}
	}
	return sess.snapshot()
}

func (uc *ResolutionUseCase) beginSchemaLoad(entry *domain.Exception) (*session, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	sess, ok := uc.sessions[entry.ID]
	if !ok {
		sess = &session{
			exceptionID:  entry.ID,
			documentID:   entry.DocumentID,
			documentType: entry.DocumentType,
			state:        StateIdle,
		}
		uc.sessions[entry.ID] = sess
	}
	if sess.state == StateSubmitting {
		return nil, domain.WrapError(domain.ErrConflict, "open resolution",
			fmt.Errorf("exception %s has a submission in flight", entry.ID))
	}
	sess.state = StateSchemaLoading
	sess.lastError = ""
	return sess, nil
}

func (uc *ResolutionUseCase) beginSubmit(exceptionID string, fieldValues map[string]string) (*session, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	sess, ok := uc.sessions[exceptionID]
	if !ok || sess.state == StateIdle || sess.state == StateSchemaLoading {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit resolution",
			fmt.Errorf("exception %s has no loaded schema", exceptionID))
	}
	if sess.state == StateSubmitting {
		return nil, domain.WrapError(domain.ErrConflict, "submit resolution",
			fmt.Errorf("exception %s has a submission in flight", exceptionID))
	}
	if sess.state == StateResolved {
		return nil, domain.WrapError(domain.ErrConflict, "submit resolution",
			fmt.Errorf("exception %s is already resolved", exceptionID))
	}
	for name := range fieldValues {
		if !hasField(sess.fields, name) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "submit resolution",
				fmt.Errorf("field %q is not part of the fetched schema", name))
		}
	}
	sess.state = StateSubmitting
	sess.lastError = ""
	return sess.clone(), nil
}

func (uc *ResolutionUseCase) transition(exceptionID string, state SessionState, fields []domain.Field, lastError string) *ResolutionSession {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	sess, ok := uc.sessions[exceptionID]
	if !ok {
		return &ResolutionSession{ExceptionID: exceptionID, State: state, LastError: lastError}
	}
	sess.state = state
	sess.lastError = lastError
	if fields != nil {
		sess.fields = fields
	}
	if state == StateResolved || state == StateIdle {
		sess.fields = nil
	}
	return sess.snapshot()
}

func (s *session) clone() *session {
	out := *s
	out.fields = append([]domain.Field(nil), s.fields...)
	return &out
}

func (s *session) snapshot() *ResolutionSession {
	return &ResolutionSession{
		ExceptionID: s.exceptionID,
		DocumentID:  s.documentID,
		State:       s.state,
		Fields:      append([]domain.Field(nil), s.fields...),
		LastError:   s.lastError,
	}
}

func hasField(fields []domain.Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
