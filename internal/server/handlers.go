package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/entl/botdeck/internal/catalog"
	"github.com/entl/botdeck/internal/executor"
	"github.com/entl/botdeck/internal/queue"
	"github.com/entl/botdeck/internal/session"
	"github.com/entl/botdeck/internal/storage"
	"github.com/entl/botdeck/internal/validators"
)

// sessionHeader carries the caller's session identity. The server assigns
// one on first contact and echoes it on every response.
const sessionHeader = "X-Session-ID"

// SubmitRequest is the submit-command request body.
type SubmitRequest struct {
	Text string `json:"text"`
}

// QueuedCommand is one pending command on the wire.
type QueuedCommand struct {
	Seq  uint64 `json:"seq"`
	Text string `json:"text"`
}

// QueueResponse reports the queue state after an action.
type QueueResponse struct {
	SessionID string          `json:"session_id"`
	Pending   []QueuedCommand `json:"pending"`
	Count     int             `json:"count"`
}

// ExecuteResponse reports one executed batch.
type ExecuteResponse struct {
	SessionID string             `json:"session_id"`
	BatchID   string             `json:"batch_id"`
	Outcomes  []executor.Outcome `json:"outcomes"`
}

// SearchResponse reports a catalog search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Matches []catalog.Application `json:"matches"`
	Count   int                   `json:"count"`
}

// errorBody is the uniform error envelope.
type errorBody struct {
	Error struct {
		Code       string                      `json:"code"`
		Message    string                      `json:"message"`
		Violations []validators.FieldViolation `json:"violations,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("http: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, violations []validators.FieldViolation) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	body.Error.Violations = violations
	writeJSON(w, status, body)
}

// writeDomainError maps core errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *validators.Error
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", "validation failed", verr.Violations)
	case errors.Is(err, queue.ErrInvalidCommand):
		writeError(w, http.StatusBadRequest, "invalid_command", err.Error(), nil)
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusConflict, "queue_full", err.Error(), nil)
	case errors.Is(err, session.ErrExecutionInFlight):
		writeError(w, http.StatusConflict, "execution_in_flight", err.Error(), nil)
	default:
		log.Printf("http: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
	}
}

// sessionID extracts the caller's session id, which may be empty on first
// contact.
func sessionID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(sessionHeader))
}

func echoSession(w http.ResponseWriter, sess *session.Session) {
	if sess != nil {
		w.Header().Set(sessionHeader, sess.ID)
	}
}

func toQueueResponse(sess *session.Session, snap []queue.Command) QueueResponse {
	pending := make([]QueuedCommand, len(snap))
	for i, c := range snap {
		pending[i] = QueuedCommand{Seq: c.Seq, Text: c.Text}
	}
	return QueueResponse{SessionID: sess.ID, Pending: pending, Count: len(pending)}
}

// handleSubmit appends a command to the caller's queue without executing.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "request body must be JSON", nil)
		return
	}
	if err := validators.ValidateSubmitRequest(req.Text); err != nil {
		writeDomainError(w, err)
		return
	}

	sess, _, err := s.svc.Submit(r.Context(), sessionID(r), req.Text)
	if err != nil {
		echoSession(w, sess)
		writeDomainError(w, err)
		return
	}

	echoSession(w, sess)
	writeJSON(w, http.StatusCreated, toQueueResponse(sess, sess.Queue.Snapshot()))
}

// handleQueueSnapshot returns the pending commands in order.
func (s *Server) handleQueueSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, snap, err := s.svc.QueueSnapshot(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	echoSession(w, sess)
	writeJSON(w, http.StatusOK, toQueueResponse(sess, snap))
}

// handleClearQueue empties the queue without executing anything.
func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.ClearQueue(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	echoSession(w, sess)
	writeJSON(w, http.StatusOK, toQueueResponse(sess, nil))
}

// handleExecute drains the current queue snapshot against the robot and
// returns one outcome per command, in order.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	sess, batchID, outcomes, err := s.svc.ExecuteBatch(r.Context(), sessionID(r), nil)
	if err != nil {
		echoSession(w, sess)
		writeDomainError(w, err)
		return
	}

	echoSession(w, sess)
	writeJSON(w, http.StatusOK, ExecuteResponse{
		SessionID: sess.ID,
		BatchID:   batchID,
		Outcomes:  outcomes,
	})
}

// handleHistory returns recent persisted outcomes for the session.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	limit = validators.ValidateHistoryLimit(limit)

	id := sessionID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "X-Session-ID header is required", nil)
		return
	}

	outcomes, err := s.svc.History(r.Context(), id, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"outcomes":   outcomes,
	})
}

// handleListApps returns the whole catalog in stable order.
func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := s.loadCatalog(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"apps": apps, "count": len(apps)})
}

// handleSearch filters the catalog on the enabled fields.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fieldNames []string
	if raw := q.Get("fields"); raw != "" {
		fieldNames = strings.Split(raw, ",")
	}
	fields, err := validators.ValidateSearchRequest(fieldNames)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	apps, err := s.loadCatalog(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := catalog.Search(apps, catalog.Query{Text: q.Get("q"), Fields: fields})
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   q.Get("q"),
		Matches: result.Matches,
		Count:   result.Count,
	})
}

// handleSuggest returns fuzzy-ranked completions for the search box.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	apps, err := s.loadCatalog(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	suggestions := catalog.Suggest(apps, q.Get("q"), limit)
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sys.Version())
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": s.sys.Ping(r.URL.Query().Get("message")),
	})
}

// loadCatalog reads the catalog from storage in iteration order.
func (s *Server) loadCatalog(ctx context.Context) ([]catalog.Application, error) {
	records, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	apps := make([]catalog.Application, len(records))
	for i, rec := range records {
		apps[i] = appFromRecord(rec)
	}
	return apps, nil
}

func appFromRecord(rec *storage.AppRecord) catalog.Application {
	return catalog.Application{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Author:      rec.Author,
		Installed:   rec.Installed,
		AddedAt:     rec.AddedAt,
	}
}
