package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/notify"
	"github.com/JonMunkholm/fraudguard/internal/perf"
	"github.com/JonMunkholm/fraudguard/internal/validate"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errInvalidBody)
	}
	return nil
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string             `json:"status"`
	ScoringAPI  core.HealthStatus  `json:"scoring_api"`
	Predictions core.LimiterStatus `json:"predictions"`
	Sessions    int                `json:"sessions"`
	Timings     []perf.Summary     `json:"timings"`
}

// handleHealth reports the server's view of the scoring API. It answers
// 503 while the API is unreachable so callers can treat any non-2xx as
// unavailable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Predictions: s.service.Limiter().Status(),
		Sessions:    s.hub.Len(),
		Timings:     s.tracker.Summaries(),
	}
	if s.health != nil {
		resp.ScoringAPI = s.health.Status()
	}

	status := http.StatusOK
	if !resp.ScoringAPI.Healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

// handleAPIHistory returns one page of the owner's history.
func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	perPage := parseIntParam(r, "per_page", core.DefaultPerPage)

	hp, err := s.service.HistoryPage(r.Context(), owner(r), page, perPage)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, hp)
}

// handleAPITransaction returns one transaction of the owner.
func (s *Server) handleAPITransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.service.Transaction(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, tx)
}

// handleAPIPredict scores a JSON transaction. Missing fields take the form
// defaults.
func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	tx := apiclient.DefaultTransaction()
	if err := decodeJSON(w, r, &tx); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if tx.Amount < 0 {
		err := validate.Errors{{Field: "Transaction_Amount", Tag: "min", Message: "Amount cannot be negative"}}
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := s.service.Predict(r.Context(), owner(r), tx, nil)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// ValidateRequest checks either one value against a kind or a whole form.
type ValidateRequest struct {
	Kind  string          `json:"kind,omitempty"`
	Value string          `json:"value,omitempty"`
	Form  string          `json:"form,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ValidateResponse is the verdict of POST /api/validate.
type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// forms maps form names accepted by /api/validate to their structs.
var forms = map[string]func() any{
	"signup":  func() any { return &validate.SignupForm{} },
	"login":   func() any { return &validate.LoginForm{} },
	"payment": func() any { return &validate.PaymentForm{} },
}

// handleValidate runs the validators for client-side style checks.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if req.Form == "" {
		ok, err := validate.Field(req.Kind, req.Value)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %w", errInvalidBody, err), http.StatusBadRequest)
			return
		}
		writeJSON(w, r, http.StatusOK, ValidateResponse{Valid: ok})
		return
	}

	newForm, ok := forms[strings.ToLower(req.Form)]
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: unknown form %q", errInvalidBody, req.Form), http.StatusBadRequest)
		return
	}
	form := newForm()
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, form); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %w", errInvalidBody, err), http.StatusBadRequest)
			return
		}
	}

	err := s.validator.Struct(form)
	var verrs validate.Errors
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, ValidateResponse{Valid: true})
	case errors.As(err, &verrs):
		writeJSON(w, r, http.StatusOK, ValidateResponse{Valid: false, Errors: verrs.Map()})
	default:
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// StorageEntry is one stored value.
type StorageEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// handleStorageKeys lists the session's stored keys.
func (s *Server) handleStorageKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.sessionStore(r).Keys(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string][]string{"keys": keys})
}

// handleStorageGet returns one stored value, or 404 when absent.
func (s *Server) handleStorageGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	raw, found, err := s.sessionStore(r).GetRaw(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if !found {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{
			Error: "key not found", Message: "key not found", Code: "STO404",
		})
		return
	}
	writeJSON(w, r, http.StatusOK, StorageEntry{Key: key, Value: raw})
}

// handleStorageSet stores the JSON body under the key.
func (s *Server) handleStorageSet(w http.ResponseWriter, r *http.Request) {
	var value json.RawMessage
	if err := decodeJSON(w, r, &value); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.sessionStore(r).Set(r.Context(), chi.URLParam(r, "key"), value); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStorageRemove deletes one key. Absent keys are not an error.
func (s *Server) handleStorageRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionStore(r).Remove(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStorageClear deletes every key of the session.
func (s *Server) handleStorageClear(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionStore(r).Clear(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotificationRequest creates a banner. DurationMs nil uses the severity
// default; 0 makes the banner persistent.
type NotificationRequest struct {
	Title      string `json:"title,omitempty"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	DurationMs *int64 `json:"duration_ms,omitempty"`
}

// handleNotificationsList returns the session's pending banners, newest
// first.
func (s *Server) handleNotificationsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]notify.Banner{"notifications": s.flashes(r).List()})
}

// handleNotificationsCreate queues a banner for the session's next page.
func (s *Server) handleNotificationsCreate(w http.ResponseWriter, r *http.Request) {
	var req NotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if !validate.Required(req.Message) {
		err := validate.Errors{{Field: "message", Tag: validate.TagRequired, Message: "This field is required"}}
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	sev := notify.ParseSeverity(req.Severity)
	duration := sev.DefaultDuration()
	if req.DurationMs != nil {
		duration = time.Duration(*req.DurationMs) * time.Millisecond
	}
	b := s.flashes(r).ShowBanner(notify.Banner{
		Title:    req.Title,
		Message:  req.Message,
		Severity: sev,
		Duration: duration,
	})
	writeJSON(w, r, http.StatusCreated, b)
}

// handleNotificationsDismiss removes one banner.
func (s *Server) handleNotificationsDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.flashes(r).Dismiss(chi.URLParam(r, "id")) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{
			Error: "notification not found", Message: "notification not found", Code: "NTF404",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
