package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is:
//   - Logged with full technical details and the request context
//   - Returned to clients as a user-friendly message with an action
//   - Formatted as JSON for API clients and as an error page otherwise
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get a user-friendly message
//  4. Technical error is logged with request ID, session and IP
//  5. User message is rendered in the format the client asked for

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/storage"
	"github.com/JonMunkholm/fraudguard/internal/validate"
	"github.com/JonMunkholm/fraudguard/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// errInvalidBody marks undecodable request bodies.
var errInvalidBody = errors.New("invalid request body")

// respondError logs err and writes the mapped user message with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := core.MapError(err)

	logger := requestLogger(r)
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		resp := ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		}
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			resp.Fields = verrs.Map()
		}
		writeJSON(w, r, statusCode, resp)
		return
	}

	s.renderPage(w, r, statusCode, templates.Page{Title: http.StatusText(statusCode)},
		templates.ErrorPage(statusCode, msg), nil)
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs), errors.Is(err, errInvalidBody), errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, core.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrEmailTaken), errors.Is(err, core.ErrBankIDTaken):
		return http.StatusConflict
	case errors.Is(err, core.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyPredictions):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrHistoryUnavailable), errors.Is(err, core.ErrUsersUnavailable),
		errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrScoring):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// handleNotFound renders the 404 page.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	msg := core.UserMessage{Message: "Page not found", Action: "Check the address", Code: "ERR404"}
	if wantsJSON(r) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code})
		return
	}
	s.renderPage(w, r, http.StatusNotFound, templates.Page{Title: "Not Found"},
		templates.ErrorPage(http.StatusNotFound, msg), nil)
}
