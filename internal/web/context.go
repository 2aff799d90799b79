package web

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/logging"
	"github.com/JonMunkholm/fraudguard/internal/notify"
	"github.com/JonMunkholm/fraudguard/internal/storage"
)

// sessionID returns the browser session set by middleware.Session.
func sessionID(r *http.Request) string {
	return core.SessionFromContext(r.Context())
}

// owner returns the history owner of the request: the signed-in user,
// or the browser session when nobody is signed in.
func owner(r *http.Request) string {
	return core.Owner(r.Context())
}

// flashes returns the banner center of the request's session.
func (s *Server) flashes(r *http.Request) *notify.Center {
	return s.hub.For(sessionID(r))
}

// sessionStore returns the store scoped to the request's session.
func (s *Server) sessionStore(r *http.Request) *storage.Store {
	return s.store.Scope(sessionID(r))
}

// requestLogger returns the default logger with the request's ID, session
// and client IP.
func requestLogger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}
