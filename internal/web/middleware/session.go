package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fraudguard/internal/config"
	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/logging"
)

// Session assigns every browser a session ID kept in a cookie. The ID
// scopes history, stored preferences and flash banners. Cookies that do
// not hold a UUID are replaced.
//
// The session ID and client IP are added to the request context for
// core and for request logging.
func Session(cfg config.SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = issueSession(w, cfg)
			}

			ip := r.RemoteAddr
			if addr, ok := ClientAddr(r.RemoteAddr); ok {
				ip = addr.String()
			}

			ctx := core.ContextWithSession(r.Context(), id)
			ctx = core.ContextWithIPAddress(ctx, ip)
			ctx = logging.WithAttrs(ctx, "session_id", id, "ip", ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RotateSession replaces the browser's session ID with a fresh one and
// returns r carrying it. Called on sign-in so a session ID known before
// login cannot be reused afterwards.
func RotateSession(w http.ResponseWriter, r *http.Request, cfg config.SessionConfig) *http.Request {
	id := issueSession(w, cfg)
	ctx := core.ContextWithSession(r.Context(), id)
	ctx = logging.WithAttrs(ctx, "session_id", id)
	return r.WithContext(ctx)
}

func issueSession(w http.ResponseWriter, cfg config.SessionConfig) string {
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
