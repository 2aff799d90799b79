package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/fraudguard/internal/config"
	"github.com/JonMunkholm/fraudguard/internal/logging"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware that validates the X-API-Key header against
// the configured keys. When RequireAPIKey is false every request passes.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				logging.FromContext(r.Context()).Warn("auth: missing API key", "path", r.URL.Path, "method", r.Method)
				writeJSONError(w, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			}
			if !validKey([]byte(key), keys) {
				logging.FromContext(r.Context()).Warn("auth: invalid API key", "path", r.URL.Path, "method", r.Method)
				writeJSONError(w, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validKey compares key with every configured key in constant time.
func validKey(key []byte, keys [][]byte) bool {
	valid := 0
	for _, k := range keys {
		valid |= subtle.ConstantTimeCompare(key, k)
	}
	return valid == 1
}
