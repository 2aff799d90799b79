package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fraudguard/internal/config"
	"github.com/JonMunkholm/fraudguard/internal/core"
)

func echoRemote() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.RemoteAddr))
	})
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted peer keeps its address",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.9:4000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:    "203.0.113.9:4000",
		},
		{
			name:    "trusted proxy X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "198.51.100.1",
		},
		{
			name:    "trusted proxy first forwarded entry",
			trusted: []string{"10.1.2.3"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 10.9.9.9"},
			want:    "198.51.100.7",
		},
		{
			name:    "garbage header ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3:4000",
		},
		{
			name:    "no trusted proxies",
			trusted: nil,
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "10.1.2.3:4000",
		},
		{
			name:    "invalid trusted entry skipped",
			trusted: []string{"bogus", "::1"},
			remote:  "[::1]:4000",
			headers: map[string]string{"X-Real-IP": "2001:db8::5"},
			want:    "2001:db8::5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			TrustedRealIP(tt.trusted)(echoRemote()).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestClientAddr(t *testing.T) {
	addr, ok := ClientAddr("192.0.2.1:8080")
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", addr.String())

	addr, ok = ClientAddr("[::ffff:192.0.2.1]:8080")
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", addr.String(), "mapped IPv4 is unmapped")

	_, ok = ClientAddr("nowhere")
	assert.False(t, ok)
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(60)
	rl.now = func() time.Time { return now }

	for i := range 60 {
		require.True(t, rl.Allow("a"), "request %d", i)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients are limited independently")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token per second refills")
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(2 * time.Minute)
	rl.Allow("recent")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.Sweep())
	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "recent")
}

func TestRateLimiter_MiddlewareKeysByIP(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Middleware(echoRemote())

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1000").Code)
	rec := send("192.0.2.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "ports do not make a new client")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE001", body["code"])
}

func TestSession_StoresIDAndIPInContext(t *testing.T) {
	var gotSession, gotIP string
	h := Session(config.SessionConfig{CookieName: "sid", Secure: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = core.SessionFromContext(r.Context())
		gotIP = core.IPAddressFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, cookies[0].Value, gotSession)
	assert.Equal(t, "192.0.2.4", gotIP)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, cookies[0].Value, gotSession)
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	cfg := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}

	tests := []struct {
		key      string
		wantCode int
	}{
		{"", http.StatusUnauthorized},
		{"gamma", http.StatusForbidden},
		{"alph", http.StatusForbidden},
		{"alpha", http.StatusOK},
		{"beta", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		if tt.key != "" {
			req.Header.Set(APIKeyHeader, tt.key)
		}
		rec := httptest.NewRecorder()
		APIKeyAuth(cfg)(ok).ServeHTTP(rec, req)
		assert.Equal(t, tt.wantCode, rec.Code, "key %q", tt.key)
	}

	rec := httptest.NewRecorder()
	APIKeyAuth(config.SecurityConfig{})(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "auth disabled")
}

func TestLogger_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream"))
	}))
	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	req.Header.Set("User-Agent", "fraudguard-test/1.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/predict", entry["path"])
	assert.EqualValues(t, 502, entry["status"])
	assert.EqualValues(t, 8, entry["bytes"])
	assert.Equal(t, "fraudguard-test/1.0", entry["user_agent"])
}
