package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
	"github.com/JonMunkholm/fraudguard/internal/config"
	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/dom"
	"github.com/JonMunkholm/fraudguard/internal/notify"
	"github.com/JonMunkholm/fraudguard/internal/perf"
	"github.com/JonMunkholm/fraudguard/internal/storage"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// scoringAPI fakes the external fraud scoring service.
type scoringAPI struct {
	mu           sync.Mutex
	healthy      bool
	detectStatus int
	prediction   apiclient.Prediction
	received     []apiclient.Transaction
}

func newScoringAPI() *scoringAPI {
	return &scoringAPI{
		healthy: true,
		prediction: apiclient.Prediction{
			TransactionID:    777,
			UserID:           1,
			FraudProbability: 0.91,
			RiskScore:        0.85,
			Prediction:       1,
			AlertTriggered:   true,
			AlertReasons:     []string{"High amount", "Night transaction"},
		},
	}
}

func (f *scoringAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/":
		if !f.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	case "/detect":
		var tx apiclient.Transaction
		_ = json.NewDecoder(r.Body).Decode(&tx)
		f.received = append(f.received, tx)
		if f.detectStatus != 0 {
			w.WriteHeader(f.detectStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(f.prediction)
	default:
		http.NotFound(w, r)
	}
}

func (f *scoringAPI) setHealthy(v bool) {
	f.mu.Lock()
	f.healthy = v
	f.mu.Unlock()
}

func (f *scoringAPI) setDetectStatus(code int) {
	f.mu.Lock()
	f.detectStatus = code
	f.mu.Unlock()
}

type testEnv struct {
	server  *Server
	api     *scoringAPI
	health  *core.HealthMonitor
	history core.History
}

type envOptions struct {
	env     map[string]string
	history core.History
	api     *scoringAPI
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	vars := map[string]string{
		"RATE_LIMIT_ENABLED": "false",
		"AUTH_REQUIRE_LOGIN": "false",
		"AUTH_BCRYPT_COST":   "4",
	}
	for k, v := range opts.env {
		vars[k] = v
	}
	cfg, err := config.LoadFrom(config.MapLookup(vars))
	require.NoError(t, err)

	api := opts.api
	if api == nil {
		api = newScoringAPI()
	}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := perf.New(logger, nil)
	client := apiclient.New(ts.URL,
		apiclient.WithHealthPath("/"),
		apiclient.WithTimeout(2*time.Second),
		apiclient.WithTracker(tracker),
		apiclient.WithLogger(logger),
	)

	history := opts.history
	if history == nil {
		history = core.NewMemoryHistory()
	}
	svc := core.NewService(history, client, logger).WithClock(func() time.Time { return testNow })
	health := core.NewHealthMonitor(client, core.HealthConfig{Timeout: time.Second}, logger)
	_ = health.Refresh(context.Background())

	srv := NewServer(cfg, Deps{
		Service: svc,
		Health:  health,
		Store:   storage.New(storage.NewMemoryBackend(), cfg.Storage.Prefix, logger),
		Hub:     notify.NewHub(nil, time.Minute, logger),
		Tracker: tracker,
		Logger:  logger,
		Now:     func() time.Time { return testNow },
	})
	return &testEnv{server: srv, api: api, health: health, history: history}
}

// browser keeps the session cookie between requests.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
	headers map[string]string
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, h: e.server.Router(), headers: map[string]string{}}
}

func (b *browser) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	b.keep(rec.Result().Cookies())
	return rec
}

// keep stores cookies the way a browser jar does: by name, newest wins.
func (b *browser) keep(cs []*http.Cookie) {
	for _, c := range cs {
		replaced := false
		for i, old := range b.cookies {
			if old.Name == c.Name {
				b.cookies[i] = c
				replaced = true
			}
		}
		if !replaced {
			b.cookies = append(b.cookies, c)
		}
	}
}

func (b *browser) cookie(name string) string {
	for _, c := range b.cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil, "")
}

func (b *browser) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (b *browser) sendJSON(method, path string, v any) *httptest.ResponseRecorder {
	b.t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(b.t, err)
	return b.do(method, path, bytes.NewReader(raw), "application/json")
}

func parseDoc(t *testing.T, rec *httptest.ResponseRecorder) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(rec.Body.String())
	require.NoError(t, err)
	return doc
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestSession_CookieAssignedOnceAndReused(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	first := b.get("/")
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "fg_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Len(t, cookies[0].Value, 36)

	second := b.get("/")
	assert.Empty(t, second.Result().Cookies(), "existing session must not be replaced")
}

func TestSession_InvalidCookieReplaced(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)
	b.cookies = []*http.Cookie{{Name: "fg_session", Value: "../../etc"}}

	rec := b.get("/")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../etc", cookies[0].Value)
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.browser(t).get("/")

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' https://cdn.jsdelivr.net")
	assert.NotContains(t, csp, "'unsafe-inline'")
}

func TestStatic_ServesPageScript(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	rec := b.get("/static/js/fraudguard.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	body := rec.Body.String()
	for _, hook := range []string{"data-fg-autoclose", "data-duration-ms", "data-fg-scroll", "data-fg-shortcuts", "data-quick-search", "data-fg-busy-label", "unhandledrejection"} {
		assert.Contains(t, body, hook)
	}

	assert.Equal(t, http.StatusOK, b.get("/static/css/fraudguard.css").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/static/js/missing.js").Code)
}

func TestLayout_LoadsScriptsAndMarksWiring(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	doc := parseDoc(t, env.browser(t).get("/"))

	var srcs []string
	for _, el := range doc.All(dom.Tag("script")) {
		src, _ := el.Attr("src")
		srcs = append(srcs, src)
	}
	assert.Equal(t, []string{
		"https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/js/bootstrap.bundle.min.js",
		"/static/js/fraudguard.js",
	}, srcs)

	assert.True(t, doc.Body().HasAttr("data-fg-shortcuts"))
	link := doc.First(dom.AttrEquals("href", "#recent-alerts"))
	require.NotNil(t, link)
	assert.True(t, link.HasAttr("data-fg-scroll"))
	tip := doc.First(dom.AttrEquals("data-bs-toggle", "tooltip"))
	require.NotNil(t, tip)
	assert.True(t, tip.HasAttr("data-fg-tooltip"))
}

func TestAPIKeyAuth_GuardsOnlyTheAPI(t *testing.T) {
	env := newTestEnv(t, envOptions{env: map[string]string{
		"REQUIRE_API_KEY": "true",
		"API_KEYS":        "k1,k2",
	}})
	b := env.browser(t)

	assert.Equal(t, http.StatusOK, b.get("/").Code, "pages stay public")
	assert.Equal(t, http.StatusUnauthorized, b.get("/api/health").Code)

	b.headers["X-API-Key"] = "wrong"
	assert.Equal(t, http.StatusForbidden, b.get("/api/health").Code)

	b.headers["X-API-Key"] = "k2"
	assert.Equal(t, http.StatusOK, b.get("/api/health").Code)
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{env: map[string]string{
		"RATE_LIMIT_ENABLED":             "true",
		"RATE_LIMIT_REQUESTS_PER_MINUTE": "2",
	}})
	b := env.browser(t)

	assert.Equal(t, http.StatusOK, b.get("/api/health").Code)
	assert.Equal(t, http.StatusOK, b.get("/api/health").Code)

	rec := b.get("/api/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestNotFound_RendersErrorPage(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.browser(t).get("/no-such-page")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "ERR404")
}
