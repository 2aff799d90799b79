package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/notify"
)

func TestAPIHealth(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	rec := b.get("/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.ScoringAPI.Healthy)

	env.api.setHealthy(false)
	require.Error(t, env.health.Refresh(t.Context()))

	rec = b.get("/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decodeBody[HealthResponse](t, rec).Status)
}

func TestAPIPredict_AndLookup(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	rec := b.sendJSON(http.MethodPost, "/api/predict", map[string]any{
		"Transaction_Amount":   99.5,
		"Transaction_Location": "Bukhara",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[core.PredictResult](t, rec)

	assert.Equal(t, core.RiskLevelHigh, result.RiskLevel)
	assert.Equal(t, "777", result.Transaction.TransactionID)
	assert.Equal(t, "Bukhara", result.Payload.Location)
	assert.Equal(t, 12, result.Payload.Hour, "defaults fill missing fields")
	require.NotEmpty(t, result.Transaction.ID)

	rec = b.get("/api/history/" + result.Transaction.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	tx := decodeBody[core.Transaction](t, rec)
	assert.Equal(t, 99.5, tx.Amount)
	assert.Equal(t, testNow, tx.CreatedAt)

	rec = env.browser(t).get("/api/history/" + result.Transaction.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other sessions cannot read the transaction")
	assert.Equal(t, "VAL003", decodeBody[ErrorResponse](t, rec).Code)
}

func TestAPIPredict_Rejects(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	rec := b.sendJSON(http.MethodPost, "/api/predict", map[string]any{"Transaction_Amount": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "VAL001", resp.Code)
	assert.Contains(t, resp.Fields, "Transaction_Amount")

	rec = b.do(http.MethodPost, "/api/predict", strings.NewReader(`{"User_ID": 1} {}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL002", decodeBody[ErrorResponse](t, rec).Code)

	env.api.setDetectStatus(http.StatusServiceUnavailable)
	rec = b.sendJSON(http.MethodPost, "/api/predict", map[string]any{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "API001", decodeBody[ErrorResponse](t, rec).Code)
}

func TestAPIHistory_Paging(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)
	for range 12 {
		require.Equal(t, http.StatusOK, b.sendJSON(http.MethodPost, "/api/predict", map[string]any{}).Code)
	}

	rec := b.get("/api/history?page=3&per_page=5")
	require.Equal(t, http.StatusOK, rec.Code)
	hp := decodeBody[core.HistoryPage](t, rec)
	assert.Equal(t, 3, hp.Page)
	assert.Equal(t, 5, hp.PerPage)
	assert.Equal(t, 12, hp.Total)
	assert.Equal(t, 3, hp.Pages)
	assert.Len(t, hp.Data, 2)
}

func TestAPIHistory_BackendDown(t *testing.T) {
	env := newTestEnv(t, envOptions{history: brokenHistory{}})
	rec := env.browser(t).get("/api/history")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ERR000", decodeBody[ErrorResponse](t, rec).Code)
}

func TestAPIValidate_Field(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	rec := b.sendJSON(http.MethodPost, "/api/validate", ValidateRequest{Kind: "email", Value: "user@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[ValidateResponse](t, rec).Valid)

	rec = b.sendJSON(http.MethodPost, "/api/validate", ValidateRequest{Kind: "email", Value: "not-an-email"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[ValidateResponse](t, rec).Valid)

	rec = b.sendJSON(http.MethodPost, "/api/validate", ValidateRequest{Kind: "zodiac", Value: "leo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIValidate_Form(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	rec := b.sendJSON(http.MethodPost, "/api/validate", ValidateRequest{
		Form: "signup",
		Data: json.RawMessage(`{"email": "broken"}`),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ValidateResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Errors, "email")
	assert.Contains(t, resp.Errors, "name")

	rec = b.sendJSON(http.MethodPost, "/api/validate", ValidateRequest{Form: "survey"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIStorage_ScopedPerSession(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	alice := env.browser(t)
	bob := env.browser(t)

	rec := alice.sendJSON(http.MethodPut, "/api/storage/theme", map[string]string{"mode": "dark"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = alice.get("/api/storage/theme")
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decodeBody[StorageEntry](t, rec)
	assert.Equal(t, "theme", entry.Key)
	assert.JSONEq(t, `{"mode":"dark"}`, string(entry.Value))

	rec = bob.get("/api/storage/theme")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "STO404", decodeBody[ErrorResponse](t, rec).Code)

	keys := decodeBody[map[string][]string](t, alice.get("/api/storage"))
	assert.Equal(t, []string{"theme"}, keys["keys"])

	require.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, "/api/storage/theme", nil, "").Code)
	require.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, "/api/storage/theme", nil, "").Code, "removing an absent key succeeds")
	assert.Equal(t, http.StatusNotFound, alice.get("/api/storage/theme").Code)
}

func TestAPIStorage_Clear(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)
	require.Equal(t, http.StatusNoContent, b.sendJSON(http.MethodPut, "/api/storage/a", 1).Code)
	require.Equal(t, http.StatusNoContent, b.sendJSON(http.MethodPut, "/api/storage/b", "two").Code)

	require.Equal(t, http.StatusNoContent, b.do(http.MethodDelete, "/api/storage", nil, "").Code)

	keys := decodeBody[map[string][]string](t, b.get("/api/storage"))
	assert.Empty(t, keys["keys"])
}

func TestAPIStorage_InvalidBody(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.browser(t).do(http.MethodPut, "/api/storage/a", strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPINotifications_Lifecycle(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	persistent := int64(0)
	rec := b.sendJSON(http.MethodPost, "/api/notifications", NotificationRequest{
		Message:    "Maintenance at noon",
		Severity:   "warning",
		DurationMs: &persistent,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[notify.Banner](t, rec)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Persistent())

	list := decodeBody[map[string][]notify.Banner](t, b.get("/api/notifications"))
	require.Len(t, list["notifications"], 1)
	assert.Equal(t, created.ID, list["notifications"][0].ID)

	page := b.get("/")
	doc := parseDoc(t, page)
	banner := doc.ByID(notify.ElementID(created.ID))
	require.NotNil(t, banner, "pending banner is shown on the next page")
	assert.Contains(t, banner.Text(), "Maintenance at noon")

	list = decodeBody[map[string][]notify.Banner](t, b.get("/api/notifications"))
	assert.Empty(t, list["notifications"])
}

func TestAPINotifications_Dismiss(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	created := decodeBody[notify.Banner](t, b.sendJSON(http.MethodPost, "/api/notifications", NotificationRequest{
		Message: "Saved", Severity: "success",
	}))

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodDelete, "/api/notifications/"+created.ID, nil, "").Code)

	rec := b.do(http.MethodDelete, "/api/notifications/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NTF404", decodeBody[ErrorResponse](t, rec).Code)
}

func TestAPINotifications_RequiresMessage(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.browser(t).sendJSON(http.MethodPost, "/api/notifications", NotificationRequest{Severity: "info"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Fields, "message")
}
