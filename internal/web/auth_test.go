package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fraudguard/internal/dom"
)

var loginRequired = map[string]string{"AUTH_REQUIRE_LOGIN": "true"}

func signupValues(name, email, bankID string) url.Values {
	return url.Values{
		"name":             {name},
		"email":            {email},
		"bank_id":          {bankID},
		"password":         {"s3cret!"},
		"confirm_password": {"s3cret!"},
	}
}

func (b *browser) login(email, password string) *httptest.ResponseRecorder {
	return b.postForm("/login", url.Values{"email": {email}, "password": {password}})
}

func TestAccounts_SignupLoginLogout(t *testing.T) {
	env := newTestEnv(t, envOptions{env: loginRequired})
	b := env.browser(t)

	rec := b.get("/")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/login").Body.String(), LoginRequiredMessage)

	rec = b.postForm("/signup", signupValues("Acme Bank", " Ops@Acme.example ", "ACME01"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/login").Body.String(), SignupSuccessMessage)

	before := b.cookie("fg_session")
	rec = b.login("ops@acme.example", "s3cret!")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotEqual(t, before, b.cookie("fg_session"), "login starts a new session")

	rec = b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back, Acme Bank!")
	doc := parseDoc(t, rec)
	assert.NotNil(t, doc.First(dom.AttrEquals("action", "/logout")))
	assert.NotNil(t, doc.First(dom.HasAttr("data-quick-search")))

	rec = b.postForm("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/login").Body.String(), LogoutMessage)
	assert.Equal(t, http.StatusSeeOther, b.get("/").Code)
}

func TestAccounts_HistoryFollowsTheUser(t *testing.T) {
	env := newTestEnv(t, envOptions{env: loginRequired})

	first := env.browser(t)
	require.Equal(t, http.StatusSeeOther, first.postForm("/signup", signupValues("Acme Bank", "ops@acme.example", "ACME01")).Code)
	require.Equal(t, http.StatusSeeOther, first.login("ops@acme.example", "s3cret!").Code)
	require.Equal(t, http.StatusOK, first.sendJSON(http.MethodPost, "/api/predict", map[string]any{}).Code)

	second := env.browser(t)
	require.Equal(t, http.StatusSeeOther, second.login("ops@acme.example", "s3cret!").Code)
	doc := parseDoc(t, second.get("/"))
	assert.Equal(t, "1", strings.TrimSpace(doc.ByID("stat-today").Text()), "history is per account")

	other := env.browser(t)
	require.Equal(t, http.StatusSeeOther, other.postForm("/signup", signupValues("Beta Bank", "ops@beta.example", "BETA01")).Code)
	require.Equal(t, http.StatusSeeOther, other.login("ops@beta.example", "s3cret!").Code)
	doc = parseDoc(t, other.get("/"))
	assert.Equal(t, "0", strings.TrimSpace(doc.ByID("stat-today").Text()))
}

func TestSignup_Rejects(t *testing.T) {
	env := newTestEnv(t, envOptions{env: loginRequired})
	b := env.browser(t)
	require.Equal(t, http.StatusSeeOther, b.postForm("/signup", signupValues("Acme Bank", "ops@acme.example", "ACME01")).Code)
	b.get("/login")

	bad := signupValues("", "not-an-email", "X1")
	bad.Set("confirm_password", "other")
	rec := b.postForm("/signup", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := parseDoc(t, rec)
	assert.True(t, doc.ByID("name").HasClass("is-invalid"))
	assert.True(t, doc.ByID("email").HasClass("is-invalid"))
	assert.True(t, doc.ByID("confirm_password").HasClass("is-invalid"))
	assert.False(t, doc.ByID("password").HasAttr("value"), "passwords are not echoed")

	rec = b.postForm("/signup", signupValues("Other", "other@acme.example", "ACME01"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	doc = parseDoc(t, rec)
	assert.True(t, doc.ByID("bank_id").HasClass("is-invalid"))
	assert.Contains(t, rec.Body.String(), BankIDTakenMessage)

	rec = b.postForm("/signup", signupValues("Again", "OPS@acme.example", "ACME02"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/login").Body.String(), EmailTakenMessage)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t, envOptions{env: loginRequired})
	b := env.browser(t)
	require.Equal(t, http.StatusSeeOther, b.postForm("/signup", signupValues("Acme Bank", "ops@acme.example", "ACME01")).Code)

	for _, creds := range [][2]string{
		{"ops@acme.example", "wrong"},
		{"nobody@acme.example", "s3cret!"},
		{"", ""},
	} {
		rec := b.login(creds[0], creds[1])
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%v", creds)
		assert.Contains(t, rec.Body.String(), InvalidLoginMessage)
		doc := parseDoc(t, rec)
		assert.False(t, doc.ByID("password").HasAttr("value"))
	}
	assert.Equal(t, http.StatusSeeOther, b.get("/").Code, "still signed out")
}

func TestLogin_SignedInUsersSkipForms(t *testing.T) {
	env := newTestEnv(t, envOptions{env: loginRequired})
	b := env.browser(t)
	require.Equal(t, http.StatusSeeOther, b.postForm("/signup", signupValues("Acme Bank", "ops@acme.example", "ACME01")).Code)
	require.Equal(t, http.StatusSeeOther, b.login("ops@acme.example", "s3cret!").Code)

	for _, path := range []string{"/login", "/signup"} {
		rec := b.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}
}

func TestRequireUser_PublicPagesAndAPI(t *testing.T) {
	env := newTestEnv(t, envOptions{env: loginRequired})
	b := env.browser(t)

	about := b.get("/about")
	require.Equal(t, http.StatusOK, about.Code)
	doc := parseDoc(t, about)
	assert.Nil(t, doc.First(dom.HasAttr("data-quick-search")), "app navigation is hidden when signed out")
	assert.NotNil(t, doc.First(dom.AttrEquals("href", "/signup")))

	rec := b.sendJSON(http.MethodPost, "/api/chat", map[string]string{"message": "help"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH004", decodeBody[ErrorResponse](t, rec).Code)

	assert.Equal(t, http.StatusOK, b.get("/api/health").Code, "scoring API routes keep API key auth only")
}
