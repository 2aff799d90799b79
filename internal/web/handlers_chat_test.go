package web

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/dom"
)

func TestChatbot_KeepsTranscript(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	doc := parseDoc(t, b.get("/chatbot"))
	assert.NotNil(t, doc.ByID("chat-empty"))

	rec := b.postForm("/chatbot", url.Values{"message": {"Is a night transfer ok?"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/chatbot", rec.Header().Get("Location"))
	b.postForm("/chatbot", url.Values{"message": {"what does the model use"}})

	doc = parseDoc(t, b.get("/chatbot"))
	assert.Nil(t, doc.ByID("chat-empty"))
	turns := doc.All(dom.HasAttr("data-chat-turn"))
	require.Len(t, turns, 4)
	assert.Equal(t, "Is a night transfer ok?", strings.TrimSpace(turns[0].Text()))
	assert.Contains(t, turns[1].Text(), "Night transactions")
	assert.True(t, turns[1].HasClass("bg-warning-subtle"))
	assert.Contains(t, turns[3].Text(), "XGBoost")

	other := parseDoc(t, env.browser(t).get("/chatbot"))
	assert.NotNil(t, other.ByID("chat-empty"), "transcripts are per session")
}

func TestChatbot_EmptyMessage(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.browser(t).postForm("/chatbot", url.Values{"message": {"   "}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := parseDoc(t, rec)
	assert.True(t, doc.ByID("message").HasClass("is-invalid"))
	assert.Contains(t, rec.Body.String(), EmptyChatMessage)
}

func TestAPIChat(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	b := env.browser(t)

	rec := b.sendJSON(http.MethodPost, "/api/chat", map[string]string{"message": "Is this LARGE payment risky?"})
	require.Equal(t, http.StatusOK, rec.Code)
	reply := decodeBody[core.ChatReply](t, rec)
	assert.Equal(t, core.ChatDanger, reply.Type)
	assert.Contains(t, reply.Message, "HIGH RISK")

	rec = b.sendJSON(http.MethodPost, "/api/chat", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"error": EmptyChatMessage}, decodeBody[map[string]string](t, rec))

	rec = b.do(http.MethodPost, "/api/chat", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAbout(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.browser(t).get("/about")

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseDoc(t, rec)
	active := doc.First(dom.Class("nav-link", "active"))
	require.NotNil(t, active)
	assert.Contains(t, active.Text(), "About")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "a", truncate("aé", 2), "cut inside a rune drops it")
}
