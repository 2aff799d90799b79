package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/web/templates"
)

const (
	chatKey           = "chat"
	EmptyChatMessage  = "Empty message"
	chatMessageMaxLen = 1000
)

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, templates.Page{Title: "About", Active: templates.NavAbout}, templates.About(), nil)
}

// handleChatPage renders the session's assistant transcript.
func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	turns, err := s.chatTurns(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.renderChat(w, r, http.StatusOK, templates.ChatView{Turns: turns})
}

// handleChatSubmit answers a question and appends both turns to the
// transcript.
func (s *Server) handleChatSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, errors.Join(errInvalidBody, err), http.StatusBadRequest)
		return
	}
	turns, err := s.chatTurns(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	message := strings.TrimSpace(r.PostForm.Get("message"))
	if message == "" {
		s.renderChat(w, r, http.StatusUnprocessableEntity, templates.ChatView{Turns: turns, Error: EmptyChatMessage})
		return
	}
	message = truncate(message, chatMessageMaxLen)

	turns = core.AppendChat(turns, message, core.ChatAnswer(message), s.now())
	if err := s.sessionStore(r).Set(r.Context(), chatKey, turns); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	http.Redirect(w, r, "/chatbot", http.StatusSeeOther)
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleAPIChat answers one question without keeping a transcript.
func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errors.Join(errInvalidBody, err), http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": EmptyChatMessage})
		return
	}
	writeJSON(w, r, http.StatusOK, core.ChatAnswer(truncate(message, chatMessageMaxLen)))
}

func (s *Server) chatTurns(r *http.Request) ([]core.ChatTurn, error) {
	var turns []core.ChatTurn
	if _, err := s.sessionStore(r).Get(r.Context(), chatKey, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func (s *Server) renderChat(w http.ResponseWriter, r *http.Request, status int, view templates.ChatView) {
	page := templates.Page{Title: "Assistant", Active: templates.NavChat}
	s.renderPage(w, r, status, page, templates.Chat(view), nil)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
