package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/logging"
	"github.com/JonMunkholm/fraudguard/internal/validate"
	"github.com/JonMunkholm/fraudguard/internal/web/middleware"
	"github.com/JonMunkholm/fraudguard/internal/web/templates"
)

// Flash messages of the account pages.
const (
	SignupSuccessMessage = "Signup successful! Please log in."
	EmailTakenMessage    = "Email already registered."
	BankIDTakenMessage   = "Bank ID already registered."
	InvalidLoginMessage  = "Invalid email or password."
	LoginRequiredMessage = "Please log in first."
	LogoutMessage        = "You have been logged out."
)

// loadUser resolves the account the session is signed in as and adds it
// to the request context.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok, err := s.accounts.Current(r.Context(), sessionID(r))
		if err != nil {
			requestLogger(r).Warn("load user failed", "error", err)
		}
		if ok {
			ctx := core.ContextWithUser(r.Context(), u)
			ctx = logging.WithAttrs(ctx, "user_id", u.ID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser sends signed-out browsers to the login page when
// AUTH_REQUIRE_LOGIN is set. API clients get a 401.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := core.UserFromContext(r.Context()); ok || !s.cfg.Auth.RequireLogin {
			next.ServeHTTP(w, r)
			return
		}
		if wantsJSON(r) {
			s.respondError(w, r, core.ErrNotSignedIn, http.StatusUnauthorized)
			return
		}
		s.flashes(r).Warning(LoginRequiredMessage)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

// redirectSignedIn sends signed-in users away from the account forms.
func redirectSignedIn(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := core.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return true
	}
	return false
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	if redirectSignedIn(w, r) {
		return
	}
	s.renderAuth(w, r, http.StatusOK, "Sign up", templates.Signup(templates.AuthView{}))
}

// handleSignupSubmit registers an account. A taken email sends the user
// to the login page; other problems re-render the form.
func (s *Server) handleSignupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, errors.Join(errInvalidBody, err), http.StatusBadRequest)
		return
	}

	form := validate.SignupForm{
		Name:            r.PostForm.Get("name"),
		Email:           r.PostForm.Get("email"),
		BankID:          r.PostForm.Get("bank_id"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}
	view := templates.AuthView{Values: r.PostForm}

	_, err := s.accounts.SignUp(r.Context(), form)
	var verrs validate.Errors
	switch {
	case err == nil:
		s.flashes(r).Success(SignupSuccessMessage)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, core.ErrEmailTaken):
		s.flashes(r).Warning(EmailTakenMessage)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, core.ErrBankIDTaken):
		view.Errors = map[string]string{"bank_id": BankIDTakenMessage}
		s.renderAuth(w, r, http.StatusConflict, "Sign up", templates.Signup(view))
	case errors.As(err, &verrs):
		view.Errors = verrs.Map()
		s.renderAuth(w, r, http.StatusUnprocessableEntity, "Sign up", templates.Signup(view))
	default:
		s.respondError(w, r, err, statusFor(err))
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if redirectSignedIn(w, r) {
		return
	}
	s.renderAuth(w, r, http.StatusOK, "Login", templates.Login(templates.AuthView{}))
}

// handleLoginSubmit checks the credentials and signs a fresh session in.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, errors.Join(errInvalidBody, err), http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")

	u, err := s.accounts.Authenticate(r.Context(), email, r.PostForm.Get("password"))
	if errors.Is(err, core.ErrInvalidCredentials) {
		requestLogger(r).Info("login rejected", "email", core.NormalizeEmail(email))
		s.flashes(r).Error(InvalidLoginMessage)
		view := templates.AuthView{Values: url.Values{"email": {email}}}
		s.renderAuth(w, r, http.StatusUnauthorized, "Login", templates.Login(view))
		return
	}
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	r = middleware.RotateSession(w, r, s.cfg.Session)
	if err := s.accounts.Login(r.Context(), sessionID(r), u); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	requestLogger(r).Info("user logged in", "user_id", u.ID)
	s.flashes(r).Success("Welcome back, " + u.Name + "!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout signs the session out.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), sessionID(r)); err != nil {
		requestLogger(r).Warn("logout failed", "error", err)
	}
	s.flashes(r).Info(LogoutMessage)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) renderAuth(w http.ResponseWriter, r *http.Request, status int, title string, content templ.Component) {
	s.renderPage(w, r, status, templates.Page{Title: title}, content, nil)
}
