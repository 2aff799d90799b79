// Package web provides the HTTP server, page handlers and JSON API of
// FraudGuard.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fraudguard/internal/config"
	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/notify"
	"github.com/JonMunkholm/fraudguard/internal/perf"
	"github.com/JonMunkholm/fraudguard/internal/storage"
	"github.com/JonMunkholm/fraudguard/internal/ui"
	"github.com/JonMunkholm/fraudguard/internal/validate"
	"github.com/JonMunkholm/fraudguard/internal/web/middleware"
)

// Deps are the collaborators of the server. Zero-valued optional fields
// get defaults in NewServer.
type Deps struct {
	Service *core.Service
	Health  *core.HealthMonitor
	Store   *storage.Store
	Hub     *notify.Hub

	Accounts  *core.Accounts      // optional, in-memory accounts
	Validator *validate.Validator // optional
	Tracker   *perf.Tracker       // optional
	Toolkit   ui.Toolkit          // optional, headless Bootstrap
	Logger    *slog.Logger        // optional
	Now       func() time.Time    // optional
}

// Server is the HTTP server for FraudGuard.
type Server struct {
	cfg       *config.Config
	service   *core.Service
	health    *core.HealthMonitor
	store     *storage.Store
	hub       *notify.Hub
	accounts  *core.Accounts
	validator *validate.Validator
	tracker   *perf.Tracker
	toolkit   ui.Toolkit
	logger    *slog.Logger
	now       func() time.Time

	limiter *middleware.RateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server and registers its routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		service:   deps.Service,
		health:    deps.Health,
		store:     deps.Store,
		hub:       deps.Hub,
		accounts:  deps.Accounts,
		validator: deps.Validator,
		tracker:   deps.Tracker,
		toolkit:   deps.Toolkit,
		logger:    deps.Logger,
		now:       deps.Now,
		router:    chi.NewRouter(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.validator == nil {
		s.validator = validate.New()
	}
	if s.tracker == nil {
		s.tracker = perf.New(s.logger, nil)
	}
	if s.toolkit == nil {
		s.toolkit = ui.NewBootstrap()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.accounts == nil {
		s.accounts = core.NewAccounts(core.NewMemoryUsers(), s.store.Scope("auth"), core.AccountsConfig{
			LoginTTL:   cfg.Auth.SessionTTL,
			BcryptCost: cfg.Auth.BcryptCost,
		}, s.logger)
	}
	if cfg.Rate.Enabled {
		s.limiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes. The session,
// signed-in user and client IP are resolved before the logger so every
// request line carries them.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Session(s.cfg.Session))
	s.router.Use(s.loadUser)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Handle("/static/*", staticHandler())

	// Public pages
	s.router.Get("/about", s.handleAbout)
	s.router.Get("/signup", s.handleSignupPage)
	s.router.Post("/signup", s.handleSignupSubmit)
	s.router.Get("/login", s.handleLoginPage)
	s.router.Post("/login", s.handleLoginSubmit)
	s.router.Post("/logout", s.handleLogout)
	s.router.Get("/partials/spinner", s.handleSpinner)

	// Pages behind login
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/", s.handleDashboard)
		r.Get("/predict", s.handlePredictPage)
		r.Post("/predict", s.handlePredictSubmit)
		r.Get("/history", s.handleHistoryPage)
		r.Get("/export-csv", s.handleExportCSV)
		r.Get("/chatbot", s.handleChatPage)
		r.Post("/chatbot", s.handleChatSubmit)
	})

	s.router.NotFound(s.handleNotFound)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Get("/health", s.handleHealth)

		// History
		r.Get("/history", s.handleAPIHistory)
		r.Get("/history/{id}", s.handleAPITransaction)

		// Scoring
		r.Post("/predict", s.handleAPIPredict)

		// Assistant
		r.With(s.requireUser).Post("/chat", s.handleAPIChat)

		// Validation
		r.Post("/validate", s.handleValidate)

		// Session storage
		r.Get("/storage", s.handleStorageKeys)
		r.Delete("/storage", s.handleStorageClear)
		r.Get("/storage/{key}", s.handleStorageGet)
		r.Put("/storage/{key}", s.handleStorageSet)
		r.Delete("/storage/{key}", s.handleStorageRemove)

		// Notifications
		r.Get("/notifications", s.handleNotificationsList)
		r.Post("/notifications", s.handleNotificationsCreate)
		r.Delete("/notifications/{id}", s.handleNotificationsDismiss)
	})
}

// Start begins listening for HTTP requests. ctx bounds the background
// rate limiter sweeper, not the requests.
func (s *Server) Start(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. Styles and fonts
// may come from the Bootstrap and Font Awesome CDNs; scripts are the
// Bootstrap bundle and the app's own /static/js.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	const csp = "default-src 'self'; script-src 'self' https://cdn.jsdelivr.net; " +
		"style-src 'self' https://cdn.jsdelivr.net https://cdnjs.cloudflare.com; " +
		"font-src 'self' https://cdnjs.cloudflare.com; img-src 'self' data:"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", csp)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestLogger(r).Error("json encode error", "error", err)
	}
}
