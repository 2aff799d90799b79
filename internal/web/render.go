package web

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fraudguard/internal/clock"
	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/dom"
	"github.com/JonMunkholm/fraudguard/internal/notify"
	"github.com/JonMunkholm/fraudguard/internal/ui"
	"github.com/JonMunkholm/fraudguard/internal/web/templates"
)

// renderPage renders content inside the layout and runs page
// initialization on the resulting document before writing it:
//
//  1. The session's pending flash banners are mounted at the top of <main>.
//  2. ui.Initializer wires popovers, tooltips, alert timers and anchors, and
//     adds the API warning when the page requires the scoring API and the
//     last health check failed. The marks it leaves are picked up by
//     /static/js/fraudguard.js in the browser.
//  3. after, when set, adjusts the document (form state, spinners).
//  4. The global keyboard listeners are attached.
//
// Timers run on a page-local manual clock that never advances, so the
// response shows the page as it looks when loaded.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page templates.Page, content templ.Component, after func(doc *dom.Document)) {
	ctx := r.Context()
	logger := requestLogger(r)

	if u, ok := core.UserFromContext(ctx); ok {
		page.UserName = u.Name
	}
	page.LoginRequired = s.cfg.Auth.RequireLogin

	var out bytes.Buffer
	err := s.tracker.Time("render "+page.Title, func() error {
		var buf bytes.Buffer
		if err := templates.Layout(page).Render(templ.WithChildren(ctx, content), &buf); err != nil {
			return err
		}
		doc, err := dom.Parse(&buf)
		if err != nil {
			return err
		}

		pageClock := clock.NewManual(s.now())
		center := notify.NewCenter(pageClock, notify.NewDOMSink(doc)).WithLogger(logger)
		pending := s.flashes(r).Drain()
		for i := len(pending) - 1; i >= 0; i-- {
			center.ShowBanner(pending[i])
		}

		var health ui.HealthChecker
		if s.health != nil {
			health = s.health
		}
		ui.NewInitializer(s.toolkit, pageClock, health, center, logger).Run(ctx, doc)
		if after != nil {
			after(doc)
		}
		ui.NewListeners(s.toolkit, logger).Attach(doc)

		return doc.Render(&out)
	})
	if err != nil {
		logger.Error("render page failed", "page", page.Title, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := out.WriteTo(w); err != nil {
		logger.Warn("write page failed", "error", err)
	}
}
