package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/fraudguard/internal/apiclient"
	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/csvexport"
	"github.com/JonMunkholm/fraudguard/internal/dom"
	"github.com/JonMunkholm/fraudguard/internal/ui"
	"github.com/JonMunkholm/fraudguard/internal/validate"
	"github.com/JonMunkholm/fraudguard/internal/web/templates"
)

// ExportErrorMessage is flashed when the CSV export fails.
const ExportErrorMessage = "Error exporting CSV."

// parseIntParam parses a positive integer query parameter with a default
// value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// handleDashboard renders the statistics of the owner's history.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Dashboard(r.Context(), owner(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	page := templates.Page{Title: "Dashboard", Active: templates.NavDashboard, RequiresAPI: true}
	s.renderPage(w, r, http.StatusOK, page, templates.Dashboard(st, s.now()), nil)
}

// handleHistoryPage renders one page of the owner's history.
func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	perPage := parseIntParam(r, "per_page", core.DefaultPerPage)

	hp, err := s.service.HistoryPage(r.Context(), owner(r), page, perPage)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.renderPage(w, r, http.StatusOK, templates.Page{Title: "History", Active: templates.NavHistory},
		templates.History(hp), nil)
}

// handlePredictPage renders the empty transaction form with its defaults.
func (s *Server) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	view := templates.PredictView{Values: core.TransactionFormValues(apiclient.DefaultTransaction())}
	s.renderPredict(w, r, http.StatusOK, view, false)
}

// handlePredictSubmit scores the submitted transaction and renders the
// result. Invalid fields are shown inline; scoring failures are shown as
// banners by the service and the API client.
func (s *Server) handlePredictSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, errors.Join(errInvalidBody, err), http.StatusBadRequest)
		return
	}

	view := templates.PredictView{Values: mergeDefaults(r.PostForm)}

	tx, err := core.TransactionFromForm(r.PostForm)
	if err != nil {
		var verrs validate.Errors
		if !errors.As(err, &verrs) {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		view.Errors = verrs.Map()
		s.flashes(r).Error(core.FormatUserError(err))
		s.renderPredict(w, r, http.StatusUnprocessableEntity, view, false)
		return
	}

	result, err := s.service.Predict(r.Context(), owner(r), tx, s.flashes(r))
	switch {
	case err == nil:
		view.Result = &result
		s.renderPredict(w, r, http.StatusOK, view, true)
	case result.RiskLevel != "":
		// Scored but not saved.
		requestLogger(r).Warn("prediction not saved", "error", err)
		s.flashes(r).Warning(core.FormatUserError(err))
		view.Result = &result
		s.renderPredict(w, r, http.StatusOK, view, false)
	default:
		requestLogger(r).Warn("prediction failed", "error", err)
		s.renderPredict(w, r, statusFor(err), view, false)
	}
}

// renderPredict renders the predict page. The submit button is disabled
// while the scoring API is unhealthy; after a saved prediction the form is
// cleared for the next transaction.
func (s *Server) renderPredict(w http.ResponseWriter, r *http.Request, status int, view templates.PredictView, reset bool) {
	page := templates.Page{Title: "Predict", Active: templates.NavPredict, RequiresAPI: true}
	s.renderPage(w, r, status, page, templates.Predict(view), func(doc *dom.Document) {
		if reset {
			ui.ResetFormFields(doc, templates.PredictFormID)
		}
		if s.health != nil && !s.health.Status().Healthy {
			ui.DisableFormSubmit(doc, templates.PredictFormID)
		}
	})
}

// mergeDefaults fills fields missing from submitted with the form
// defaults so the re-rendered form shows what was scored.
func mergeDefaults(submitted url.Values) url.Values {
	values := core.TransactionFormValues(apiclient.DefaultTransaction())
	for name, v := range submitted {
		if len(v) > 0 && v[0] != "" {
			values.Set(name, v[0])
		}
	}
	return values
}

// handleExportCSV downloads the owner's full history. On failure the
// user is sent back to the history page with an error banner.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ExportRecords(r.Context(), owner(r))
	if err != nil {
		requestLogger(r).Error("CSV export failed", "error", err)
		s.flashes(r).Error(ExportErrorMessage)
		http.Redirect(w, r, "/history", http.StatusSeeOther)
		return
	}

	filename := core.ExportFilename(s.now())
	if err := csvexport.Download(w, filename, records); err != nil {
		requestLogger(r).Warn("CSV export write failed", "error", err)
		return
	}
	requestLogger(r).Info("CSV exported", "rows", len(records), "filename", filename)
}

// handleSpinner renders the loading indicator as a standalone document.
func (s *Server) handleSpinner(w http.ResponseWriter, r *http.Request) {
	doc, err := dom.ParseString("<!DOCTYPE html><html><head></head><body></body></html>")
	if err == nil {
		err = ui.ShowSpinner(doc, r.URL.Query().Get("message"))
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := doc.Render(w); err != nil {
		requestLogger(r).Warn("write spinner failed", "error", err)
	}
}
