package ui

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/JonMunkholm/fraudguard/internal/dom"
)

// AttrShortcuts on <body> turns on the keyboard shortcuts in the browser.
const AttrShortcuts = "data-fg-shortcuts"

// Listeners installs the page-wide keyboard shortcuts and is the sink for
// errors nobody else handled.
type Listeners struct {
	Toolkit Toolkit
	Logger  *slog.Logger
}

// NewListeners returns Listeners using tk for modal handling.
func NewListeners(tk Toolkit, logger *slog.Logger) *Listeners {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listeners{Toolkit: tk, Logger: logger}
}

// Attach registers the keydown handler on doc: Ctrl/Cmd+K focuses the
// quick-search input, Escape hides every open modal. The body is marked
// with AttrShortcuts.
func (l *Listeners) Attach(doc *dom.Document) {
	if body := doc.Body(); body != nil {
		body.SetAttr(AttrShortcuts, "")
	}
	doc.On(dom.EventKeyDown, func(ev *dom.Event) {
		switch {
		case (ev.Ctrl || ev.Meta) && strings.EqualFold(ev.Key, "k"):
			ev.PreventDefault()
			if el := doc.First(dom.HasAttr("data-quick-search")); el != nil {
				doc.Focus(el)
			}
		case ev.Key == "Escape":
			for _, m := range doc.All(dom.Class("modal", "show")) {
				l.Toolkit.HideModal(m)
			}
		}
	})
}

// ReportError logs an uncaught error.
func (l *Listeners) ReportError(err error) {
	if err == nil {
		return
	}
	l.Logger.Error("uncaught error", "error", err)
}

// ReportRejection logs a failure from background work.
func (l *Listeners) ReportRejection(reason any) {
	l.Logger.Error("unhandled rejection", "reason", fmt.Sprint(reason))
}

// Go runs fn in a goroutine. A returned error goes to ReportError and a
// panic to ReportRejection. The returned channel closes when fn is done.
func (l *Listeners) Go(ctx context.Context, fn func(ctx context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				l.Logger.Debug("recovered panic", "stack", string(debug.Stack()))
				l.ReportRejection(r)
			}
		}()
		if err := fn(ctx); err != nil {
			l.ReportError(err)
		}
	}()
	return done
}
