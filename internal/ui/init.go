package ui

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/fraudguard/internal/clock"
	"github.com/JonMunkholm/fraudguard/internal/dom"
	"github.com/JonMunkholm/fraudguard/internal/notify"
)

const (
	DefaultAlertDelay    = 5 * time.Second
	DefaultHealthTimeout = 5 * time.Second

	APIWarningTitle   = "API Warning:"
	APIWarningMessage = "Fraud detection API is temporarily unavailable"
)

// Attributes the page script reads to replay the wiring in the browser.
const (
	AttrAutoClose  = "data-fg-autoclose" // alert close delay in ms
	AttrScrollLink = "data-fg-scroll"    // in-page anchor scrolls smoothly
)

// HealthChecker reports whether the scoring API is reachable. A nil error
// means a 2xx health response.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

// Notifier receives banners. *notify.Center implements it.
type Notifier interface {
	ShowBanner(b notify.Banner) notify.Banner
}

// Initializer wires a freshly loaded page.
type Initializer struct {
	Toolkit       Toolkit
	Scheduler     clock.Scheduler
	Health        HealthChecker
	Notifier      Notifier
	AlertDelay    time.Duration
	HealthTimeout time.Duration
	Logger        *slog.Logger
}

// NewInitializer returns an Initializer with default delays.
func NewInitializer(tk Toolkit, sched clock.Scheduler, health HealthChecker, n Notifier, logger *slog.Logger) *Initializer {
	return &Initializer{
		Toolkit:       tk,
		Scheduler:     sched,
		Health:        health,
		Notifier:      n,
		AlertDelay:    DefaultAlertDelay,
		HealthTimeout: DefaultHealthTimeout,
		Logger:        logger,
	}
}

// Run initializes popovers and tooltips, schedules alert auto-close,
// wires in-page anchor scrolling, and checks API health when the page
// asks for it.
func (in *Initializer) Run(ctx context.Context, doc *dom.Document) {
	logger := in.logger()

	for _, el := range doc.All(dom.AttrEquals("data-bs-toggle", "popover")) {
		in.Toolkit.Popover(el)
	}
	for _, el := range doc.All(dom.AttrEquals("data-bs-toggle", "tooltip")) {
		in.Toolkit.Tooltip(el)
	}

	delay := in.AlertDelay
	if delay <= 0 {
		delay = DefaultAlertDelay
	}
	for _, el := range doc.All(dom.Class("alert")) {
		alert := el
		alert.SetAttr(AttrAutoClose, strconv.FormatInt(delay.Milliseconds(), 10))
		in.scheduler().AfterFunc(delay, func() {
			if alert.Attached() {
				in.Toolkit.CloseAlert(alert)
			}
		})
	}

	for _, a := range doc.All(dom.And(dom.Tag("a"), dom.AttrPrefix("href", "#"))) {
		href, _ := a.Attr("href")
		id := strings.TrimPrefix(href, "#")
		if id == "" {
			continue
		}
		target := doc.ByID(id)
		if target == nil {
			continue
		}
		a.SetAttr(AttrScrollLink, "")
		a.On(dom.EventClick, func(ev *dom.Event) {
			ev.PreventDefault()
			in.Toolkit.ScrollIntoView(target)
		})
	}

	if doc.Exists(dom.HasAttr("data-requires-api")) {
		in.checkAPI(ctx, logger)
	}
}

func (in *Initializer) checkAPI(ctx context.Context, logger *slog.Logger) {
	if in.Health == nil {
		return
	}
	timeout := in.HealthTimeout
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := in.Health.CheckHealth(ctx); err != nil {
		logger.Warn("API health check failed", "error", err)
		if in.Notifier != nil {
			in.Notifier.ShowBanner(notify.Banner{
				Title:    APIWarningTitle,
				Message:  APIWarningMessage,
				Severity: notify.Warning,
			})
		}
	}
}

func (in *Initializer) scheduler() clock.Scheduler {
	if in.Scheduler == nil {
		return clock.Real{}
	}
	return in.Scheduler
}

func (in *Initializer) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.Default()
	}
	return in.Logger
}
