// Package ui holds page behavior that runs against a headless document:
// widget initialization, the loading spinner, form submit state and the
// global keyboard and error listeners.
//
// Widget behavior (popovers, tooltips, alerts, modals, scrolling) goes
// through the Toolkit interface so callers choose the runtime.
package ui

import (
	"sync"

	"github.com/JonMunkholm/fraudguard/internal/dom"
)

// Toolkit is the UI widget runtime pages rely on.
type Toolkit interface {
	Popover(el *dom.Element)
	Tooltip(el *dom.Element)
	CloseAlert(el *dom.Element)
	HideModal(el *dom.Element)
	ScrollIntoView(el *dom.Element)
}

// Attributes written by Bootstrap when it initializes a widget.
const (
	AttrPopover  = "data-fg-popover"
	AttrTooltip  = "data-fg-tooltip"
	AttrScrolled = "data-fg-scrolled"
)

// Bootstrap is a headless Toolkit that applies Bootstrap 5's state
// changes to the document: alerts are removed, modals lose "show", and
// initialized widgets are marked so the browser runtime can pick them up.
// One Bootstrap is shared by every request, so it is safe for concurrent
// use; it only keeps the most recent scroll targets.
type Bootstrap struct {
	mu       sync.Mutex
	scrolled []string
}

// scrollHistory bounds the scroll targets a Bootstrap remembers.
const scrollHistory = 64

// NewBootstrap returns a headless toolkit.
func NewBootstrap() *Bootstrap { return &Bootstrap{} }

// Popover marks el as an initialized popover.
func (b *Bootstrap) Popover(el *dom.Element) {
	el.SetAttr(AttrPopover, "initialized")
}

// Tooltip marks el as an initialized tooltip.
func (b *Bootstrap) Tooltip(el *dom.Element) {
	el.SetAttr(AttrTooltip, "initialized")
}

// CloseAlert fades el out and removes it.
func (b *Bootstrap) CloseAlert(el *dom.Element) {
	el.RemoveClass("show")
	el.Remove()
}

// HideModal closes a modal dialog.
func (b *Bootstrap) HideModal(el *dom.Element) {
	el.RemoveClass("show")
	el.SetAttr("aria-hidden", "true")
	el.RemoveAttr("aria-modal")
	el.SetAttr("style", "display: none;")
}

// ScrollIntoView records el as a smooth-scroll target.
func (b *Bootstrap) ScrollIntoView(el *dom.Element) {
	el.SetAttr(AttrScrolled, "smooth")

	b.mu.Lock()
	b.scrolled = append(b.scrolled, el.ID())
	if len(b.scrolled) > scrollHistory {
		b.scrolled = b.scrolled[len(b.scrolled)-scrollHistory:]
	}
	b.mu.Unlock()
}

// Scrolled returns the ids of the most recent scroll targets, oldest first.
func (b *Bootstrap) Scrolled() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.scrolled...)
}
