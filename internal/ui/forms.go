package ui

import (
	"strings"

	"github.com/JonMunkholm/fraudguard/internal/dom"
)

const (
	AttrOriginalText = "data-original-text"
	processingText   = "Processing..."
	processingIcon   = "fas fa-spinner fa-spin me-2"
	defaultSubmit    = "Submit"
)

func form(doc *dom.Document, id string) *dom.Element {
	el := doc.ByID(id)
	if el == nil || el.Tag() != "form" {
		return nil
	}
	return el
}

func submitButtons(f *dom.Element) []*dom.Element {
	return f.Find(dom.And(dom.Tag("button"), dom.AttrEquals("type", "submit")))
}

// ResetFormFields clears every field of form id. Missing forms are ignored.
func ResetFormFields(doc *dom.Document, id string) {
	f := form(doc, id)
	if f == nil {
		return
	}

	for _, in := range f.Find(dom.Tag("input")) {
		typ, _ := in.Attr("type")
		switch strings.ToLower(typ) {
		case "submit", "button", "reset", "hidden", "image":
		case "checkbox", "radio":
			in.RemoveAttr("checked")
		default:
			in.RemoveAttr("value")
		}
	}
	for _, ta := range f.Find(dom.Tag("textarea")) {
		ta.SetText("")
	}
	for _, opt := range f.Find(dom.Tag("option")) {
		opt.RemoveAttr("selected")
	}
}

// DisableFormSubmit disables the submit buttons of form id and shows a
// processing label. The first label seen is kept in data-original-text.
func DisableFormSubmit(doc *dom.Document, id string) {
	f := form(doc, id)
	if f == nil {
		return
	}
	for _, btn := range submitButtons(f) {
		if !btn.HasAttr(AttrOriginalText) {
			btn.SetAttr(AttrOriginalText, strings.TrimSpace(btn.Text()))
		}
		btn.SetAttr("disabled", "")
		setProcessingLabel(btn)
	}
}

// setProcessingLabel replaces the button content with a spinner icon
// followed by the processing text.
func setProcessingLabel(btn *dom.Element) {
	icon := btn.Document().CreateElement("i")
	icon.SetAttr("class", processingIcon)
	btn.SetText(processingText)
	btn.Prepend(icon)
}

// EnableFormSubmit re-enables the submit buttons of form id and restores
// their label, falling back to "Submit".
func EnableFormSubmit(doc *dom.Document, id string) {
	f := form(doc, id)
	if f == nil {
		return
	}
	for _, btn := range submitButtons(f) {
		btn.RemoveAttr("disabled")
		label, _ := btn.Attr(AttrOriginalText)
		if label == "" {
			label = defaultSubmit
		}
		btn.SetText(label)
	}
}
