package ui

import (
	"bytes"
	"context"
	"fmt"

	"github.com/JonMunkholm/fraudguard/internal/dom"
)

const (
	SpinnerID         = "loadingSpinner"
	SpinnerBackdropID = "spinnerBackdrop"
	DefaultSpinnerMsg = "Loading..."
)

// ShowSpinner appends the spinner and backdrop to the body. An empty
// message uses DefaultSpinnerMsg. Calling it twice without HideSpinner
// leaves two pairs in the document.
func ShowSpinner(doc *dom.Document, message string) error {
	if message == "" {
		message = DefaultSpinnerMsg
	}
	var buf bytes.Buffer
	if err := SpinnerComponent(message).Render(context.Background(), &buf); err != nil {
		return fmt.Errorf("render spinner: %w", err)
	}
	els, err := doc.Fragment(buf.String())
	if err != nil {
		return err
	}
	doc.Body().Append(els...)
	return nil
}

// HideSpinner removes the first spinner and backdrop, if present.
func HideSpinner(doc *dom.Document) {
	if el := doc.ByID(SpinnerID); el != nil {
		el.Remove()
	}
	if el := doc.ByID(SpinnerBackdropID); el != nil {
		el.Remove()
	}
}
