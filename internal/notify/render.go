package notify

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/fraudguard/internal/dom"
)

// ElementID returns the DOM id used for a banner.
func ElementID(id string) string { return "banner-" + id }

// durationMS is the auto-dismiss delay the page script honours. Zero
// keeps the banner until it is closed.
func durationMS(b Banner) string {
	if b.Persistent() {
		return "0"
	}
	return strconv.FormatInt(b.Duration.Milliseconds(), 10)
}

// DOMSink mounts banners at the top of a document's content region.
type DOMSink struct {
	doc *dom.Document
}

// NewDOMSink returns a sink writing into doc.
func NewDOMSink(doc *dom.Document) *DOMSink {
	return &DOMSink{doc: doc}
}

// Mount renders b and inserts it before the region's first child.
func (s *DOMSink) Mount(b Banner) error {
	var buf bytes.Buffer
	if err := BannerComponent(b).Render(context.Background(), &buf); err != nil {
		return fmt.Errorf("render banner: %w", err)
	}
	els, err := s.doc.Fragment(buf.String())
	if err != nil {
		return err
	}
	region := s.doc.ContentRegion()
	if region == nil {
		return fmt.Errorf("no content region")
	}
	region.Prepend(els...)
	return nil
}

// Unmount removes the banner's element if it is still in the document.
func (s *DOMSink) Unmount(id string) {
	if el := s.doc.ByID(ElementID(id)); el != nil {
		el.Remove()
	}
}
