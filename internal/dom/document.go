// Package dom is a small headless document model over golang.org/x/net/html.
//
// It gives page behavior (banners, spinners, form state, keyboard
// shortcuts) a DOM to act on outside a browser: pages are parsed, mutated
// and rendered back to HTML on the server, and tests can assert on the
// resulting tree.
//
// A Document is not safe for concurrent use.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document plus its event listeners and focus.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
	global    map[string][]Listener
	focused   *html.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return newDocument(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]Listener),
		global:    make(map[string][]Listener),
	}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document; render errors yield an empty string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Body returns the <body> element. html.Parse always synthesizes one.
func (d *Document) Body() *Element {
	return d.First(Tag("body"))
}

// Main returns the first <main> element, or nil.
func (d *Document) Main() *Element {
	return d.First(Tag("main"))
}

// ContentRegion is where page-level messages go: <main> when present,
// otherwise <body>.
func (d *Document) ContentRegion() *Element {
	if m := d.Main(); m != nil {
		return m
	}
	return d.Body()
}

// ByID returns the first element whose id is id, or nil.
func (d *Document) ByID(id string) *Element {
	if id == "" {
		return nil
	}
	return d.First(AttrEquals("id", id))
}

// All returns every element matching m in document order.
func (d *Document) All(m Matcher) []*Element {
	return d.wrap(findAll(d.root, m))
}

// First returns the first element matching m, or nil.
func (d *Document) First(m Matcher) *Element {
	if n := findFirst(d.root, m); n != nil {
		return d.wrap1(n)
	}
	return nil
}

// Exists reports whether any element matches m.
func (d *Document) Exists(m Matcher) bool {
	return findFirst(d.root, m) != nil
}

// Fragment parses markup in a <body> context and returns the detached
// top-level elements. Top-level text nodes are dropped.
func (d *Document) Fragment(markup string) ([]*Element, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	var out []*Element
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, d.wrap1(n))
		}
	}
	return out, nil
}

// CreateElement returns a detached element with the given tag.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	return d.wrap1(&html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))})
}

// Focus moves focus to el.
func (d *Document) Focus(el *Element) {
	if el == nil {
		return
	}
	d.focused = el.node
}

// Focused returns the focused element, or nil.
func (d *Document) Focused() *Element {
	if d.focused == nil || !d.contains(d.focused) {
		return nil
	}
	return d.wrap1(d.focused)
}

func (d *Document) contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func (d *Document) wrap(nodes []*html.Node) []*Element {
	out := make([]*Element, len(nodes))
	for i, n := range nodes {
		out[i] = d.wrap1(n)
	}
	return out
}

func (d *Document) wrap1(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

func findFirst(root *html.Node, m Matcher) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && m(c) {
			return c
		}
		if n := findFirst(c, m); n != nil {
			return n
		}
	}
	return nil
}

func findAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}
