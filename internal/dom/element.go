package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a handle on an element node of a Document. Handles are
// cheap; two handles are the same element when Same reports true.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node exposes the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Same reports whether e and other refer to the same node.
func (e *Element) Same(other *Element) bool {
	return other != nil && e.node == other.node
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.node.Data }

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// Attr returns the value of attribute name.
func (e *Element) Attr(name string) (string, bool) {
	return attr(e.node, name)
}

// HasAttr reports whether attribute name is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := attr(e.node, name)
	return ok
}

// SetAttr sets attribute name to value, replacing any existing value.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes attribute name if present.
func (e *Element) RemoveAttr(name string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		attrs = append(attrs, a)
	}
	e.node.Attr = attrs
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	return containsString(e.Classes(), name)
}

// AddClass appends name to the class list if missing.
func (e *Element) AddClass(name string) {
	classes := e.Classes()
	if containsString(classes, name) {
		return
	}
	e.SetAttr("class", strings.Join(append(classes, name), " "))
}

// RemoveClass drops name from the class list.
func (e *Element) RemoveClass(name string) {
	classes := e.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if c != name {
			kept = append(kept, c)
		}
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return b.String()
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(s string) {
	e.clearChildren()
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// SetInnerHTML replaces all children with parsed markup.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), e.node)
	if err != nil {
		return err
	}
	e.clearChildren()
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

// Prepend inserts children, in order, before the current first child.
func (e *Element) Prepend(children ...*Element) {
	ref := e.node.FirstChild
	for _, c := range children {
		detach(c.node)
		e.node.InsertBefore(c.node, ref)
	}
}

// Append adds children at the end.
func (e *Element) Append(children ...*Element) {
	for _, c := range children {
		detach(c.node)
		e.node.AppendChild(c.node)
	}
}

// Remove detaches the element from its parent and drops its listeners.
// Removing a detached element is a no-op.
func (e *Element) Remove() {
	if e.node.Parent == nil {
		return
	}
	e.node.Parent.RemoveChild(e.node)
	e.doc.forget(e.node)
}

// Attached reports whether the element is part of the document tree.
func (e *Element) Attached() bool {
	return e.doc.contains(e.node)
}

// Parent returns the parent element, or nil at the top.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap1(p)
}

// Find returns descendants matching m in document order.
func (e *Element) Find(m Matcher) []*Element {
	return e.doc.wrap(findAll(e.node, m))
}

// FindFirst returns the first descendant matching m, or nil.
func (e *Element) FindFirst(m Matcher) *Element {
	if n := findFirst(e.node, m); n != nil {
		return e.doc.wrap1(n)
	}
	return nil
}

func (e *Element) clearChildren() {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
