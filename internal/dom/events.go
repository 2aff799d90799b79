package dom

import "golang.org/x/net/html"

// Event types used by page behavior.
const (
	EventClick   = "click"
	EventKeyDown = "keydown"
)

// Event is dispatched to listeners registered on the target, its
// ancestors and finally the document.
type Event struct {
	Type   string
	Target *Element

	// Keyboard state, for keydown events.
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool

	defaultPrevented bool
}

// PreventDefault marks the event's default action as cancelled.
func (ev *Event) PreventDefault() { ev.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (ev *Event) DefaultPrevented() bool { return ev.defaultPrevented }

// Listener handles an event.
type Listener func(ev *Event)

// On registers a document-level listener for typ.
func (d *Document) On(typ string, fn Listener) {
	d.global[typ] = append(d.global[typ], fn)
}

// On registers fn for events of type typ targeting e or its descendants.
func (e *Element) On(typ string, fn Listener) {
	byType := e.doc.listeners[e.node]
	if byType == nil {
		byType = make(map[string][]Listener)
		e.doc.listeners[e.node] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// ListenerCount returns how many listeners of typ are registered on e.
func (e *Element) ListenerCount(typ string) int {
	return len(e.doc.listeners[e.node][typ])
}

// Dispatch delivers ev, bubbling from its target to the document. A nil
// target delivers to document listeners only. It returns false when a
// listener prevented the default action.
func (d *Document) Dispatch(ev *Event) bool {
	if ev.Target != nil {
		for n := ev.Target.node; n != nil; n = n.Parent {
			for _, fn := range d.listeners[n][ev.Type] {
				fn(ev)
			}
		}
	}
	for _, fn := range d.global[ev.Type] {
		fn(ev)
	}
	return !ev.defaultPrevented
}

// Click dispatches a click on e.
func (e *Element) Click() bool {
	return e.doc.Dispatch(&Event{Type: EventClick, Target: e})
}

// forget drops listeners registered on n and its subtree.
func (d *Document) forget(n *html.Node) {
	delete(d.listeners, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}
