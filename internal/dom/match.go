package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Matcher selects element nodes. Matchers stand in for the handful of CSS
// selectors page behavior needs.
type Matcher func(n *html.Node) bool

// Tag matches elements by tag name.
func Tag(name string) Matcher {
	return func(n *html.Node) bool { return n.Data == name }
}

// HasAttr matches elements carrying attribute name, whatever its value.
func HasAttr(name string) Matcher {
	return func(n *html.Node) bool {
		_, ok := attr(n, name)
		return ok
	}
}

// AttrEquals matches elements whose attribute name equals value.
func AttrEquals(name, value string) Matcher {
	return func(n *html.Node) bool {
		v, ok := attr(n, name)
		return ok && v == value
	}
}

// AttrPrefix matches elements whose attribute name starts with prefix.
func AttrPrefix(name, prefix string) Matcher {
	return func(n *html.Node) bool {
		v, ok := attr(n, name)
		return ok && strings.HasPrefix(v, prefix)
	}
}

// Class matches elements carrying every one of the given classes.
func Class(names ...string) Matcher {
	return func(n *html.Node) bool {
		v, _ := attr(n, "class")
		have := strings.Fields(v)
		for _, want := range names {
			if !containsString(have, want) {
				return false
			}
		}
		return true
	}
}

// And matches elements satisfying every matcher.
func And(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
