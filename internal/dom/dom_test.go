package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><head><title>t</title></head>
<body>
  <nav><a href="#stats" id="jump">Stats</a><a href="#">Top</a></nav>
  <main id="content">
    <div class="alert alert-info show" id="a1">hi</div>
    <section id="stats"><span data-bs-toggle="tooltip" title="x">?</span></section>
    <form id="f"><input name="q" value="v"><button type="submit">Go</button></form>
  </main>
</body></html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	d, err := ParseString(s)
	require.NoError(t, err)
	return d
}

func TestDocument_Queries(t *testing.T) {
	d := mustParse(t, page)

	require.NotNil(t, d.Body())
	require.NotNil(t, d.Main())
	assert.Equal(t, "content", d.ContentRegion().ID())
	assert.Equal(t, "section", d.ByID("stats").Tag())
	assert.Nil(t, d.ByID("missing"))
	assert.Nil(t, d.ByID(""))

	links := d.All(Tag("a"))
	require.Len(t, links, 2)
	assert.Equal(t, "jump", links[0].ID())

	assert.True(t, d.Exists(AttrEquals("data-bs-toggle", "tooltip")))
	assert.False(t, d.Exists(AttrEquals("data-bs-toggle", "popover")))
	assert.Len(t, d.All(AttrPrefix("href", "#")), 2)
	assert.Len(t, d.All(And(Tag("button"), AttrEquals("type", "submit"))), 1)
	assert.Len(t, d.All(Class("alert", "show")), 1)
	assert.Empty(t, d.All(Class("alert", "fade")))
}

func TestDocument_ContentRegionFallsBackToBody(t *testing.T) {
	d := mustParse(t, `<p>no main</p>`)
	assert.Nil(t, d.Main())
	assert.Equal(t, "body", d.ContentRegion().Tag())
}

func TestElement_Classes(t *testing.T) {
	d := mustParse(t, page)
	el := d.ByID("a1")

	assert.True(t, el.HasClass("show"))
	el.RemoveClass("show")
	assert.False(t, el.HasClass("show"))
	el.AddClass("fade")
	el.AddClass("fade")
	assert.Equal(t, []string{"alert", "alert-info", "fade"}, el.Classes())
}

func TestElement_Attrs(t *testing.T) {
	d := mustParse(t, page)
	btn := d.First(Tag("button"))

	btn.SetAttr("disabled", "")
	assert.True(t, btn.HasAttr("disabled"))
	btn.SetAttr("data-original-text", "Go")
	v, ok := btn.Attr("data-original-text")
	assert.True(t, ok)
	assert.Equal(t, "Go", v)

	btn.RemoveAttr("disabled")
	assert.False(t, btn.HasAttr("disabled"))
}

func TestElement_TextAndInnerHTML(t *testing.T) {
	d := mustParse(t, page)
	btn := d.First(Tag("button"))
	assert.Equal(t, "Go", btn.Text())

	require.NoError(t, btn.SetInnerHTML(`<i class="spin"></i> Processing...`))
	assert.Equal(t, " Processing...", btn.Text())
	assert.Len(t, btn.Find(Class("spin")), 1)

	btn.SetText("<b>")
	assert.Equal(t, "<b>", btn.Text())
	assert.Contains(t, d.String(), "&lt;b&gt;")
}

func TestElement_PrependAppendRemove(t *testing.T) {
	d := mustParse(t, page)
	region := d.Main()

	els, err := d.Fragment(`<div id="n1">one</div> text <div id="n2">two</div>`)
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.False(t, els[0].Attached())

	region.Prepend(els[0])
	region.Prepend(els[1])
	first := region.FindFirst(Tag("div"))
	assert.Equal(t, "n2", first.ID())
	assert.True(t, els[0].Attached())

	d.Body().Append(els[1])
	assert.Equal(t, "body", els[1].Parent().Tag())

	els[0].Remove()
	assert.False(t, els[0].Attached())
	assert.Nil(t, d.ByID("n1"))
	els[0].Remove()
}

func TestDocument_CreateElement(t *testing.T) {
	d := mustParse(t, page)
	el := d.CreateElement("SPAN")
	assert.Equal(t, "span", el.Tag())
	assert.False(t, el.Attached())

	el.SetAttr("id", "late")
	el.SetText("added")
	d.ByID("stats").Append(el)
	assert.True(t, el.Attached())
	assert.Same(t, el.Node(), d.ByID("late").Node())
	assert.Contains(t, d.String(), `<span id="late">added</span>`)
}

func TestDispatch_Bubbles(t *testing.T) {
	d := mustParse(t, page)
	var order []string

	d.ByID("jump").On(EventClick, func(ev *Event) { order = append(order, "a") })
	d.First(Tag("nav")).On(EventClick, func(ev *Event) {
		order = append(order, "nav")
		ev.PreventDefault()
	})
	d.On(EventClick, func(ev *Event) { order = append(order, "doc") })

	ok := d.ByID("jump").Click()
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "nav", "doc"}, order)

	order = nil
	assert.True(t, d.ByID("stats").Click())
	assert.Equal(t, []string{"doc"}, order)
}

func TestDispatch_KeyDownWithoutTarget(t *testing.T) {
	d := mustParse(t, page)
	var got *Event
	d.On(EventKeyDown, func(ev *Event) { got = ev })

	d.Dispatch(&Event{Type: EventKeyDown, Key: "k", Ctrl: true})
	require.NotNil(t, got)
	assert.True(t, got.Ctrl)
	assert.Equal(t, "k", got.Key)
}

func TestRemove_DropsListeners(t *testing.T) {
	d := mustParse(t, page)
	form := d.ByID("f")
	btn := form.FindFirst(Tag("button"))
	btn.On(EventClick, func(*Event) {})
	assert.Equal(t, 1, btn.ListenerCount(EventClick))

	form.Remove()
	assert.Equal(t, 0, btn.ListenerCount(EventClick))
}

func TestFocus(t *testing.T) {
	d := mustParse(t, page)
	assert.Nil(t, d.Focused())

	input := d.First(Tag("input"))
	d.Focus(input)
	assert.True(t, input.Same(d.Focused()))

	d.ByID("f").Remove()
	assert.Nil(t, d.Focused())
}

func TestRender_RoundTrip(t *testing.T) {
	d := mustParse(t, page)
	var sb strings.Builder
	require.NoError(t, d.Render(&sb))

	again := mustParse(t, sb.String())
	assert.Equal(t, len(d.All(Tag("a"))), len(again.All(Tag("a"))))
}
