package block

import (
	"testing"

	"github.com/quill-chat/quill/pkg/dom"
)

type titleCard struct{ Block }

func newTitleCard(title string, events Events) *titleCard {
	c := &titleCard{}
	c.Setup(c, Options{Props: Props{"title": title}, Events: events})
	return c
}

func (c *titleCard) Render() string { return `<div>{{title}}</div>` }

func TestRenderAndSetProps(t *testing.T) {
	c := newTitleCard("before", nil)

	if c.Element() == nil {
		t.Fatal("element missing after construction")
	}
	if got := c.Element().TextContent(); got != "before" {
		t.Errorf("TextContent = %q, want %q", got, "before")
	}

	c.SetProps(Props{"title": "after"})

	if got := c.Element().TextContent(); got != "after" {
		t.Errorf("TextContent after SetProps = %q, want %q", got, "after")
	}
}

func TestLastWriteWins(t *testing.T) {
	c := newTitleCard("a", nil)

	c.SetProps(Props{"title": "b"})
	c.SetProps(Props{"title": "c"})
	c.SetProps(Props{"title": "d"})

	if got := c.Element().TextContent(); got != "d" {
		t.Errorf("TextContent = %q, want last written value %q", got, "d")
	}
}

func TestSetPropsEmptyIsNoOp(t *testing.T) {
	c := newTitleCard("stay", nil)
	before := c.Element()

	c.SetProps(nil)
	c.SetProps(Props{})

	if c.Element() != before {
		t.Error("empty SetProps replaced the element")
	}
}

type frozenCard struct{ Block }

func (c *frozenCard) Render() string { return `<div>{{title}}</div>` }

func (c *frozenCard) ComponentDidUpdate(old, next Props) bool { return false }

func TestUpdateSuppressionLeavesDOMUntouched(t *testing.T) {
	c := &frozenCard{}
	c.Setup(c, Options{Props: Props{"title": "frozen"}})

	element := c.Element()
	html := element.HTML()

	c.SetProps(Props{"title": "changed"})

	if c.Element() != element {
		t.Error("suppressed update replaced the element")
	}
	if got := c.Element().HTML(); got != html {
		t.Errorf("suppressed update changed markup: %q -> %q", html, got)
	}
	if got := c.Prop("title"); got != "changed" {
		t.Errorf("props not merged: title = %v", got)
	}
}

func TestNoLeakedListenersAcrossRerender(t *testing.T) {
	fired := 0
	c := newTitleCard("x", Events{
		"click": func(e *dom.Event) { fired++ },
	})

	old := c.Element()
	c.SetProps(Props{"title": "y"})

	old.Dispatch(&dom.Event{Type: "click"})
	if fired != 0 {
		t.Errorf("handler fired %d times on the detached element", fired)
	}

	c.Element().Dispatch(&dom.Event{Type: "click"})
	if fired != 1 {
		t.Errorf("handler fired %d times on the live element, want 1", fired)
	}
}

type badgeChild struct {
	Block
	mounted *[]string
}

func (c *badgeChild) Render() string { return `<span class="badge">{{label}}</span>` }

func (c *badgeChild) ComponentDidMount() {
	*c.mounted = append(*c.mounted, "child")
}

type cardParent struct {
	Block
	mounted *[]string
}

func (c *cardParent) Render() string { return `<div class="card">{{{Badge}}}</div>` }

func (c *cardParent) ComponentDidMount() {
	*c.mounted = append(*c.mounted, "parent")
}

func TestChildSpliceAndMountCascade(t *testing.T) {
	var mounted []string

	child := &badgeChild{mounted: &mounted}
	child.Setup(child, Options{Props: Props{"label": "7"}})

	parent := &cardParent{mounted: &mounted}
	parent.Setup(parent, Options{Children: map[string]Component{"Badge": child}})

	// The child's live element is spliced into the parent's tree.
	badge := parent.Element().QueryAttr("class", "badge")
	if badge == nil {
		t.Fatal("child element not spliced into parent")
	}
	if badge != child.Element() {
		t.Error("spliced node is not the child's live element")
	}
	if got := badge.TextContent(); got != "7" {
		t.Errorf("child text = %q, want %q", got, "7")
	}

	parent.DispatchComponentDidMount()
	if len(mounted) != 2 || mounted[0] != "parent" || mounted[1] != "child" {
		t.Errorf("mount order = %v, want [parent child]", mounted)
	}
}

func TestChildSurvivesParentRerender(t *testing.T) {
	var mounted []string

	child := &badgeChild{mounted: &mounted}
	child.Setup(child, Options{Props: Props{"label": "1"}})

	parent := &cardParent{mounted: &mounted}
	parent.Setup(parent, Options{
		Props:    Props{"ignored": "x"},
		Children: map[string]Component{"Badge": child},
	})

	child.SetProps(Props{"label": "2"})
	parent.SetProps(Props{"ignored": "y"})

	badge := parent.Element().QueryAttr("class", "badge")
	if badge == nil {
		t.Fatal("child lost during parent re-render")
	}
	if got := badge.TextContent(); got != "2" {
		t.Errorf("child text = %q, want %q", got, "2")
	}
}

func TestShowHide(t *testing.T) {
	c := newTitleCard("x", nil)

	c.Hide()
	if style, _ := c.Element().Attr("style"); style != "display:none" {
		t.Errorf("style after Hide = %q", style)
	}

	c.Show()
	if style, _ := c.Element().Attr("style"); style != "display:flex" {
		t.Errorf("style after Show = %q", style)
	}
}

type renderless struct{ Block }

func TestBaseRenderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic from unimplemented Render")
		}
	}()

	c := &renderless{}
	c.Setup(c, Options{})
}

func TestStableIDAcrossRenders(t *testing.T) {
	c := newTitleCard("x", nil)
	id := c.ID()

	c.SetProps(Props{"title": "y"})
	c.SetProps(Props{"title": "z"})

	if c.ID() != id {
		t.Errorf("ID changed across renders: %q -> %q", id, c.ID())
	}

	other := newTitleCard("x", nil)
	if other.ID() == id {
		t.Error("two components share an ID")
	}
}

func TestEscapedPropCannotInjectMarkup(t *testing.T) {
	c := newTitleCard(`<img src=x>`, nil)

	if c.Element().QueryTag("img") != nil {
		t.Error("prop value injected an element through {{title}}")
	}
}
