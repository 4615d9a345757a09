package dom

import (
	"strings"
	"testing"
)

func TestParseElement(t *testing.T) {
	n, err := ParseElement(`<div class="card"><span>hello</span></div>`)
	if err != nil {
		t.Fatalf("ParseElement: %v", err)
	}
	if n == nil || n.Tag != "div" {
		t.Fatalf("expected div element, got %+v", n)
	}
	if v, _ := n.Attr("class"); v != "card" {
		t.Errorf("class = %q, want %q", v, "card")
	}
	if got := n.TextContent(); got != "hello" {
		t.Errorf("TextContent = %q, want %q", got, "hello")
	}
}

func TestParseElementSkipsLeadingWhitespace(t *testing.T) {
	n, err := ParseElement("\n  <p>x</p>")
	if err != nil {
		t.Fatalf("ParseElement: %v", err)
	}
	if n == nil || n.Tag != "p" {
		t.Fatalf("expected p element, got %+v", n)
	}
}

func TestHTMLRoundTrip(t *testing.T) {
	n, err := ParseElement(`<div id="a"><input name="q"><b>x</b></div>`)
	if err != nil {
		t.Fatalf("ParseElement: %v", err)
	}

	got := n.HTML()
	want := `<div id="a"><input name="q"><b>x</b></div>`
	if got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
}

func TestHTMLEscaping(t *testing.T) {
	n := NewElement("div")
	n.SetAttr("title", `a"b`)
	n.AppendChild(NewText("<script>"))

	got := n.HTML()
	if strings.Contains(got, "<script>") {
		t.Errorf("text not escaped: %q", got)
	}
	if !strings.Contains(got, "&quot;") {
		t.Errorf("attribute not escaped: %q", got)
	}
}

func TestReplaceWithPreservesPosition(t *testing.T) {
	parent, _ := ParseElement(`<ul><li id="1"></li><li id="2"></li><li id="3"></li></ul>`)
	second := parent.QueryAttr("id", "2")
	if second == nil {
		t.Fatal("missing li#2")
	}

	repl := NewElement("li")
	repl.SetAttr("id", "new")
	second.ReplaceWith(repl)

	if parent.Children[1] != repl {
		t.Error("replacement not at the original position")
	}
	if repl.Parent != parent {
		t.Error("replacement not reparented")
	}
	if second.Parent != nil {
		t.Error("replaced node still parented")
	}
}

func TestQueryAttrDepthFirst(t *testing.T) {
	root, _ := ParseElement(`<div><section><p data-id="x">inner</p></section></div>`)
	found := root.QueryAttr("data-id", "x")
	if found == nil || found.Tag != "p" {
		t.Fatalf("QueryAttr = %+v, want p element", found)
	}
	if root.QueryAttr("data-id", "missing") != nil {
		t.Error("unexpected match for missing value")
	}
}

func TestDispatchBubbles(t *testing.T) {
	root, _ := ParseElement(`<div><button>go</button></div>`)
	button := root.QueryTag("button")

	var order []string
	button.AddEventListener("click", func(e *Event) { order = append(order, "button") })
	root.AddEventListener("click", func(e *Event) { order = append(order, "root") })

	button.Dispatch(&Event{Type: "click"})

	if len(order) != 2 || order[0] != "button" || order[1] != "root" {
		t.Errorf("dispatch order = %v, want [button root]", order)
	}
}

func TestDispatchStopPropagation(t *testing.T) {
	root, _ := ParseElement(`<div><button>go</button></div>`)
	button := root.QueryTag("button")

	rootFired := false
	button.AddEventListener("click", func(e *Event) { e.StopPropagation() })
	root.AddEventListener("click", func(e *Event) { rootFired = true })

	button.Dispatch(&Event{Type: "click"})

	if rootFired {
		t.Error("event bubbled past StopPropagation")
	}
}

func TestRemoveEventListener(t *testing.T) {
	n := NewElement("div")

	fired := 0
	h := Handler(func(e *Event) { fired++ })
	n.AddEventListener("click", h)
	n.RemoveEventListener("click", h)
	n.Dispatch(&Event{Type: "click"})

	if fired != 0 {
		t.Errorf("removed listener fired %d times", fired)
	}
	if n.ListenerCount("click") != 0 {
		t.Errorf("ListenerCount = %d, want 0", n.ListenerCount("click"))
	}
}

func TestDetachRemovesOnlyItsListener(t *testing.T) {
	n := NewElement("div")

	// Closures built from the same literal share a function pointer;
	// the detach handle must still remove only its own registration.
	counts := make([]int, 2)
	attach := func(i int) func() {
		return n.AddEventListener("click", func(e *Event) { counts[i]++ })
	}
	detachFirst := attach(0)
	attach(1)

	detachFirst()
	detachFirst() // second detach is a no-op
	n.Dispatch(&Event{Type: "click"})

	if counts[0] != 0 {
		t.Errorf("detached listener fired %d times", counts[0])
	}
	if counts[1] != 1 {
		t.Errorf("surviving listener fired %d times, want 1", counts[1])
	}
	if n.ListenerCount("click") != 1 {
		t.Errorf("ListenerCount = %d, want 1", n.ListenerCount("click"))
	}
}
