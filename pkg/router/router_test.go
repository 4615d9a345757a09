package router

import (
	"testing"

	"github.com/quill-chat/quill/pkg/block"
	"github.com/quill-chat/quill/pkg/dom"
	"github.com/quill-chat/quill/pkg/store"
)

type page struct{ block.Block }

func newPage(name string) *page {
	p := &page{}
	p.Setup(p, block.Options{Props: block.Props{"name": name}})
	return p
}

func (p *page) Render() string { return `<main>{{name}}</main>` }

func newTestRouter(authed bool) (*Router, *dom.Node, *store.Store) {
	root := dom.NewElement("div")
	st := store.New(store.NewMemoryPersister())
	if authed {
		st.SetUser(&store.User{ID: 1, Login: "a"})
	}
	return New(root, st), root, st
}

func TestSingleInstancePerPath(t *testing.T) {
	r, _, _ := newTestRouter(true)

	built := 0
	r.Use(PathChats, func() block.Component {
		built++
		return newPage("chats")
	})
	r.Use(PathProfile, func() block.Component { return newPage("profile") })

	r.Go(PathChats)
	r.Go(PathProfile)
	r.Go(PathChats)

	if built != 1 {
		t.Errorf("chats page built %d times, want 1", built)
	}
}

func TestLeaveHidesInsteadOfDestroying(t *testing.T) {
	r, _, _ := newTestRouter(true)
	r.Use(PathChats, func() block.Component { return newPage("chats") })
	r.Use(PathProfile, func() block.Component { return newPage("profile") })

	r.Go(PathChats)
	chats := r.getRoute(PathChats).Component()

	r.Go(PathProfile)

	if style, _ := chats.Element().Attr("style"); style != "display:none" {
		t.Errorf("left page style = %q, want display:none", style)
	}

	r.Go(PathChats)
	if style, _ := chats.Element().Attr("style"); style != "display:flex" {
		t.Errorf("revisited page style = %q, want display:flex", style)
	}
}

func TestComponentAttachedToRoot(t *testing.T) {
	r, root, _ := newTestRouter(true)
	r.Use(PathChats, func() block.Component { return newPage("chats") })

	r.Go(PathChats)

	if root.QueryTag("main") == nil {
		t.Error("page element not attached to the root")
	}
}

func TestStartRedirectsUnauthenticated(t *testing.T) {
	r, _, _ := newTestRouter(false)
	r.Use(PathSignIn, func() block.Component { return newPage("sign-in") })
	r.Use(PathChats, func() block.Component { return newPage("chats") })

	r.Go(PathChats) // lands on chats, then Start enforces the guard
	r.Start()

	if got := r.CurrentPath(); got != PathSignIn {
		t.Errorf("CurrentPath = %q, want %q", got, PathSignIn)
	}
}

func TestStartRedirectsAuthenticatedAwayFromAuthPaths(t *testing.T) {
	r, _, _ := newTestRouter(true)
	r.Use(PathSignIn, func() block.Component { return newPage("sign-in") })
	r.Use(PathChats, func() block.Component { return newPage("chats") })

	r.Start() // history starts at the sign-in path

	if got := r.CurrentPath(); got != PathChats {
		t.Errorf("CurrentPath = %q, want %q", got, PathChats)
	}
}

func TestBackForward(t *testing.T) {
	r, _, _ := newTestRouter(true)
	r.Use(PathChats, func() block.Component { return newPage("chats") })
	r.Use(PathProfile, func() block.Component { return newPage("profile") })

	r.Go(PathChats)
	r.Go(PathProfile)

	r.Back()
	if got := r.CurrentPath(); got != PathChats {
		t.Errorf("after Back, CurrentPath = %q, want %q", got, PathChats)
	}

	r.Forward()
	if got := r.CurrentPath(); got != PathProfile {
		t.Errorf("after Forward, CurrentPath = %q, want %q", got, PathProfile)
	}

	// Bounds are respected.
	r.Forward()
	if got := r.CurrentPath(); got != PathProfile {
		t.Errorf("Forward past end moved to %q", got)
	}
}

func TestUnknownPathFallsBackToNotFound(t *testing.T) {
	r, _, _ := newTestRouter(true)
	r.Use(PathNotFound, func() block.Component { return newPage("404") })

	r.Go("/nowhere")

	nf := r.getRoute(PathNotFound).Component()
	if nf == nil {
		t.Fatal("not-found page not rendered")
	}
}
