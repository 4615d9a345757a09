package quill_test

import (
	"strings"
	"testing"

	"github.com/quill-chat/quill"
	"github.com/quill-chat/quill/pkg/store"
)

type greeting struct {
	quill.Block
}

func (g *greeting) Render() string {
	return `<div class="greeting">{{name}}</div>`
}

func TestFacadeComponent(t *testing.T) {
	g := &greeting{}
	g.Setup(g, quill.BlockOptions{Props: quill.Props{"name": "Ada"}})

	if got := g.Element().HTML(); !strings.Contains(got, "Ada") {
		t.Errorf("rendered = %q", got)
	}

	g.SetProps(quill.Props{"name": "Grace"})
	if got := g.Element().HTML(); !strings.Contains(got, "Grace") {
		t.Errorf("after SetProps = %q", got)
	}
}

func TestFacadeStore(t *testing.T) {
	st := quill.NewStore(store.NewMemoryPersister())

	var fired bool
	st.On(quill.Updated, func(args ...any) { fired = true })
	st.SetToken("tok")

	if !fired {
		t.Error("Updated listener not invoked")
	}
	if st.GetState().Token != "tok" {
		t.Errorf("token = %q", st.GetState().Token)
	}
}
