// Package block implements the reactive component model: a Block owns its
// props, its child components, and a single document element that is
// replaced wholesale on every re-render.
//
// Concrete components embed Block, pass themselves to Setup, and override
// Render (and optionally Init, ComponentDidMount, ComponentDidUpdate):
//
//	type TitleCard struct{ block.Block }
//
//	func NewTitleCard(title string) *TitleCard {
//		c := &TitleCard{}
//		c.Setup(c, block.Options{Props: block.Props{"title": title}})
//		return c
//	}
//
//	func (c *TitleCard) Render() string { return `<div>{{title}}</div>` }
//
// Templates are mustache: {{name}} substitutes an escaped prop value and
// {{{Slot}}} inserts a child component's placeholder markup raw.
//
// All props writes funnel through SetProps; direct mutation of the props
// map is outside the contract and bypasses the update cycle.
package block

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/cbroglie/mustache"

	"github.com/quill-chat/quill/pkg/dom"
	"github.com/quill-chat/quill/pkg/eventbus"
)

// Props is a component's external configuration and state.
type Props map[string]any

// Events maps document event names to handlers bound to the component's
// root element on every render.
type Events map[string]dom.Handler

// Internal lifecycle flow, carried over the component's private bus.
type flowEvent string

const (
	flowInit   flowEvent = "init"
	flowRender flowEvent = "flow:render"
	flowMount  flowEvent = "flow:component-did-mount"
	flowUpdate flowEvent = "flow:component-did-update"
)

// View is the extension surface every concrete component implements.
type View interface {
	// Render returns the component's template. It must be pure with
	// respect to current props and children.
	Render() string
}

// Initializer is implemented by components that build children or seed
// extra props before the first render.
type Initializer interface {
	Init()
}

// MountHook is implemented by components that need to run after their
// element first exists.
type MountHook interface {
	ComponentDidMount()
}

// UpdateHook lets a component suppress a re-render for a given props
// change. Without the hook every change re-renders.
type UpdateHook interface {
	ComponentDidUpdate(old, next Props) bool
}

// Component is the surface a parent (or the router) needs from an owned
// child component.
type Component interface {
	ID() string
	Element() *dom.Node
	SetProps(Props)
	DispatchComponentDidMount()
	Show()
	Hide()
	Unmount()
}

var idCounter uint64

func nextID() string {
	return "b" + strconv.FormatUint(atomic.AddUint64(&idCounter, 1), 10)
}

// Options is the explicit construction shape: props and child slots are
// separate structures rather than partitioned by runtime type.
type Options struct {
	Props    Props
	Children map[string]Component
	Events   Events
}

// Block is the component base. The zero value is unusable until Setup runs.
type Block struct {
	id       string
	view     View
	props    Props
	children map[string]Component
	events   Events
	element  *dom.Node
	bus      *eventbus.Bus[flowEvent]
	logger   *slog.Logger
}

// Setup wires the lifecycle and performs the first render, synchronously.
// view must be the outermost (embedding) component so overridden hooks are
// reached.
func (b *Block) Setup(view View, opts Options) {
	b.id = nextID()
	b.view = view
	b.logger = slog.Default()

	b.props = make(Props, len(opts.Props))
	for k, v := range opts.Props {
		b.props[k] = v
	}
	b.children = make(map[string]Component, len(opts.Children))
	for name, child := range opts.Children {
		b.children[name] = child
	}
	b.events = opts.Events

	b.bus = eventbus.New[flowEvent]()
	b.bus.On(flowInit, func(args ...any) { b.initFlow() })
	b.bus.On(flowRender, func(args ...any) { b.renderFlow() })
	b.bus.On(flowMount, func(args ...any) { b.mountFlow() })
	b.bus.On(flowUpdate, func(args ...any) {
		b.updateFlow(args[0].(Props), args[1].(Props))
	})

	b.bus.Emit(flowInit)
}

func (b *Block) initFlow() {
	if ini, ok := b.view.(Initializer); ok {
		ini.Init()
	}
	b.bus.Emit(flowRender)
}

func (b *Block) mountFlow() {
	if h, ok := b.view.(MountHook); ok {
		h.ComponentDidMount()
	}
	// Children mount after their parent, in the same pass.
	for _, child := range b.children {
		child.DispatchComponentDidMount()
	}
}

func (b *Block) updateFlow(old, next Props) {
	if h, ok := b.view.(UpdateHook); ok && !h.ComponentDidUpdate(old, next) {
		return
	}
	b.renderFlow()
}

// renderFlow compiles the template against current props with one
// placeholder per child, parses the result, splices the children's live
// elements over their placeholders, and swaps the new element in.
func (b *Block) renderFlow() {
	data := make(map[string]any, len(b.props)+len(b.children))
	for k, v := range b.props {
		data[k] = v
	}
	for name, child := range b.children {
		data[name] = fmt.Sprintf(`<div data-block-id="%s"></div>`, child.ID())
	}

	markup, err := mustache.Render(b.view.Render(), data)
	if err != nil {
		b.logger.Error("block: template render failed", "block", b.id, "error", err)
		return
	}

	newElement, err := dom.ParseElement(markup)
	if err != nil {
		b.logger.Error("block: markup parse failed", "block", b.id, "error", err)
		return
	}
	if newElement == nil {
		b.logger.Error("block: template produced no element", "block", b.id)
		return
	}

	for _, child := range b.children {
		stub := newElement.QueryAttr("data-block-id", child.ID())
		if stub == nil {
			continue
		}
		if el := child.Element(); el != nil {
			stub.ReplaceWith(el)
		}
	}

	if b.element != nil {
		b.removeEvents()
		b.element.ReplaceWith(newElement) // no-op when not attached
	}
	b.element = newElement
	b.addEvents()
}

func (b *Block) addEvents() {
	for typ, h := range b.events {
		b.element.AddEventListener(typ, h)
	}
}

func (b *Block) removeEvents() {
	for typ, h := range b.events {
		b.element.RemoveEventListener(typ, h)
	}
}

// Render is the base implementation; reaching it means the embedding
// component did not override it.
func (b *Block) Render() string {
	panic("block: render not implemented")
}

// ID returns the component's process-unique identifier, stable for its
// lifetime. It locates the component's placeholder during parent re-render.
func (b *Block) ID() string {
	return b.id
}

// Element returns the component's current root element, or nil before the
// first render. Callers must guard the nil.
func (b *Block) Element() *dom.Node {
	return b.element
}

// SetProps shallow-merges next into props and fires one update decision for
// the batch. Merging an empty or nil argument is a no-op. The resulting
// re-render, if any, completes before SetProps returns.
func (b *Block) SetProps(next Props) {
	if len(next) == 0 {
		return
	}

	old := make(Props, len(b.props))
	for k, v := range b.props {
		old[k] = v
	}
	for k, v := range next {
		b.props[k] = v
	}
	merged := make(Props, len(b.props))
	for k, v := range b.props {
		merged[k] = v
	}

	b.bus.Emit(flowUpdate, old, merged)
}

// Prop returns a single prop value.
func (b *Block) Prop(key string) any {
	return b.props[key]
}

// Props returns the live props map, read-only by convention.
func (b *Block) Props() Props {
	return b.props
}

// Child returns the named child component, or nil.
func (b *Block) Child(name string) Component {
	return b.children[name]
}

// SetChild installs a child into a previously empty slot. It does not
// re-render; call SetProps (or rely on a later update) to splice the child
// into the tree.
func (b *Block) SetChild(name string, child Component) {
	b.children[name] = child
}

// ReplaceChild swaps a child slot, unmounting the outgoing child so its
// element listeners cannot fire from a detached subtree.
func (b *Block) ReplaceChild(name string, child Component) {
	if old, ok := b.children[name]; ok && old != nil {
		old.Unmount()
	}
	b.children[name] = child
}

// DispatchComponentDidMount notifies the component that its element is now
// attached; the notification cascades depth-first to children.
func (b *Block) DispatchComponentDidMount() {
	b.bus.Emit(flowMount)
}

// Show makes the element visible.
func (b *Block) Show() {
	if b.element != nil {
		b.element.SetAttr("style", "display:flex")
	}
}

// Hide hides the element without unmounting children.
func (b *Block) Hide() {
	if b.element != nil {
		b.element.SetAttr("style", "display:none")
	}
}

// Unmount detaches the element from its parent and unbinds the component's
// event handlers. There is no destroy hook; subclasses owning subscriptions
// release them from here or from their own teardown path.
func (b *Block) Unmount() {
	if b.element == nil {
		return
	}
	b.removeEvents()
	b.element.Detach()
}
