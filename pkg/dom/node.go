// Package dom provides the in-memory document tree the component runtime
// renders into: parsing rendered markup into nodes, splicing subtrees,
// attaching and detaching event listeners, dispatching events with bubbling,
// and serializing back to HTML.
//
// There is no diffing: components replace their element wholesale on every
// re-render.
package dom

import (
	"reflect"
	"strings"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <button>, etc.
	KindText                // Plain text node
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Node is a single document node. Element nodes carry a tag, attributes,
// children, and event listeners; text nodes carry only text.
type Node struct {
	Kind     Kind
	Tag      string
	Attrs    map[string]string
	Parent   *Node
	Children []*Node
	Text     string

	nextHandlerID uint64
	handlers      map[string][]handlerEntry
}

// NewElement creates an element node.
func NewElement(tag string) *Node {
	return &Node{
		Kind:  KindElement,
		Tag:   strings.ToLower(tag),
		Attrs: make(map[string]string),
	}
}

// NewText creates a text node.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// SetAttr sets an attribute on an element node.
func (n *Node) SetAttr(key, value string) {
	if n.Kind != KindElement {
		return
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// RemoveAttr removes an attribute.
func (n *Node) RemoveAttr(key string) {
	delete(n.Attrs, key)
}

// AppendChild adds a child node, reparenting it.
func (n *Node) AppendChild(child *Node) {
	if child == nil {
		return
	}
	child.Detach()
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Detach removes the node from its parent, if any.
func (n *Node) Detach() {
	p := n.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// ReplaceWith swaps this node for the replacement in the parent's child list,
// preserving position. A detached node is a no-op.
func (n *Node) ReplaceWith(replacement *Node) {
	p := n.Parent
	if p == nil || replacement == nil {
		return
	}
	replacement.Detach()
	for i, c := range p.Children {
		if c == n {
			p.Children[i] = replacement
			replacement.Parent = p
			n.Parent = nil
			return
		}
	}
}

// QueryAttr returns the first node in the subtree (depth-first, including
// the node itself) carrying the given attribute value, or nil.
func (n *Node) QueryAttr(key, value string) *Node {
	if n.Kind == KindElement {
		if v, ok := n.Attrs[key]; ok && v == value {
			return n
		}
	}
	for _, c := range n.Children {
		if found := c.QueryAttr(key, value); found != nil {
			return found
		}
	}
	return nil
}

// QueryTag returns the first element in the subtree with the given tag.
func (n *Node) QueryTag(tag string) *Node {
	tag = strings.ToLower(tag)
	if n.Kind == KindElement && n.Tag == tag {
		return n
	}
	for _, c := range n.Children {
		if found := c.QueryTag(tag); found != nil {
			return found
		}
	}
	return nil
}

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.collectText(&sb)
	return sb.String()
}

func (n *Node) collectText(sb *strings.Builder) {
	if n.Kind == KindText {
		sb.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.collectText(sb)
	}
}

// Handler is an event listener attached to an element node.
type Handler func(*Event)

// Event is a dispatched document event. It bubbles from the target to the
// root unless StopPropagation is called.
type Event struct {
	Type   string
	Target *Node

	stopped          bool
	defaultPrevented bool
}

// StopPropagation stops the event from bubbling further.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// PreventDefault marks the event's default action as cancelled.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// handlerEntry pairs a handler with the id of its registration. The id is
// what the detach function returned by AddEventListener matches on, so two
// closures built from the same function literal stay distinct.
type handlerEntry struct {
	id uint64
	h  Handler
}

// AddEventListener registers a listener for the event type on this node and
// returns a detach function that removes exactly this registration. Calling
// detach more than once is a no-op. A nil handler or a non-element node
// returns a detach that does nothing.
func (n *Node) AddEventListener(typ string, h Handler) func() {
	if n.Kind != KindElement || h == nil {
		return func() {}
	}
	if n.handlers == nil {
		n.handlers = make(map[string][]handlerEntry)
	}
	n.nextHandlerID++
	id := n.nextHandlerID
	n.handlers[typ] = append(n.handlers[typ], handlerEntry{id: id, h: h})
	return func() { n.removeHandler(typ, id) }
}

func (n *Node) removeHandler(typ string, id uint64) {
	current := n.handlers[typ]
	for i, e := range current {
		if e.id == id {
			n.handlers[typ] = append(current[:i], current[i+1:]...)
			return
		}
	}
}

// RemoveEventListener removes the first listener for the event type whose
// function pointer matches h. Distinct closures created from the same
// function literal share a pointer; callers holding several such closures
// should detach through the function returned by AddEventListener instead.
// Unknown listeners are a no-op.
func (n *Node) RemoveEventListener(typ string, h Handler) {
	if n.handlers == nil || h == nil {
		return
	}
	target := reflect.ValueOf(h).Pointer()
	current := n.handlers[typ]
	for i, e := range current {
		if reflect.ValueOf(e.h).Pointer() == target {
			n.handlers[typ] = append(current[:i], current[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of listeners for the event type.
func (n *Node) ListenerCount(typ string) int {
	return len(n.handlers[typ])
}

// Dispatch delivers the event to this node and bubbles it up through the
// parent chain. The node becomes the target when none is set.
func (n *Node) Dispatch(e *Event) {
	if e.Target == nil {
		e.Target = n
	}
	for cur := n; cur != nil; cur = cur.Parent {
		for _, entry := range cur.handlers[e.Type] {
			entry.h(e)
			if e.stopped {
				return
			}
		}
	}
}
