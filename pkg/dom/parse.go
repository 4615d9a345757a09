package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup into a list of top-level nodes, as if the
// markup appeared inside a <div>. Comments and other non-content nodes are
// dropped.
func ParseFragment(markup string) ([]*Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}

	parsed, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}

	var nodes []*Node
	for _, hn := range parsed {
		if n := convert(hn); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// ParseElement parses markup and returns its first element node.
// Leading whitespace-only text is skipped; nil is returned when the markup
// contains no element.
func ParseElement(markup string) (*Node, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Kind == KindElement {
			return n, nil
		}
		if n.Kind == KindText && strings.TrimSpace(n.Text) != "" {
			break
		}
	}
	return nil, nil
}

func convert(hn *html.Node) *Node {
	switch hn.Type {
	case html.TextNode:
		return NewText(hn.Data)

	case html.ElementNode:
		n := NewElement(hn.Data)
		for _, a := range hn.Attr {
			n.Attrs[a.Key] = a.Val
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				n.AppendChild(child)
			}
		}
		return n

	default:
		// Comments, doctypes, and document wrappers carry no content here.
		return nil
	}
}
