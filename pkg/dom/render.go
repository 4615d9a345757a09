package dom

import (
	"sort"
	"strings"
)

// Void elements never carry children and render without a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HTML serializes the subtree to markup. Text and attribute values are
// escaped; attributes render in sorted order so output is deterministic.
func (n *Node) HTML() string {
	var sb strings.Builder
	n.writeHTML(&sb)
	return sb.String()
}

func (n *Node) writeHTML(sb *strings.Builder) {
	if n.Kind == KindText {
		sb.WriteString(escapeText(n.Text))
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.Tag)

	if len(n.Attrs) > 0 {
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte(' ')
			sb.WriteString(k)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(n.Attrs[k]))
			sb.WriteByte('"')
		}
	}
	sb.WriteByte('>')

	if voidElements[n.Tag] {
		return
	}

	for _, c := range n.Children {
		c.writeHTML(sb)
	}

	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
