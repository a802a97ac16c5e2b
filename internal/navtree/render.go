package navtree

import (
	"html"
	"strings"
)

// RenderHTML renders the navigation forest as a nested list, carrying
// the expand and active classes from the session state. Synthetic
// containers render as toggle buttons, never as links.
func RenderHTML(versionID string, s *State) string {
	var b strings.Builder
	b.WriteString(`<ul class="nav">` + "\n")
	for _, n := range s.Roots() {
		renderNode(&b, versionID, s, n)
	}
	b.WriteString("</ul>\n")
	return b.String()
}

func renderNode(b *strings.Builder, versionID string, s *State, n Node) {
	switch node := n.(type) {
	case *PageNode:
		class := "nav-item"
		if s.ActiveID() == node.ID() {
			class += " active"
		}
		if len(node.Children()) > 0 && s.Expanded(node.ID()) {
			class += " expanded"
		}
		b.WriteString(`<li class="` + class + `">`)
		b.WriteString(`<a href="#` + html.EscapeString(versionID+"/"+node.Page.File) + `">`)
		b.WriteString(html.EscapeString(node.Label()))
		b.WriteString(`</a>`)
		renderChildren(b, versionID, s, node)
		b.WriteString("</li>\n")

	case *ContainerNode, *StatusGroupNode:
		class := "nav-group"
		if _, ok := n.(*StatusGroupNode); ok {
			class = "nav-status-group"
		}
		if s.Expanded(n.ID()) {
			class += " expanded"
		}
		b.WriteString(`<li class="` + class + `">`)
		b.WriteString(`<button class="nav-toggle" data-node="` + html.EscapeString(n.ID()) + `">`)
		b.WriteString(html.EscapeString(n.Label()))
		b.WriteString(`</button>`)
		renderChildren(b, versionID, s, n)
		b.WriteString("</li>\n")
	}
}

func renderChildren(b *strings.Builder, versionID string, s *State, n Node) {
	kids := n.Children()
	if len(kids) == 0 {
		return
	}
	b.WriteString("\n<ul>\n")
	for _, c := range kids {
		renderNode(b, versionID, s, c)
	}
	b.WriteString("</ul>\n")
}
