package sanitize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IconClass identifies the only decorative element allowed in messages.
const IconClass = "status-icon"

// Icon is the decorative element prepended/appended to error messages.
const Icon = `<span class="` + IconClass + `">⚠</span>`

var inlineAllowed = map[atom.Atom]bool{
	atom.Em:     true,
	atom.Strong: true,
	atom.B:      true,
	atom.I:      true,
}

// HTML filters a markup fragment down to line breaks, emphasis and the status
// icon. Other elements are flattened to their text, comments and other node
// types are dropped. Attributes are removed except the icon's class.
func HTML(fragment string) string {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return html.EscapeString(fragment)
	}
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n)
	}
	return b.String()
}

// HasIcon reports whether a sanitized fragment already contains the status icon.
func HasIcon(fragment string) bool {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return false
	}
	for _, n := range nodes {
		if containsIcon(n) {
			return true
		}
	}
	return false
}

func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
	case html.ElementNode:
		switch {
		case n.DataAtom == atom.Br:
			b.WriteString("<br>")
		case inlineAllowed[n.DataAtom]:
			b.WriteString("<" + n.Data + ">")
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				writeNode(b, c)
			}
			b.WriteString("</" + n.Data + ">")
		case isIcon(n):
			b.WriteString(`<span class="` + IconClass + `">`)
			b.WriteString(html.EscapeString(textContent(n)))
			b.WriteString("</span>")
		default:
			b.WriteString(html.EscapeString(textContent(n)))
		}
	}
}

func isIcon(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == IconClass {
					return true
				}
			}
		}
	}
	return false
}

func containsIcon(n *html.Node) bool {
	if isIcon(n) {
		return true
	}
	if n.Type == html.ElementNode && !inlineAllowed[n.DataAtom] {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if containsIcon(c) {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || c.Type == html.ElementNode {
			b.WriteString(textContent(c))
		}
	}
	return b.String()
}
