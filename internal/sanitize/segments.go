package sanitize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Segment is one styled run of a sanitized fragment, for surfaces that cannot
// render markup themselves.
type Segment struct {
	Text   string
	Bold   bool
	Italic bool
	Icon   bool
	Break  bool
}

// Segments sanitizes fragment and splits it into styled runs.
func Segments(fragment string) []Segment {
	nodes, err := parseFragment(HTML(fragment))
	if err != nil {
		return []Segment{{Text: fragment}}
	}
	var out []Segment
	for _, n := range nodes {
		out = appendSegments(out, n, Segment{})
	}
	return out
}

// Text is the plain-text form of a fragment; line breaks become newlines.
func Text(fragment string) string {
	var b strings.Builder
	for _, s := range Segments(fragment) {
		if s.Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func appendSegments(out []Segment, n *html.Node, style Segment) []Segment {
	switch n.Type {
	case html.TextNode:
		s := style
		s.Text = n.Data
		return append(out, s)
	case html.ElementNode:
		switch {
		case n.DataAtom == atom.Br:
			return append(out, Segment{Break: true})
		case isIcon(n):
			return append(out, Segment{Text: textContent(n), Icon: true})
		case n.DataAtom == atom.B || n.DataAtom == atom.Strong:
			style.Bold = true
		case n.DataAtom == atom.I || n.DataAtom == atom.Em:
			style.Italic = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			out = appendSegments(out, c, style)
		}
	}
	return out
}
