package normalize

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skippedHTMLElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

var blockHTMLElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Ul: true, atom.Ol: true, atom.Table: true, atom.Td: true, atom.Th: true,
}

// extractHTML returns the visible text of an HTML document as one segment,
// with block elements separated by line breaks.
func extractHTML(data []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader([]byte(decodeText(data))))
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	collectHTMLText(doc, &sb)
	return []string{sb.String()}, nil
}

func collectHTMLText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && skippedHTMLElements[n.DataAtom] {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	block := n.Type == html.ElementNode && blockHTMLElements[n.DataAtom]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectHTMLText(c, sb)
	}
	if block {
		sb.WriteByte('\n')
	}
}
