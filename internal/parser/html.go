package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// HTMLParser handles HTML files, including SAS ODS HTML output where titles,
// column headers and rows all live in tables. Each table row becomes a line.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := baseTitle(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	b := newSectionBuilder()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.line(collapse(n.Data))
			return
		case html.ElementNode:
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					b.heading(level, t)
				}
				return
			}
			switch n.Data {
			case "script", "style", "nav", "noscript", "head":
				return
			case "tr":
				b.row(rowCells(n))
				return
			case "p", "li", "caption", "blockquote", "dt", "dd":
				b.line(textContent(n))
				return
			case "div", "span", "center", "font":
				if !hasBlock(n) {
					b.line(textContent(n))
					return
				}
			case "pre":
				for _, l := range strings.Split(rawText(n), "\n") {
					b.line(l)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return b.tree(title), nil
}

var blockTags = map[string]bool{
	"div": true, "p": true, "table": true, "tr": true, "ul": true, "ol": true,
	"li": true, "pre": true, "blockquote": true, "caption": true, "dl": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func hasBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (blockTags[c.Data] || hasBlock(c)) {
			return true
		}
	}
	return false
}

// rowCells returns the text of each th/td directly in a row.
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, textContent(c))
		}
	}
	return cells
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent returns the node's text with whitespace collapsed.
func textContent(n *html.Node) string {
	return collapse(rawText(n))
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return textContent(t)
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := findElement(c, tag); e != nil {
			return e
		}
	}
	return nil
}
