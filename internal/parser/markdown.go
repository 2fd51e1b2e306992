package parser

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark with GFM tables.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	b := newSectionBuilder()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.heading(h.Level, strings.TrimSpace(inlineText(h, src)))
			continue
		}
		markdownBlock(b, n, src)
	}
	return b.tree(baseTitle(filename)), nil
}

func markdownBlock(b *sectionBuilder, n ast.Node, src []byte) {
	switch node := n.(type) {
	case *east.Table:
		for row := node.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, inlineText(cell, src))
			}
			b.row(cells)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.line(strings.TrimRight(string(seg.Value(src)), "\n"))
		}
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		for _, l := range strings.Split(inlineText(n, src), "\n") {
			b.line(l)
		}
	case *ast.HTMLBlock, *ast.ThematicBreak:
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			markdownBlock(b, c, src)
		}
	}
}

// inlineText concatenates the inline text under n, turning soft and hard
// line breaks into newlines.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return buf.String()
}
