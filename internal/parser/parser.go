package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// cellSep separates table cells on a line. Two spaces survive whitespace
// collapsing in most viewers and match how TLF text exports look.
const cellSep = "  "

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tune parser behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func baseTitle(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// sectionBuilder nests nodes under headings by level and collects the lines
// between headings as the text of the innermost open section.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []openSection
	lines []string
}

type openSection struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder() *sectionBuilder {
	root := &doctree.DocNode{}
	return &sectionBuilder{root: root, stack: []openSection{{node: root}}}
}

func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	n := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, openSection{node: n, level: level})
}

// line adds one line of text. Blank lines are dropped.
func (b *sectionBuilder) line(s string) {
	s = strings.TrimRight(s, " \t\r")
	if strings.TrimSpace(s) != "" {
		b.lines = append(b.lines, s)
	}
}

// row adds a table row as a single line.
func (b *sectionBuilder) row(cells []string) {
	for i := range cells {
		cells[i] = strings.Join(strings.Fields(cells[i]), " ")
	}
	b.line(strings.TrimSpace(strings.Join(cells, cellSep)))
}

func (b *sectionBuilder) flush() {
	if len(b.lines) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1].node
	text := strings.Join(b.lines, "\n")
	if top.Text != "" {
		top.Text += "\n" + text
	} else {
		top.Text = text
	}
	b.lines = nil
}

// tree finishes the document. Text before the first heading becomes a
// leading untitled node.
func (b *sectionBuilder) tree(title string) *doctree.DocTree {
	b.flush()
	t := &doctree.DocTree{Title: title}
	if b.root.Text != "" {
		t.Children = append(t.Children, &doctree.DocNode{Text: b.root.Text})
	}
	t.Children = append(t.Children, b.root.Children...)
	return t
}
