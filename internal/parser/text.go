package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// TextParser handles plain text files. Form feeds split pages, as in SAS
// listing output; without them each blank-line separated block is a node.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	paged := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "\f") {
			paged = true
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if paged {
		for i, page := range strings.Split(strings.Join(lines, "\n"), "\f") {
			b := newSectionBuilder()
			for _, l := range strings.Split(page, "\n") {
				b.line(l)
			}
			b.flush()
			if b.root.Text != "" {
				tree.Children = append(tree.Children, &doctree.DocNode{Text: b.root.Text, Page: i + 1})
			}
		}
		return tree, nil
	}

	var current []string
	emit := func() {
		if len(current) > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: strings.Join(current, "\n")})
			current = nil
		}
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		current = append(current, line)
	}
	emit()
	return tree, nil
}
