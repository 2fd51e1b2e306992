package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// PDFParser handles PDF files. Each page becomes one node whose lines follow
// the page's text rows, so table headers and data rows stay on their own
// lines. It falls back to pdftotext -layout when enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "tlfmeta-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if (err != nil || blankPages(pages)) && p.FallbackPdftotext {
		if text, ferr := extractPdftotext(tmpPath); ferr == nil {
			pages, err = strings.Split(text, "\f"), nil
		} else if err == nil {
			err = ferr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for i, page := range pages {
		b := newSectionBuilder()
		for _, l := range strings.Split(page, "\n") {
			b.line(l)
		}
		b.flush()
		if b.root.Text == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: b.root.Text, Page: i + 1})
	}
	return tree, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if rows, err := page.GetTextByRow(); err == nil && len(rows) > 0 {
			lines := make([]string, 0, len(rows))
			for _, row := range rows {
				lines = append(lines, rowText(row.Content))
			}
			pages[i-1] = strings.Join(lines, "\n")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

// rowText joins the text runs of one row, inserting a cell separator where
// the horizontal gap is wide and a space where it is a word gap.
func rowText(texts []pdflib.Text) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 {
			gap := t.X - prevEnd
			size := t.FontSize
			if size <= 0 {
				size = 10
			}
			switch {
			case gap > size*1.5:
				b.WriteString(cellSep)
			case gap > size*0.15:
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return b.String()
}

func blankPages(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
