package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// csvBatchRows bounds how many data rows share a node.
const csvBatchRows = 40

// CSVParser handles listings exported as CSV. The header row is repeated at
// the top of every batch so each node reads like a listing page.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	header := records[0]
	data := records[1:]
	for i := 0; i < len(data) || i == 0; i += csvBatchRows {
		b := newSectionBuilder()
		b.row(append([]string(nil), header...))
		for _, row := range data[i:min(i+csvBatchRows, len(data))] {
			b.row(row)
		}
		b.flush()
		tree.Children = append(tree.Children, &doctree.DocNode{Text: b.root.Text})
	}
	return tree, nil
}
