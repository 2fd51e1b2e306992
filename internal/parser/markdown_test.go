package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Section 14

Intro text.

## Table 14.1.1

Demographics
(Full Analysis Set)

### Notes

Source: ADSL

## Table 14.1.2

Disposition.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "tlfs.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "tlfs" {
		t.Errorf("expected title %q, got %q", "tlfs", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Section 14" || h1.Text != "Intro text." {
		t.Errorf("unexpected h1 %q / %q", h1.Title, h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}

	t1 := h1.Children[0]
	if t1.Title != "Table 14.1.1" {
		t.Errorf("unexpected h2 title %q", t1.Title)
	}
	if t1.Text != "Demographics\n(Full Analysis Set)" {
		t.Errorf("soft line breaks must be kept, got %q", t1.Text)
	}
	if len(t1.Children) != 1 || t1.Children[0].Text != "Source: ADSL" {
		t.Errorf("unexpected h3 %+v", t1.Children)
	}
	if h1.Children[1].Text != "Disposition." {
		t.Errorf("unexpected second h2 text %q", h1.Children[1].Text)
	}
}

func TestMarkdownParser_TableRowsBecomeLines(t *testing.T) {
	input := `## Table 14.3.1

| Preferred Term | Placebo | Drug X 10 mg |
|---|---|---|
| Headache | 3 (5.0%) | 8 (13.3%) |
| Nausea   | 1 (1.7%) | 4 (6.7%)  |
`
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "ae.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree.Children))
	}
	want := "Preferred Term  Placebo  Drug X 10 mg\n" +
		"Headache  3 (5.0%)  8 (13.3%)\n" +
		"Nausea  1 (1.7%)  4 (6.7%)"
	if got := tree.Children[0].Text; got != want {
		t.Errorf("table text:\n got %q\nwant %q", got, want)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := "Listing 16.2.1\nSubject Disposition\n\nSource: ADDS"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected a single untitled node, got %d", len(tree.Children))
	}
	if got := tree.Children[0].Text; got != "Listing 16.2.1\nSubject Disposition\nSource: ADDS" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestMarkdownParser_CodeBlockLines(t *testing.T) {
	input := "# Output\n\n```\nTable 14.2.1\n  Age  45.1\n```\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "out.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tree.Children[0].Text; got != "Table 14.2.1\n  Age  45.1" {
		t.Errorf("code block lines not preserved: %q", got)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Children))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"notes.md", "notes"},
		{"README.markdown", "README"},
		{"dir/tlf.md", "tlf"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			tree, err := (&MarkdownParser{}).Parse(strings.NewReader("hello"), tt.filename)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tree.Title != tt.want {
				t.Errorf("expected title %q, got %q", tt.want, tree.Title)
			}
		})
	}
}
