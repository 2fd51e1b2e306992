package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestCSVParser_RowsBecomeLines(t *testing.T) {
	input := "USUBJID,AGE,SEX\nABC-001,45,F\nABC-002, 51 ,M\n"
	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "adsl.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "adsl" || len(tree.Children) != 1 {
		t.Fatalf("unexpected tree %q with %d children", tree.Title, len(tree.Children))
	}
	want := "USUBJID  AGE  SEX\nABC-001  45  F\nABC-002  51  M"
	if got := tree.Children[0].Text; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCSVParser_BatchesRepeatHeader(t *testing.T) {
	var b strings.Builder
	b.WriteString("ID,TERM\n")
	for i := range 90 {
		fmt.Fprintf(&b, "%d,Headache\n", i)
	}
	tree, err := (&CSVParser{}).Parse(strings.NewReader(b.String()), "ae.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(tree.Children))
	}
	for i, n := range tree.Children {
		if !strings.HasPrefix(n.Text, "ID  TERM\n") {
			t.Errorf("batch %d missing header: %q", i, n.Text[:20])
		}
	}
	if got := strings.Count(tree.Children[2].Text, "\n"); got != 10 {
		t.Errorf("expected 10 rows in the last batch, got %d", got)
	}
}

func TestCSVParser_Empty(t *testing.T) {
	tree, err := (&CSVParser{}).Parse(strings.NewReader(""), "none.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Children))
	}
}
