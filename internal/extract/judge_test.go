package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

const sampleReply = `OUTPUT_TYPE: Table
OUTPUT_NUMBER: 14.3.1
TITLE: Summary of Adverse Events
CLINICAL_DOMAIN: adverse_events
POPULATION: Safety
TREATMENT_GROUPS: Placebo; Drug X 10 mg; unknown
CONFIDENCE: 0.85`

func TestParseJudgment_AllFields(t *testing.T) {
	j, err := ParseJudgment(sampleReply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.OutputType != "Table" || j.OutputNumber != "14.3.1" {
		t.Errorf("unexpected type/number %q %q", j.OutputType, j.OutputNumber)
	}
	if j.Title != "Summary of Adverse Events" {
		t.Errorf("unexpected title %q", j.Title)
	}
	if j.ClinicalDomain != "adverse_events" || j.Population != "Safety" {
		t.Errorf("unexpected domain/population %q %q", j.ClinicalDomain, j.Population)
	}
	if len(j.TreatmentGroups) != 2 {
		t.Errorf("expected unknown group to be dropped, got %v", j.TreatmentGroups)
	}
	if j.Confidence != 0.85 {
		t.Errorf("expected 0.85, got %v", j.Confidence)
	}
}

func TestParseJudgment_UnknownIsAbsent(t *testing.T) {
	reply := "OUTPUT_TYPE: Listing\nOUTPUT_NUMBER: unknown\nTITLE: UNKNOWN\nPOPULATION: \"unknown\"\nCONFIDENCE: 0.4"
	j, err := ParseJudgment(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.OutputNumber != "" || j.Title != "" || j.Population != "" {
		t.Errorf("expected unknown values to be empty, got %+v", j)
	}
	if j.OutputType != "Listing" {
		t.Errorf("expected Listing, got %q", j.OutputType)
	}
}

func TestParseJudgment_CodeFenceAndCase(t *testing.T) {
	reply := "```\noutput_type: figure\nconfidence: 0.7\n```"
	j, err := ParseJudgment(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.OutputType != "figure" || j.Confidence != 0.7 {
		t.Errorf("unexpected judgment %+v", j)
	}
}

func TestParseJudgment_KeysAnchoredToLineStart(t *testing.T) {
	reply := "OUTPUT_TYPE: Table\n" +
		"TITLE: Baseline Characteristics by Population: All Randomized\n" +
		"  POPULATION: Full Analysis Set\n" +
		"CONFIDENCE: 0.9"
	j, err := ParseJudgment(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.Title != "Baseline Characteristics by Population: All Randomized" {
		t.Errorf("unexpected title %q", j.Title)
	}
	if j.Population != "Full Analysis Set" {
		t.Errorf("expected the population line to win, got %q", j.Population)
	}

	j, err = ParseJudgment("TITLE: Exposure by Population: Safety\nCONFIDENCE: 0.8")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.Population != "" {
		t.Errorf("population inside a title must not be read as a key, got %q", j.Population)
	}
}

func TestParseJudgment_Malformed(t *testing.T) {
	for _, reply := range []string{"", "I cannot classify this.", "{\"type\": \"table\"}"} {
		if _, err := ParseJudgment(reply); !errors.Is(err, ErrNoJudgment) {
			t.Errorf("ParseJudgment(%q): expected ErrNoJudgment, got %v", reply, err)
		}
	}
}

func TestParseJudgment_BadConfidenceIsZero(t *testing.T) {
	j, err := ParseJudgment("OUTPUT_TYPE: Table\nCONFIDENCE: 0.8.1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if j.Confidence != 0 {
		t.Errorf("expected unparseable confidence to be 0, got %v", j.Confidence)
	}
}

func TestJudge_EndToEnd(t *testing.T) {
	var gotPrompt string
	c := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return sampleReply, nil
	})
	j := NewJudge(c, taxonomy.MustDefault())

	jd, err := j.Judge(context.Background(), strings.Repeat("x", 4000))
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if jd.OutputType != "table" || jd.Population != "Safety" {
		t.Errorf("expected normalised judgment, got %+v", jd)
	}
	if strings.Count(gotPrompt, "x") > maxPromptText+10 {
		t.Errorf("prompt text should be truncated to %d chars", maxPromptText)
	}
	if !strings.Contains(gotPrompt, "pharmacokinetics") {
		t.Error("prompt should list taxonomy domains")
	}
}

func TestJudge_Errors(t *testing.T) {
	transport := &RetryableError{StatusCode: 503, Message: "overloaded"}
	j := NewJudge(CompleterFunc(func(context.Context, string) (string, error) {
		return "", transport
	}), nil)
	if _, err := j.Judge(context.Background(), "text"); !errors.Is(err, transport) {
		t.Errorf("expected transport error to pass through, got %v", err)
	}

	j = NewJudge(CompleterFunc(func(context.Context, string) (string, error) {
		return "no idea", nil
	}), nil)
	if _, err := j.Judge(context.Background(), "text"); !errors.Is(err, ErrNoJudgment) {
		t.Errorf("expected ErrNoJudgment, got %v", err)
	}
}
