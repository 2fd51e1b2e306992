package extract

import (
	"reflect"
	"testing"

	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

func TestNormalize_ClampsConfidence(t *testing.T) {
	tax := taxonomy.MustDefault()
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{7.5, 1},
	}
	for _, tc := range tests {
		j := &Judgment{Confidence: tc.in}
		Normalize(j, tax)
		if j.Confidence != tc.want {
			t.Errorf("Normalize(confidence=%v) = %v, want %v", tc.in, j.Confidence, tc.want)
		}
	}
}

func TestNormalize_MapsVocabulary(t *testing.T) {
	tax := taxonomy.MustDefault()
	j := &Judgment{
		OutputType:      "Tables",
		OutputNumber:    "T-14.3.1",
		Title:           "  Summary of Adverse Events ",
		ClinicalDomain:  "Adverse Events",
		Population:      "Safety Analysis Set",
		TreatmentGroups: []string{"Placebo", "Drug X 10 mg", "placebo", "  "},
		Confidence:      0.9,
	}
	Normalize(j, tax)

	if j.OutputType != "table" {
		t.Errorf("expected table, got %q", j.OutputType)
	}
	if j.OutputNumber != "14.3.1" {
		t.Errorf("expected 14.3.1, got %q", j.OutputNumber)
	}
	if j.Title != "Summary of Adverse Events" {
		t.Errorf("expected trimmed title, got %q", j.Title)
	}
	if j.ClinicalDomain != "adverse_events" {
		t.Errorf("expected adverse_events, got %q", j.ClinicalDomain)
	}
	if j.Population != "Safety" {
		t.Errorf("expected Safety, got %q", j.Population)
	}
	want := []string{"drug x 10 mg", "placebo"}
	if !reflect.DeepEqual(j.TreatmentGroups, want) {
		t.Errorf("expected %v, got %v", want, j.TreatmentGroups)
	}
}

func TestNormalize_DropsUnknownVocabulary(t *testing.T) {
	tax := taxonomy.MustDefault()
	j := &Judgment{OutputType: "Appendix", ClinicalDomain: "oncology", OutputNumber: "n/a"}
	Normalize(j, tax)
	if j.OutputType != "" || j.ClinicalDomain != "" || j.OutputNumber != "" {
		t.Errorf("expected unmapped fields to be cleared, got %+v", j)
	}
}

func TestNormalize_Nil(t *testing.T) {
	Normalize(nil, taxonomy.MustDefault())
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Adverse Events", "adverse_events"},
		{"vital-signs", "vital_signs"},
		{"  ECG ", "ecg"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
