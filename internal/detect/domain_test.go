package detect

import (
	"math"
	"testing"
)

func TestDomain_GenericLaboratoryIsDropped(t *testing.T) {
	d := New(nil)
	sig := d.Domain("The laboratory schedule is described in section 3 of this document.", "")
	if _, ok := sig.All["laboratory"]; ok {
		t.Errorf("generic laboratory mention should be discounted away, got %+v", sig.All["laboratory"])
	}
	if sig.Primary != "" {
		t.Errorf("expected no primary domain, got %q", sig.Primary)
	}
}

func TestDomain_SpecificLaboratoryIsBoosted(t *testing.T) {
	d := New(nil)
	sig := d.Domain("Laboratory results: hematology and chemistry panels", "")
	lab, ok := sig.All["laboratory"]
	if !ok {
		t.Fatalf("expected laboratory domain, got %+v", sig.All)
	}
	if lab.Multiplier != 1.2 {
		t.Errorf("expected 1.2 boost, got %v", lab.Multiplier)
	}
	if math.Abs(lab.Confidence-0.78) > 1e-9 {
		t.Errorf("expected confidence 0.78, got %v", lab.Confidence)
	}
	if sig.Primary != "laboratory" {
		t.Errorf("expected laboratory primary, got %q", sig.Primary)
	}
}

func TestDomain_AdverseEvents(t *testing.T) {
	d := New(nil)
	sig := d.Domain(aeHeader, "Summary of Adverse Events")
	ae, ok := sig.All["adverse_events"]
	if !ok {
		t.Fatalf("expected adverse_events, got %+v", sig.All)
	}
	if sig.Primary != "adverse_events" {
		t.Errorf("expected adverse_events primary, got %q", sig.Primary)
	}
	// One keyword, matched once in each pass.
	if ae.Score != 2 || ae.UniqueMatches != 1 {
		t.Errorf("unexpected merged score %+v", ae)
	}
	if math.Abs(ae.Confidence-0.32) > 1e-9 {
		t.Errorf("expected confidence 0.32, got %v", ae.Confidence)
	}
}

func TestDomain_LooseCatchesSubstrings(t *testing.T) {
	d := New(nil)
	sig := d.Domain("biochemistry and haematology values, creatinine clearance and hemoglobin levels by visit", "")
	lab, ok := sig.All["laboratory"]
	if !ok {
		t.Fatalf("expected laboratory domain, got %+v", sig.All)
	}
	found := false
	for _, kw := range lab.MatchedKeywords {
		if kw == "chemistry" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected loose pass to contribute 'chemistry', got %v", lab.MatchedKeywords)
	}
}

func TestDomain_ShortTextPenalty(t *testing.T) {
	d := New(nil)
	sig := d.Domain("serious adverse event toxicity teae sae soc", "")
	ae, ok := sig.All["adverse_events"]
	if !ok {
		t.Fatalf("expected adverse_events, got %+v", sig.All)
	}
	if math.Abs(ae.Multiplier-0.6) > 1e-9 {
		t.Errorf("expected short-text multiplier 0.6, got %v", ae.Multiplier)
	}
}

func TestDomainConfidence(t *testing.T) {
	tests := []struct {
		domain string
		unique int
		score  float64
		want   float64
	}{
		{"efficacy", 1, 1, 0.32},
		{"efficacy", 2, 3, 0.6},
		{"efficacy", 3, 5, 0.75},
		{"efficacy", 5, 10, 0.9},
		{"efficacy", 6, 15, 1.0},
		{"adverse_events", 3, 3, 0.75},
		{"demographics", 5, 15, 1.0},
		{"efficacy", 0, 0, 0},
	}
	for _, tc := range tests {
		got := domainConfidence(tc.domain, tc.unique, tc.score)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("domainConfidence(%s, %d, %v) = %v, want %v", tc.domain, tc.unique, tc.score, got, tc.want)
		}
	}
}

func TestDomain_TieBreakUsesTaxonomyOrder(t *testing.T) {
	d := New(nil)
	// vital_signs and ecg each get one keyword once.
	sig := d.Domain("pulse measured; qtc reviewed", "")
	if sig.Primary != "vital_signs" {
		t.Errorf("expected earlier-declared vital_signs on a tie, got %q (%+v)", sig.Primary, sig.All)
	}
}
