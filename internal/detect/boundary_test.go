package detect

import "testing"

func TestBoundary_FragmentedHeader(t *testing.T) {
	d := New(nil)
	text := "Page 3 of 10\n" +
		"Protocol ABC-123\n" +
		"Table 14.2.1\n" +
		"Summary of Demographic\n" +
		"and Baseline Characteristics\n" +
		"(Full Analysis Set)\n" +
		"Age (years)  45.2 (10.1)  44.8 (9.7)"

	h := d.Boundary(text)
	if h.TLFType != "table" || h.OutputNumber != "14.2.1" {
		t.Errorf("expected table 14.2.1, got %q %q", h.TLFType, h.OutputNumber)
	}
	if h.Title != "Summary of Demographic and Baseline Characteristics" {
		t.Errorf("unexpected title %q", h.Title)
	}
	if h.Population != "FAS" {
		t.Errorf("expected FAS, got %q", h.Population)
	}
	if h.Confidence != 1.0 {
		t.Errorf("expected capped confidence 1.0, got %v", h.Confidence)
	}
	if h.BoundaryLine != 0 {
		t.Errorf("expected boundary at line 0, got %d", h.BoundaryLine)
	}
	dc := h.DocumentContext
	if dc.CurrentPage != 3 || dc.TotalPages != 10 || dc.Protocol != "ABC-123" {
		t.Errorf("unexpected document context %+v", dc)
	}
	if !h.HasContent {
		t.Error("expected header content flag")
	}
}

func TestBoundary_SameLineTitle(t *testing.T) {
	d := New(nil)
	h := d.Boundary("Table 14.3.2: Serious Adverse Events by System Organ Class\n(Safety Analysis Set)")
	if h.OutputNumber != "14.3.2" {
		t.Errorf("expected 14.3.2, got %q", h.OutputNumber)
	}
	if h.Title != "Serious Adverse Events by System Organ Class" {
		t.Errorf("unexpected title %q", h.Title)
	}
	if h.Population != "Safety" {
		t.Errorf("expected Safety, got %q", h.Population)
	}
	if h.Confidence != 1.0 {
		t.Errorf("expected 1.0, got %v", h.Confidence)
	}
}

func TestBoundary_AbbreviatedNumber(t *testing.T) {
	d := New(nil)
	h := d.Boundary("T-14.1.1\nSubject Disposition Summary\n(ITT Population)")
	if h.TLFType != "table" || h.OutputNumber != "14.1.1" {
		t.Errorf("expected table 14.1.1, got %q %q", h.TLFType, h.OutputNumber)
	}
	if h.Title != "Subject Disposition Summary" || h.Population != "ITT" {
		t.Errorf("unexpected header %+v", h)
	}
}

func TestBoundary_DocumentContextFromFooter(t *testing.T) {
	d := New(nil)
	text := "Listing 16.2.1\n" +
		"Subject Data Listing of Deaths\n" +
		"Confidential  Interim Analysis  Data cut-off: 01/03/2024"

	h := d.Boundary(text)
	if h.BoundaryLine != 2 {
		t.Fatalf("expected footer to be a boundary, got line %d", h.BoundaryLine)
	}
	if h.DocumentContext.DataCutoff != "01/03/2024" {
		t.Errorf("unexpected cutoff %q", h.DocumentContext.DataCutoff)
	}
	if h.DocumentContext.DocumentType != "interim analysis" {
		t.Errorf("unexpected document type %q", h.DocumentContext.DocumentType)
	}
	if h.Title != "Subject Data Listing of Deaths" {
		t.Errorf("footer line must not leak into title, got %q", h.Title)
	}
}

func TestBoundary_NoHeader(t *testing.T) {
	d := New(nil)
	tests := []string{
		"",
		"single line only",
		"12 (25.0)  14 (29.2)\n10 (20.8)  9 (18.8)",
	}
	for _, text := range tests {
		h := d.Boundary(text)
		if h.TLFType != "" || h.OutputNumber != "" || h.Title != "" {
			t.Errorf("expected empty header for %q, got %+v", text, h)
		}
		if h.Confidence != 0 {
			t.Errorf("expected zero confidence for %q, got %v", text, h.Confidence)
		}
	}
}

func TestIsBoundary_SponsorName(t *testing.T) {
	d := New(nil)
	tests := []struct {
		line string
		want bool
	}{
		{"zymeworks confidential", true},
		{"chimerix protocol cmx-001", true},
		{"jazz pharmaceuticals", false},
		{"acme labs confidential", false},
		{"page 3 of 12", true},
	}
	for _, tc := range tests {
		if got := d.isBoundary(tc.line); got != tc.want {
			t.Errorf("isBoundary(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
	if !d.isCompanyLine("zymeworks") {
		t.Error("expected a known sponsor to count as a company line")
	}
}

func TestIsTitleFragment(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Summary of Adverse Events", true},
		{"Protocol ABC-123", false},
		{"Acme Pharmaceuticals Inc.", false},
		{"Single", false},
		{"12 (25.0) 13 (27.1)", false},
		{"Headache 12 (25.0)", false},
		{"a b c d e f g h i j k l m n o p", false},
	}
	for _, tc := range tests {
		if got := isTitleFragment(tc.line, normalize(tc.line)); got != tc.want {
			t.Errorf("isTitleFragment(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}
