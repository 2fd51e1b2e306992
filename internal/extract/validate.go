package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

var (
	judgeNumberRe = regexp.MustCompile(`\d+(?:\.\d+){0,5}`)
	nonSlugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// Normalize maps a parsed judgment onto the taxonomy's vocabulary in place:
// confidence is clamped to [0,1], the output type must be a known type, the
// domain must be a taxonomy domain, and the population is canonicalised.
// Values that cannot be mapped are cleared rather than rejected.
func Normalize(j *Judgment, tax *taxonomy.Taxonomy) {
	if j == nil {
		return
	}
	switch {
	case j.Confidence < 0:
		j.Confidence = 0
	case j.Confidence > 1:
		j.Confidence = 1
	}

	typ := strings.ToLower(strings.TrimSpace(j.OutputType))
	typ = strings.TrimSuffix(typ, "s")
	if !tax.HasType(typ) {
		typ = ""
	}
	j.OutputType = typ

	j.OutputNumber = judgeNumberRe.FindString(j.OutputNumber)

	dom := Slugify(j.ClinicalDomain)
	if !tax.HasDomain(dom) {
		dom = ""
	}
	j.ClinicalDomain = dom

	j.Population = tax.CanonicalPopulation(j.Population)
	j.Title = strings.TrimSpace(j.Title)

	seen := make(map[string]bool, len(j.TreatmentGroups))
	groups := make([]string, 0, len(j.TreatmentGroups))
	for _, g := range j.TreatmentGroups {
		g = strings.ToLower(strings.Join(strings.Fields(g), " "))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		groups = append(groups, g)
	}
	sort.Strings(groups)
	j.TreatmentGroups = groups
}

// Slugify converts a free-text label to a snake_case identifier.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
