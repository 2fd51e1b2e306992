package engine

import (
	"slices"

	"github.com/shamburg82/J-VIBE/internal/extract"
)

const (
	patternWeight   = 0.5
	structureWeight = 0.3
	domainWeight    = 0.2

	judgeTrusted   = 0.7
	judgeTitleOnly = 0.9
	judgeBlend     = 0.3
)

// Combine merges the per-signal confidences into one overall confidence. A
// judgment only contributes when its own confidence exceeds 0.7.
func Combine(pattern, structure, domain float64, j *extract.Judgment) float64 {
	overall := patternWeight*pattern + structureWeight*structure + domainWeight*domain
	if j != nil && j.Confidence > judgeTrusted {
		overall = (1-judgeBlend)*overall + judgeBlend*clamp01(j.Confidence)
	}
	return clamp01(overall)
}

// applyJudgment lets a trusted judgment override the detected fields. The
// judge's title only replaces a detected one when it is very confident.
func applyJudgment(rec *Record, j *extract.Judgment) {
	if j == nil || j.Confidence <= judgeTrusted {
		return
	}
	if j.OutputType != "" {
		rec.TLFType = j.OutputType
	}
	if j.OutputNumber != "" {
		rec.OutputNumber = j.OutputNumber
	}
	if j.ClinicalDomain != "" {
		rec.ClinicalDomain = j.ClinicalDomain
	}
	if j.Population != "" {
		rec.Population = j.Population
	}
	if len(j.TreatmentGroups) > 0 {
		rec.TreatmentGroups = slices.Clone(j.TreatmentGroups)
	}
	if j.Title != "" && (rec.Title == "" || j.Confidence > judgeTitleOnly) {
		rec.Title = j.Title
		rec.TitleSource = TitleFromJudge
	}
	rec.DetectionMethod = methodJudge
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
