package engine

// DetectedOutput is one committed output in a summary.
type DetectedOutput struct {
	TLFType        string  `json:"tlf_type"`
	OutputNumber   string  `json:"output_number"`
	Title          string  `json:"title,omitempty"`
	ClinicalDomain string  `json:"clinical_domain,omitempty"`
	Population     string  `json:"population,omitempty"`
	Confidence     float64 `json:"confidence"`
	Index          int     `json:"position"`
}

// Summary aggregates what the engine has seen since the last reset.
type Summary struct {
	TotalOutputs       int              `json:"total_tlf_outputs"`
	TypeDistribution   map[string]int   `json:"tlf_type_distribution"`
	DomainDistribution map[string]int   `json:"clinical_domain_distribution"`
	DetectedOutputs    []DetectedOutput `json:"detected_outputs"`
	Transitions        int              `json:"transitions"`
	CurrentContext     *Context         `json:"current_context"`
	CurrentConfidence  float64          `json:"current_confidence"`
	Cache              CacheStats       `json:"header_cache"`
}

func (e *Engine) Summary() Summary {
	s := e.state
	sum := Summary{
		TotalOutputs:       len(s.history),
		TypeDistribution:   make(map[string]int),
		DomainDistribution: make(map[string]int),
		DetectedOutputs:    make([]DetectedOutput, 0, len(s.history)),
		Transitions:        len(s.history),
		CurrentContext:     s.ctx.clone(),
		CurrentConfidence:  s.confidence,
		Cache:              s.cache.Stats(),
	}
	for _, h := range s.history {
		c := h.Context
		sum.TypeDistribution[c.TLFType]++
		if c.ClinicalDomain != "" {
			sum.DomainDistribution[c.ClinicalDomain]++
		}
		sum.DetectedOutputs = append(sum.DetectedOutputs, DetectedOutput{
			TLFType:        c.TLFType,
			OutputNumber:   c.OutputNumber,
			Title:          c.Title,
			ClinicalDomain: c.ClinicalDomain,
			Population:     c.Population,
			Confidence:     h.Confidence,
			Index:          h.Index,
		})
	}
	return sum
}
