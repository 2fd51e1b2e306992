package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

// ErrNoJudgment is returned when a response carries none of the expected keys.
var ErrNoJudgment = errors.New("judge response has no recognised fields")

// Judgment is the external judge's opinion of a chunk. Empty strings mean
// the judge answered "unknown".
type Judgment struct {
	OutputType      string   `json:"tlf_type,omitempty"`
	OutputNumber    string   `json:"output_number,omitempty"`
	Title           string   `json:"title,omitempty"`
	ClinicalDomain  string   `json:"clinical_domain,omitempty"`
	Population      string   `json:"population,omitempty"`
	TreatmentGroups []string `json:"treatment_groups,omitempty"`
	Confidence      float64  `json:"confidence"`
}

// Completer sends a prompt to a language model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Judge asks a language model to classify uncertain chunks.
type Judge struct {
	completer Completer
	tax       *taxonomy.Taxonomy
}

func NewJudge(c Completer, tax *taxonomy.Taxonomy) *Judge {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	return &Judge{completer: c, tax: tax}
}

// Judge classifies one chunk of text. Transport errors are returned as-is so
// callers can decide whether to retry; a reply that cannot be parsed yields
// ErrNoJudgment.
func (j *Judge) Judge(ctx context.Context, text string) (*Judgment, error) {
	resp, err := j.completer.Complete(ctx, BuildJudgePrompt(j.tax, text))
	if err != nil {
		return nil, err
	}
	jd, err := ParseJudgment(resp)
	if err != nil {
		return nil, fmt.Errorf("parse judgment: %w (raw: %s)", err, truncate(resp, 200))
	}
	Normalize(jd, j.tax)
	return jd, nil
}

// Keys only count at the start of a line, so a value that mentions another
// key ("TITLE: Population: Safety ...") does not fill it.
var judgmentFields = []struct {
	key string
	re  *regexp.Regexp
}{
	{"OUTPUT_TYPE", judgmentKey("OUTPUT_TYPE", `[^\n]+`)},
	{"OUTPUT_NUMBER", judgmentKey("OUTPUT_NUMBER", `[^\n]+`)},
	{"TITLE", judgmentKey("TITLE", `[^\n]+`)},
	{"CLINICAL_DOMAIN", judgmentKey("CLINICAL_DOMAIN", `[^\n]+`)},
	{"POPULATION", judgmentKey("POPULATION", `[^\n]+`)},
	{"TREATMENT_GROUPS", judgmentKey("TREATMENT_GROUPS", `[^\n]+`)},
	{"CONFIDENCE", judgmentKey("CONFIDENCE", `[0-9.]+`)},
}

func judgmentKey(key, value string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t]*` + key + `:[ \t]*(` + value + `)`)
}

// ParseJudgment reads the KEY: value reply format. The literal value
// "unknown" (any case) is treated as absent. Values are returned as written;
// see Normalize.
func ParseJudgment(resp string) (*Judgment, error) {
	resp = stripCodeBlock(resp)
	j := &Judgment{}
	found := 0
	for _, f := range judgmentFields {
		m := f.re.FindStringSubmatch(resp)
		if m == nil {
			continue
		}
		found++
		v := strings.TrimSpace(m[1])
		if f.key == "TREATMENT_GROUPS" {
			for _, g := range strings.Split(v, ";") {
				if g = strings.TrimSpace(g); g != "" && !isUnknown(g) {
					j.TreatmentGroups = append(j.TreatmentGroups, g)
				}
			}
			continue
		}
		if f.key == "CONFIDENCE" {
			if c, err := strconv.ParseFloat(v, 64); err == nil {
				j.Confidence = c
			}
			continue
		}
		if isUnknown(v) {
			continue
		}
		switch f.key {
		case "OUTPUT_TYPE":
			j.OutputType = v
		case "OUTPUT_NUMBER":
			j.OutputNumber = v
		case "TITLE":
			j.Title = v
		case "CLINICAL_DOMAIN":
			j.ClinicalDomain = v
		case "POPULATION":
			j.Population = v
		}
	}
	if found == 0 {
		return nil, ErrNoJudgment
	}
	return j, nil
}

func isUnknown(v string) bool {
	return strings.EqualFold(strings.Trim(v, `"'[] `), "unknown")
}
