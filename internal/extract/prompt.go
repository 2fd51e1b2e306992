package extract

import (
	"fmt"
	"strings"

	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

// maxPromptText caps how much chunk text is sent to the judge.
const maxPromptText = 1500

const judgePromptTemplate = `Analyze this clinical trial output text and identify which Table, Listing or Figure it belongs to.

TEXT: %q

Report:
1. OUTPUT_TYPE: Table, Listing, or Figure
2. OUTPUT_NUMBER: the output identifier (e.g. 14.3.1)
3. TITLE: the descriptive title of the output
4. CLINICAL_DOMAIN: one of %s
5. POPULATION: the analysis population (Safety, ITT, mITT, PP, FAS, PK, etc.)
6. TREATMENT_GROUPS: dose groups or treatments mentioned
7. CONFIDENCE: how confident you are, 0.0 to 1.0

Respond in exactly this format and nothing else:
OUTPUT_TYPE: [Table|Listing|Figure]
OUTPUT_NUMBER: [identifier or "unknown"]
TITLE: [title or "unknown"]
CLINICAL_DOMAIN: [domain or "unknown"]
POPULATION: [population or "unknown"]
TREATMENT_GROUPS: [groups separated by semicolons or "unknown"]
CONFIDENCE: [0.0 to 1.0]`

// BuildJudgePrompt creates the classification prompt for one chunk. The
// domain list is taken from the taxonomy so the judge can only name domains
// the engine understands.
func BuildJudgePrompt(tax *taxonomy.Taxonomy, chunkText string) string {
	names := make([]string, 0, len(tax.Domains))
	for _, d := range tax.Domains {
		names = append(names, d.Name)
	}
	return fmt.Sprintf(judgePromptTemplate, truncateRunes(chunkText, maxPromptText), strings.Join(names, ", "))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
