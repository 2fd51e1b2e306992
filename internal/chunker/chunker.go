package chunker

import (
	"strings"

	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Trailing tokens repeated at the start of the next chunk.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    512,
		ChunkOverlap: 50,
	}
}

// ChunkTree walks a DocTree in document order and splits node text on line
// boundaries. Section titles are kept as the first line of the text that
// follows them, so headings stay visible to the line-based detectors.
// Chunks never span two nodes, which keeps PDF pages apart.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 512
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}

	w := &walker{cfg: cfg}
	for _, child := range tree.Children {
		w.walk(child)
	}
	return w.chunks
}

type walker struct {
	cfg     Config
	pending []string // titles not yet emitted
	chunks  []doctree.Chunk
}

func (w *walker) walk(node *doctree.DocNode) {
	if node.Title != "" {
		w.pending = append(w.pending, node.Title)
	}
	if strings.TrimSpace(node.Text) != "" {
		lines := append(w.pending, splitLines(node.Text)...)
		w.pending = nil
		for _, part := range splitText(lines, w.cfg.ChunkSize, w.cfg.ChunkOverlap) {
			w.chunks = append(w.chunks, doctree.Chunk{
				Index:     len(w.chunks),
				Text:      part,
				PageStart: node.Page,
				PageEnd:   node.Page,
			})
		}
	}
	for _, child := range node.Children {
		w.walk(child)
	}
}

// splitLines returns the non-blank lines of text with trailing space removed.
func splitLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// splitText packs lines into chunks of about targetTokens. Each new chunk
// starts with the trailing lines of the previous one, up to overlapTokens.
func splitText(lines []string, targetTokens, overlapTokens int) []string {
	var result []string
	var current []string
	currentTokens := 0
	fresh := 0 // lines in current that were not carried over

	flush := func() {
		if fresh == 0 {
			return
		}
		result = append(result, strings.Join(current, "\n"))
		current = overlapLines(current, overlapTokens)
		currentTokens = EstimateTokens(strings.Join(current, " "))
		fresh = 0
	}

	for _, line := range lines {
		for _, piece := range splitLongLine(line, targetTokens) {
			n := EstimateTokens(piece)
			if currentTokens+n > targetTokens && fresh > 0 {
				flush()
			}
			current = append(current, piece)
			currentTokens += n
			fresh++
		}
	}
	flush()
	return result
}

// overlapLines returns the longest suffix of lines within overlapTokens,
// always leaving at least one line out so chunks make progress.
func overlapLines(lines []string, overlapTokens int) []string {
	if overlapTokens <= 0 {
		return nil
	}
	tokens := 0
	start := len(lines)
	for start > 1 {
		n := EstimateTokens(lines[start-1])
		if tokens+n > overlapTokens {
			break
		}
		tokens += n
		start--
	}
	return append([]string(nil), lines[start:]...)
}

// splitLongLine breaks a line longer than targetTokens into word groups.
func splitLongLine(line string, targetTokens int) []string {
	if EstimateTokens(line) <= targetTokens {
		return []string{line}
	}
	words := strings.Fields(line)
	perPiece := max(1, int(float64(targetTokens)/tokensPerWord))
	var out []string
	for i := 0; i < len(words); i += perPiece {
		out = append(out, strings.Join(words[i:min(i+perPiece, len(words))], " "))
	}
	return out
}
