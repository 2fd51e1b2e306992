package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Pages or top-level sections
}

// DocNode is a recursive section in the document tree. Text keeps its line
// breaks: TLF headers are recognised line by line.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Chunk is one ordered text segment of a document, the unit the engine
// classifies.
type Chunk struct {
	Index     int    `json:"sequence_index"`
	Text      string `json:"text"`
	PageStart int    `json:"page_start,omitempty"`
	PageEnd   int    `json:"page_end,omitempty"`
}

// Lines returns the node text and all descendant text, depth first, with
// section titles as their own lines.
func (n *DocNode) Lines() []string {
	var out []string
	if n.Title != "" {
		out = append(out, n.Title)
	}
	if n.Text != "" {
		out = append(out, n.Text)
	}
	for _, c := range n.Children {
		out = append(out, c.Lines()...)
	}
	return out
}
