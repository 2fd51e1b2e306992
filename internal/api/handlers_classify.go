package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/shamburg82/J-VIBE/internal/doctree"
	"github.com/shamburg82/J-VIBE/internal/engine"
)

// classifyRequest carries pre-chunked text. Texts is shorthand for chunks
// indexed by position.
type classifyRequest struct {
	Chunks []doctree.Chunk `json:"chunks"`
	Texts  []string        `json:"texts"`
}

// handleClassify runs the engine synchronously over caller-supplied chunks.
// The external judge is not consulted here.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	chunks := req.Chunks
	if len(chunks) == 0 {
		for i, t := range req.Texts {
			chunks = append(chunks, doctree.Chunk{Index: i, Text: t})
		}
	}
	if len(chunks) == 0 {
		jsonError(w, "chunks or texts is required", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	eng := engine.New(engine.WithDetector(s.det), engine.WithLogger(s.log.With("classification_id", id)))
	records := eng.Process(chunks)
	s.metrics.ObserveRecords(records)

	writeJSON(w, http.StatusOK, map[string]any{
		"classification_id": id,
		"records":           records,
		"summary":           eng.Summary(),
	})
}
