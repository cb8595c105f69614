package models

import (
	"time"

	"github.com/google/uuid"
)

// Session holds all conversation state for one analyst workspace.
// Everything here is in-memory only and lost when the session ends;
// the only state allowed to outlive a session is the stored API
// credential managed by the credentials service.
type Session struct {
	ID                uuid.UUID  `json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	Messages          []Message  `json:"messages"`
	Documents         []Document `json:"documents"`
	ActiveDocumentIDs []string   `json:"active_document_ids"`
	WebSearchEnabled  bool       `json:"web_search_enabled"`
	TurnInFlight      bool       `json:"turn_in_flight"`
}

// ActiveDocuments resolves the active ID set against the document list,
// preserving document insertion order.
func (s *Session) ActiveDocuments() []Document {
	active := make(map[string]bool, len(s.ActiveDocumentIDs))
	for _, id := range s.ActiveDocumentIDs {
		active[id] = true
	}
	var docs []Document
	for _, d := range s.Documents {
		if active[d.ID] {
			docs = append(docs, d)
		}
	}
	return docs
}
