package memory

import (
	"context"
	"log"
	"sync"
	"time"

	"alphavault-backend/internal/models"
	"alphavault-backend/internal/store"

	"github.com/google/uuid"
)

// nowFunc is swapped out in tests for deterministic timestamps.
var nowFunc = time.Now

// MemoryStore keeps all session state in process memory, guarded by a
// single RWMutex. Conversation state is session-scoped by contract, so
// there is nothing to persist; a process restart starts everyone fresh.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

// Compile-time check that MemoryStore satisfies store.Store.
var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]*models.Session),
	}
}

// CreateSession registers a new session with its seed state.
func (s *MemoryStore) CreateSession(_ context.Context, arg store.CreateSessionParams) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &models.Session{
		ID:                arg.ID,
		CreatedAt:         nowFunc(),
		Messages:          append([]models.Message(nil), arg.Messages...),
		Documents:         append([]models.Document(nil), arg.Documents...),
		ActiveDocumentIDs: append([]string(nil), arg.ActiveDocumentIDs...),
	}
	s.sessions[arg.ID] = sess
	log.Printf("[MemoryStore] CreateSession: %s (%d seed documents)", arg.ID, len(sess.Documents))
	return copySession(sess), nil
}

// GetSession returns a snapshot copy of the session so callers can read
// it without holding the store lock.
func (s *MemoryStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copySession(sess), nil
}

// DeleteSession drops a session and all of its state.
func (s *MemoryStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// AppendMessage adds one message to the end of the conversation.
func (s *MemoryStore) AppendMessage(_ context.Context, sessionID uuid.UUID, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	sess.Messages = append(sess.Messages, msg)
	return nil
}

// AddDocuments appends documents, skipping IDs already present (a file
// re-imported from Drive must not appear twice). When activate is true
// the new documents also join the active set.
func (s *MemoryStore) AddDocuments(_ context.Context, sessionID uuid.UUID, docs []models.Document, activate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}

	existing := make(map[string]bool, len(sess.Documents))
	for _, d := range sess.Documents {
		existing[d.ID] = true
	}
	active := make(map[string]bool, len(sess.ActiveDocumentIDs))
	for _, id := range sess.ActiveDocumentIDs {
		active[id] = true
	}

	for _, d := range docs {
		if existing[d.ID] {
			log.Printf("[MemoryStore] AddDocuments: skipping duplicate document %s (%s)", d.ID, d.Name)
			continue
		}
		sess.Documents = append(sess.Documents, d)
		existing[d.ID] = true
		if activate && !active[d.ID] {
			sess.ActiveDocumentIDs = append(sess.ActiveDocumentIDs, d.ID)
			active[d.ID] = true
		}
	}
	return nil
}

// SetDocumentActive toggles a single document's membership in the active set.
func (s *MemoryStore) SetDocumentActive(_ context.Context, sessionID uuid.UUID, documentID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}

	found := false
	for _, d := range sess.Documents {
		if d.ID == documentID {
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}

	ids := sess.ActiveDocumentIDs[:0]
	already := false
	for _, id := range sess.ActiveDocumentIDs {
		if id == documentID {
			already = true
			if !active {
				continue
			}
		}
		ids = append(ids, id)
	}
	sess.ActiveDocumentIDs = ids
	if active && !already {
		sess.ActiveDocumentIDs = append(sess.ActiveDocumentIDs, documentID)
	}
	return nil
}

// DeselectAllDocuments empties the active set without touching documents.
func (s *MemoryStore) DeselectAllDocuments(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	sess.ActiveDocumentIDs = nil
	return nil
}

// ReplaceActiveSet swaps the whole active selection.
func (s *MemoryStore) ReplaceActiveSet(_ context.Context, sessionID uuid.UUID, documentIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	sess.ActiveDocumentIDs = append([]string(nil), documentIDs...)
	return nil
}

// SetWebSearch toggles web grounding for subsequent turns.
func (s *MemoryStore) SetWebSearch(_ context.Context, sessionID uuid.UUID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	sess.WebSearchEnabled = enabled
	return nil
}

// BeginTurn marks the session busy. Exactly one caller wins while the
// flag is set; the rest get ErrTurnInFlight.
func (s *MemoryStore) BeginTurn(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	if sess.TurnInFlight {
		return store.ErrTurnInFlight
	}
	sess.TurnInFlight = true
	return nil
}

// EndTurn clears the busy flag. Safe to call when the flag is already
// clear; no error path may leave a session loading forever.
func (s *MemoryStore) EndTurn(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	sess.TurnInFlight = false
	return nil
}

// copySession makes a snapshot deep enough for read-only use.
func copySession(sess *models.Session) *models.Session {
	out := *sess
	out.Messages = append([]models.Message(nil), sess.Messages...)
	out.Documents = append([]models.Document(nil), sess.Documents...)
	out.ActiveDocumentIDs = append([]string(nil), sess.ActiveDocumentIDs...)
	return &out
}
