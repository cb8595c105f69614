package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"alphavault-backend/internal/models"
	"alphavault-backend/internal/store"

	"github.com/google/uuid"
)

func newTestSession(t *testing.T, s *MemoryStore) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := s.CreateSession(context.Background(), store.CreateSessionParams{
		ID: id,
		Messages: []models.Message{
			{ID: uuid.New(), Role: models.RoleModel, Content: "welcome", Timestamp: time.Now()},
		},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return id
}

func TestGetSessionNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetSession(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddDocumentsSkipsDuplicates(t *testing.T) {
	s := NewMemoryStore()
	id := newTestSession(t, s)
	ctx := context.Background()

	docs := []models.Document{
		{ID: "drive-1", Name: "a.pdf"},
		{ID: "drive-2", Name: "b.txt"},
	}
	if err := s.AddDocuments(ctx, id, docs, true); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	// Re-importing the same file must not duplicate it.
	if err := s.AddDocuments(ctx, id, docs[:1], true); err != nil {
		t.Fatalf("AddDocuments (repeat) failed: %v", err)
	}

	sess, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(sess.Documents) != 2 {
		t.Errorf("expected 2 documents, got %d", len(sess.Documents))
	}
	if len(sess.ActiveDocumentIDs) != 2 {
		t.Errorf("expected 2 active ids, got %d", len(sess.ActiveDocumentIDs))
	}
}

func TestSetDocumentActiveToggle(t *testing.T) {
	s := NewMemoryStore()
	id := newTestSession(t, s)
	ctx := context.Background()

	if err := s.AddDocuments(ctx, id, []models.Document{{ID: "d1"}, {ID: "d2"}}, true); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if err := s.SetDocumentActive(ctx, id, "d1", false); err != nil {
		t.Fatalf("SetDocumentActive failed: %v", err)
	}

	sess, _ := s.GetSession(ctx, id)
	if len(sess.ActiveDocumentIDs) != 1 || sess.ActiveDocumentIDs[0] != "d2" {
		t.Errorf("expected active set [d2], got %v", sess.ActiveDocumentIDs)
	}

	if err := s.SetDocumentActive(ctx, id, "missing", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown document, got %v", err)
	}
}

func TestReplaceActiveSet(t *testing.T) {
	s := NewMemoryStore()
	id := newTestSession(t, s)
	ctx := context.Background()

	if err := s.AddDocuments(ctx, id, []models.Document{{ID: "d1"}, {ID: "d2"}, {ID: "memo"}}, true); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if err := s.ReplaceActiveSet(ctx, id, []string{"memo"}); err != nil {
		t.Fatalf("ReplaceActiveSet failed: %v", err)
	}

	sess, _ := s.GetSession(ctx, id)
	if len(sess.ActiveDocumentIDs) != 1 || sess.ActiveDocumentIDs[0] != "memo" {
		t.Errorf("expected active set [memo], got %v", sess.ActiveDocumentIDs)
	}
}

func TestBeginTurnRejectsSecondCaller(t *testing.T) {
	s := NewMemoryStore()
	id := newTestSession(t, s)
	ctx := context.Background()

	if err := s.BeginTurn(ctx, id); err != nil {
		t.Fatalf("first BeginTurn failed: %v", err)
	}
	if err := s.BeginTurn(ctx, id); !errors.Is(err, store.ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}
	if err := s.EndTurn(ctx, id); err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if err := s.BeginTurn(ctx, id); err != nil {
		t.Fatalf("BeginTurn after EndTurn failed: %v", err)
	}
}

func TestGetSessionReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	id := newTestSession(t, s)
	ctx := context.Background()

	sess, _ := s.GetSession(ctx, id)
	sess.Messages = append(sess.Messages, models.Message{Role: models.RoleUser, Content: "mutated"})

	again, _ := s.GetSession(ctx, id)
	if len(again.Messages) != 1 {
		t.Errorf("snapshot mutation leaked into store: %d messages", len(again.Messages))
	}
}
