package store

import (
	"context"
	"errors"

	"alphavault-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrTurnInFlight is returned by BeginTurn when the session already has
// a provider call pending. Callers must not issue a second call.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// CreateSessionParams contains the seed state for a new session.
type CreateSessionParams struct {
	ID                uuid.UUID
	Messages          []models.Message
	Documents         []models.Document
	ActiveDocumentIDs []string
}

// Store defines the interface for session state operations.
// This allows mocking in tests and potential backend switching, though
// the conversation contract is in-memory only: documents and messages
// never outlive the process.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, arg CreateSessionParams) (*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Message operations
	AppendMessage(ctx context.Context, sessionID uuid.UUID, msg models.Message) error

	// Document operations
	AddDocuments(ctx context.Context, sessionID uuid.UUID, docs []models.Document, activate bool) error
	SetDocumentActive(ctx context.Context, sessionID uuid.UUID, documentID string, active bool) error
	DeselectAllDocuments(ctx context.Context, sessionID uuid.UUID) error
	// ReplaceActiveSet swaps the active selection wholesale (synthesis
	// collapses many documents into one stand-in).
	ReplaceActiveSet(ctx context.Context, sessionID uuid.UUID, documentIDs []string) error

	// Flag operations
	SetWebSearch(ctx context.Context, sessionID uuid.UUID, enabled bool) error

	// Turn guard. BeginTurn atomically marks the session busy and fails
	// with ErrTurnInFlight if it already is; EndTurn always clears it.
	BeginTurn(ctx context.Context, sessionID uuid.UUID) error
	EndTurn(ctx context.Context, sessionID uuid.UUID) error
}
