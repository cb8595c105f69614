package models

import (
	"github.com/google/uuid"
)

// --- Service Types ---

// ServiceType identifies an external integration.
type ServiceType string

const (
	ServiceTypeGemini ServiceType = "GEMINI"
	ServiceTypeDrive  ServiceType = "GDRIVE"
)

// --- Generic Responses ---

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Session DTOs ---

// CreateSessionResponse returns the new session token plus seeded state.
type CreateSessionResponse struct {
	SessionID uuid.UUID            `json:"session_id"`
	Token     string               `json:"token"`
	State     SessionStateResponse `json:"state"`
}

// SessionStateResponse is the full conversation state snapshot.
type SessionStateResponse struct {
	Messages          []Message  `json:"messages"`
	Documents         []Document `json:"documents"`
	ActiveDocumentIDs []string   `json:"active_document_ids"`
	WebSearchEnabled  bool       `json:"web_search_enabled"`
	TurnInFlight      bool       `json:"turn_in_flight"`
}

// --- Chat DTOs ---

// SendMessageRequest carries one user chat turn.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse returns the messages appended by a turn
// (the user message and the model reply, in order).
type SendMessageResponse struct {
	Messages []Message `json:"messages"`
}

// ShortcutKind selects one of the pre-canned analysis queries.
type ShortcutKind string

const (
	ShortcutRiskScan   ShortcutKind = "risk_scan"
	ShortcutMemoDraft  ShortcutKind = "memo_draft"
	ShortcutTrendChart ShortcutKind = "trend_chart"
)

// ShortcutRequest triggers a shortcut turn.
type ShortcutRequest struct {
	Kind ShortcutKind `json:"kind"`
}

// UpdateChatSettingsRequest toggles per-session chat options.
type UpdateChatSettingsRequest struct {
	WebSearch *bool `json:"web_search,omitempty"` // pointer to allow partial update
}

// SynthesizeResponse describes the memo document produced by synthesis.
type SynthesizeResponse struct {
	Document        Document `json:"document"`
	Message         Message  `json:"message"`
	EstimatedTokens int      `json:"estimated_tokens"` // payload size of the collapsed context
}

// --- Document DTOs ---

// UploadDocumentRequest is a local file upload. Data is always base64;
// the service decodes it back to text for non-binary media types.
type UploadDocumentRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// DrivePickedItem is one entry from the client-side Drive picker.
type DrivePickedItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// DriveImportRequest imports picked Drive files and folders.
type DriveImportRequest struct {
	AccessToken string            `json:"access_token"`
	Items       []DrivePickedItem `json:"items"`
}

// DriveImportResponse reports what the import produced. Skipped counts
// items dropped by per-item download or conversion failures.
type DriveImportResponse struct {
	Documents []Document `json:"documents"`
	Skipped   int        `json:"skipped"`
}

// SetDocumentActiveRequest toggles a document in or out of the LLM context.
type SetDocumentActiveRequest struct {
	Active bool `json:"active"`
}

// --- Extraction DTOs ---

// ExtractRequest carries the free-text field specification, e.g.
// "Revenue, EBITDA, Net Debt by year".
type ExtractRequest struct {
	Fields string `json:"fields"`
}

// --- Credential DTOs ---

// SetCredentialRequest stores the Gemini API key for this deployment.
type SetCredentialRequest struct {
	APIKey string `json:"api_key"`
}

// TestCredentialResponse reports a credential connectivity check.
type TestCredentialResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
