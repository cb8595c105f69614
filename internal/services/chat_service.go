package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"alphavault-backend/internal/auth"
	"alphavault-backend/internal/integrations"
	"alphavault-backend/internal/integrations/gemini"
	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/prompts"
	"alphavault-backend/internal/store"

	"github.com/google/uuid"
)

// Custom errors for the chat service
var (
	ErrChatValidation  = errors.New("chat validation failed")
	ErrUnknownShortcut = errors.New("unknown shortcut kind")
	// ErrSynthesisTooFewDocs rejects synthesis runs that would collapse
	// fewer than two documents; nothing is gained and the selection
	// must stay untouched.
	ErrSynthesisTooFewDocs = errors.New("synthesis requires at least two active documents")
)

// Generator is the slice of the Gemini client the controller needs;
// tests substitute a fake so no network is involved.
type Generator interface {
	Generate(ctx context.Context, apiKey string, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}

// KeySource yields the current Gemini API key, empty when none is
// configured. Turns with no key short-circuit before any provider call.
type KeySource interface {
	GetKey(ctx context.Context) string
}

// ChatService is the conversation controller: it owns turn sequencing,
// message persistence, shortcut queries, synthesis, and transcript
// export. Provider failures become chat messages, never dropped turns.
type ChatService struct {
	store     store.Store
	llm       Generator
	keys      KeySource
	jwtSecret string
	tokenExp  time.Duration
}

// NewChatService creates a new ChatService.
func NewChatService(s store.Store, llm Generator, keys KeySource, jwtSecret string, tokenExp time.Duration) *ChatService {
	return &ChatService{
		store:     s,
		llm:       llm,
		keys:      keys,
		jwtSecret: jwtSecret,
		tokenExp:  tokenExp,
	}
}

// CreateSession seeds a fresh workspace: the welcome banner plus the
// sample deal-room documents, all pre-activated, and a session token.
func (s *ChatService) CreateSession(ctx context.Context) (*api_models.CreateSessionResponse, error) {
	sessionID := uuid.New()

	seedDocs := prompts.SeedDocuments()
	activeIDs := make([]string, 0, len(seedDocs))
	for _, d := range seedDocs {
		activeIDs = append(activeIDs, d.ID)
	}

	welcome := api_models.Message{
		ID:        uuid.New(),
		Role:      api_models.RoleModel,
		Content:   prompts.WelcomeMessage,
		Timestamp: time.Now().UTC(),
	}

	sess, err := s.store.CreateSession(ctx, store.CreateSessionParams{
		ID:                sessionID,
		Messages:          []api_models.Message{welcome},
		Documents:         seedDocs,
		ActiveDocumentIDs: activeIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := auth.NewSessionToken(sessionID, s.jwtSecret, s.tokenExp)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	log.Printf("[ChatService] CreateSession: session %s created with %d seed documents", sessionID, len(seedDocs))
	return &api_models.CreateSessionResponse{
		SessionID: sessionID,
		Token:     token,
		State:     stateResponse(sess),
	}, nil
}

// EndSession discards the workspace: documents, messages, and flags all
// die here. Only the stored credential survives.
func (s *ChatService) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	log.Printf("[ChatService] EndSession: session %s discarded", sessionID)
	return nil
}

// GetState returns the full conversation snapshot.
func (s *ChatService) GetState(ctx context.Context, sessionID uuid.UUID) (*api_models.SessionStateResponse, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := stateResponse(sess)
	return &state, nil
}

// SendMessage runs one user turn. The turn guard rejects overlapping
// sends; everything after the guard is acquired runs to completion and
// the session always returns to idle.
func (s *ChatService) SendMessage(ctx context.Context, sessionID uuid.UUID, content string) (*api_models.SendMessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", ErrChatValidation)
	}
	return s.runTurn(ctx, sessionID, content, false)
}

// RunShortcut executes one of the canned analyst queries. Shortcuts
// refuse to run against an empty active set; a notice message is
// appended instead of a provider call.
func (s *ChatService) RunShortcut(ctx context.Context, sessionID uuid.UUID, kind api_models.ShortcutKind) (*api_models.SendMessageResponse, error) {
	var query string
	wantChart := false
	switch kind {
	case api_models.ShortcutRiskScan:
		query = prompts.RiskScanQuery
	case api_models.ShortcutMemoDraft:
		query = prompts.MemoDraftQuery
	case api_models.ShortcutTrendChart:
		query = prompts.TrendChartQuery
		wantChart = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShortcut, kind)
	}

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sess.ActiveDocuments()) == 0 {
		notice := api_models.Message{
			ID:        uuid.New(),
			Role:      api_models.RoleModel,
			Content:   prompts.NoActiveDocumentsNotice,
			Timestamp: time.Now().UTC(),
		}
		if err := s.store.AppendMessage(ctx, sessionID, notice); err != nil {
			return nil, err
		}
		return &api_models.SendMessageResponse{Messages: []api_models.Message{notice}}, nil
	}

	return s.runTurn(ctx, sessionID, query, wantChart)
}

// runTurn is the shared turn pipeline for messages and shortcuts.
func (s *ChatService) runTurn(ctx context.Context, sessionID uuid.UUID, query string, wantChart bool) (*api_models.SendMessageResponse, error) {
	if err := s.store.BeginTurn(ctx, sessionID); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.EndTurn(ctx, sessionID); err != nil {
			log.Printf("ERROR [ChatService] failed to clear turn guard for session %s: %v", sessionID, err)
		}
	}()

	// Snapshot state BEFORE appending the user message; the query is
	// sent as the final turn of the request, not as history.
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := api_models.Message{
		ID:        uuid.New(),
		Role:      api_models.RoleUser,
		Content:   query,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, sessionID, userMsg); err != nil {
		return nil, err
	}

	modelMsg := api_models.Message{
		ID:        uuid.New(),
		Role:      api_models.RoleModel,
		Timestamp: time.Now().UTC(),
	}

	apiKey := s.keys.GetKey(ctx)
	if apiKey == "" {
		modelMsg.Content = prompts.MissingKeyMessage
	} else {
		req := gemini.BuildRequest(gemini.QueryOptions{
			Query:     query,
			History:   sess.Messages,
			Documents: sess.ActiveDocuments(),
			WebSearch: sess.WebSearchEnabled,
			WantChart: wantChart,
		})

		resp, err := s.llm.Generate(ctx, apiKey, req)
		if err != nil {
			modelMsg.Content = turnErrorContent(err)
			log.Printf("WARN [ChatService] turn failed for session %s: %v", sessionID, err)
		} else {
			out := gemini.Interpret(resp)
			modelMsg.Content = out.Text
			modelMsg.Sources = out.Sources
			modelMsg.ChartData = out.Chart
		}
	}

	if err := s.store.AppendMessage(ctx, sessionID, modelMsg); err != nil {
		return nil, err
	}

	return &api_models.SendMessageResponse{
		Messages: []api_models.Message{userMsg, modelMsg},
	}, nil
}

// Synthesize collapses the active documents into one memo document.
// On success the memo replaces the originals as the active selection;
// on any failure the selection is left exactly as it was.
func (s *ChatService) Synthesize(ctx context.Context, sessionID uuid.UUID) (*api_models.SynthesizeResponse, error) {
	if err := s.store.BeginTurn(ctx, sessionID); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.EndTurn(ctx, sessionID); err != nil {
			log.Printf("ERROR [ChatService] failed to clear turn guard for session %s: %v", sessionID, err)
		}
	}()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	activeDocs := sess.ActiveDocuments()
	if len(activeDocs) < 2 {
		return nil, ErrSynthesisTooFewDocs
	}

	apiKey := s.keys.GetKey(ctx)
	if apiKey == "" {
		return nil, integrations.NewClassifiedError(integrations.KindConfiguration, "no Gemini API key configured")
	}

	temp := gemini.PrecisionTemperature
	req := gemini.BuildRequest(gemini.QueryOptions{
		Query:             prompts.SynthesisQuery,
		Raw:               true,
		Documents:         activeDocs,
		Temperature:       &temp,
		SystemInstruction: prompts.SystemInstruction,
	})

	resp, err := s.llm.Generate(ctx, apiKey, req)
	if err != nil {
		return nil, err
	}
	memoText := strings.TrimSpace(resp.Text())
	if memoText == "" {
		return nil, integrations.NewClassifiedError(integrations.KindData, "synthesis produced an empty memo")
	}

	now := time.Now().UTC()
	memo := api_models.Document{
		ID:           uuid.New().String(),
		Name:         fmt.Sprintf("Synthesis_Memo_%s", now.Format("2006-01-02")),
		Type:         "MEMO",
		Content:      memoText,
		IsInlineData: false,
		MimeType:     "text/plain",
		Category:     api_models.CategoryMemo,
		UploadDate:   now,
	}

	if err := s.store.AddDocuments(ctx, sessionID, []api_models.Document{memo}, false); err != nil {
		return nil, fmt.Errorf("failed to save synthesis memo: %w", err)
	}
	if err := s.store.ReplaceActiveSet(ctx, sessionID, []string{memo.ID}); err != nil {
		return nil, fmt.Errorf("failed to swap active selection: %w", err)
	}

	tokens := prompts.EstimateTokens(memoText)
	notice := api_models.Message{
		ID:        uuid.New(),
		Role:      api_models.RoleModel,
		Content:   fmt.Sprintf("**Context Collapsed.**\nSynthesized %d documents into `%s` (~%d tokens). The memo now stands in for the originals as conversation context.", len(activeDocs), memo.Name, tokens),
		Timestamp: now,
	}
	if err := s.store.AppendMessage(ctx, sessionID, notice); err != nil {
		return nil, err
	}

	log.Printf("[ChatService] Synthesize: session %s collapsed %d documents into %s (~%d tokens)", sessionID, len(activeDocs), memo.Name, tokens)
	return &api_models.SynthesizeResponse{
		Document:        memo,
		Message:         notice,
		EstimatedTokens: tokens,
	}, nil
}

// SetWebSearch toggles search grounding for subsequent turns.
func (s *ChatService) SetWebSearch(ctx context.Context, sessionID uuid.UUID, enabled bool) error {
	return s.store.SetWebSearch(ctx, sessionID, enabled)
}

// ExportTranscript renders the conversation as flat timestamped text.
func (s *ChatService) ExportTranscript(ctx context.Context, sessionID uuid.UUID) (string, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("AlphaVault Transcript - Session %s\n", sess.ID))
	sb.WriteString(fmt.Sprintf("Exported %s\n\n", time.Now().UTC().Format(time.RFC3339)))
	for _, m := range sess.Messages {
		sb.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n", m.Timestamp.UTC().Format(time.RFC3339), strings.ToUpper(string(m.Role)), m.Content))
	}
	return sb.String(), nil
}

// turnErrorContent maps a provider failure onto the message shown in
// the conversation.
func turnErrorContent(err error) string {
	var classified *integrations.ClassifiedError
	if errors.As(err, &classified) {
		return fmt.Sprintf("**System Error:** %s", classified.Message)
	}
	return prompts.TurnFailureMessage
}

// stateResponse maps a session snapshot to the API DTO.
func stateResponse(sess *api_models.Session) api_models.SessionStateResponse {
	return api_models.SessionStateResponse{
		Messages:          sess.Messages,
		Documents:         sess.Documents,
		ActiveDocumentIDs: sess.ActiveDocumentIDs,
		WebSearchEnabled:  sess.WebSearchEnabled,
		TurnInFlight:      sess.TurnInFlight,
	}
}
