package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alphavault-backend/internal/integrations"
	"alphavault-backend/internal/integrations/gemini"
	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/prompts"
	"alphavault-backend/internal/store"
	"alphavault-backend/internal/store/memory"

	"github.com/google/uuid"
)

type fakeGenerator struct {
	resp    *gemini.GenerateResponse
	err     error
	calls   int
	lastReq *gemini.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, apiKey string, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fixedKey string

func (k fixedKey) GetKey(ctx context.Context) string { return string(k) }

func textResponse(text string) *gemini.GenerateResponse {
	return &gemini.GenerateResponse{
		Candidates: []gemini.Candidate{
			{Content: gemini.Content{Role: gemini.RoleModel, Parts: []gemini.Part{{Text: text}}}},
		},
	}
}

func newChatFixture(t *testing.T, gen *fakeGenerator, key string) (*ChatService, store.Store, uuid.UUID) {
	t.Helper()
	st := memory.NewMemoryStore()
	svc := NewChatService(st, gen, fixedKey(key), "test-secret", time.Hour)
	resp, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return svc, st, resp.SessionID
}

func TestCreateSessionSeedsWorkspace(t *testing.T) {
	svc := NewChatService(memory.NewMemoryStore(), &fakeGenerator{}, fixedKey("k"), "test-secret", time.Hour)

	resp, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a session token")
	}
	if len(resp.State.Messages) != 1 || resp.State.Messages[0].Content != prompts.WelcomeMessage {
		t.Error("session must open with the welcome banner")
	}
	if len(resp.State.Documents) == 0 {
		t.Error("session must be seeded with sample documents")
	}
	if len(resp.State.ActiveDocumentIDs) != len(resp.State.Documents) {
		t.Error("seed documents must start active")
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	svc, _, sessionID := newChatFixture(t, &fakeGenerator{}, "k")

	if _, err := svc.SendMessage(context.Background(), sessionID, "   "); !errors.Is(err, ErrChatValidation) {
		t.Errorf("expected ErrChatValidation, got %v", err)
	}
}

func TestSendMessageAppendsBothTurns(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("EBITDA grew 15% YoY.")}
	svc, st, sessionID := newChatFixture(t, gen, "k")

	resp, err := svc.SendMessage(context.Background(), sessionID, "What is the EBITDA trend?")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("expected user + model message, got %d", len(resp.Messages))
	}
	if resp.Messages[0].Role != api_models.RoleUser || resp.Messages[1].Role != api_models.RoleModel {
		t.Error("messages must be [user, model] in order")
	}
	if resp.Messages[1].Content != "EBITDA grew 15% YoY." {
		t.Errorf("model content = %q", resp.Messages[1].Content)
	}

	sess, _ := st.GetSession(context.Background(), sessionID)
	// welcome + user + model
	if len(sess.Messages) != 3 {
		t.Errorf("store has %d messages, want 3", len(sess.Messages))
	}
	if sess.TurnInFlight {
		t.Error("session must return to idle after the turn")
	}

	// The query goes out as the final user turn, not as history.
	last := gen.lastReq.Contents[len(gen.lastReq.Contents)-1]
	if last.Role != gemini.RoleUser {
		t.Errorf("final turn role = %q", last.Role)
	}
	finalText := last.Parts[len(last.Parts)-1].Text
	if !strings.Contains(finalText, "What is the EBITDA trend?") {
		t.Errorf("final turn does not carry the query: %q", finalText)
	}
}

func TestSendMessageWithoutKeySkipsProvider(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("should never be used")}
	svc, _, sessionID := newChatFixture(t, gen, "")

	resp, err := svc.SendMessage(context.Background(), sessionID, "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("provider was called %d times with no key configured", gen.calls)
	}
	if resp.Messages[1].Content != prompts.MissingKeyMessage {
		t.Errorf("model content = %q", resp.Messages[1].Content)
	}
}

func TestSendMessageProviderErrorBecomesChatMessage(t *testing.T) {
	gen := &fakeGenerator{err: integrations.NewClassifiedError(integrations.KindQuota, "API Error (429): Quota Exceeded.")}
	svc, st, sessionID := newChatFixture(t, gen, "k")

	resp, err := svc.SendMessage(context.Background(), sessionID, "hello")
	if err != nil {
		t.Fatalf("provider failure must not fail the turn: %v", err)
	}
	want := "**System Error:** API Error (429): Quota Exceeded."
	if resp.Messages[1].Content != want {
		t.Errorf("model content = %q, want %q", resp.Messages[1].Content, want)
	}

	sess, _ := st.GetSession(context.Background(), sessionID)
	if sess.TurnInFlight {
		t.Error("session must return to idle after a failed turn")
	}
}

func TestSendMessageRejectsOverlappingTurn(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("x")}
	svc, st, sessionID := newChatFixture(t, gen, "k")

	// Simulate a turn already in flight.
	if err := st.BeginTurn(context.Background(), sessionID); err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}

	_, err := svc.SendMessage(context.Background(), sessionID, "second")
	if !errors.Is(err, store.ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("provider must not be called for a rejected turn, got %d calls", gen.calls)
	}
}

func TestRunShortcutWithoutActiveDocs(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("x")}
	svc, st, sessionID := newChatFixture(t, gen, "k")
	if err := st.DeselectAllDocuments(context.Background(), sessionID); err != nil {
		t.Fatalf("DeselectAllDocuments failed: %v", err)
	}

	resp, err := svc.RunShortcut(context.Background(), sessionID, api_models.ShortcutRiskScan)
	if err != nil {
		t.Fatalf("RunShortcut failed: %v", err)
	}
	if gen.calls != 0 {
		t.Error("shortcut must not reach the provider with no active documents")
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != prompts.NoActiveDocumentsNotice {
		t.Errorf("expected the no-documents notice, got %+v", resp.Messages)
	}
}

func TestRunShortcutTrendChartAsksForChart(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("trend analysis")}
	svc, _, sessionID := newChatFixture(t, gen, "k")

	if _, err := svc.RunShortcut(context.Background(), sessionID, api_models.ShortcutTrendChart); err != nil {
		t.Fatalf("RunShortcut failed: %v", err)
	}
	last := gen.lastReq.Contents[len(gen.lastReq.Contents)-1]
	finalText := last.Parts[len(last.Parts)-1].Text
	if !strings.Contains(finalText, `"chart"`) {
		t.Error("trend chart shortcut must append the chart directive")
	}
}

func TestRunShortcutUnknownKind(t *testing.T) {
	svc, _, sessionID := newChatFixture(t, &fakeGenerator{}, "k")

	if _, err := svc.RunShortcut(context.Background(), sessionID, "pivot_table"); !errors.Is(err, ErrUnknownShortcut) {
		t.Errorf("expected ErrUnknownShortcut, got %v", err)
	}
}

func TestSynthesizeRequiresTwoActiveDocs(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("memo")}
	svc, st, sessionID := newChatFixture(t, gen, "k")

	sess, _ := st.GetSession(context.Background(), sessionID)
	if err := st.ReplaceActiveSet(context.Background(), sessionID, sess.ActiveDocumentIDs[:1]); err != nil {
		t.Fatalf("ReplaceActiveSet failed: %v", err)
	}

	_, err := svc.Synthesize(context.Background(), sessionID)
	if !errors.Is(err, ErrSynthesisTooFewDocs) {
		t.Fatalf("expected ErrSynthesisTooFewDocs, got %v", err)
	}

	after, _ := st.GetSession(context.Background(), sessionID)
	if len(after.ActiveDocumentIDs) != 1 {
		t.Error("a refused synthesis must leave the selection untouched")
	}
}

func TestSynthesizeCollapsesActiveSelection(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("## Synthesis\nAll material facts.")}
	svc, st, sessionID := newChatFixture(t, gen, "k")

	before, _ := st.GetSession(context.Background(), sessionID)
	docsBefore := len(before.Documents)

	resp, err := svc.Synthesize(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if resp.Document.Type != "MEMO" || resp.Document.Category != api_models.CategoryMemo {
		t.Errorf("memo type/category = %q/%q", resp.Document.Type, resp.Document.Category)
	}
	if !strings.HasPrefix(resp.Document.Name, "Synthesis_Memo_") {
		t.Errorf("memo name = %q", resp.Document.Name)
	}
	if resp.EstimatedTokens <= 0 {
		t.Error("expected a positive token estimate")
	}

	// Precision run, no instruction envelope around the task prompt.
	if *gen.lastReq.GenerationConfig.Temperature != gemini.PrecisionTemperature {
		t.Errorf("temperature = %v", *gen.lastReq.GenerationConfig.Temperature)
	}
	if len(gen.lastReq.Tools) != 0 {
		t.Error("synthesis must not attach the web search tool")
	}

	after, _ := st.GetSession(context.Background(), sessionID)
	if len(after.Documents) != docsBefore+1 {
		t.Errorf("documents = %d, want %d", len(after.Documents), docsBefore+1)
	}
	if len(after.ActiveDocumentIDs) != 1 || after.ActiveDocumentIDs[0] != resp.Document.ID {
		t.Errorf("active set = %v, want only the memo", after.ActiveDocumentIDs)
	}
}

func TestSynthesizeProviderFailureLeavesSelection(t *testing.T) {
	gen := &fakeGenerator{err: integrations.NewClassifiedError(integrations.KindTransport, "network down")}
	svc, st, sessionID := newChatFixture(t, gen, "k")

	before, _ := st.GetSession(context.Background(), sessionID)

	if _, err := svc.Synthesize(context.Background(), sessionID); err == nil {
		t.Fatal("expected an error from a failed synthesis")
	}

	after, _ := st.GetSession(context.Background(), sessionID)
	if len(after.ActiveDocumentIDs) != len(before.ActiveDocumentIDs) {
		t.Error("a failed synthesis must leave the selection untouched")
	}
	if len(after.Documents) != len(before.Documents) {
		t.Error("a failed synthesis must not add documents")
	}
	if after.TurnInFlight {
		t.Error("session must return to idle")
	}
}

func TestExportTranscript(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Answer.")}
	svc, _, sessionID := newChatFixture(t, gen, "k")
	if _, err := svc.SendMessage(context.Background(), sessionID, "Question?"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	text, err := svc.ExportTranscript(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("ExportTranscript failed: %v", err)
	}
	if !strings.Contains(text, "USER:\nQuestion?") {
		t.Errorf("transcript missing user turn:\n%s", text)
	}
	if !strings.Contains(text, "MODEL:\nAnswer.") {
		t.Errorf("transcript missing model turn:\n%s", text)
	}
}
