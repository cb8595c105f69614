package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"alphavault-backend/internal/integrations/gemini"
	"alphavault-backend/internal/spreadsheet"
	"alphavault-backend/internal/store"
	"alphavault-backend/internal/store/memory"

	"github.com/google/uuid"
)

func newExtractionFixture(t *testing.T, gen *fakeGenerator) (*ExtractionService, store.Store, uuid.UUID) {
	t.Helper()
	st := memory.NewMemoryStore()
	chat := NewChatService(st, gen, fixedKey("k"), "test-secret", time.Hour)
	resp, err := chat.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return NewExtractionService(st, gen, fixedKey("k")), st, resp.SessionID
}

func TestExtractToWorkbookOrdersColumnsByFirstAppearance(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`[
		{"Year": "FY23", "Revenue": 500},
		{"Year": "FY24", "Revenue": 550, "EBITDA": 120}
	]`)}
	svc, _, sessionID := newExtractionFixture(t, gen)

	filename, data, err := svc.ExtractToWorkbook(context.Background(), sessionID, "Revenue and EBITDA by year")
	if err != nil {
		t.Fatalf("ExtractToWorkbook failed: %v", err)
	}
	if !strings.HasPrefix(filename, "AlphaVault_Extract_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("filename = %q", filename)
	}

	csvText, err := spreadsheet.FirstSheetCSV(data)
	if err != nil {
		t.Fatalf("reading workbook failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	if lines[0] != "Year,Revenue,EBITDA" {
		t.Errorf("header = %q, want first-seen key order", lines[0])
	}
	if !strings.HasPrefix(lines[1], "FY23,500") {
		t.Errorf("row 1 = %q", lines[1])
	}

	// Precision JSON-mode request.
	if gen.lastReq.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("ResponseMimeType = %q", gen.lastReq.GenerationConfig.ResponseMimeType)
	}
	if *gen.lastReq.GenerationConfig.Temperature != gemini.PrecisionTemperature {
		t.Errorf("temperature = %v", *gen.lastReq.GenerationConfig.Temperature)
	}
}

func TestExtractToWorkbookSingleCellTable(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`[{"EBITDA": 100}]`)}
	svc, _, sessionID := newExtractionFixture(t, gen)

	_, data, err := svc.ExtractToWorkbook(context.Background(), sessionID, "EBITDA")
	if err != nil {
		t.Fatalf("ExtractToWorkbook failed: %v", err)
	}
	csvText, err := spreadsheet.FirstSheetCSV(data)
	if err != nil {
		t.Fatalf("reading workbook failed: %v", err)
	}
	if strings.TrimSpace(csvText) != "EBITDA\n100" {
		t.Errorf("csv = %q", csvText)
	}
}

func TestExtractToWorkbookStripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("```json\n[{\"Metric\": \"Churn\"}]\n```")}
	svc, _, sessionID := newExtractionFixture(t, gen)

	if _, _, err := svc.ExtractToWorkbook(context.Background(), sessionID, "churn"); err != nil {
		t.Fatalf("fenced JSON must still parse: %v", err)
	}
}

func TestExtractToWorkbookEmptyArrayProducesNoFile(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`[]`)}
	svc, _, sessionID := newExtractionFixture(t, gen)

	_, _, err := svc.ExtractToWorkbook(context.Background(), sessionID, "anything")
	if !errors.Is(err, ErrNoExtractedRows) {
		t.Fatalf("expected ErrNoExtractedRows, got %v", err)
	}
}

func TestExtractToWorkbookUnparsableResponse(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("I could not find the data you asked for.")}
	svc, _, sessionID := newExtractionFixture(t, gen)

	if _, _, err := svc.ExtractToWorkbook(context.Background(), sessionID, "anything"); err == nil {
		t.Fatal("expected an error for a non-JSON response")
	}
}

func TestExtractToWorkbookRejectsEmptyFields(t *testing.T) {
	svc, _, sessionID := newExtractionFixture(t, &fakeGenerator{})

	if _, _, err := svc.ExtractToWorkbook(context.Background(), sessionID, "  "); !errors.Is(err, ErrExtractValidation) {
		t.Errorf("expected ErrExtractValidation, got %v", err)
	}
}

func TestExtractToWorkbookRespectsTurnGuard(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`[{"A": 1}]`)}
	svc, st, sessionID := newExtractionFixture(t, gen)

	if err := st.BeginTurn(context.Background(), sessionID); err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}
	if _, _, err := svc.ExtractToWorkbook(context.Background(), sessionID, "A"); !errors.Is(err, store.ErrTurnInFlight) {
		t.Errorf("expected ErrTurnInFlight, got %v", err)
	}
}
