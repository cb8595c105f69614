package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"alphavault-backend/internal/integrations"
	"alphavault-backend/internal/integrations/gemini"
	"alphavault-backend/internal/prompts"
	"alphavault-backend/internal/spreadsheet"
	"alphavault-backend/internal/store"

	"github.com/google/uuid"
)

// Custom errors for the extraction service
var (
	ErrExtractValidation = errors.New("extraction validation failed")
	// ErrNoExtractedRows means the model answered but found nothing to
	// tabulate. No file is produced in that case.
	ErrNoExtractedRows = errors.New("no structured rows were extracted")
)

// ExtractionService turns a free-text field specification into a
// downloadable XLSX built from the active documents.
type ExtractionService struct {
	store store.Store
	llm   Generator
	keys  KeySource
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(s store.Store, llm Generator, keys KeySource) *ExtractionService {
	return &ExtractionService{
		store: s,
		llm:   llm,
		keys:  keys,
	}
}

// ExtractToWorkbook runs a precision JSON-mode query over the active
// documents and materializes the result as a single-sheet workbook.
// Column order follows first appearance of each key across the rows.
func (s *ExtractionService) ExtractToWorkbook(ctx context.Context, sessionID uuid.UUID, fields string) (string, []byte, error) {
	fields = strings.TrimSpace(fields)
	if fields == "" {
		return "", nil, fmt.Errorf("%w: fields cannot be empty", ErrExtractValidation)
	}

	if err := s.store.BeginTurn(ctx, sessionID); err != nil {
		return "", nil, err
	}
	defer func() {
		if err := s.store.EndTurn(ctx, sessionID); err != nil {
			log.Printf("ERROR [ExtractionService] failed to clear turn guard for session %s: %v", sessionID, err)
		}
	}()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	activeDocs := sess.ActiveDocuments()
	if len(activeDocs) == 0 {
		return "", nil, fmt.Errorf("%w: no active documents to extract from", ErrExtractValidation)
	}

	apiKey := s.keys.GetKey(ctx)
	if apiKey == "" {
		return "", nil, integrations.NewClassifiedError(integrations.KindConfiguration, "no Gemini API key configured")
	}

	temp := gemini.PrecisionTemperature
	req := gemini.BuildRequest(gemini.QueryOptions{
		Query:            prompts.ExtractionPrompt(fields),
		Raw:              true,
		Documents:        activeDocs,
		Temperature:      &temp,
		ResponseMimeType: "application/json",
	})

	resp, err := s.llm.Generate(ctx, apiKey, req)
	if err != nil {
		return "", nil, err
	}

	raw := stripCodeFences(resp.Text())
	headers, rows, err := parseExtractedRows([]byte(raw))
	if err != nil {
		return "", nil, &integrations.ClassifiedError{
			Kind:    integrations.KindData,
			Message: "the model did not return a parsable data table",
			Err:     err,
		}
	}
	if len(rows) == 0 {
		return "", nil, ErrNoExtractedRows
	}

	data, err := spreadsheet.BuildWorkbook(headers, rows)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build workbook: %w", err)
	}

	filename := fmt.Sprintf("AlphaVault_Extract_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	log.Printf("[ExtractionService] session %s extracted %d rows x %d columns into %s", sessionID, len(rows), len(headers), filename)
	return filename, data, nil
}

// parseExtractedRows decodes a JSON array of flat objects. The headers
// come from a streaming token scan so column order matches the first
// appearance of each key, which map decoding would destroy.
func parseExtractedRows(data []byte) ([]string, []map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, nil, fmt.Errorf("response is not a JSON array of objects: %w", err)
	}

	headers, err := headerOrder(data)
	if err != nil {
		return nil, nil, err
	}
	return headers, rows, nil
}

// headerOrder scans the array token stream and collects object keys in
// first-seen order across all rows.
func headerOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errors.New("expected a top-level JSON array")
	}

	var headers []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, errors.New("array elements must be objects")
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, errors.New("malformed object key")
			}
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
	}
	return headers, nil
}

// skipValue consumes one JSON value, recursing through containers.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '[' && d != '{') {
		return nil
	}
	for dec.More() {
		if d == '{' {
			if _, err := dec.Token(); err != nil {
				return err
			}
		}
		if err := skipValue(dec); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// stripCodeFences removes a surrounding markdown fence if the model
// wrapped its JSON despite the response mime type.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
