package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"alphavault-backend/internal/integrations/drive"
	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/spreadsheet"
	"alphavault-backend/internal/store"

	"github.com/google/uuid"
)

// Custom errors for the ingestion service
var (
	ErrIngestValidation = errors.New("ingestion validation failed")
	ErrNoImportableDocs = errors.New("no importable documents produced")
)

// DriveAPI is the slice of the Drive client the ingestion pipeline
// needs; tests substitute a fake.
type DriveAPI interface {
	EnsureReady(ctx context.Context, accessToken string) error
	ListFolder(ctx context.Context, accessToken, folderID string) ([]drive.File, error)
	Download(ctx context.Context, accessToken, fileID, mimeType string) ([]byte, error)
}

// IngestionService normalizes heterogeneous inputs (local uploads,
// Drive files, Drive folders) into uniform Documents in the session's
// deal room.
type IngestionService interface {
	UploadLocalFile(ctx context.Context, sessionID uuid.UUID, req api_models.UploadDocumentRequest) (*api_models.Document, error)
	ImportFromDrive(ctx context.Context, sessionID uuid.UUID, req api_models.DriveImportRequest) (*api_models.DriveImportResponse, error)
	ListDocuments(ctx context.Context, sessionID uuid.UUID) ([]api_models.Document, []string, error)
	SetDocumentActive(ctx context.Context, sessionID uuid.UUID, documentID string, active bool) error
	DeselectAll(ctx context.Context, sessionID uuid.UUID) error
}

type ingestionService struct {
	store store.Store
	drive DriveAPI
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(s store.Store, d DriveAPI) IngestionService {
	return &ingestionService{
		store: s,
		drive: d,
	}
}

// UploadLocalFile ingests one browser-uploaded file. Media types
// containing "pdf" or "image" stay base64 inline; everything else is
// decoded to text.
func (s *ingestionService) UploadLocalFile(ctx context.Context, sessionID uuid.UUID, req api_models.UploadDocumentRequest) (*api_models.Document, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrIngestValidation)
	}
	if req.Data == "" {
		return nil, fmt.Errorf("%w: data cannot be empty", ErrIngestValidation)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	isBinary := strings.Contains(mimeType, "pdf") || strings.Contains(mimeType, "image")

	content := req.Data
	if !isBinary {
		decoded, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: payload is not valid base64", ErrIngestValidation)
		}
		content = string(decoded)
	}

	doc := api_models.Document{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Type:         typeFromName(req.Name),
		Content:      content,
		IsInlineData: isBinary,
		MimeType:     mimeType,
		Category:     api_models.CategoryFinancial,
		UploadDate:   time.Now().UTC(),
	}
	if !doc.ValidateContentEncoding() {
		return nil, fmt.Errorf("%w: binary payload is not valid base64", ErrIngestValidation)
	}

	if err := s.store.AddDocuments(ctx, sessionID, []api_models.Document{doc}, true); err != nil {
		log.Printf("ERROR [IngestionService] UploadLocalFile: store call failed for session %s: %v", sessionID, err)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	log.Printf("[IngestionService] UploadLocalFile: ingested %q (%s, inline=%t) into session %s", doc.Name, doc.Type, doc.IsInlineData, sessionID)
	return &doc, nil
}

// ImportFromDrive expands picked folders one level, deduplicates by file
// id, then downloads and normalizes each file. A failure on one item is
// logged and skipped; it never aborts the rest of the batch.
func (s *ingestionService) ImportFromDrive(ctx context.Context, sessionID uuid.UUID, req api_models.DriveImportRequest) (*api_models.DriveImportResponse, error) {
	if req.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token is required", ErrIngestValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: no items picked", ErrIngestValidation)
	}

	if err := s.drive.EnsureReady(ctx, req.AccessToken); err != nil {
		return nil, err
	}

	s.appendNotice(ctx, sessionID, fmt.Sprintf("*Securely ingesting %d items from Drive...*", len(req.Items)))

	// 1. Expand folders (one level).
	var filesToDownload []drive.File
	skipped := 0
	for _, item := range req.Items {
		if item.MimeType == drive.MimeTypeFolder {
			children, err := s.drive.ListFolder(ctx, req.AccessToken, item.ID)
			if err != nil {
				log.Printf("WARN [IngestionService] ImportFromDrive: failed to list folder %q: %v", item.Name, err)
				skipped++
				continue
			}
			filesToDownload = append(filesToDownload, children...)
			continue
		}
		filesToDownload = append(filesToDownload, drive.File{ID: item.ID, Name: item.Name, MimeType: item.MimeType})
	}

	// 2. Remove duplicates by id. A file reachable through two selected
	// folders must appear once.
	filesToDownload = dedupeByID(filesToDownload)

	// 3. Download and normalize sequentially; order stays deterministic
	// relative to the input.
	var docs []api_models.Document
	for _, file := range filesToDownload {
		doc, err := s.fetchAndNormalize(ctx, req.AccessToken, file)
		if err != nil {
			log.Printf("WARN [IngestionService] ImportFromDrive: skipping %q: %v", file.Name, err)
			skipped++
			continue
		}
		docs = append(docs, *doc)
	}

	if len(docs) == 0 {
		s.appendNotice(ctx, sessionID, "**Error Processing Files:**\nCould not download files. Ensure they are accessible.")
		return nil, ErrNoImportableDocs
	}

	if err := s.store.AddDocuments(ctx, sessionID, docs, true); err != nil {
		log.Printf("ERROR [IngestionService] ImportFromDrive: store call failed for session %s: %v", sessionID, err)
		return nil, fmt.Errorf("failed to save documents: %w", err)
	}

	s.appendNotice(ctx, sessionID, fmt.Sprintf("**Ingestion Complete.**\nAdded %d documents to the active context.\n\nI am ready for your questions.", len(docs)))

	log.Printf("[IngestionService] ImportFromDrive: session %s ingested %d documents, skipped %d", sessionID, len(docs), skipped)
	return &api_models.DriveImportResponse{Documents: docs, Skipped: skipped}, nil
}

// ListDocuments returns the deal-room contents and the active ID set.
func (s *ingestionService) ListDocuments(ctx context.Context, sessionID uuid.UUID) ([]api_models.Document, []string, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess.Documents, sess.ActiveDocumentIDs, nil
}

// SetDocumentActive toggles one document in or out of the LLM context.
func (s *ingestionService) SetDocumentActive(ctx context.Context, sessionID uuid.UUID, documentID string, active bool) error {
	return s.store.SetDocumentActive(ctx, sessionID, documentID, active)
}

// DeselectAll clears the active set without removing any documents.
func (s *ingestionService) DeselectAll(ctx context.Context, sessionID uuid.UUID) error {
	return s.store.DeselectAllDocuments(ctx, sessionID)
}

// fetchAndNormalize downloads one Drive file and converts it to the
// uniform Document shape:
//   - Google Doc      -> exported PDF, inline binary
//   - Google Sheet    -> exported XLSX -> first-sheet CSV text
//   - xls/xlsx mime   -> first-sheet CSV text
//   - csv mime        -> decoded text (already CSV)
//   - text mime       -> decoded text
//   - anything else   -> inline binary, mime preserved
func (s *ingestionService) fetchAndNormalize(ctx context.Context, accessToken string, file drive.File) (*api_models.Document, error) {
	data, err := s.drive.Download(ctx, accessToken, file.ID, file.MimeType)
	if err != nil {
		return nil, err
	}

	isExcel := strings.Contains(file.MimeType, "spreadsheet") || strings.Contains(file.MimeType, "excel")
	isCSV := strings.Contains(file.MimeType, "csv")

	doc := api_models.Document{
		ID:           file.ID,
		Name:         file.Name,
		Type:         "FILE",
		Content:      base64.StdEncoding.EncodeToString(data),
		IsInlineData: true,
		MimeType:     file.MimeType,
		Category:     api_models.CategoryFinancial,
		UploadDate:   time.Now().UTC(),
	}

	switch {
	case isExcel:
		csvText, err := spreadsheet.FirstSheetCSV(data)
		if err != nil {
			return nil, fmt.Errorf("spreadsheet conversion failed: %w", err)
		}
		doc.Content = csvText
		doc.IsInlineData = false
		doc.MimeType = "text/csv"
		doc.Type = "XLSX"
	case isCSV:
		doc.Content = string(data)
		doc.IsInlineData = false
		doc.MimeType = "text/csv"
		doc.Type = "CSV"
	case strings.Contains(file.MimeType, drive.MimeTypeGoogleDoc) || strings.Contains(file.MimeType, "pdf"):
		doc.MimeType = "application/pdf"
		doc.Type = "PDF"
	case strings.Contains(file.MimeType, "text"):
		if utf8.Valid(data) {
			doc.Content = string(data)
			doc.IsInlineData = false
			doc.MimeType = "text/plain"
			doc.Type = "TXT"
		}
		// otherwise fall back to inline binary
	}

	return &doc, nil
}

// appendNotice adds a model-role progress message; a failure here must
// not fail the import.
func (s *ingestionService) appendNotice(ctx context.Context, sessionID uuid.UUID, content string) {
	msg := api_models.Message{
		ID:        uuid.New(),
		Role:      api_models.RoleModel,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, sessionID, msg); err != nil {
		log.Printf("WARN [IngestionService] failed to append notice to session %s: %v", sessionID, err)
	}
}

// dedupeByID keeps the first occurrence of each file id, preserving order.
func dedupeByID(files []drive.File) []drive.File {
	seen := make(map[string]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}

// typeFromName derives the short format tag from the file extension,
// defaulting to FILE when there is none.
func typeFromName(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "FILE"
	}
	return strings.ToUpper(ext)
}
