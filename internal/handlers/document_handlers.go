package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/services"
	"alphavault-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// DocumentHandlers exposes deal-room document endpoints.
type DocumentHandlers struct {
	ingestionService services.IngestionService
}

func NewDocumentHandlers(ingestSvc services.IngestionService) *DocumentHandlers {
	return &DocumentHandlers{
		ingestionService: ingestSvc,
	}
}

// documentsResponse is the list payload for GET /v1/documents.
type documentsResponse struct {
	Documents         []api_models.Document `json:"documents"`
	ActiveDocumentIDs []string              `json:"active_document_ids"`
}

// HandleUpload handles POST /v1/documents/upload.
func (h *DocumentHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req api_models.UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	doc, err := h.ingestionService.UploadLocalFile(r.Context(), sessionID, req)
	if err != nil {
		log.Printf("ERROR [DocHandler] HandleUpload for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to upload document")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// HandleDriveImport handles POST /v1/documents/drive/import.
func (h *DocumentHandlers) HandleDriveImport(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req api_models.DriveImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.ingestionService.ImportFromDrive(r.Context(), sessionID, req)
	if err != nil {
		log.Printf("ERROR [DocHandler] HandleDriveImport for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to import from Drive")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleListDocuments handles GET /v1/documents.
func (h *DocumentHandlers) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	docs, activeIDs, err := h.ingestionService.ListDocuments(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR [DocHandler] HandleListDocuments for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []api_models.Document{}
	}
	if activeIDs == nil {
		activeIDs = []string{}
	}
	httputil.RespondJSON(w, http.StatusOK, documentsResponse{
		Documents:         docs,
		ActiveDocumentIDs: activeIDs,
	})
}

// HandleSetDocumentActive handles PATCH /v1/documents/{documentID}/active.
func (h *DocumentHandlers) HandleSetDocumentActive(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Missing document ID")
		return
	}

	var req api_models.SetDocumentActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.ingestionService.SetDocumentActive(r.Context(), sessionID, documentID, req.Active); err != nil {
		log.Printf("ERROR [DocHandler] HandleSetDocumentActive for session %s, doc %s: %v", sessionID, documentID, err)
		respondServiceError(w, err, "Failed to update document selection")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{"id": documentID, "active": req.Active})
}

// HandleDeselectAll handles POST /v1/documents/deselect.
func (h *DocumentHandlers) HandleDeselectAll(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	if err := h.ingestionService.DeselectAll(r.Context(), sessionID); err != nil {
		log.Printf("ERROR [DocHandler] HandleDeselectAll for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to clear selection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
