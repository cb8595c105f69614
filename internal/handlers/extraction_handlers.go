package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/services"
	"alphavault-backend/pkg/httputil"
)

// ExtractionHandlers exposes the structured-data export endpoint.
type ExtractionHandlers struct {
	extractionService *services.ExtractionService
}

func NewExtractionHandlers(extractSvc *services.ExtractionService) *ExtractionHandlers {
	return &ExtractionHandlers{
		extractionService: extractSvc,
	}
}

// HandleExtract handles POST /v1/extract. A successful extraction
// streams the workbook back as a download.
func (h *ExtractionHandlers) HandleExtract(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req api_models.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	filename, data, err := h.extractionService.ExtractToWorkbook(r.Context(), sessionID, req.Fields)
	if err != nil {
		log.Printf("ERROR [ExtractHandler] HandleExtract for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to extract data")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
