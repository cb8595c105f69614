package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/services"
	"alphavault-backend/pkg/httputil"
)

// CredentialsHandler exposes the Gemini API key endpoints.
type CredentialsHandler struct {
	credService services.CredentialsService
}

func NewCredentialsHandler(credSvc services.CredentialsService) *CredentialsHandler {
	return &CredentialsHandler{
		credService: credSvc,
	}
}

// HandleSetCredential handles PUT /v1/credentials.
func (h *CredentialsHandler) HandleSetCredential(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSessionID(w, r); !ok {
		return
	}

	var req api_models.SetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.credService.SetKey(r.Context(), req.APIKey); err != nil {
		log.Printf("ERROR [CredHandler] HandleSetCredential: %v", err)
		if errors.Is(err, services.ErrCredentialValidation) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, services.ErrCredentialEncryption) {
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to secure credential")
		} else {
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to store credential")
		}
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"configured": true})
}

// HandleDeleteCredential handles DELETE /v1/credentials.
func (h *CredentialsHandler) HandleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSessionID(w, r); !ok {
		return
	}

	if err := h.credService.ClearKey(r.Context()); err != nil {
		log.Printf("ERROR [CredHandler] HandleDeleteCredential: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to remove credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTestCredential handles POST /v1/credentials/test. A logical
// test failure (bad key, quota) is still a 200; the payload carries
// the outcome.
func (h *CredentialsHandler) HandleTestCredential(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSessionID(w, r); !ok {
		return
	}

	resp, err := h.credService.TestCredential(r.Context())
	if err != nil {
		log.Printf("ERROR [CredHandler] HandleTestCredential: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to test credential")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
