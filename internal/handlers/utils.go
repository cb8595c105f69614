package handlers

import (
	"errors"
	"net/http"

	"alphavault-backend/internal/auth"
	"alphavault-backend/internal/integrations"
	"alphavault-backend/internal/services"
	"alphavault-backend/internal/store"
	"alphavault-backend/pkg/httputil"

	"github.com/google/uuid"
)

// requireSessionID extracts the session ID injected by the JWT
// middleware, responding 401 when it is absent.
func requireSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, ok := auth.GetSessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Session ID not found in token context")
		return uuid.Nil, false
	}
	return sessionID, true
}

// respondServiceError maps service-layer failures onto HTTP statuses.
// Provider failures that reach here (synthesis, extraction) surface the
// classified message instead of a generic 500.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var classified *integrations.ClassifiedError
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Session or resource not found")
	case errors.Is(err, store.ErrTurnInFlight):
		httputil.RespondError(w, http.StatusConflict, "A request is already in progress for this session")
	case errors.Is(err, services.ErrChatValidation),
		errors.Is(err, services.ErrIngestValidation),
		errors.Is(err, services.ErrExtractValidation),
		errors.Is(err, services.ErrCredentialValidation),
		errors.Is(err, services.ErrUnknownShortcut),
		errors.Is(err, services.ErrSynthesisTooFewDocs):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoExtractedRows),
		errors.Is(err, services.ErrNoImportableDocs):
		httputil.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &classified):
		switch classified.Kind {
		case integrations.KindConfiguration:
			httputil.RespondError(w, http.StatusBadRequest, classified.Message)
		default:
			httputil.RespondError(w, http.StatusBadGateway, classified.Message)
		}
	default:
		httputil.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
