package handlers

import (
	"log"
	"net/http"

	"alphavault-backend/internal/services"
	"alphavault-backend/pkg/httputil"
)

// SessionHandlers exposes workspace session lifecycle endpoints.
type SessionHandlers struct {
	chatService *services.ChatService
}

func NewSessionHandlers(chatSvc *services.ChatService) *SessionHandlers {
	return &SessionHandlers{
		chatService: chatSvc,
	}
}

// HandleCreateSession handles POST /v1/sessions. This is the only
// public endpoint besides the health check; the returned token guards
// everything else.
func (h *SessionHandlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.chatService.CreateSession(r.Context())
	if err != nil {
		log.Printf("ERROR [SessionHandler] HandleCreateSession: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleEndSession handles DELETE /v1/session. The token becomes
// useless afterwards; every subsequent call 404s.
func (h *SessionHandlers) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	if err := h.chatService.EndSession(r.Context(), sessionID); err != nil {
		log.Printf("ERROR [SessionHandler] HandleEndSession for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetSession handles GET /v1/session.
func (h *SessionHandlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	state, err := h.chatService.GetState(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR [SessionHandler] HandleGetSession for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to load session state")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, state)
}
