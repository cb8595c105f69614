package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/services"
	"alphavault-backend/pkg/httputil"
)

// ChatHandlers exposes the conversation endpoints.
type ChatHandlers struct {
	chatService *services.ChatService
}

func NewChatHandlers(chatSvc *services.ChatService) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatSvc,
	}
}

// HandleSendMessage handles POST /v1/chat/messages.
func (h *ChatHandlers) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req api_models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.chatService.SendMessage(r.Context(), sessionID, req.Content)
	if err != nil {
		log.Printf("ERROR [ChatHandler] HandleSendMessage for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to process message")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleShortcut handles POST /v1/chat/shortcuts.
func (h *ChatHandlers) HandleShortcut(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req api_models.ShortcutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.chatService.RunShortcut(r.Context(), sessionID, req.Kind)
	if err != nil {
		log.Printf("ERROR [ChatHandler] HandleShortcut %q for session %s: %v", req.Kind, sessionID, err)
		respondServiceError(w, err, "Failed to run shortcut")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleSynthesize handles POST /v1/chat/synthesize.
func (h *ChatHandlers) HandleSynthesize(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	resp, err := h.chatService.Synthesize(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR [ChatHandler] HandleSynthesize for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to synthesize documents")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleUpdateSettings handles PATCH /v1/chat/settings.
func (h *ChatHandlers) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req api_models.UpdateChatSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.WebSearch == nil {
		httputil.RespondError(w, http.StatusBadRequest, "No settings provided")
		return
	}

	if err := h.chatService.SetWebSearch(r.Context(), sessionID, *req.WebSearch); err != nil {
		log.Printf("ERROR [ChatHandler] HandleUpdateSettings for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to update settings")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"web_search": *req.WebSearch})
}

// HandleExportTranscript handles GET /v1/chat/transcript. The body is
// plain text served as a download.
func (h *ChatHandlers) HandleExportTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	text, err := h.chatService.ExportTranscript(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR [ChatHandler] HandleExportTranscript for session %s: %v", sessionID, err)
		respondServiceError(w, err, "Failed to export transcript")
		return
	}

	filename := fmt.Sprintf("AlphaVault_Transcript_%s.txt", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}
