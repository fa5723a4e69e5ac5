package api

import (
	"net/http"

	"github.com/PejmanG/chat-app/internal/middleware"
	"github.com/PejmanG/chat-app/internal/services"
)

// ChatHandler bundles the chat HTTP endpoints.
type ChatHandler struct {
	ChatService services.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{ChatService: chatService}
}

// ListChats returns the caller's chat summaries, most recently active first.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	summaries, err := h.ChatService.ListChats(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "failed to load chats", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, summaries)
}
