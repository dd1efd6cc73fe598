package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"filterchat/internal/models"
	"filterchat/internal/services"
)

type chatService interface {
	Classify(ctx context.Context, text string) (services.Decision, error)
	GenerateReply(ctx context.Context, messages []models.ChatMessage, maxTokens *int) (string, error)
}

type ChatHandler struct {
	gemini chatService
}

func NewChatHandler(gemini chatService) *ChatHandler {
	return &ChatHandler{gemini: gemini}
}

// HandleChat classifies the newest user message and, when it passes the
// filter, generates an assistant reply from the full transcript.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "messages must not be empty", r))
		return
	}

	for _, m := range req.Messages {
		if !models.ValidRole(m.Role) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "role must be one of user, assistant, system", r))
			return
		}
	}

	lastUser, ok := lastUserMessage(req.Messages)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "At least one user message is required", r))
		return
	}

	decision, err := h.gemini.Classify(r.Context(), lastUser.Content)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("AI_ERROR", "Failed to classify message", r))
		return
	}

	if !decision.IsSafe {
		blocked := false
		writeJSON(w, http.StatusOK, models.ChatResponse{
			Role:        models.RoleAssistant,
			Content:     models.BlockedMessage,
			IsSafe:      &blocked,
			RawDecision: decision.Raw,
		})
		return
	}

	reply, err := h.gemini.GenerateReply(r.Context(), req.Messages, req.MaxTokens)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("AI_ERROR", "Failed to get AI response", r))
		return
	}

	safe := true
	writeJSON(w, http.StatusOK, models.ChatResponse{
		Role:        models.RoleAssistant,
		Content:     reply,
		IsSafe:      &safe,
		RawDecision: decision.Raw,
	})
}

// lastUserMessage finds the most recent message authored by the user.
func lastUserMessage(messages []models.ChatMessage) (models.ChatMessage, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i], true
		}
	}
	return models.ChatMessage{}, false
}
