package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"filterchat/internal/config"
	"filterchat/internal/models"
)

type generateService interface {
	GenerateRaw(ctx context.Context, req models.GenerateRequest) (prompt, output string, err error)
}

type GenerateHandler struct {
	gemini generateService
	cfg    *config.Config
}

func NewGenerateHandler(gemini generateService, cfg *config.Config) *GenerateHandler {
	return &GenerateHandler{gemini: gemini, cfg: cfg}
}

// Generate runs one unmoderated completion over the posted transcript.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "messages must not be empty", r))
		return
	}

	prompt, output, err := h.gemini.GenerateRaw(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("AI_ERROR", "Failed to get AI response", r))
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateResponse{Prompt: prompt, Output: output})
}

// Config exposes the effective generation settings.
func (h *GenerateHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ConfigResponse{
		ModelName:   h.cfg.ModelName,
		MaxTokens:   h.cfg.MaxTokens,
		Temperature: h.cfg.Temperature,
		TopP:        h.cfg.TopP,
	})
}
