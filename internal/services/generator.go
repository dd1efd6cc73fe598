package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"

	"filterchat/internal/models"
)

// BuildPrompt flattens a transcript into the "role: content" form the
// model is prompted with, one message per line.
func BuildPrompt(messages []models.ChatMessage) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}

// GenerateReply produces one assistant reply for the full transcript.
// maxTokens, when non-nil, overrides the configured output limit for
// this request only.
func (s *GeminiService) GenerateReply(ctx context.Context, messages []models.ChatMessage, maxTokens *int) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	prompt := BuildPrompt(messages)

	model := s.chatModel
	if maxTokens != nil && *maxTokens > 0 && *maxTokens != s.maxTokens {
		override := *s.chatModel
		override.SetMaxOutputTokens(int32(*maxTokens))
		model = &override
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	reply := strings.TrimSpace(extractText(resp))
	if reply == "" {
		return "", fmt.Errorf("Gemini returned an empty reply")
	}
	return reply, nil
}

// GenerateRaw runs one uncurated generation for the raw endpoint,
// applying any per-request sampling overrides, and returns the
// assembled prompt next to the model output.
func (s *GeminiService) GenerateRaw(ctx context.Context, req models.GenerateRequest) (prompt, output string, err error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", "", err
	}
	defer s.releaseRate()

	prompt = BuildPrompt(req.Messages)

	model := *s.chatModel
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(*req.MaxTokens))
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.TopP != nil {
		model.SetTopP(float32(*req.TopP))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", "", fmt.Errorf("Gemini API error: %w", err)
	}

	return prompt, strings.TrimSpace(extractText(resp)), nil
}

// StreamReply generates a reply for the transcript and hands each chunk
// to emit as it arrives. Stops early when emit returns an error.
func (s *GeminiService) StreamReply(ctx context.Context, messages []models.ChatMessage, emit func(token string) error) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	prompt := BuildPrompt(messages)

	iter := s.chatModel.GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("Gemini API error: %w", err)
		}

		chunk := extractText(resp)
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
}
