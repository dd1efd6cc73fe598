package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"filterchat/internal/models"
)

// HTTPResponder posts the transcript to a chat endpoint and extracts
// the assistant reply. It understands both the current response shape
// ({content, is_safe}) and the legacy ones ({reply} / {message});
// the first populated field wins, in that order of preference.
type HTTPResponder struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPResponder(endpoint string) *HTTPResponder {
	return &HTTPResponder{
		Endpoint: endpoint,
		Client:   &http.Client{},
	}
}

func (r *HTTPResponder) Respond(ctx context.Context, transcript []models.ChatMessage) (Reply, error) {
	body, err := json.Marshal(models.ChatRequest{Messages: transcript})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Reply   string `json:"reply"`
		Message string `json:"message"`
		Content string `json:"content"`
		IsSafe  *bool  `json:"is_safe"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Reply{}, fmt.Errorf("failed to decode chat response: %w", err)
	}

	switch {
	case parsed.Reply != "":
		return Reply{Content: parsed.Reply}, nil
	case parsed.Message != "":
		return Reply{Content: parsed.Message}, nil
	case parsed.Content != "":
		return Reply{Content: parsed.Content, IsSafe: parsed.IsSafe}, nil
	}
	return Reply{}, fmt.Errorf("chat response carries no reply field")
}
