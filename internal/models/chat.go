package models

// Allowed message author roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// BlockedMessage is returned verbatim in place of a reply when the
// newest user message fails moderation.
const BlockedMessage = "부적절한 표현이 감지되어 메시지가 차단되었습니다."

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// ValidRole reports whether role is one the chat endpoint accepts.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant || role == RoleSystem
}

// ChatRequest is the payload sent to the chat endpoint. Messages carry
// the full transcript including the newest user message.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	MaxTokens *int          `json:"max_tokens,omitempty"`
}

// ChatResponse is the reply from the moderated chat endpoint.
// IsSafe reflects the classifier verdict on the last user message;
// RawDecision carries the raw classifier output for debugging.
type ChatResponse struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	IsSafe      *bool  `json:"is_safe,omitempty"`
	RawDecision string `json:"raw_decision,omitempty"`
}

// GenerateRequest is the payload for the raw generation endpoint.
type GenerateRequest struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
}

// GenerateResponse echoes the assembled prompt next to the model output.
type GenerateResponse struct {
	Prompt string `json:"prompt"`
	Output string `json:"output"`
}

// ConfigResponse exposes the effective generation settings.
type ConfigResponse struct {
	ModelName   string  `json:"model_name"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// API Error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
