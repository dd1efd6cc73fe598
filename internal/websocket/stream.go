package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"filterchat/internal/models"
	"filterchat/internal/services"
)

// DoneSentinel terminates each streamed reply so the client knows the
// turn is over.
const DoneSentinel = "[DONE]"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type streamService interface {
	Classify(ctx context.Context, text string) (services.Decision, error)
	StreamReply(ctx context.Context, messages []models.ChatMessage, emit func(token string) error) error
}

// StreamHandler serves the streaming chat socket. Each inbound text
// frame is one chat request; the reply is streamed token by token and
// closed with the done sentinel. Invalid payloads are answered inline
// so the connection survives client mistakes.
type StreamHandler struct {
	gemini streamService
}

func NewStreamHandler(gemini streamService) *StreamHandler {
	return &StreamHandler{gemini: gemini}
}

func (h *StreamHandler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req models.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.writeText(conn, fmt.Sprintf("Invalid payload: %v", err))
			continue
		}

		if msg, ok := validateStreamRequest(req); !ok {
			h.writeText(conn, msg)
			continue
		}

		h.streamTurn(r.Context(), conn, req)
	}
}

func (h *StreamHandler) streamTurn(ctx context.Context, conn *websocket.Conn, req models.ChatRequest) {
	lastUser, _ := lastUserMessage(req.Messages)

	decision, err := h.gemini.Classify(ctx, lastUser.Content)
	if err != nil {
		h.writeText(conn, "Failed to classify message")
		return
	}

	if !decision.IsSafe {
		h.writeText(conn, models.BlockedMessage)
		h.writeText(conn, DoneSentinel)
		return
	}

	err = h.gemini.StreamReply(ctx, req.Messages, func(token string) error {
		return conn.WriteMessage(websocket.TextMessage, []byte(token))
	})
	if err != nil {
		log.Printf("Stream generation failed: %v", err)
		h.writeText(conn, "Failed to get AI response")
		return
	}

	h.writeText(conn, DoneSentinel)
}

func (h *StreamHandler) writeText(conn *websocket.Conn, text string) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		log.Printf("WebSocket write failed: %v", err)
	}
}

func validateStreamRequest(req models.ChatRequest) (string, bool) {
	if len(req.Messages) == 0 {
		return "messages must not be empty", false
	}
	for _, m := range req.Messages {
		if !models.ValidRole(m.Role) {
			return "role must be one of user, assistant, system", false
		}
	}
	if _, ok := lastUserMessage(req.Messages); !ok {
		return "At least one user message is required", false
	}
	return "", true
}

func lastUserMessage(messages []models.ChatMessage) (models.ChatMessage, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i], true
		}
	}
	return models.ChatMessage{}, false
}
