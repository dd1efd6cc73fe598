package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"filterchat/internal/models"
	"filterchat/internal/services"
)

type fakeStreamer struct {
	decision services.Decision
	tokens   []string
}

func (f *fakeStreamer) Classify(ctx context.Context, text string) (services.Decision, error) {
	return f.decision, nil
}

func (f *fakeStreamer) StreamReply(ctx context.Context, messages []models.ChatMessage, emit func(string) error) error {
	for _, tok := range f.tokens {
		if err := emit(tok); err != nil {
			return err
		}
	}
	return nil
}

func dialStream(t *testing.T, fake *fakeStreamer) *websocket.Conn {
	t.Helper()

	h := NewStreamHandler(fake)
	srv := httptest.NewServer(httpHandler(h))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func httpHandler(h *StreamHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ws/chat", h.HandleChatStream)
	return mux
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	return string(data)
}

func TestStream_SafeRequestStreamsTokensThenDone(t *testing.T) {
	fake := &fakeStreamer{
		decision: services.Decision{IsSafe: true, Raw: "SAFE"},
		tokens:   []string{"안녕", "하세요", "!"},
	}
	conn := dialStream(t, fake)

	req := models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "인사해줘"}}}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}

	var frames []string
	for {
		frame := readFrame(t, conn)
		frames = append(frames, frame)
		if frame == DoneSentinel {
			break
		}
	}

	if len(frames) != 4 {
		t.Fatalf("Expected 3 tokens + sentinel, got %v", frames)
	}
	if strings.Join(frames[:3], "") != "안녕하세요!" {
		t.Errorf("Unexpected streamed reply: %v", frames[:3])
	}
}

func TestStream_UnsafeRequestIsBlocked(t *testing.T) {
	fake := &fakeStreamer{
		decision: services.Decision{IsSafe: false, Raw: "UNSAFE"},
		tokens:   []string{"never"},
	}
	conn := dialStream(t, fake)

	req := models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "나쁜 말"}}}
	conn.WriteJSON(req)

	if frame := readFrame(t, conn); frame != models.BlockedMessage {
		t.Errorf("Expected blocked message, got %q", frame)
	}
	if frame := readFrame(t, conn); frame != DoneSentinel {
		t.Errorf("Expected done sentinel, got %q", frame)
	}
}

func TestStream_InvalidPayloadAnsweredInline(t *testing.T) {
	fake := &fakeStreamer{decision: services.Decision{IsSafe: true}}
	conn := dialStream(t, fake)

	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))

	if frame := readFrame(t, conn); !strings.HasPrefix(frame, "Invalid payload:") {
		t.Errorf("Expected invalid payload notice, got %q", frame)
	}

	// Connection must survive the bad frame.
	req := models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "hi"}}}
	conn.WriteJSON(req)
	if frame := readFrame(t, conn); frame == "" {
		t.Error("Expected the next turn to be served")
	}
}

func TestStream_EmptyMessagesRejectedInline(t *testing.T) {
	fake := &fakeStreamer{decision: services.Decision{IsSafe: true}}
	conn := dialStream(t, fake)

	conn.WriteJSON(models.ChatRequest{})

	if frame := readFrame(t, conn); frame != "messages must not be empty" {
		t.Errorf("Expected empty-messages notice, got %q", frame)
	}
}

func TestValidateStreamRequest(t *testing.T) {
	tests := []struct {
		name     string
		messages []models.ChatMessage
		ok       bool
	}{
		{"valid", []models.ChatMessage{{Role: "user", Content: "hi"}}, true},
		{"empty", nil, false},
		{"bad role", []models.ChatMessage{{Role: "robot", Content: "hi"}}, false},
		{"assistant only", []models.ChatMessage{{Role: "assistant", Content: "hi"}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := validateStreamRequest(models.ChatRequest{Messages: tc.messages})
			if ok != tc.ok {
				t.Errorf("Expected ok=%v", tc.ok)
			}
		})
	}
}
