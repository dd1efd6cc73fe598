// Package session holds the client-side chat session state: an
// append-only transcript, a single-flight request status, and the last
// submission error. A view layer subscribes for re-renders; it never
// mutates the session directly.
package session

import (
	"context"
	"strings"
	"sync"

	"filterchat/internal/models"
)

// Status of the controller's one outstanding request.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusAwaitingResponse Status = "awaiting-response"
)

const (
	// Greeting seeds every new transcript.
	Greeting = "안녕하세요! 무엇이든 편하게 이야기해 보세요."

	// FilteredNotice is appended to a reply the backend marked unsafe.
	FilteredNotice = "\n\n(부적절한 표현이 감지되어 필터링된 응답입니다.)"

	// ErrRequestFailed is the fixed user-facing message shown after a
	// failed submission. The transcript is preserved and the user may retry.
	ErrRequestFailed = "응답을 받지 못했습니다. 잠시 후 다시 시도해 주세요."
)

// Reply is one assistant answer produced by a Responder. IsSafe is nil
// when the backend did not include a safety verdict.
type Reply struct {
	Content string
	IsSafe  *bool
}

// Responder produces the assistant reply for a full transcript.
type Responder interface {
	Respond(ctx context.Context, transcript []models.ChatMessage) (Reply, error)
}

// Snapshot is an immutable view of the session handed to observers.
type Snapshot struct {
	Transcript []models.ChatMessage
	Status     Status
	LastError  string
	Input      string
}

// Controller owns the transcript and mediates at most one outstanding
// request at a time. Submissions while a request is in flight are
// rejected, not queued.
type Controller struct {
	mu         sync.Mutex
	transcript []models.ChatMessage
	status     Status
	lastError  string
	input      string
	responder  Responder
	observers  []func(Snapshot)
	appendHook func(transcriptLen int)
}

func New(responder Responder) *Controller {
	return &Controller{
		transcript: []models.ChatMessage{
			{Role: models.RoleAssistant, Content: Greeting},
		},
		status:    StatusIdle,
		responder: responder,
	}
}

// Subscribe registers an observer notified after every state transition.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// SetAppendHook registers a callback invoked after each successful
// transcript append with the new transcript length. Used by views for
// scroll-to-latest behavior.
func (c *Controller) SetAppendHook(fn func(transcriptLen int)) {
	c.mu.Lock()
	c.appendHook = fn
	c.mu.Unlock()
}

// SetInput updates the draft input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Transcript returns a copy of the transcript in chronological order.
func (c *Controller) Transcript() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcriptLocked()
}

// Submit runs one full submission cycle: append the user message, post
// the transcript, append the assistant reply. It reports false without
// any state change when text trims to empty or a request is already in
// flight. On request failure the user message stays in the transcript,
// status returns to idle and LastError is set.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if trimmed == "" || c.status == StatusAwaitingResponse {
		c.mu.Unlock()
		return false
	}

	c.transcript = append(c.transcript, models.ChatMessage{Role: models.RoleUser, Content: trimmed})
	c.input = ""
	c.lastError = ""
	c.status = StatusAwaitingResponse
	outbound := c.transcriptLocked()
	snap := c.snapshotLocked()
	appended := len(c.transcript)
	hook := c.appendHook
	c.mu.Unlock()

	c.notify(snap)
	if hook != nil {
		hook(appended)
	}

	reply, err := c.responder.Respond(ctx, outbound)

	c.mu.Lock()
	c.status = StatusIdle
	if err != nil {
		c.lastError = ErrRequestFailed
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return true
	}

	content := reply.Content
	if reply.IsSafe != nil && !*reply.IsSafe {
		content += FilteredNotice
	}
	c.transcript = append(c.transcript, models.ChatMessage{Role: models.RoleAssistant, Content: content})
	snap = c.snapshotLocked()
	appended = len(c.transcript)
	hook = c.appendHook
	c.mu.Unlock()

	c.notify(snap)
	if hook != nil {
		hook(appended)
	}
	return true
}

func (c *Controller) transcriptLocked() []models.ChatMessage {
	out := make([]models.ChatMessage, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Transcript: c.transcriptLocked(),
		Status:     c.status,
		LastError:  c.lastError,
		Input:      c.input,
	}
}

func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	observers := make([]func(Snapshot), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
