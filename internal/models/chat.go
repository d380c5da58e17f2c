package models

// Chat platform event types we react to. Anything else is acknowledged
// with an empty envelope to satisfy the platform handshake.
const (
	ChatEventMessage      = "MESSAGE"
	ChatEventAddedToSpace = "ADDED_TO_SPACE"
)

// ChatThread identifies a conversation thread.
type ChatThread struct {
	Name string `json:"name,omitempty"`
}

// ChatMessage is the message portion of a chat event. For slash commands
// the platform puts the user text in ArgumentText; for plain messages
// it is in Text.
type ChatMessage struct {
	Text         string      `json:"text,omitempty"`
	ArgumentText string      `json:"argumentText,omitempty"`
	Thread       *ChatThread `json:"thread,omitempty"`
}

// ChatEvent is the inbound payload on the chat command endpoint.
// Token is opaque and forwarded as-is; it is not validated here.
type ChatEvent struct {
	Type    string       `json:"type"`
	Token   string       `json:"token,omitempty"`
	Message *ChatMessage `json:"message,omitempty"`
}

// Argument returns the user-entered text of the event, preferring
// ArgumentText over Text.
func (e *ChatEvent) Argument() string {
	if e.Message == nil {
		return ""
	}
	if e.Message.ArgumentText != "" {
		return e.Message.ArgumentText
	}
	return e.Message.Text
}

// ThreadName returns the thread reference of the event, if any.
func (e *ChatEvent) ThreadName() string {
	if e.Message == nil || e.Message.Thread == nil {
		return ""
	}
	return e.Message.Thread.Name
}

// ChatResponse is the response envelope the chat platform expects.
// A Thread reference keeps the reply in the originating thread.
type ChatResponse struct {
	Text   string      `json:"text,omitempty"`
	Thread *ChatThread `json:"thread,omitempty"`
}

// NewChatResponse builds a response, attaching the thread reference
// when threadName is non-empty.
func NewChatResponse(text, threadName string) *ChatResponse {
	resp := &ChatResponse{Text: text}
	if threadName != "" {
		resp.Thread = &ChatThread{Name: threadName}
	}
	return resp
}
