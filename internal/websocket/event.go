package websocket

import (
	"encoding/json"
	"fmt"
)

// Event types sent by clients.
const (
	EventSearch      = "search"
	EventJoinedChat  = "joined-chat"
	EventLeftChat    = "left-chat"
	EventStartChat   = "start-chat"
	EventSendMessage = "send-message"
)

// Event types sent by the server.
const (
	EventSearchResult   = "search-result"
	EventChatInit       = "chat-init"
	EventChatError      = "chat-error"
	EventNewChatCreated = "new-chat-created"
	EventNewChat        = "new-chat"
	EventChatExists     = "chat-exists"
	EventMessage        = "message"
	EventError          = "error"
)

// Event is the wire envelope for every WebSocket message in both directions.
// Chat-scoped events carry the chat in ChatID instead of encoding it into
// the event name.
type Event struct {
	Type    string          `json:"type"`
	ChatID  uint            `json:"chatId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SearchPayload is the client payload for a search event.
type SearchPayload struct {
	Query string `json:"query"`
}

// StartChatPayload is the client payload for a start-chat event: a selected
// search result plus the first message to send.
type StartChatPayload struct {
	TargetID uint   `json:"targetId"`
	Body     string `json:"body"`
}

// SendMessagePayload is the client payload for a send-message event.
type SendMessagePayload struct {
	Body string `json:"body"`
}

// ChatErrorPayload is the payload of a scoped chat-error event.
type ChatErrorPayload struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
}

// Error statuses used in chat-error and error events.
const (
	StatusUnauthorized = "unauthorized"
	StatusNotFound     = "not-found"
	StatusInvalid      = "invalid"
	StatusInternal     = "internal"
)

// NewEvent marshals a payload into an Event envelope. A nil payload leaves
// the envelope payload empty.
func NewEvent(eventType string, chatID uint, payload interface{}) (Event, error) {
	event := Event{Type: eventType, ChatID: chatID}
	if payload == nil {
		return event, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	event.Payload = raw
	return event, nil
}

// Encode marshals the envelope itself for the wire.
//
// Server payload types per event: search-result carries []models.PublicUser,
// chat-init carries services.ChatSnapshot, new-chat-created and new-chat
// carry models.ChatSummary, message carries models.Message.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
