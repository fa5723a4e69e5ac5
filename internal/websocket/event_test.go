package websocket

import (
	"encoding/json"
	"testing"
)

// TestNewEventEnvelope verifies the envelope shape on the wire: type always
// present, chatId omitted when zero, payload carried through verbatim.
func TestNewEventEnvelope(t *testing.T) {
	event, err := NewEvent(EventMessage, 12, map[string]string{"body": "hi"})
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}

	data, err := event.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if string(decoded["type"]) != `"message"` {
		t.Errorf("type = %s, want %q", decoded["type"], "message")
	}
	if string(decoded["chatId"]) != "12" {
		t.Errorf("chatId = %s, want 12", decoded["chatId"])
	}
	if _, ok := decoded["payload"]; !ok {
		t.Error("payload missing from envelope")
	}
}

// TestNewEventOmitsZeroChatID verifies connection-scoped events carry no
// chatId field.
func TestNewEventOmitsZeroChatID(t *testing.T) {
	event, err := NewEvent(EventSearchResult, 0, []string{})
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}

	data, err := event.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if _, ok := decoded["chatId"]; ok {
		t.Error("chatId present on a connection-scoped event")
	}
}

// TestEventRoundTrip verifies a client-encoded event decodes into the same
// envelope the dispatcher sees.
func TestEventRoundTrip(t *testing.T) {
	raw := []byte(`{"type":"send-message","chatId":3,"payload":{"body":"hello"}}`)

	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.Type != EventSendMessage {
		t.Errorf("Type = %q, want %q", event.Type, EventSendMessage)
	}
	if event.ChatID != 3 {
		t.Errorf("ChatID = %d, want 3", event.ChatID)
	}

	var payload SendMessagePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.Body != "hello" {
		t.Errorf("Body = %q, want %q", payload.Body, "hello")
	}
}
