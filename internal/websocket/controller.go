package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/PejmanG/chat-app/internal/logger"
	"github.com/PejmanG/chat-app/internal/services"
)

// Controller drives the chat-session state machine for every connection:
// join and snapshot delivery, leave, live search, chat bootstrapping and
// message broadcast. Validation failures turn into scoped error events and
// leave the connection's state unchanged; store failures go to the generic
// error event on the initiating connection only.
type Controller struct {
	hub   *Hub
	chats services.ChatService
	users services.UserService
	log   zerolog.Logger
}

// NewController creates a Controller wired to the hub and services.
func NewController(hub *Hub, chats services.ChatService, users services.UserService) *Controller {
	return &Controller{
		hub:   hub,
		chats: chats,
		users: users,
		log:   logger.Module("controller"),
	}
}

// HandleEvent dispatches one inbound client event.
func (ctl *Controller) HandleEvent(ctx context.Context, c *Client, event Event) {
	switch event.Type {
	case EventSearch:
		ctl.handleSearch(ctx, c, event)
	case EventJoinedChat:
		ctl.handleJoin(ctx, c, event)
	case EventLeftChat:
		ctl.handleLeave(c, event)
	case EventStartChat:
		ctl.handleStartChat(ctx, c, event)
	case EventSendMessage:
		ctl.handleSendMessage(ctx, c, event)
	default:
		ctl.log.Warn().Str("type", event.Type).Uint("userId", c.UserID).Msg("unknown event type")
	}
}

// handleSearch answers a live search on the requesting connection only.
func (ctl *Controller) handleSearch(ctx context.Context, c *Client, event Event) {
	var payload SearchPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		ctl.sendError(c, 0, StatusInvalid, "malformed search payload")
		return
	}

	results, err := ctl.users.Search(ctx, payload.Query)
	if err != nil {
		ctl.log.Error().Err(err).Uint("userId", c.UserID).Msg("search failed")
		ctl.sendError(c, 0, StatusInternal, "search failed")
		return
	}

	ctl.send(c, EventSearchResult, 0, results)
}

// handleJoin moves the connection Idle -> Joining -> Active, delivering the
// chat snapshot. An unauthorized join produces a scoped chat-error and the
// connection stays Idle. The connection enters the room before the snapshot
// query runs, so a message committed while the snapshot builds is still
// delivered; the client may see it twice at the overlap, never zero times.
func (ctl *Controller) handleJoin(ctx context.Context, c *Client, event Event) {
	if event.ChatID == 0 {
		ctl.sendError(c, 0, StatusInvalid, "joined-chat requires a chatId")
		return
	}

	if err := ctl.chats.EnsureParticipant(ctx, c.UserID, event.ChatID); err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			ctl.sendChatError(c, event.ChatID, StatusUnauthorized, "you are not a participant of this chat")
			return
		}
		ctl.log.Error().Err(err).Uint("userId", c.UserID).Uint("chatId", event.ChatID).Msg("join failed")
		ctl.sendError(c, event.ChatID, StatusInternal, "failed to join chat")
		return
	}

	c.setState(StateJoining)
	ctl.hub.Join(c, event.ChatID)

	snapshot, err := ctl.chats.JoinChat(ctx, c.UserID, event.ChatID)
	if err != nil {
		ctl.hub.Leave(c, event.ChatID)
		c.setState(StateIdle)
		ctl.log.Error().Err(err).Uint("userId", c.UserID).Uint("chatId", event.ChatID).Msg("join failed")
		ctl.sendError(c, event.ChatID, StatusInternal, "failed to join chat")
		return
	}

	ctl.send(c, EventChatInit, event.ChatID, snapshot)
	c.setState(StateActive)
}

// handleLeave returns the connection to Idle and stops room delivery.
func (ctl *Controller) handleLeave(c *Client, event Event) {
	ctl.hub.Leave(c, event.ChatID)
	c.setState(StateIdle)
}

// handleStartChat bootstraps a chat from a selected search result. The
// initiating connection gets new-chat-created (or chat-exists), and every
// live connection of the other participant gets a new-chat notification.
func (ctl *Controller) handleStartChat(ctx context.Context, c *Client, event Event) {
	var payload StartChatPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		ctl.sendError(c, 0, StatusInvalid, "malformed start-chat payload")
		return
	}

	result, err := ctl.chats.StartChat(ctx, c.UserID, payload.TargetID, payload.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			ctl.sendError(c, 0, StatusInvalid, err.Error())
		case errors.Is(err, services.ErrNotFound):
			ctl.sendError(c, 0, StatusNotFound, "no such user")
		default:
			ctl.log.Error().Err(err).Uint("userId", c.UserID).Msg("start-chat failed")
			ctl.sendError(c, 0, StatusInternal, "failed to start chat")
		}
		return
	}

	if !result.Created {
		ctl.send(c, EventChatExists, result.Chat.ID, nil)
		return
	}

	mine, err := ctl.chats.SummaryFor(ctx, result.Chat.ID, c.UserID)
	if err != nil {
		ctl.log.Error().Err(err).Uint("chatId", result.Chat.ID).Msg("failed to build initiator summary")
		ctl.sendError(c, result.Chat.ID, StatusInternal, "failed to start chat")
		return
	}
	ctl.send(c, EventNewChatCreated, result.Chat.ID, mine)

	theirs, err := ctl.chats.SummaryFor(ctx, result.Chat.ID, payload.TargetID)
	if err != nil {
		ctl.log.Error().Err(err).Uint("chatId", result.Chat.ID).Msg("failed to build recipient summary")
		return
	}
	notification, err := NewEvent(EventNewChat, result.Chat.ID, theirs)
	if err != nil {
		ctl.log.Error().Err(err).Msg("failed to encode new-chat event")
		return
	}
	ctl.hub.BroadcastToUser(payload.TargetID, notification)
}

// handleSendMessage appends a message and broadcasts it to the chat room.
// Participants with a connection in the room are actively viewing, so their
// unread counters are re-zeroed after the broadcast.
func (ctl *Controller) handleSendMessage(ctx context.Context, c *Client, event Event) {
	var payload SendMessagePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		ctl.sendError(c, event.ChatID, StatusInvalid, "malformed send-message payload")
		return
	}
	if event.ChatID == 0 {
		ctl.sendError(c, 0, StatusInvalid, "send-message requires a chatId")
		return
	}

	message, err := ctl.chats.SendMessage(ctx, c.UserID, event.ChatID, payload.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthorized):
			ctl.sendChatError(c, event.ChatID, StatusUnauthorized, "you are not a participant of this chat")
		case errors.Is(err, services.ErrValidation):
			ctl.sendError(c, event.ChatID, StatusInvalid, err.Error())
		default:
			ctl.log.Error().Err(err).Uint("userId", c.UserID).Uint("chatId", event.ChatID).Msg("send-message failed")
			ctl.sendError(c, event.ChatID, StatusInternal, "failed to send message")
		}
		return
	}

	broadcast, err := NewEvent(EventMessage, event.ChatID, message)
	if err != nil {
		ctl.log.Error().Err(err).Msg("failed to encode message event")
		return
	}
	ctl.hub.BroadcastToRoom(event.ChatID, broadcast)

	for _, viewerID := range ctl.hub.ViewersInRoom(event.ChatID) {
		if viewerID == c.UserID {
			continue
		}
		if err := ctl.chats.MarkViewed(ctx, event.ChatID, viewerID); err != nil {
			ctl.log.Error().Err(err).Uint("chatId", event.ChatID).Uint("userId", viewerID).Msg("failed to mark chat viewed")
		}
	}
}

// send encodes and delivers an event to a single connection.
func (ctl *Controller) send(c *Client, eventType string, chatID uint, payload interface{}) {
	event, err := NewEvent(eventType, chatID, payload)
	if err != nil {
		ctl.log.Error().Err(err).Str("type", eventType).Msg("failed to encode event")
		return
	}
	ctl.hub.Send(c, event)
}

// sendChatError emits a chat-scoped error event to one connection.
func (ctl *Controller) sendChatError(c *Client, chatID uint, status, message string) {
	ctl.send(c, EventChatError, chatID, ChatErrorPayload{Status: status, ErrorMessage: message})
}

// sendError emits a generic error event to the initiating connection only.
func (ctl *Controller) sendError(c *Client, chatID uint, status, message string) {
	ctl.send(c, EventError, chatID, ChatErrorPayload{Status: status, ErrorMessage: message})
}
