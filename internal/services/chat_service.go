package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/PejmanG/chat-app/internal/models"
	"github.com/PejmanG/chat-app/internal/storage"
)

// ChatSnapshot is the full initial state delivered when a connection joins a
// chat: the other participant's identity plus the ordered message history.
type ChatSnapshot struct {
	RecipientUser models.PublicUser `json:"recipientUser"`
	Messages      []models.Message  `json:"messages"`
}

// StartChatResult is the outcome of a start-chat request. Created is false
// when a chat between the two users already existed, in which case Chat is
// the existing one and the caller should follow the chat-exists path.
type StartChatResult struct {
	Chat    *models.Chat
	Created bool
}

// ChatService defines the chat directory and chat session operations.
type ChatService interface {
	// ListChats returns the user's chat directory, most recent first.
	ListChats(ctx context.Context, userID uint) ([]models.ChatSummary, error)

	// StartChat creates a chat with its first message, or reports the
	// existing chat between the two users. A concurrent duplicate creation
	// from the other side resolves to the surviving chat.
	StartChat(ctx context.Context, initiatorID, targetID uint, body string) (*StartChatResult, error)

	// EnsureParticipant checks that the user participates in the chat.
	// ErrUnauthorized when the participant set excludes the user.
	EnsureParticipant(ctx context.Context, userID, chatID uint) error

	// JoinChat validates that the user participates in the chat, resets
	// their unread count and returns the snapshot. ErrUnauthorized when the
	// participant set excludes the user.
	JoinChat(ctx context.Context, userID, chatID uint) (*ChatSnapshot, error)

	// SendMessage appends a message, bumps the chat's preview and increments
	// the other participants' unread counts atomically.
	SendMessage(ctx context.Context, senderID, chatID uint, body string) (*models.Message, error)

	// MarkViewed zeroes the user's unread count for a chat they are
	// actively viewing.
	MarkViewed(ctx context.Context, chatID, userID uint) error

	// SummaryFor renders one chat as it appears in the given user's
	// directory, used for new-chat notifications.
	SummaryFor(ctx context.Context, chatID, userID uint) (*models.ChatSummary, error)
}

// chatService is the ChatService implementation.
type chatService struct {
	chatRepo storage.ChatRepository
	userRepo storage.UserRepository
}

// NewChatService creates a new ChatService instance.
func NewChatService(chatRepo storage.ChatRepository, userRepo storage.UserRepository) ChatService {
	return &chatService{chatRepo: chatRepo, userRepo: userRepo}
}

// ListChats returns the user's chat directory.
func (s *chatService) ListChats(ctx context.Context, userID uint) ([]models.ChatSummary, error) {
	summaries, err := s.chatRepo.ListSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user %d: %w", userID, err)
	}
	return summaries, nil
}

// StartChat creates the chat between two users or resolves to the existing one.
func (s *chatService) StartChat(ctx context.Context, initiatorID, targetID uint, body string) (*StartChatResult, error) {
	if initiatorID == targetID {
		return nil, fmt.Errorf("%w: cannot start a chat with yourself", ErrValidation)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, targetID)
		}
		return nil, fmt.Errorf("failed to look up user %d: %w", targetID, err)
	}

	existing, err := s.chatRepo.FindChatByUsers(ctx, initiatorID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chat: %w", err)
	}
	if existing != nil {
		return &StartChatResult{Chat: existing, Created: false}, nil
	}

	chat, err := s.chatRepo.CreateChatWithFirstMessage(ctx, initiatorID, targetID, body)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race to the other participant; fall back to
			// the chat that won.
			existing, findErr := s.chatRepo.FindChatByUsers(ctx, initiatorID, targetID)
			if findErr != nil || existing == nil {
				return nil, fmt.Errorf("failed to resolve chat after create conflict: %w", err)
			}
			return &StartChatResult{Chat: existing, Created: false}, nil
		}
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &StartChatResult{Chat: chat, Created: true}, nil
}

// EnsureParticipant checks chat membership without touching read state.
func (s *chatService) EnsureParticipant(ctx context.Context, userID, chatID uint) error {
	if _, err := s.chatRepo.GetParticipant(ctx, chatID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d is not a participant of chat %d", ErrUnauthorized, userID, chatID)
		}
		return fmt.Errorf("failed to check chat membership: %w", err)
	}
	return nil
}

// JoinChat validates membership and builds the join snapshot.
func (s *chatService) JoinChat(ctx context.Context, userID, chatID uint) (*ChatSnapshot, error) {
	if err := s.EnsureParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}

	recipient, err := s.chatRepo.GetOtherParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat recipient: %w", err)
	}

	messages, err := s.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}

	if err := s.chatRepo.ResetUnread(ctx, chatID, userID); err != nil {
		return nil, fmt.Errorf("failed to reset unread count: %w", err)
	}

	return &ChatSnapshot{
		RecipientUser: recipient.Public(),
		Messages:      messages,
	}, nil
}

// SendMessage appends a message on behalf of a participant.
func (s *chatService) SendMessage(ctx context.Context, senderID, chatID uint, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}

	if _, err := s.chatRepo.GetParticipant(ctx, chatID, senderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d is not a participant of chat %d", ErrUnauthorized, senderID, chatID)
		}
		return nil, fmt.Errorf("failed to check chat membership: %w", err)
	}

	message, err := s.chatRepo.AppendMessage(ctx, chatID, senderID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return message, nil
}

// MarkViewed resets the unread counter for an actively viewing user.
func (s *chatService) MarkViewed(ctx context.Context, chatID, userID uint) error {
	return s.chatRepo.ResetUnread(ctx, chatID, userID)
}

// SummaryFor renders one chat for a specific participant's directory.
func (s *chatService) SummaryFor(ctx context.Context, chatID, userID uint) (*models.ChatSummary, error) {
	summary, err := s.chatRepo.GetSummary(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build chat summary: %w", err)
	}
	return summary, nil
}
