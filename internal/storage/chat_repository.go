package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/PejmanG/chat-app/internal/models"
)

// ChatRepository defines the interface for chat and message data operations.
// All mutation methods are atomic: a new message and its side effects
// (last-message preview, unread counters) commit or roll back together.
type ChatRepository interface {
	// CreateChatWithFirstMessage creates the chat, both participant rows and
	// the initial message in one transaction. A concurrent duplicate creation
	// surfaces as gorm.ErrDuplicatedKey via the chat pair-key index.
	CreateChatWithFirstMessage(ctx context.Context, initiatorID, targetID uint, body string) (*models.Chat, error)
	// FindChatByUsers looks up the chat between two users. Returns (nil, nil)
	// when no such chat exists.
	FindChatByUsers(ctx context.Context, userID1, userID2 uint) (*models.Chat, error)
	GetParticipant(ctx context.Context, chatID, userID uint) (*models.ChatParticipant, error)
	// GetOtherParticipant returns the participant of chatID that is not userID.
	GetOtherParticipant(ctx context.Context, chatID, userID uint) (*models.User, error)

	// ListSummaries returns the caller's chat directory sorted by recency.
	ListSummaries(ctx context.Context, userID uint) ([]models.ChatSummary, error)
	// GetSummary returns one chat as it appears in userID's directory.
	GetSummary(ctx context.Context, chatID, userID uint) (*models.ChatSummary, error)

	// AppendMessage stores a message and, in the same transaction, bumps the
	// chat's last-message preview and increments every other participant's
	// unread counter.
	AppendMessage(ctx context.Context, chatID, senderID uint, body string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID uint) ([]models.Message, error)
	// ResetUnread zeroes the user's unread counter for the chat and stamps
	// their last-read time.
	ResetUnread(ctx context.Context, chatID, userID uint) error

	GetDB() *gorm.DB
}

// gormChatRepository implements ChatRepository using GORM.
type gormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based ChatRepository.
func NewGormChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// CreateChatWithFirstMessage creates a chat between two users together with
// its first message.
func (r *gormChatRepository) CreateChatWithFirstMessage(ctx context.Context, initiatorID, targetID uint, body string) (*models.Chat, error) {
	now := time.Now()
	chat := &models.Chat{
		PairKey:       models.PairKeyFor(initiatorID, targetID),
		LastMessage:   body,
		LastMessageAt: now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}

		participants := []models.ChatParticipant{
			{ChatID: chat.ID, UserID: initiatorID, JoinedAt: now, LastReadAt: &now},
			{ChatID: chat.ID, UserID: targetID, JoinedAt: now, UnreadCount: 1},
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}

		message := &models.Message{
			ChatID:   chat.ID,
			SenderID: initiatorID,
			Body:     body,
		}
		return tx.Create(message).Error
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// FindChatByUsers looks up the chat between two users by its pair key.
func (r *gormChatRepository) FindChatByUsers(ctx context.Context, userID1, userID2 uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", models.PairKeyFor(userID1, userID2)).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No chat between these users is not an error.
		}
		return nil, err
	}
	return &chat, nil
}

// GetParticipant fetches a specific participant row of a chat.
func (r *gormChatRepository) GetParticipant(ctx context.Context, chatID, userID uint) (*models.ChatParticipant, error) {
	var participant models.ChatParticipant
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// GetOtherParticipant returns the user on the other side of a chat.
func (r *gormChatRepository) GetOtherParticipant(ctx context.Context, chatID, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_participants AS cp ON cp.user_id = users.id").
		Where("cp.chat_id = ? AND cp.user_id <> ?", chatID, userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListSummaries returns the caller's chats sorted by recency, each annotated
// with the other participant's identity and the caller's unread count.
func (r *gormChatRepository) ListSummaries(ctx context.Context, userID uint) ([]models.ChatSummary, error) {
	summaries := make([]models.ChatSummary, 0)
	err := r.db.WithContext(ctx).
		Table("chats AS c").
		Select("c.id, u.display_name, u.profile_picture, c.last_message, c.last_message_at AS last_message_date, mine.unread_count").
		Joins("JOIN chat_participants AS mine ON mine.chat_id = c.id AND mine.user_id = ?", userID).
		Joins("JOIN chat_participants AS other ON other.chat_id = c.id AND other.user_id <> ?", userID).
		Joins("JOIN users AS u ON u.id = other.user_id").
		Where("c.deleted_at IS NULL").
		Order("c.last_message_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetSummary returns a single chat annotated for one participant's view.
func (r *gormChatRepository) GetSummary(ctx context.Context, chatID, userID uint) (*models.ChatSummary, error) {
	var summary models.ChatSummary
	err := r.db.WithContext(ctx).
		Table("chats AS c").
		Select("c.id, u.display_name, u.profile_picture, c.last_message, c.last_message_at AS last_message_date, mine.unread_count").
		Joins("JOIN chat_participants AS mine ON mine.chat_id = c.id AND mine.user_id = ?", userID).
		Joins("JOIN chat_participants AS other ON other.chat_id = c.id AND other.user_id <> ?", userID).
		Joins("JOIN users AS u ON u.id = other.user_id").
		Where("c.id = ?", chatID).
		Take(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// AppendMessage stores a new message and applies its side effects atomically.
func (r *gormChatRepository) AppendMessage(ctx context.Context, chatID, senderID uint, body string) (*models.Message, error) {
	message := &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Body:     body,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Chat{}).
			Where("id = ?", chatID).
			Updates(map[string]interface{}{
				"last_message":    body,
				"last_message_at": message.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}

		return tx.Model(&models.ChatParticipant{}).
			Where("chat_id = ? AND user_id <> ?", chatID, senderID).
			Update("unread_count", gorm.Expr("unread_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages returns a chat's full message history in delivery order.
func (r *gormChatRepository) ListMessages(ctx context.Context, chatID uint) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ResetUnread zeroes the user's unread counter for the chat.
func (r *gormChatRepository) ResetUnread(ctx context.Context, chatID, userID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Updates(map[string]interface{}{
			"unread_count": 0,
			"last_read_at": now,
		}).Error
}

// GetDB returns the underlying database handle, used for transactions in tests.
func (r *gormChatRepository) GetDB() *gorm.DB {
	return r.db
}
