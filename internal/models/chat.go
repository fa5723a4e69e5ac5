package models

import (
	"fmt"
	"time"
)

// Chat represents a two-party conversation. The participant set is fixed at
// creation time. LastMessage is denormalized so chat lists can render a
// preview without touching the messages table; LastMessageAt is bumped in
// the same transaction as every new message.
type Chat struct {
	BaseModel
	// PairKey is "minUserID:maxUserID" for the two participants. The unique
	// index is what turns a concurrent duplicate-creation race into a
	// constraint violation the server can recover from.
	PairKey       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	LastMessage   string    `gorm:"type:text" json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`

	Users        []*User           `gorm:"many2many:chat_participants;" json:"users,omitempty"`
	Messages     []Message         `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
	Participants []ChatParticipant `gorm:"foreignKey:ChatID" json:"participants,omitempty"`
}

// TableName specifies the table name for the Chat model.
func (Chat) TableName() string {
	return "chats"
}

// PairKeyFor builds the deterministic pair key for two user IDs.
func PairKeyFor(userID1, userID2 uint) string {
	if userID1 > userID2 {
		userID1, userID2 = userID2, userID1
	}
	return fmt.Sprintf("%d:%d", userID1, userID2)
}

// ChatParticipant links a user to a chat and carries that user's per-chat
// read state. UnreadCount is never negative; it is incremented when the
// other participant sends a message and reset to zero while the user is
// actively viewing the chat.
type ChatParticipant struct {
	ChatID      uint       `gorm:"primaryKey;autoIncrement:false" json:"chatId"`
	UserID      uint       `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	JoinedAt    time.Time  `json:"joinedAt"`
	UnreadCount uint       `gorm:"not null;default:0" json:"unreadCount"`
	LastReadAt  *time.Time `json:"lastReadAt,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Chat Chat `gorm:"foreignKey:ChatID" json:"chat,omitempty"`
}

// TableName specifies the table name for the ChatParticipant model.
func (ChatParticipant) TableName() string {
	return "chat_participants"
}

// ChatSummary is one entry of a user's chat directory: the chat annotated
// with the other participant's identity and the caller's unread count.
type ChatSummary struct {
	ID              uint      `json:"id"`
	DisplayName     string    `json:"displayName"`
	ProfilePicture  string    `json:"profilePicture,omitempty"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageDate time.Time `json:"lastMessageDate"`
	UnreadCount     uint      `json:"unreadCount"`
}
