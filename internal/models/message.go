package models

// Message represents a chat message stored in the database. Messages are
// immutable once created; ordering is CreatedAt then insertion order, which
// the autoincrement ID preserves for same-timestamp rows.
type Message struct {
	BaseModel
	ChatID   uint   `gorm:"index;not null" json:"chatId"`
	SenderID uint   `gorm:"index;not null" json:"senderId"`
	Body     string `gorm:"type:text;not null" json:"body"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Chat   Chat `gorm:"foreignKey:ChatID" json:"chat,omitempty"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}
