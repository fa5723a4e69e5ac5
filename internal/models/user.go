package models

import "time"

// UserStatus values persisted on User.Status.
const (
	UserStatusOnline  = "online"
	UserStatusOffline = "offline"
)

// User represents an account in the system. Username and Email are fixed
// identity fields after signup; DisplayName and ProfilePicture may change.
type User struct {
	BaseModel
	Username       string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	DisplayName    string     `gorm:"type:varchar(100);not null" json:"displayName"`
	ProfilePicture string     `gorm:"type:varchar(255)" json:"profilePicture,omitempty"`
	PasswordHash   string     `gorm:"type:varchar(255);not null" json:"-"`
	Status         string     `gorm:"type:varchar(20);default:'offline'" json:"status,omitempty"`
	LastSeenAt     *time.Time `json:"lastSeenAt,omitempty"`

	Messages []Message `gorm:"foreignKey:SenderID" json:"messages,omitempty"`
	Chats    []*Chat   `gorm:"many2many:chat_participants;" json:"chats,omitempty"`
}

// PublicUser holds the fields of a user that are safe to push to other
// clients, e.g. in search results or chat snapshots.
type PublicUser struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Public converts a User to its client-facing representation.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.ProfilePicture,
	}
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
