package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/PejmanG/chat-app/internal/models"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string) ([]models.User, error)
	SetStatus(ctx context.Context, id uint, status string, lastSeenAt *time.Time) error
	GetDB() *gorm.DB
}

// gormUserRepository implements UserRepository using GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create creates a new user record in the database.
func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by their ID.
func (r *gormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err // Handles gorm.ErrRecordNotFound as well
	}
	return &user, nil
}

// GetByUsername retrieves a user by their username.
func (r *gormUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email.
func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user record in the database.
func (r *gormUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	return r.db.WithContext(ctx).Save(user).Error
}

// Search finds users matching the live-search rule: the query equals a
// user's id, email or username exactly, or is a case-insensitive substring
// of the display name. No minimum length is enforced here and the searcher
// is not excluded; ordering is the store default.
// likeEscaper neutralizes LIKE metacharacters so a query containing % or _
// matches those characters literally instead of acting as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *gormUserRepository) Search(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	substring := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"

	q := r.db.WithContext(ctx).
		Where(`email = ? OR username = ? OR LOWER(display_name) LIKE ? ESCAPE '\'`, query, query, substring)

	// An all-digit query may also be an id match.
	if id, err := StrToUint(query); err == nil && id > 0 {
		q = q.Or("id = ?", id)
	}

	err := q.Find(&users).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return users, nil
		}
		return nil, err
	}
	return users, nil
}

// SetStatus updates a user's presence status and optionally last-seen time.
func (r *gormUserRepository) SetStatus(ctx context.Context, id uint, status string, lastSeenAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if lastSeenAt != nil {
		updates["last_seen_at"] = *lastSeenAt
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// GetDB returns the underlying gorm.DB instance
func (r *gormUserRepository) GetDB() *gorm.DB {
	return r.db
}
