package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/PejmanG/chat-app/internal/auth"
	"github.com/PejmanG/chat-app/internal/config"
	"github.com/PejmanG/chat-app/internal/models"
	"github.com/PejmanG/chat-app/internal/storage"
)

// newTestDB opens a fresh in-memory database for one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := storage.InitDB(config.DatabaseConfig{
		Type:   "sqlite",
		DBName: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// seedUser inserts a user directly through the repository.
func seedUser(t *testing.T, repo storage.UserRepository, username, email, displayName string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

// memoryBlacklist is an in-memory auth.TokenBlacklist for tests.
type memoryBlacklist struct {
	revoked map[string]bool
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{revoked: make(map[string]bool)}
}

func (m *memoryBlacklist) Add(ctx context.Context, jti string, exp time.Time) error {
	m.revoked[jti] = true
	return nil
}

func (m *memoryBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return m.revoked[jti], nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecretKey: "test-secret",
		JWTExpiry:    time.Hour,
	}
}
