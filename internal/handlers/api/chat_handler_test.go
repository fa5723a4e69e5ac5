package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PejmanG/chat-app/internal/auth"
	"github.com/PejmanG/chat-app/internal/config"
	"github.com/PejmanG/chat-app/internal/middleware"
	"github.com/PejmanG/chat-app/internal/models"
	"github.com/PejmanG/chat-app/internal/services"
	"github.com/PejmanG/chat-app/internal/storage"
)

func newChatHandlerFixture(t *testing.T) (http.Handler, services.ChatService, storage.UserRepository) {
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

	userRepo := storage.NewGormUserRepository(db)
	chatRepo := storage.NewGormChatRepository(db)
	chatService := services.NewChatService(chatRepo, userRepo)
	handler := NewChatHandler(chatService)

	protected := middleware.AuthMiddleware(http.HandlerFunc(handler.ListChats), testAuthConfig(), nil)
	return protected, chatService, userRepo
}

func seedChatUser(t *testing.T, repo storage.UserRepository, username, displayName string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  displayName,
		PasswordHash: "x",
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

// TestListChatsRequiresAuth verifies the chat directory is unreachable
// without a session.
func TestListChatsRequiresAuth(t *testing.T) {
	handler, _, _ := newChatHandlerFixture(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chats", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// TestListChatsReturnsSummaries verifies an authenticated caller gets their
// directory rendered from their own perspective.
func TestListChatsReturnsSummaries(t *testing.T) {
	handler, chatService, userRepo := newChatHandlerFixture(t)
	ctx := context.Background()

	alice := seedChatUser(t, userRepo, "alice", "Alice")
	bob := seedChatUser(t, userRepo, "bob", "Bob")
	if _, err := chatService.StartChat(ctx, alice.ID, bob.ID, "hello bob"); err != nil {
		t.Fatalf("StartChat failed: %v", err)
	}

	token, err := auth.GenerateToken(alice.ID, alice.Username, testAuthConfig())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	r.AddCookie(&http.Cookie{Name: "chat_session", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var summaries []models.ChatSummary
	if err := json.NewDecoder(w.Body).Decode(&summaries); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].DisplayName != "Bob" || summaries[0].LastMessage != "hello bob" {
		t.Errorf("summary = %+v, want bob's chat with the first message", summaries[0])
	}
}
