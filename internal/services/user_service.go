package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/PejmanG/chat-app/internal/logger"
	"github.com/PejmanG/chat-app/internal/models"
	"github.com/PejmanG/chat-app/internal/storage"
)

// UserService covers live user search and presence bookkeeping.
type UserService interface {
	// Search resolves a live-search query to the matching users. The query
	// matches a user's id, email or username exactly, or their display name
	// by case-insensitive substring. Length policy lives client-side; short
	// queries are answered like any other.
	Search(ctx context.Context, query string) ([]models.PublicUser, error)

	// Connected and Disconnected implement presence tracking: connections is
	// the user's live connection count after the change, so status flips only
	// on the first connection up and the last one gone.
	Connected(userID uint, connections int)
	Disconnected(userID uint, connections int)
}

// userService is the UserService implementation.
type userService struct {
	userRepo storage.UserRepository
	log      zerolog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo storage.UserRepository) UserService {
	return &userService{
		userRepo: userRepo,
		log:      logger.Module("users"),
	}
}

// Search runs the live-search matching rule against the store.
func (s *userService) Search(ctx context.Context, query string) ([]models.PublicUser, error) {
	users, err := s.userRepo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]models.PublicUser, len(users))
	for i := range users {
		results[i] = users[i].Public()
	}
	return results, nil
}

// Connected marks the user online when their first connection registers.
func (s *userService) Connected(userID uint, connections int) {
	if connections != 1 {
		return
	}
	if err := s.userRepo.SetStatus(context.Background(), userID, models.UserStatusOnline, nil); err != nil {
		s.log.Error().Err(err).Uint("userId", userID).Msg("failed to mark user online")
	}
}

// Disconnected marks the user offline when their last connection goes away.
func (s *userService) Disconnected(userID uint, connections int) {
	if connections != 0 {
		return
	}
	now := time.Now()
	if err := s.userRepo.SetStatus(context.Background(), userID, models.UserStatusOffline, &now); err != nil {
		s.log.Error().Err(err).Uint("userId", userID).Msg("failed to mark user offline")
	}
}
