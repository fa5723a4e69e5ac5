package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/PejmanG/chat-app/internal/auth"
	"github.com/PejmanG/chat-app/internal/config"
	"github.com/PejmanG/chat-app/internal/models"
	"github.com/PejmanG/chat-app/internal/storage"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*$`)
	// Display names: alphanumeric words separated by single spaces, at most
	// 20 characters.
	displayNamePattern = regexp.MustCompile(`^\w+( ?\w+)*$`)
	usernamePattern    = regexp.MustCompile(`[^a-z0-9_]+`)
)

// AuthService defines the interface for signup, signin and signout.
type AuthService interface {
	// Signup creates an account and issues a session token for it.
	Signup(ctx context.Context, email, displayName, password, confirmPassword string) (*models.User, string, error)
	// Signin verifies credentials and issues a session token.
	Signin(ctx context.Context, email, password string) (*models.User, string, error)
	// Signout revokes the session token carried by the given claims.
	Signout(ctx context.Context, claims *auth.Claims) error
	// GetUser returns the account for an authenticated user ID.
	GetUser(ctx context.Context, userID uint) (*models.User, error)
}

// authService is the AuthService implementation.
type authService struct {
	userRepo  storage.UserRepository
	blacklist auth.TokenBlacklist
	cfg       config.AuthConfig
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo storage.UserRepository, blacklist auth.TokenBlacklist, cfg config.AuthConfig) AuthService {
	return &authService{
		userRepo:  userRepo,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

// Signup handles account creation.
func (s *authService) Signup(ctx context.Context, email, displayName, password, confirmPassword string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)

	if err := validateSignup(email, displayName, password, confirmPassword); err != nil {
		return nil, "", err
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	username, err := s.deriveUsername(ctx, email)
	if err != nil {
		return nil, "", err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := auth.GenerateToken(newUser.ID, newUser.Username, s.cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return newUser, token, nil
}

// Signin handles credential verification.
func (s *authService) Signin(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return user, token, nil
}

// Signout revokes the token's jti for its remaining lifetime.
func (s *authService) Signout(ctx context.Context, claims *auth.Claims) error {
	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: token has no expiry", ErrValidation)
	}
	return s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time)
}

// GetUser returns the account behind an authenticated session.
func (s *authService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return user, nil
}

func validateSignup(email, displayName, password, confirmPassword string) error {
	switch {
	case email == "":
		return fmt.Errorf("%w: email is required", ErrValidation)
	case !emailPattern.MatchString(email):
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	case displayName == "":
		return fmt.Errorf("%w: display name is required", ErrValidation)
	case len(displayName) > 20 || !displayNamePattern.MatchString(displayName):
		return fmt.Errorf("%w: display name must be at most 20 alphanumeric characters", ErrValidation)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrValidation)
	case password != confirmPassword:
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	return nil
}

// deriveUsername builds a unique username from the email local part,
// appending a numeric suffix on collision.
func (s *authService) deriveUsername(ctx context.Context, email string) (string, error) {
	base := strings.SplitN(email, "@", 2)[0]
	base = usernamePattern.ReplaceAllString(strings.ToLower(base), "")
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; ; i++ {
		_, err := s.userRepo.GetByUsername(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}
