package services

import (
	"context"
	"errors"
	"testing"

	"github.com/PejmanG/chat-app/internal/auth"
	"github.com/PejmanG/chat-app/internal/storage"
)

func newAuthFixture(t *testing.T) (AuthService, storage.UserRepository, *memoryBlacklist) {
	t.Helper()
	db := newTestDB(t)
	userRepo := storage.NewGormUserRepository(db)
	blacklist := newMemoryBlacklist()
	return NewAuthService(userRepo, blacklist, testAuthConfig()), userRepo, blacklist
}

// TestSignupDerivesUsername verifies the username comes from the email local
// part and the issued token carries the new identity.
func TestSignupDerivesUsername(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	user, token, err := svc.Signup(ctx, "Jane.Doe@example.com", "Jane", "secret", "secret")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.Username != "janedoe" {
		t.Errorf("Username = %q, want %q", user.Username, "janedoe")
	}
	if user.Email != "jane.doe@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}

	claims, err := auth.ValidateToken(ctx, token, testAuthConfig().JWTSecretKey, nil)
	if err != nil {
		t.Fatalf("issued token did not validate: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != user.Username {
		t.Errorf("claims = %+v, want identity of %d/%s", claims, user.ID, user.Username)
	}
}

// TestSignupUsernameCollision verifies a taken username gets a numeric
// suffix instead of failing.
func TestSignupUsernameCollision(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	first, _, err := svc.Signup(ctx, "sam@one.com", "Sam", "secret", "secret")
	if err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	second, _, err := svc.Signup(ctx, "sam@two.com", "Sam Too", "secret", "secret")
	if err != nil {
		t.Fatalf("second signup failed: %v", err)
	}

	if first.Username != "sam" {
		t.Errorf("first username = %q, want %q", first.Username, "sam")
	}
	if second.Username != "sam1" {
		t.Errorf("second username = %q, want %q", second.Username, "sam1")
	}
}

// TestSignupDuplicateEmail verifies re-registering an email fails with
// ErrEmailTaken.
func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := svc.Signup(ctx, "dup@example.com", "First", "secret", "secret"); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	_, _, err := svc.Signup(ctx, "dup@example.com", "Second", "secret", "secret")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

// TestSignupValidation covers the rejected input shapes.
func TestSignupValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	cases := []struct {
		name                                         string
		email, displayName, password, confirmPassword string
	}{
		{"missing email", "", "Jane", "secret", "secret"},
		{"bad email", "not-an-email", "Jane", "secret", "secret"},
		{"missing display name", "a@b.com", "", "secret", "secret"},
		{"display name too long", "a@b.com", "this display name is far too long", "secret", "secret"},
		{"display name bad characters", "a@b.com", "Jane!", "secret", "secret"},
		{"missing password", "a@b.com", "Jane", "", ""},
		{"password mismatch", "a@b.com", "Jane", "secret", "different"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Signup(ctx, tc.email, tc.displayName, tc.password, tc.confirmPassword)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

// TestSigninWrongPassword verifies bad credentials never reveal whether the
// email exists.
func TestSigninWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := svc.Signup(ctx, "jane@example.com", "Jane", "secret", "secret"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	if _, _, err := svc.Signin(ctx, "jane@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Signin(ctx, "nobody@example.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

// TestSigninHappyPath verifies correct credentials return the account and a
// valid session token.
func TestSigninHappyPath(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "jane@example.com", "Jane", "secret", "secret")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	user, token, err := svc.Signin(ctx, "Jane@Example.com", "secret")
	if err != nil {
		t.Fatalf("Signin failed: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("signed in as user %d, want %d", user.ID, created.ID)
	}
	if _, err := auth.ValidateToken(ctx, token, testAuthConfig().JWTSecretKey, nil); err != nil {
		t.Errorf("issued token did not validate: %v", err)
	}
}

// TestSignoutRevokesToken verifies signout blacklists the token's jti so it
// no longer validates.
func TestSignoutRevokesToken(t *testing.T) {
	svc, _, blacklist := newAuthFixture(t)
	ctx := context.Background()

	_, token, err := svc.Signup(ctx, "jane@example.com", "Jane", "secret", "secret")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	claims, err := auth.ValidateToken(ctx, token, testAuthConfig().JWTSecretKey, blacklist)
	if err != nil {
		t.Fatalf("token did not validate before signout: %v", err)
	}

	if err := svc.Signout(ctx, claims); err != nil {
		t.Fatalf("Signout failed: %v", err)
	}

	if _, err := auth.ValidateToken(ctx, token, testAuthConfig().JWTSecretKey, blacklist); err == nil {
		t.Error("expected the revoked token to be rejected")
	}
}

// TestGetUserNotFound verifies an unknown ID maps to ErrNotFound.
func TestGetUserNotFound(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	if _, err := svc.GetUser(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
