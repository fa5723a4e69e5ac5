package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/PejmanG/chat-app/internal/config"
)

// Claims are the custom JWT claims, embedding jwt.RegisteredClaims.
// RegisteredClaims carries the standard fields (ExpiresAt, IssuedAt, ID, ...).
type Claims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken issues a new session JWT for the given user. The jti claim
// makes the token individually revocable at signout.
func GenerateToken(userID uint, username string, authCfg config.AuthConfig) (string, error) {
	jwtID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT ID: %w", err)
	}

	expirationTime := time.Now().Add(authCfg.JWTExpiry)
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			ID:        jwtID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-app",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(authCfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies a session JWT and returns its claims. If a
// blacklist is provided, revoked tokens are rejected too.
func ValidateToken(ctx context.Context, tokenString string, jwtKey string, blacklist TokenBlacklist) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse or verify JWT: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid JWT")
	}

	if blacklist != nil {
		if claims.ID == "" {
			return nil, fmt.Errorf("JWT is missing the jti claim, cannot check blacklist")
		}
		isRevoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// Reject rather than let an unverifiable token through.
			return nil, fmt.Errorf("token blacklist check failed: %w", err)
		}
		if isRevoked {
			return nil, fmt.Errorf("JWT has been revoked")
		}
	}

	return claims, nil
}
