package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PejmanG/chat-app/internal/auth"
	"github.com/PejmanG/chat-app/internal/config"
	"github.com/PejmanG/chat-app/internal/middleware"
	"github.com/PejmanG/chat-app/internal/services"
)

// AuthHandler bundles the authentication HTTP endpoints.
type AuthHandler struct {
	AuthService    services.AuthService
	TokenBlacklist auth.TokenBlacklist
	AuthCfg        config.AuthConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthService, blacklist auth.TokenBlacklist, authCfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		AuthService:    authService,
		TokenBlacklist: blacklist,
		AuthCfg:        authCfg,
	}
}

// SignupRequest is the body for account creation.
type SignupRequest struct {
	Email           string `json:"email"`
	DisplayName     string `json:"displayName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SigninRequest is the body for session creation.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account, signs the user in and sets the session cookie.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, token, err := h.AuthService.Signup(r.Context(), req.Email, req.DisplayName, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrEmailTaken):
			writeJSONError(w, "email is already in use", http.StatusConflict)
		default:
			writeJSONError(w, "signup failed", http.StatusInternalServerError)
		}
		return
	}

	h.setSessionCookie(w, token)
	writeJSONResponse(w, http.StatusCreated, user.Public())
}

// Signin verifies credentials and sets the session cookie.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, token, err := h.AuthService.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeJSONError(w, "incorrect email or password", http.StatusUnauthorized)
		} else {
			writeJSONError(w, "signin failed", http.StatusInternalServerError)
		}
		return
	}

	h.setSessionCookie(w, token)
	writeJSONResponse(w, http.StatusOK, user.Public())
}

// CurrentUser returns the authenticated user's public profile.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	user, err := h.AuthService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeJSONError(w, "user not found", http.StatusNotFound)
		} else {
			writeJSONError(w, "failed to load user", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, user.Public())
}

// Signout revokes the current token and clears the session cookie. The token
// is re-validated here because revocation needs its jti and expiry, which the
// auth middleware does not carry on the context.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	tokenString := middleware.TokenFromRequest(r, h.AuthCfg.CookieName)
	if tokenString == "" {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), tokenString, h.AuthCfg.JWTSecretKey, h.TokenBlacklist)
	if err != nil {
		// Already invalid or revoked; clearing the cookie is still useful.
		h.clearSessionCookie(w)
		writeJSONResponse(w, http.StatusOK, map[string]string{"message": "signed out"})
		return
	}

	if err := h.AuthService.Signout(r.Context(), claims); err != nil {
		writeJSONError(w, "signout failed", http.StatusInternalServerError)
		return
	}

	h.clearSessionCookie(w)
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "signed out"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.AuthCfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.AuthCfg.JWTExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.AuthCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.AuthCfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.AuthCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
