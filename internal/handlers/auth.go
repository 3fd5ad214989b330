package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/dscatalog/internal/auth"
	"github.com/BradenHooton/dscatalog/internal/models"
	pkghttp "github.com/BradenHooton/dscatalog/pkg/http"
	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
)

// AuthServiceInterface defines the interface for login
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress string) (*models.AuthResponse, error)
}

// RecoveryServiceInterface defines the interface for password recovery and the current user
type RecoveryServiceInterface interface {
	CreateRecoveryToken(ctx context.Context, email string) error
	SetNewPassword(ctx context.Context, token, newPassword string) error
	GetCurrentUser(ctx context.Context, identity *models.Identity) (*models.Profile, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service     AuthServiceInterface
	recovery    RecoveryServiceInterface
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, recovery RecoveryServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:     service,
		recovery:    recovery,
		logger:      logger,
		auditLogger: pkglogger.NewAuditLogger(logger),
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RecoverTokenRequest represents the request body for starting a password recovery
type RecoverTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NewPasswordRequest represents the request body for redeeming a recovery token
type NewPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Response DTOs

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ProfileResponse is the authenticated user's profile
type ProfileResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	authResp, err := h.service.Login(r.Context(), strings.TrimSpace(req.Email), req.Password, pkghttp.ClientIP(r))
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Authentication failed")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: authResp.AccessToken,
		TokenType:   authResp.TokenType,
		ExpiresIn:   authResp.ExpiresIn,
	})
}

// Me returns the profile of the authenticated user
// @Summary Current user profile
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.recovery.GetCurrentUser(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ProfileResponse{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
	})
}

// RecoverToken issues a password recovery token and emails the link
// @Summary Request a password recovery email
// @Accept json
// @Param request body RecoverTokenRequest true "Recovery request"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /auth/recover-token [post]
func (h *AuthHandler) RecoverToken(w http.ResponseWriter, r *http.Request) {
	var req RecoverTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	err := h.recovery.CreateRecoveryToken(r.Context(), email)

	reason := ""
	if err != nil {
		reason = err.Error()
	}
	h.auditLogger.LogRecoveryRequest(r.Context(), email, pkghttp.ClientIP(r), err == nil, reason)

	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NewPassword redeems a recovery token and sets the new password
// @Summary Set a new password with a recovery token
// @Accept json
// @Param request body NewPasswordRequest true "New password request"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /auth/new-password [put]
func (h *AuthHandler) NewPassword(w http.ResponseWriter, r *http.Request) {
	var req NewPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.recovery.SetNewPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
