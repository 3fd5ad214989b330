package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/dscatalog/internal/auth"
	"github.com/BradenHooton/dscatalog/internal/models"
	pkgauth "github.com/BradenHooton/dscatalog/pkg/auth"
	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	GenerateAccessToken(user *models.User) (string, error)
	ExpiresIn() int64
}

// CredentialStore looks up accounts by login email
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        CredentialStore
	tokens      TokenIssuer
	timingDelay *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	compare     func(hash, password string) error
}

// NewAuthService creates a new AuthService. timingDelay may be nil.
func NewAuthService(repo CredentialStore, tokens TokenIssuer, timingDelay *auth.TimingDelay, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		timingDelay: timingDelay,
		logger:      logger,
		auditLogger: pkglogger.NewAuditLogger(logger),
		compare:     pkgauth.ComparePassword,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash is compared against when the account does not exist so
// unknown emails cost one bcrypt comparison like known ones.
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = pkgauth.HashPassword("dscatalog-dummy-password-1")
	})
	return dummyHash
}

// Login authenticates a user by email and password and returns an access token
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*models.AuthResponse, error) {
	start := time.Now()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.timingDelay.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to get user by email", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		_ = s.compare(dummyPasswordHash(), password)
		s.loginFailed(ctx, email, 0, ipAddress, start)
		return nil, models.ErrUnauthorized
	}

	if err := s.compare(user.PasswordHash, password); err != nil {
		s.loginFailed(ctx, email, user.ID, ipAddress, start)
		return nil, models.ErrUnauthorized
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.AuditLogin,
		Email:     user.Email,
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &models.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.tokens.ExpiresIn(),
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string, userID int64, ipAddress string, start time.Time) {
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType:     pkglogger.AuditLogin,
		Email:         email,
		UserID:        userID,
		IPAddress:     ipAddress,
		FailureReason: "invalid_credentials",
	})
	s.timingDelay.WaitFrom(start, false)
}
