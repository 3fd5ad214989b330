package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/dscatalog/internal/mail"
	"github.com/BradenHooton/dscatalog/internal/metrics"
	"github.com/BradenHooton/dscatalog/internal/models"
	"github.com/BradenHooton/dscatalog/pkg/auth"
	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
)

// RecoveryTokenStore persists password recovery tokens
type RecoveryTokenStore interface {
	LockEmail(ctx context.Context, email string) error
	FindValidByToken(ctx context.Context, token string, now time.Time) ([]*models.RecoveryToken, error)
	FindValidByEmail(ctx context.Context, email string, now time.Time) ([]*models.RecoveryToken, error)
	Save(ctx context.Context, token *models.RecoveryToken) (*models.RecoveryToken, error)
	SaveAll(ctx context.Context, tokens []*models.RecoveryToken) error
}

// IdentityResolver looks up accounts by login email and updates their password
type IdentityResolver interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Transactor runs fn in a transaction carried by the context given to fn
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecoveryService issues and redeems password recovery tokens and resolves
// the profile of the authenticated user.
type RecoveryService struct {
	tokens       RecoveryTokenStore
	users        IdentityResolver
	mailer       mail.Gateway
	tx           Transactor
	logger       *slog.Logger
	audit        *pkglogger.AuditLogger
	tokenTTL     time.Duration
	recoverURI   string
	now          func() time.Time
	hashPassword func(string) (string, error)
	newToken     func() (string, error)
}

// NewRecoveryService creates a new RecoveryService
func NewRecoveryService(
	tokens RecoveryTokenStore,
	users IdentityResolver,
	mailer mail.Gateway,
	tx Transactor,
	logger *slog.Logger,
	tokenTTL time.Duration,
	recoverURI string,
) *RecoveryService {
	return &RecoveryService{
		tokens:       tokens,
		users:        users,
		mailer:       mailer,
		tx:           tx,
		logger:       logger,
		audit:        pkglogger.NewAuditLogger(logger),
		tokenTTL:     tokenTTL,
		recoverURI:   recoverURI,
		now:          time.Now,
		hashPassword: auth.HashPassword,
		newToken:     auth.GenerateOpaqueToken,
	}
}

// CreateRecoveryToken supersedes every valid token of the account, issues a new
// one and emails the recovery link. Unknown emails return a NotFound error and
// send nothing.
//
// The token is committed before the mail outcome is reported: a delivery
// failure returns ErrEmailDeliveryFailed while the new token stays valid.
func (s *RecoveryService) CreateRecoveryToken(ctx context.Context, email string) error {
	var deliveryErr error

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NewNotFound("User", "email", email)
			}
			return fmt.Errorf("failed to resolve user: %w", err)
		}

		if err := s.tokens.LockEmail(ctx, user.Email); err != nil {
			return err
		}

		now := s.now()
		if err := s.invalidateValidTokens(ctx, user.Email, now); err != nil {
			return err
		}

		plain, err := s.newToken()
		if err != nil {
			return err
		}

		issued, err := s.tokens.Save(ctx, &models.RecoveryToken{
			Email:     user.Email,
			Token:     plain,
			CreatedAt: now,
			ExpiresAt: now.Add(s.tokenTTL),
		})
		if err != nil {
			return fmt.Errorf("failed to save recovery token: %w", err)
		}
		metrics.RecoveryTokensIssued.Inc()

		body, err := renderRecoveryEmail(user.FirstName, issued.Email, recoveryLink(s.recoverURI, issued.Token), s.tokenTTL)
		if err != nil {
			return err
		}

		if err := s.mailer.Send(ctx, issued.Email, recoveryEmailSubject, body); err != nil {
			metrics.RecoveryEmailFailures.Inc()
			deliveryErr = fmt.Errorf("%w: %v", models.ErrEmailDeliveryFailed, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("recovery requested for unknown email",
				slog.String("email", pkglogger.SanitizedEmail(email)))
		} else {
			s.logger.Error("failed to create recovery token",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
		}
		return err
	}

	if deliveryErr != nil {
		s.logger.Error("recovery email not delivered, token remains valid",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", deliveryErr))
		return deliveryErr
	}

	s.logger.Info("recovery token issued",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

func (s *RecoveryService) invalidateValidTokens(ctx context.Context, email string, now time.Time) error {
	valid, err := s.tokens.FindValidByEmail(ctx, email, now)
	if err != nil {
		return fmt.Errorf("failed to load valid recovery tokens: %w", err)
	}
	if len(valid) == 0 {
		return nil
	}

	for _, t := range valid {
		t.MarkUsed(now)
	}
	if err := s.tokens.SaveAll(ctx, valid); err != nil {
		return fmt.Errorf("failed to invalidate recovery tokens: %w", err)
	}

	metrics.RecoveryTokensInvalidated.Add(float64(len(valid)))
	return nil
}

// SetNewPassword redeems a recovery token and replaces the account password.
// Once a valid token has been looked up it is consumed on every path, including
// the NotFound and mismatch failures, so it can never be replayed.
func (s *RecoveryService) SetNewPassword(ctx context.Context, token, newPassword string) error {
	var outcome error
	var userID int64
	var email string

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		found, err := s.tokens.FindValidByToken(ctx, token, now)
		if err != nil {
			return fmt.Errorf("failed to load recovery token: %w", err)
		}
		if len(found) == 0 {
			outcome = models.ErrInvalidOrExpiredToken
			metrics.PasswordResets.WithLabelValues(metrics.ResetInvalidToken).Inc()
			return nil
		}
		if len(found) > 1 {
			s.logger.Warn("multiple valid recovery tokens share one token value",
				slog.Int("count", len(found)))
		}

		rec := found[0]
		email = rec.Email

		user, err := s.users.GetByEmail(ctx, rec.Email)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to resolve user: %w", err)
		}

		if err := s.consume(ctx, rec, now); err != nil {
			return err
		}

		switch {
		case user == nil:
			outcome = models.NewNotFound("User", "email", rec.Email)
			metrics.PasswordResets.WithLabelValues(metrics.ResetUserMissing).Inc()
			return nil
		case user.Email != rec.Email:
			outcome = models.ErrInvalidOrExpiredToken
			metrics.PasswordResets.WithLabelValues(metrics.ResetEmailMismatch).Inc()
			return nil
		}

		hash, err := s.hashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		userID = user.ID
		metrics.PasswordResets.WithLabelValues(metrics.ResetSucceeded).Inc()
		return nil
	})
	if err != nil {
		s.logger.Error("failed to set new password", slog.Any("error", err))
		return err
	}

	if outcome != nil {
		s.audit.LogPasswordReset(ctx, 0, email, false, outcome.Error())
		return outcome
	}

	s.audit.LogPasswordReset(ctx, userID, email, true, "")
	return nil
}

func (s *RecoveryService) consume(ctx context.Context, rec *models.RecoveryToken, now time.Time) error {
	rec.MarkUsed(now)
	if _, err := s.tokens.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to consume recovery token: %w", err)
	}
	return nil
}

// GetCurrentUser returns the profile of the authenticated identity.
// Every failure, including an unknown account, is reported as ErrNotAuthenticated.
func (s *RecoveryService) GetCurrentUser(ctx context.Context, identity *models.Identity) (*models.Profile, error) {
	if identity == nil || identity.Username == "" {
		return nil, models.ErrNotAuthenticated
	}

	user, err := s.users.GetByEmail(ctx, identity.Username)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to resolve current user", slog.Any("error", err))
		}
		return nil, models.ErrNotAuthenticated
	}

	return &models.Profile{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}
