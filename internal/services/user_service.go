package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/dscatalog/internal/models"
	"github.com/BradenHooton/dscatalog/pkg/auth"
	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error)
	Create(ctx context.Context, user *models.User, roleIDs []int64) (*models.User, error)
	Update(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// UserService handles user business logic
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: pkglogger.NewAuditLogger(logger),
	}
}

// clientError reports whether err is a domain error the caller can act on.
// Anything else is logged and replaced with ErrInternalServer.
func clientError(err error) bool {
	for _, target := range []error{
		models.ErrNotFound,
		models.ErrConflict,
		models.ErrIntegrityViolation,
		models.ErrInvalidFilter,
		models.ErrBadRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound("User", "id", id)
		}
		s.logger.Error("failed to get user", slog.Int64("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// ListUsers retrieves one page of users
func (s *UserService) ListUsers(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error) {
	users, err := s.repo.List(ctx, page.Normalize())
	if err != nil {
		if clientError(err) {
			return models.Page[*models.User]{}, err
		}
		s.logger.Error("failed to list users", slog.Int("page", page.Page), slog.Any("error", err))
		return models.Page[*models.User]{}, models.ErrInternalServer
	}

	return users, nil
}

// CreateUser creates a new account with the given roles. The password must satisfy
// the password policy. A duplicate email is reported as ErrConflict.
func (s *UserService) CreateUser(ctx context.Context, user *models.User, password string, roleIDs []int64) (*models.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.PasswordHash = hashedPassword

	created, err := s.repo.Create(ctx, user, roleIDs)
	if err != nil {
		if clientError(err) {
			s.logger.Info("user not created",
				slog.String("email", pkglogger.SanitizedEmail(user.Email)),
				slog.Any("error", err))
			return nil, err
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.Int64("user_id", created.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.AuditAccountCreated,
		Email:     created.Email,
		UserID:    created.ID,
		Success:   true,
	})
	return created, nil
}

// UpdateUser rewrites the profile fields. A nil roleIDs keeps the current roles.
func (s *UserService) UpdateUser(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error) {
	updated, err := s.repo.Update(ctx, id, user, roleIDs)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound("User", "id", id)
		}
		if clientError(err) {
			return nil, err
		}
		s.logger.Error("failed to update user", slog.Int64("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user updated", slog.Int64("user_id", id))
	return updated, nil
}

// DeleteUser deletes a user
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFound("User", "id", id)
		}
		if clientError(err) {
			return err
		}
		s.logger.Error("failed to delete user", slog.Int64("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.Int64("user_id", id))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.AuditAccountDeleted,
		UserID:    id,
		Success:   true,
	})
	return nil
}
