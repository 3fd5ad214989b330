package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BradenHooton/dscatalog/internal/models"
	pkghttp "github.com/BradenHooton/dscatalog/pkg/http"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error)
	CreateUser(ctx context.Context, user *models.User, password string, roleIDs []int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Request/Response DTOs

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	RoleIDs   []int64 `json:"role_ids" validate:"dive,gt=0"`
}

// UpdateUserRequest represents the request body for updating a user.
// Omitting role_ids keeps the current roles.
type UpdateUserRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Email     string  `json:"email" validate:"required,email"`
	RoleIDs   []int64 `json:"role_ids" validate:"omitempty,dive,gt=0"`
}

// RoleResponse represents a granted role
type RoleResponse struct {
	ID        int64  `json:"id"`
	Authority string `json:"authority"`
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        int64          `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Roles     []RoleResponse `json:"roles"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// userModelToResponse converts a user model to a response DTO
func userModelToResponse(user *models.User) *UserResponse {
	roles := make([]RoleResponse, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, RoleResponse{ID: role.ID, Authority: role.Authority})
	}
	return &UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Roles:     roles,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

// GetUser retrieves a user by ID
//
// @Summary Get user by ID
// @Param id path int true "User ID"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// ListUsers retrieves one page of users
//
// @Summary List users
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Param sort query string false "property,direction"
// @Produce json
// @Success 200 {object} PageResponse[UserResponse]
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	users, err := h.service.ListUsers(r.Context(), page)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toPageResponse(users, userModelToResponse))
}

// CreateUser registers a new account
//
// @Summary Create user
// @Accept json
// @Param request body CreateUserRequest true "User"
// @Produce json
// @Success 201 {object} UserResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user := &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
	}

	created, err := h.service.CreateUser(r.Context(), user, req.Password, req.RoleIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, userModelToResponse(created))
}

// UpdateUser updates an existing user
//
// @Summary Update user
// @Accept json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "User"
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user := &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
	}

	updated, err := h.service.UpdateUser(r.Context(), id, user, req.RoleIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(updated))
}

// DeleteUser deletes a user
//
// @Summary Delete user
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
