package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradenHooton/dscatalog/internal/auth"
	"github.com/BradenHooton/dscatalog/internal/models"
	pkghttp "github.com/BradenHooton/dscatalog/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID int64, email string) *http.Request {
	claims := &models.TokenClaims{
		Type:     models.TokenTypeAccess,
		UserID:   userID,
		Username: email,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithChiIDFromURL sets the last path segment as the chi "id" route parameter
func WithChiIDFromURL(r *http.Request) *http.Request {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		return r
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", parts[len(parts)-1])
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc func(ctx context.Context, email, password, ipAddress string) (*models.AuthResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*models.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, ipAddress)
}

// MockRecoveryService implements RecoveryServiceInterface for testing
type MockRecoveryService struct {
	CreateRecoveryTokenFunc func(ctx context.Context, email string) error
	SetNewPasswordFunc      func(ctx context.Context, token, newPassword string) error
	GetCurrentUserFunc      func(ctx context.Context, identity *models.Identity) (*models.Profile, error)
}

func (m *MockRecoveryService) CreateRecoveryToken(ctx context.Context, email string) error {
	if m.CreateRecoveryTokenFunc == nil {
		return nil
	}
	return m.CreateRecoveryTokenFunc(ctx, email)
}

func (m *MockRecoveryService) SetNewPassword(ctx context.Context, token, newPassword string) error {
	if m.SetNewPasswordFunc == nil {
		return nil
	}
	return m.SetNewPasswordFunc(ctx, token, newPassword)
}

func (m *MockRecoveryService) GetCurrentUser(ctx context.Context, identity *models.Identity) (*models.Profile, error) {
	if m.GetCurrentUserFunc == nil {
		return nil, models.ErrNotAuthenticated
	}
	return m.GetCurrentUserFunc(ctx, identity)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserByIDFunc func(ctx context.Context, id int64) (*models.User, error)
	ListUsersFunc   func(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error)
	CreateUserFunc  func(ctx context.Context, user *models.User, password string, roleIDs []int64) (*models.User, error)
	UpdateUserFunc  func(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error)
	DeleteUserFunc  func(ctx context.Context, id int64) error
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetUserByIDFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserByIDFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error) {
	if m.ListUsersFunc == nil {
		return models.NewPage([]*models.User{}, page, 0), nil
	}
	return m.ListUsersFunc(ctx, page)
}

func (m *MockUserService) CreateUser(ctx context.Context, user *models.User, password string, roleIDs []int64) (*models.User, error) {
	if m.CreateUserFunc == nil {
		return nil, models.ErrConflict
	}
	return m.CreateUserFunc(ctx, user, password, roleIDs)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, id, user, roleIDs)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int64) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, id)
}

// MockProductService implements ProductService for testing
type MockProductService struct {
	FindFilteredFunc   func(ctx context.Context, categoryIDsRaw, name string, page models.PageRequest) (models.Page[*models.Product], error)
	GetProductByIDFunc func(ctx context.Context, id int64) (*models.Product, error)
	CreateProductFunc  func(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProductFunc  func(ctx context.Context, id int64, product *models.Product) (*models.Product, error)
	DeleteProductFunc  func(ctx context.Context, id int64) error
}

func (m *MockProductService) FindFiltered(ctx context.Context, categoryIDsRaw, name string, page models.PageRequest) (models.Page[*models.Product], error) {
	if m.FindFilteredFunc == nil {
		return models.NewPage([]*models.Product{}, page, 0), nil
	}
	return m.FindFilteredFunc(ctx, categoryIDsRaw, name, page)
}

func (m *MockProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	if m.GetProductByIDFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProductByIDFunc(ctx, id)
}

func (m *MockProductService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if m.CreateProductFunc == nil {
		return nil, models.ErrIntegrityViolation
	}
	return m.CreateProductFunc(ctx, product)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id int64, product *models.Product) (*models.Product, error) {
	if m.UpdateProductFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProductFunc(ctx, id, product)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id int64) error {
	if m.DeleteProductFunc == nil {
		return nil
	}
	return m.DeleteProductFunc(ctx, id)
}

// MockCategoryService implements CategoryService for testing
type MockCategoryService struct {
	GetCategoryByIDFunc func(ctx context.Context, id int64) (*models.Category, error)
	ListCategoriesFunc  func(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error)
	CreateCategoryFunc  func(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategoryFunc  func(ctx context.Context, id int64, category *models.Category) (*models.Category, error)
	DeleteCategoryFunc  func(ctx context.Context, id int64) error
}

func (m *MockCategoryService) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	if m.GetCategoryByIDFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetCategoryByIDFunc(ctx, id)
}

func (m *MockCategoryService) ListCategories(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error) {
	if m.ListCategoriesFunc == nil {
		return models.NewPage([]*models.Category{}, page, 0), nil
	}
	return m.ListCategoriesFunc(ctx, page)
}

func (m *MockCategoryService) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if m.CreateCategoryFunc == nil {
		return nil, models.ErrConflict
	}
	return m.CreateCategoryFunc(ctx, category)
}

func (m *MockCategoryService) UpdateCategory(ctx context.Context, id int64, category *models.Category) (*models.Category, error) {
	if m.UpdateCategoryFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateCategoryFunc(ctx, id, category)
}

func (m *MockCategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if m.DeleteCategoryFunc == nil {
		return nil
	}
	return m.DeleteCategoryFunc(ctx, id)
}
