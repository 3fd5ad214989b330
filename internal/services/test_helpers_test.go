package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/BradenHooton/dscatalog/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// NewTestUser creates a user with the operator role
func NewTestUser(id int64, email, firstName string) *models.User {
	return &models.User{
		ID:           id,
		FirstName:    firstName,
		LastName:     "Tester",
		Email:        email,
		PasswordHash: "$2a$12$existinghashexistinghashexistinghashexistinghashexist",
		Roles:        []models.Role{{ID: 1, Authority: models.RoleOperator}},
	}
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id int64) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	ListFunc           func(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error)
	CreateFunc         func(ctx context.Context, user *models.User, roleIDs []int64) (*models.User, error)
	UpdateFunc         func(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id int64, passwordHash string) error
	DeleteFunc         func(ctx context.Context, id int64) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, page)
	}
	return models.NewPage([]*models.User{}, page, 0), nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User, roleIDs []int64) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user, roleIDs)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user, roleIDs)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// usersByEmail is a tiny in-memory identity store backing MockUserRepository
type usersByEmail struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[int64]string
}

func newUsersByEmail(users ...*models.User) *usersByEmail {
	s := &usersByEmail{users: map[string]*models.User{}, passwords: map[int64]string{}}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *usersByEmail) repo() *MockUserRepository {
	return &MockUserRepository{
		GetByEmailFunc: func(_ context.Context, email string) (*models.User, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			u, ok := s.users[email]
			if !ok {
				return nil, models.ErrNotFound
			}
			cp := *u
			return &cp, nil
		},
		UpdatePasswordFunc: func(_ context.Context, id int64, hash string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.passwords[id] = hash
			return nil
		},
	}
}

func (s *usersByEmail) password(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwords[id]
}

// memTokenStore is an in-memory RecoveryTokenStore. Returned tokens are
// copies, so callers only change stored state through Save and SaveAll.
type memTokenStore struct {
	mu     sync.Mutex
	nextID int64
	tokens []models.RecoveryToken
	locked []string

	SaveErr error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{}
}

func (s *memTokenStore) LockEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = append(s.locked, email)
	return nil
}

func (s *memTokenStore) find(now time.Time, match func(models.RecoveryToken) bool) []*models.RecoveryToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.RecoveryToken
	for _, t := range s.tokens {
		if match(t) && t.IsValidAt(now) {
			cp := t
			out = append(out, &cp)
		}
	}
	// newest first, ties broken by id, as the repository orders them
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memTokenStore) FindValidByToken(_ context.Context, token string, now time.Time) ([]*models.RecoveryToken, error) {
	return s.find(now, func(t models.RecoveryToken) bool { return t.Token == token }), nil
}

func (s *memTokenStore) FindValidByEmail(_ context.Context, email string, now time.Time) ([]*models.RecoveryToken, error) {
	return s.find(now, func(t models.RecoveryToken) bool { return t.Email == email }), nil
}

func (s *memTokenStore) Save(_ context.Context, token *models.RecoveryToken) (*models.RecoveryToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return nil, s.SaveErr
	}
	return s.saveLocked(token), nil
}

func (s *memTokenStore) saveLocked(token *models.RecoveryToken) *models.RecoveryToken {
	if token.ID == 0 {
		s.nextID++
		cp := *token
		cp.ID = s.nextID
		s.tokens = append(s.tokens, cp)
		return &cp
	}
	for i := range s.tokens {
		if s.tokens[i].ID == token.ID {
			s.tokens[i].UsedAt = token.UsedAt
			cp := s.tokens[i]
			return &cp
		}
	}
	return token
}

func (s *memTokenStore) SaveAll(_ context.Context, tokens []*models.RecoveryToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tokens {
		s.saveLocked(t)
	}
	return nil
}

func (s *memTokenStore) all() []models.RecoveryToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.RecoveryToken(nil), s.tokens...)
}

func (s *memTokenStore) snapshot() ([]models.RecoveryToken, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.RecoveryToken(nil), s.tokens...), s.nextID
}

func (s *memTokenStore) restore(tokens []models.RecoveryToken, nextID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	s.nextID = nextID
}

// fakeTransactor runs fn serially and rolls the token store back when fn fails
type fakeTransactor struct {
	mu    sync.Mutex
	store *memTokenStore
	runs  int
}

func (tx *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.runs++

	var tokens []models.RecoveryToken
	var nextID int64
	if tx.store != nil {
		tokens, nextID = tx.store.snapshot()
	}

	if err := fn(ctx); err != nil {
		if tx.store != nil {
			tx.store.restore(tokens, nextID)
		}
		return err
	}
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer records messages and fails with Err when set
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	Err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *fakeMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

var errDatastore = errors.New("connection reset")

// MockProductRepository implements ProductRepository for testing
type MockProductRepository struct {
	SearchIDsFunc          func(ctx context.Context, categoryIDs []int64, name string, page models.PageRequest) ([]int64, int64, error)
	FindWithCategoriesFunc func(ctx context.Context, ids []int64) ([]*models.Product, error)
	GetByIDFunc            func(ctx context.Context, id int64) (*models.Product, error)
	CreateFunc             func(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateFunc             func(ctx context.Context, id int64, product *models.Product) (*models.Product, error)
	DeleteFunc             func(ctx context.Context, id int64) error
}

func (m *MockProductRepository) SearchIDs(ctx context.Context, categoryIDs []int64, name string, page models.PageRequest) ([]int64, int64, error) {
	if m.SearchIDsFunc != nil {
		return m.SearchIDsFunc(ctx, categoryIDs, name, page)
	}
	return []int64{}, 0, nil
}

func (m *MockProductRepository) FindWithCategories(ctx context.Context, ids []int64) ([]*models.Product, error) {
	if m.FindWithCategoriesFunc != nil {
		return m.FindWithCategoriesFunc(ctx, ids)
	}
	return []*models.Product{}, nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, product)
	}
	return nil, models.ErrInternalServer
}

func (m *MockProductRepository) Update(ctx context.Context, id int64, product *models.Product) (*models.Product, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, product)
	}
	return nil, models.ErrInternalServer
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockCategoryRepository implements CategoryRepository for testing
type MockCategoryRepository struct {
	GetByIDFunc func(ctx context.Context, id int64) (*models.Category, error)
	ListFunc    func(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error)
	CreateFunc  func(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateFunc  func(ctx context.Context, id int64, category *models.Category) (*models.Category, error)
	DeleteFunc  func(ctx context.Context, id int64) error
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCategoryRepository) List(ctx context.Context, page models.PageRequest) (models.Page[*models.Category], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, page)
	}
	return models.NewPage([]*models.Category{}, page, 0), nil
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, category)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCategoryRepository) Update(ctx context.Context, id int64, category *models.Category) (*models.Category, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, category)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	Token string
	Err   error
}

func (m *MockTokenIssuer) GenerateAccessToken(_ *models.User) (string, error) {
	return m.Token, m.Err
}

func (m *MockTokenIssuer) ExpiresIn() int64 {
	return 86400
}
