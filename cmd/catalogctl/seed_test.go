package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/BradenHooton/dscatalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategories struct {
	rows   []*models.Category
	nextID int64
}

func (f *fakeCategories) GetByNames(_ context.Context, names []string) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.rows {
		for _, n := range names {
			if c.Name == n {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	f.nextID++
	created := &models.Category{ID: f.nextID, Name: c.Name}
	f.rows = append(f.rows, created)
	return created, nil
}

type fakeProducts struct {
	rows []*models.Product
}

func (f *fakeProducts) SearchIDs(_ context.Context, _ []int64, name string, _ models.PageRequest) ([]int64, int64, error) {
	var ids []int64
	for _, p := range f.rows {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			ids = append(ids, p.ID)
		}
	}
	return ids, int64(len(ids)), nil
}

func (f *fakeProducts) FindWithCategories(_ context.Context, ids []int64) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.rows {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	p.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, p)
	return p, nil
}

type fakeUsers struct {
	rows    []*models.User
	roleIDs map[string][]int64
	failOn  string
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, models.NewNotFound("User", "email", email)
}

func (f *fakeUsers) RolesByAuthority(_ context.Context, authorities []string) ([]models.Role, error) {
	known := map[string]int64{"ROLE_OPERATOR": 1, "ROLE_ADMIN": 2}
	var roles []models.Role
	for _, a := range authorities {
		if id, ok := known[a]; ok {
			roles = append(roles, models.Role{ID: id, Authority: a})
		}
	}
	return roles, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User, roleIDs []int64) (*models.User, error) {
	if u.Email == f.failOn {
		return nil, models.ErrConflict
	}
	if f.roleIDs == nil {
		f.roleIDs = map[string][]int64{}
	}
	f.roleIDs[u.Email] = roleIDs
	f.rows = append(f.rows, u)
	return u, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestSeeder() (*seeder, *fakeCategories, *fakeProducts, *fakeUsers) {
	cats := &fakeCategories{}
	prods := &fakeProducts{}
	users := &fakeUsers{}
	return &seeder{
		categories:   cats,
		products:     prods,
		users:        users,
		tx:           passthroughTx{},
		hashPassword: func(p string) (string, error) { return "hashed:" + p, nil },
		logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}, cats, prods, users
}

func loadExample(t *testing.T) *SeedFile {
	fh, err := os.Open("../../configs/seed.example.yaml")
	require.NoError(t, err)
	defer fh.Close()

	f, err := parseSeedFile(fh)
	require.NoError(t, err)
	return f
}

func TestParseSeedFile_Example(t *testing.T) {
	f := loadExample(t)

	assert.Equal(t, []string{"Books", "Electronics", "Computers"}, f.Categories)
	require.Len(t, f.Products, 3)
	assert.Equal(t, []string{"Electronics", "Computers"}, f.Products[2].Categories)
	require.Len(t, f.Users, 2)
	assert.Equal(t, []string{"ROLE_OPERATOR", "ROLE_ADMIN"}, f.Users[1].Roles)
}

func TestParseSeedFile_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: "colors: [red]"},
		{name: "product without category", doc: "products:\n  - name: TV\n    price: 10\n"},
		{name: "non-positive price", doc: "products:\n  - name: TV\n    price: 0\n    categories: [A]\n"},
		{name: "bad date", doc: "products:\n  - name: TV\n    price: 1\n    date: yesterday\n    categories: [A]\n"},
		{name: "user without password", doc: "users:\n  - email: a@b.c\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSeedFile(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseSeedFile_Empty(t *testing.T) {
	f, err := parseSeedFile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Products)
}

func TestSeeder_Apply(t *testing.T) {
	s, cats, prods, users := newTestSeeder()

	res, err := s.apply(context.Background(), loadExample(t))
	require.NoError(t, err)

	assert.Equal(t, seedResult{Categories: 3, Products: 3, Users: 2}, res)
	assert.Len(t, cats.rows, 3)
	assert.Equal(t, []int64{2, 3}, prods.rows[2].CategoryIDs())
	require.NotNil(t, prods.rows[0].Date)
	assert.Equal(t, 2020, prods.rows[0].Date.Year())
	assert.Equal(t, "hashed:Secret123", users.rows[0].PasswordHash)
	assert.Equal(t, []int64{1, 2}, users.roleIDs["alex@gmail.com"])
}

func TestSeeder_ApplyIsIdempotent(t *testing.T) {
	s, cats, prods, users := newTestSeeder()
	f := loadExample(t)

	_, err := s.apply(context.Background(), f)
	require.NoError(t, err)

	res, err := s.apply(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, seedResult{}, res)
	assert.Len(t, cats.rows, 3)
	assert.Len(t, prods.rows, 3)
	assert.Len(t, users.rows, 2)
}

func TestSeeder_UnknownCategory(t *testing.T) {
	s, _, _, _ := newTestSeeder()
	f := &SeedFile{Products: []SeedProduct{{Name: "TV", Price: 1, Categories: []string{"Garden"}}}}

	_, err := s.apply(context.Background(), f)
	assert.ErrorContains(t, err, `unknown category "Garden"`)
}

func TestSeeder_UnknownRole(t *testing.T) {
	s, _, _, _ := newTestSeeder()
	f := &SeedFile{Users: []SeedUser{{Email: "a@b.c", Password: "Secret123", Roles: []string{"ROLE_ROOT"}}}}

	_, err := s.apply(context.Background(), f)
	assert.ErrorContains(t, err, "unknown role")
}

func TestSeeder_PropagatesStoreErrors(t *testing.T) {
	s, _, _, users := newTestSeeder()
	users.failOn = "maria@gmail.com"

	_, err := s.apply(context.Background(), loadExample(t))
	assert.True(t, errors.Is(err, models.ErrConflict))
}
