package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/dscatalog/internal/models"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document read by `catalogctl seed`
type SeedFile struct {
	Categories []string      `yaml:"categories"`
	Products   []SeedProduct `yaml:"products"`
	Users      []SeedUser    `yaml:"users"`
}

type SeedProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       float64  `yaml:"price"`
	ImgURL      string   `yaml:"img_url"`
	Date        string   `yaml:"date"` // RFC 3339, optional
	Categories  []string `yaml:"categories"`
}

type SeedUser struct {
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	Email     string   `yaml:"email"`
	Password  string   `yaml:"password"`
	Roles     []string `yaml:"roles"`
}

// parseSeedFile decodes and checks a seed document. Unknown keys are rejected.
func parseSeedFile(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, p := range f.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("products[%d]: name is required", i)
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("products[%d] %q: price must be positive", i, p.Name)
		}
		if len(p.Categories) == 0 {
			return nil, fmt.Errorf("products[%d] %q: at least one category is required", i, p.Name)
		}
		if p.Date != "" {
			if _, err := time.Parse(time.RFC3339, p.Date); err != nil {
				return nil, fmt.Errorf("products[%d] %q: date: %w", i, p.Name, err)
			}
		}
	}
	for i, u := range f.Users {
		if strings.TrimSpace(u.Email) == "" || u.Password == "" {
			return nil, fmt.Errorf("users[%d]: email and password are required", i)
		}
	}

	return &f, nil
}

type categoryStore interface {
	GetByNames(ctx context.Context, names []string) ([]*models.Category, error)
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
}

type productStore interface {
	SearchIDs(ctx context.Context, categoryIDs []int64, name string, page models.PageRequest) ([]int64, int64, error)
	FindWithCategories(ctx context.Context, ids []int64) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	RolesByAuthority(ctx context.Context, authorities []string) ([]models.Role, error)
	Create(ctx context.Context, user *models.User, roleIDs []int64) (*models.User, error)
}

type transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// seeder loads a SeedFile. Rows that already exist (categories by name,
// products by exact name, users by email) are left untouched, so a seed
// can be re-applied.
type seeder struct {
	categories   categoryStore
	products     productStore
	users        userStore
	tx           transactor
	hashPassword func(string) (string, error)
	logger       *slog.Logger
}

type seedResult struct {
	Categories, Products, Users int
}

func (s *seeder) apply(ctx context.Context, f *SeedFile) (seedResult, error) {
	var res seedResult

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		res = seedResult{}

		byName, err := s.seedCategories(ctx, f, &res)
		if err != nil {
			return err
		}
		if err := s.seedProducts(ctx, f, byName, &res); err != nil {
			return err
		}
		return s.seedUsers(ctx, f, &res)
	})

	return res, err
}

func (s *seeder) seedCategories(ctx context.Context, f *SeedFile, res *seedResult) (map[string]int64, error) {
	names := make([]string, 0, len(f.Categories))
	for _, p := range f.Products {
		names = append(names, p.Categories...)
	}
	names = append(names, f.Categories...)

	existing, err := s.categories.GetByNames(ctx, names)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	for _, name := range f.Categories {
		name = strings.TrimSpace(name)
		if _, ok := byName[name]; ok || name == "" {
			continue
		}
		created, err := s.categories.Create(ctx, &models.Category{Name: name})
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		byName[name] = created.ID
		res.Categories++
	}

	return byName, nil
}

func (s *seeder) seedProducts(ctx context.Context, f *SeedFile, byName map[string]int64, res *seedResult) error {
	for _, p := range f.Products {
		exists, err := s.productExists(ctx, p.Name)
		if err != nil {
			return err
		}
		if exists {
			s.logger.Debug("product already present", slog.String("name", p.Name))
			continue
		}

		product := &models.Product{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			ImgURL:      p.ImgURL,
		}
		if p.Date != "" {
			d, _ := time.Parse(time.RFC3339, p.Date)
			product.Date = &d
		}
		for _, cname := range p.Categories {
			id, ok := byName[strings.TrimSpace(cname)]
			if !ok {
				return fmt.Errorf("product %q: unknown category %q", p.Name, cname)
			}
			product.Categories = append(product.Categories, models.Category{ID: id})
		}

		if _, err := s.products.Create(ctx, product); err != nil {
			return fmt.Errorf("product %q: %w", p.Name, err)
		}
		res.Products++
	}
	return nil
}

func (s *seeder) productExists(ctx context.Context, name string) (bool, error) {
	ids, _, err := s.products.SearchIDs(ctx, nil, name, models.NewPageRequest(0, models.MaxPageSize))
	if err != nil || len(ids) == 0 {
		return false, err
	}

	found, err := s.products.FindWithCategories(ctx, ids)
	if err != nil {
		return false, err
	}
	for _, p := range found {
		if strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *seeder) seedUsers(ctx context.Context, f *SeedFile, res *seedResult) error {
	for _, u := range f.Users {
		email := strings.TrimSpace(u.Email)

		_, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			s.logger.Debug("user already present", slog.String("email", email))
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("user %q: %w", email, err)
		}

		roles, err := s.users.RolesByAuthority(ctx, u.Roles)
		if err != nil {
			return err
		}
		if len(roles) != len(u.Roles) {
			return fmt.Errorf("user %q: unknown role in %v", email, u.Roles)
		}
		roleIDs := make([]int64, 0, len(roles))
		for _, r := range roles {
			roleIDs = append(roleIDs, r.ID)
		}

		hash, err := s.hashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("user %q: %w", email, err)
		}

		user := &models.User{
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Email:        email,
			PasswordHash: hash,
		}
		if _, err := s.users.Create(ctx, user, roleIDs); err != nil {
			return fmt.Errorf("user %q: %w", email, err)
		}
		res.Users++
	}
	return nil
}
