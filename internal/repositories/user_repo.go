package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/dscatalog/internal/database"
	"github.com/BradenHooton/dscatalog/internal/models"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `u.id, u.first_name, u.last_name, u.email, u.password, u.created_at, u.updated_at`

var userSortColumns = map[string]string{
	"id":        "u.id",
	"firstName": "u.first_name",
	"lastName":  "u.last_name",
	"email":     "u.email",
}

// scanUserRow populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// loadRoles attaches roles to the given users with a single query
func (r *UserRepository) loadRoles(ctx context.Context, users ...*models.User) error {
	if len(users) == 0 {
		return nil
	}

	byID := make(map[int64]*models.User, len(users))
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		u.Roles = []models.Role{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	query := `
		SELECT ur.user_id, r.id, r.authority
		FROM tb_user_role ur
		JOIN tb_role r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY ur.user_id, r.id
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var role models.Role
		if err := rows.Scan(&userID, &role.ID, &role.Authority); err != nil {
			return fmt.Errorf("failed to scan user role: %w", err)
		}
		if u, ok := byID[userID]; ok {
			u.Roles = append(u.Roles, role)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating role rows: %w", err)
	}

	return nil
}

// replaceRoles rewrites the role assignments of a user. Unknown role ids
// surface as ErrIntegrityViolation.
func (r *UserRepository) replaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	conn := r.db.Conn(ctx)

	if _, err := conn.Exec(ctx, `DELETE FROM tb_user_role WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user roles: %w", database.MapPostgresError(err))
	}

	if len(roleIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO tb_user_role (user_id, role_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := conn.Exec(ctx, query, userID, roleIDs); err != nil {
		return fmt.Errorf("failed to assign user roles: %w", database.MapPostgresError(err))
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM tb_user u WHERE u.id = $1`

	user, err := scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadRoles(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM tb_user u WHERE u.email = $1`

	user, err := scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query, email))
	if err != nil {
		return nil, err
	}

	if err := r.loadRoles(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) List(ctx context.Context, page models.PageRequest) (models.Page[*models.User], error) {
	order, err := orderBy(page.Sort, userSortColumns, "u.id")
	if err != nil {
		return models.Page[*models.User]{}, err
	}

	batch := &pgx.Batch{}
	batch.Queue(`SELECT COUNT(*) FROM tb_user`)
	batch.Queue(`SELECT `+userColumns+` FROM tb_user u `+order+` LIMIT $1 OFFSET $2`, page.Size, page.Offset())

	results := r.db.Conn(ctx).SendBatch(ctx, batch)
	defer results.Close()

	var total int64
	if err := results.QueryRow().Scan(&total); err != nil {
		return models.Page[*models.User]{}, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := results.Query()
	if err != nil {
		return models.Page[*models.User]{}, fmt.Errorf("failed to query users: %w", err)
	}

	users, err := scanUserRows(rows)
	if err != nil {
		return models.Page[*models.User]{}, err
	}

	if err := results.Close(); err != nil {
		return models.Page[*models.User]{}, fmt.Errorf("failed to close user batch: %w", err)
	}

	if err := r.loadRoles(ctx, users...); err != nil {
		return models.Page[*models.User]{}, err
	}

	return models.NewPage(users, page, total), nil
}

// Create inserts the user and its role assignments in one transaction
func (r *UserRepository) Create(ctx context.Context, user *models.User, roleIDs []int64) (*models.User, error) {
	var created *models.User

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		now := time.Now()
		query := `
			INSERT INTO tb_user (first_name, last_name, email, password, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING id, first_name, last_name, email, password, created_at, updated_at
		`

		u, err := scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query,
			user.FirstName, user.LastName, user.Email, user.PasswordHash, now,
		))
		if err != nil {
			return err
		}

		if err := r.replaceRoles(ctx, u.ID, roleIDs); err != nil {
			return err
		}
		if err := r.loadRoles(ctx, u); err != nil {
			return err
		}

		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update rewrites the profile fields and, when roleIDs is non-nil, the role assignments
func (r *UserRepository) Update(ctx context.Context, id int64, user *models.User, roleIDs []int64) (*models.User, error) {
	var updated *models.User

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			UPDATE tb_user SET first_name = $1, last_name = $2, email = $3, updated_at = $4
			WHERE id = $5
			RETURNING id, first_name, last_name, email, password, created_at, updated_at
		`

		u, err := scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query,
			user.FirstName, user.LastName, user.Email, time.Now(), id,
		))
		if err != nil {
			return err
		}

		if roleIDs != nil {
			if err := r.replaceRoles(ctx, u.ID, roleIDs); err != nil {
				return err
			}
		}
		if err := r.loadRoles(ctx, u); err != nil {
			return err
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE tb_user SET password = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Conn(ctx).Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", database.MapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM tb_user WHERE id = $1`

	result, err := r.db.Conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RolesByAuthority resolves roles by authority name. Unknown names are omitted.
func (r *UserRepository) RolesByAuthority(ctx context.Context, authorities []string) ([]models.Role, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, `SELECT id, authority FROM tb_role WHERE authority = ANY($1) ORDER BY id`, authorities)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]models.Role, 0, len(authorities))
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Authority); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}

	return roles, nil
}
