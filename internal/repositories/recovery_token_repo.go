package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/dscatalog/internal/database"
	"github.com/BradenHooton/dscatalog/internal/models"
	"github.com/jackc/pgx/v5"
)

// RecoveryTokenRepository handles password recovery token data access
type RecoveryTokenRepository struct {
	db *database.DB
}

// NewRecoveryTokenRepository creates a new RecoveryTokenRepository
func NewRecoveryTokenRepository(db *database.DB) *RecoveryTokenRepository {
	return &RecoveryTokenRepository{db: db}
}

const recoveryTokenColumns = `id, email, token, created_at, expiration, used_at`

// scanRecoveryTokenRow populates a RecoveryToken model from a database row
func scanRecoveryTokenRow(row rowScanner) (*models.RecoveryToken, error) {
	var token models.RecoveryToken
	var usedAt *time.Time

	err := row.Scan(
		&token.ID, &token.Email, &token.Token,
		&token.CreatedAt, &token.ExpiresAt, &usedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	token.UsedAt = usedAt
	return &token, nil
}

// scanRecoveryTokenRows iterates through rows and scans each into RecoveryToken models
func scanRecoveryTokenRows(rows pgx.Rows) ([]*models.RecoveryToken, error) {
	defer rows.Close()

	tokens := make([]*models.RecoveryToken, 0)

	for rows.Next() {
		token, err := scanRecoveryTokenRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recovery token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recovery token rows: %w", err)
	}

	return tokens, nil
}

// LockEmail takes a transaction-scoped advisory lock on the email so concurrent
// issuance for the same address runs one at a time. Outside a transaction the
// lock is released as soon as the statement completes.
func (r *RecoveryTokenRepository) LockEmail(ctx context.Context, email string) error {
	_, err := r.db.Conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, email)
	if err != nil {
		return fmt.Errorf("failed to lock recovery email: %w", err)
	}
	return nil
}

// FindValidByToken returns the unused, unexpired tokens matching the token string.
// Matching rows are locked until the surrounding transaction ends.
func (r *RecoveryTokenRepository) FindValidByToken(ctx context.Context, token string, now time.Time) ([]*models.RecoveryToken, error) {
	query := `
		SELECT ` + recoveryTokenColumns + `
		FROM tb_password_recover
		WHERE token = $1 AND expiration > $2 AND used_at IS NULL
		ORDER BY created_at DESC, id DESC
		FOR UPDATE
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, token, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query recovery tokens by token: %w", err)
	}

	return scanRecoveryTokenRows(rows)
}

// FindValidByEmail returns the unused, unexpired tokens issued to the email.
// Matching rows are locked until the surrounding transaction ends.
func (r *RecoveryTokenRepository) FindValidByEmail(ctx context.Context, email string, now time.Time) ([]*models.RecoveryToken, error) {
	query := `
		SELECT ` + recoveryTokenColumns + `
		FROM tb_password_recover
		WHERE email = $1 AND expiration > $2 AND used_at IS NULL
		ORDER BY created_at DESC, id DESC
		FOR UPDATE
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, email, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query recovery tokens by email: %w", err)
	}

	return scanRecoveryTokenRows(rows)
}

// Save inserts a new token (ID == 0) or persists the used_at of an existing one.
func (r *RecoveryTokenRepository) Save(ctx context.Context, token *models.RecoveryToken) (*models.RecoveryToken, error) {
	if token.ID == 0 {
		query := `
			INSERT INTO tb_password_recover (email, token, created_at, expiration, used_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + recoveryTokenColumns

		saved, err := scanRecoveryTokenRow(r.db.Conn(ctx).QueryRow(ctx, query,
			token.Email, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt))
		if err != nil {
			return nil, fmt.Errorf("failed to create recovery token: %w", err)
		}
		return saved, nil
	}

	query := `
		UPDATE tb_password_recover
		SET used_at = $2
		WHERE id = $1
		RETURNING ` + recoveryTokenColumns

	saved, err := scanRecoveryTokenRow(r.db.Conn(ctx).QueryRow(ctx, query, token.ID, token.UsedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to update recovery token: %w", err)
	}
	return saved, nil
}

// SaveAll persists the used_at of existing tokens in a single round trip.
func (r *RecoveryTokenRepository) SaveAll(ctx context.Context, tokens []*models.RecoveryToken) error {
	if len(tokens) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range tokens {
		if t.ID == 0 {
			return fmt.Errorf("cannot batch-update unsaved recovery token: %w", models.ErrBadRequest)
		}
		batch.Queue(`UPDATE tb_password_recover SET used_at = $2 WHERE id = $1`, t.ID, t.UsedAt)
	}

	results := r.db.Conn(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for range tokens {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to update recovery tokens: %w", err)
		}
	}

	return nil
}

// CountValid counts tokens that can still be consumed at the given instant
func (r *RecoveryTokenRepository) CountValid(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.Conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM tb_password_recover WHERE expiration > $1 AND used_at IS NULL`, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count valid recovery tokens: %w", err)
	}
	return count, nil
}
