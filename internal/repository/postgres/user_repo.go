package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yourorg/paper-broker/internal/domain"
)

const userColumns = `id, username, password_hash, cash, created_at`

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts u, assigning its ID. A taken username yields domain.ErrUsernameTaken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, username, password_hash, cash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.Cash).
		Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

// GetByIDForUpdateTx locks the user row until tx ends, serializing cash updates.
func (r *UserRepo) GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := tx.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	return &u, nil
}

func (r *UserRepo) UpdateCashTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, cash decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET cash = $1 WHERE id = $2`, cash, id)
	if err != nil {
		return fmt.Errorf("update cash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cash: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("get %s: %w", what, err)
}
