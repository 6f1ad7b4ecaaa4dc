package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yourorg/paper-broker/internal/domain"
)

// LedgerRepo reads and appends the stocks table. Rows are never updated.
type LedgerRepo struct {
	db *sqlx.DB
}

func NewLedgerRepo(db *sqlx.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) InsertTx(ctx context.Context, tx *sqlx.Tx, e *domain.LedgerEntry) error {
	query := `
		INSERT INTO stocks (user_id, symbol, shares, price, executed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, query, e.UserID, e.Symbol, e.Shares, e.Price, e.ExecutedAt).Scan(&e.ID); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// SharesHeld returns the net share count of symbol. q may be the pool or an open tx.
func (r *LedgerRepo) SharesHeld(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID, symbol string) (int64, error) {
	var held int64
	err := sqlx.GetContext(ctx, q, &held,
		`SELECT COALESCE(SUM(shares), 0)::bigint FROM stocks WHERE user_id = $1 AND symbol = $2`,
		userID, symbol)
	if err != nil {
		return 0, fmt.Errorf("sum shares: %w", err)
	}
	return held, nil
}

func (r *LedgerRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error) {
	entries := []domain.LedgerEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, symbol, shares, price, executed_at
		FROM stocks WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	return entries, nil
}

// Holdings groups entries by symbol and execution price, dropping groups that net to zero.
func (r *LedgerRepo) Holdings(ctx context.Context, userID uuid.UUID) ([]domain.Holding, error) {
	holdings := []domain.Holding{}
	err := r.db.SelectContext(ctx, &holdings, `
		SELECT symbol, SUM(shares)::bigint AS shares, price, SUM(shares * price) AS total
		FROM stocks WHERE user_id = $1
		GROUP BY symbol, price
		HAVING SUM(shares) <> 0
		ORDER BY symbol, price`, userID)
	if err != nil {
		return nil, fmt.Errorf("select holdings: %w", err)
	}
	return holdings, nil
}

// BookValue is the sum of shares*price over every entry, sells included.
func (r *LedgerRepo) BookValue(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(shares * price), 0) FROM stocks WHERE user_id = $1`, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum book value: %w", err)
	}
	return total, nil
}

func (r *LedgerRepo) SellableSymbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	symbols := []string{}
	err := r.db.SelectContext(ctx, &symbols, `
		SELECT symbol FROM stocks WHERE user_id = $1
		GROUP BY symbol HAVING SUM(shares) > 0
		ORDER BY symbol`, userID)
	if err != nil {
		return nil, fmt.Errorf("select symbols: %w", err)
	}
	return symbols, nil
}
