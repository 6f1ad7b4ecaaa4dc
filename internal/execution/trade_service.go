package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yourorg/paper-broker/internal/domain"
	"github.com/yourorg/paper-broker/internal/quote"
	pgRepo "github.com/yourorg/paper-broker/internal/repository/postgres"
)

// Publisher receives trades after they commit.
type Publisher interface {
	PublishTrade(ctx context.Context, ev domain.TradeExecuted) error
}

// TradeService settles buys, sells and deposits. Every cash mutation runs in
// one transaction holding the user row lock, together with its ledger entry.
// Quote lookups may be served from cache; trades always price with live.
type TradeService struct {
	db     *sqlx.DB
	users  *pgRepo.UserRepo
	ledger *pgRepo.LedgerRepo
	quotes quote.Provider
	live   quote.Provider
	events Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewTradeService(
	db *sqlx.DB,
	users *pgRepo.UserRepo,
	ledger *pgRepo.LedgerRepo,
	quotes quote.Provider,
	live quote.Provider,
	events Publisher,
	logger *slog.Logger,
) *TradeService {
	return &TradeService{
		db:     db,
		users:  users,
		ledger: ledger,
		quotes: quotes,
		live:   live,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Quote resolves symbol; any provider failure reads as an invalid symbol.
func (s *TradeService) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return s.lookup(ctx, s.quotes, symbol)
}

func (s *TradeService) lookup(ctx context.Context, p quote.Provider, symbol string) (*domain.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}
	q, err := p.Lookup(ctx, symbol)
	if err != nil {
		if !errors.Is(err, quote.ErrNotFound) {
			s.logger.Warn("quote lookup failed", "symbol", symbol, "err", err)
		}
		return nil, domain.ErrInvalidSymbol
	}
	return q, nil
}

func (s *TradeService) Buy(ctx context.Context, userID uuid.UUID, symbol, shares string) (*domain.TradeResult, error) {
	q, err := s.lookup(ctx, s.live, symbol)
	if err != nil {
		return nil, err
	}
	n, err := parseShares(shares)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, userID, domain.SideBuy, normalizeSymbol(symbol), n, q.Price)
}

func (s *TradeService) Sell(ctx context.Context, userID uuid.UUID, symbol, shares string) (*domain.TradeResult, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrSymbolRequired
	}
	if strings.TrimSpace(shares) == "" {
		return nil, domain.ErrSharesRequired
	}
	n, err := parseShares(shares)
	if err != nil {
		return nil, err
	}
	held, err := s.ledger.SharesHeld(ctx, s.db, userID, symbol)
	if err != nil {
		return nil, err
	}
	if n > held {
		return nil, domain.ErrInsufficientShares
	}
	q, err := s.lookup(ctx, s.live, symbol)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, userID, domain.SideSell, symbol, n, q.Price)
}

func (s *TradeService) settle(ctx context.Context, userID uuid.UUID, side domain.TradeSide, symbol string, shares int64, price decimal.Decimal) (*domain.TradeResult, error) {
	amount := price.Mul(decimal.NewFromInt(shares))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.users.GetByIDForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}

	entry := domain.LedgerEntry{
		UserID:     userID,
		Symbol:     symbol,
		Price:      price,
		ExecutedAt: s.now().UTC(),
	}
	var cash decimal.Decimal
	switch side {
	case domain.SideBuy:
		if amount.GreaterThan(user.Cash) {
			return nil, domain.ErrInsufficientFunds
		}
		entry.Shares = shares
		cash = user.Cash.Sub(amount)
	case domain.SideSell:
		// re-checked under the lock: a concurrent sell may have drained the holding
		held, err := s.ledger.SharesHeld(ctx, tx, userID, symbol)
		if err != nil {
			return nil, err
		}
		if shares > held {
			return nil, domain.ErrInsufficientShares
		}
		entry.Shares = -shares
		cash = user.Cash.Add(amount)
		if cash.GreaterThan(domain.MaxCash) {
			return nil, domain.ErrCashLimitExceeded
		}
	default:
		return nil, fmt.Errorf("unknown trade side %q", side)
	}

	if err := s.ledger.InsertTx(ctx, tx, &entry); err != nil {
		return nil, err
	}
	if err := s.users.UpdateCashTx(ctx, tx, userID, cash); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("trade executed",
		"user_id", userID, "side", side, "symbol", symbol, "shares", shares, "price", price.StringFixed(2))
	s.publish(ctx, side, entry, cash)

	return &domain.TradeResult{Side: side, Entry: entry, Cash: cash}, nil
}

func (s *TradeService) publish(ctx context.Context, side domain.TradeSide, e domain.LedgerEntry, cash decimal.Decimal) {
	if s.events == nil {
		return
	}
	ev := domain.TradeExecuted{
		UserID:     e.UserID,
		EntryID:    e.ID,
		Side:       side,
		Symbol:     e.Symbol,
		Shares:     e.Shares,
		Price:      e.Price,
		CashAfter:  cash,
		ExecutedAt: e.ExecutedAt,
	}
	if err := s.events.PublishTrade(ctx, ev); err != nil {
		s.logger.Warn("trade event not published", "entry_id", e.ID, "err", err)
	}
}

// Deposit adds amount to the user's cash and returns the new balance.
func (s *TradeService) Deposit(ctx context.Context, userID uuid.UUID, amount string) (decimal.Decimal, error) {
	d, err := parseAmount(amount)
	if err != nil {
		return decimal.Zero, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.users.GetByIDForUpdateTx(ctx, tx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock user: %w", err)
	}
	cash := user.Cash.Add(d)
	if cash.GreaterThan(domain.MaxCash) {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if err := s.users.UpdateCashTx(ctx, tx, userID, cash); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Info("cash deposited", "user_id", userID, "amount", d.StringFixed(2))
	return cash, nil
}
