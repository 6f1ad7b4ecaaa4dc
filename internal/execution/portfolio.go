package execution

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourorg/paper-broker/internal/domain"
)

// Portfolio reports active (symbol, price) holdings, cash and net worth.
// Net worth is cash plus the recorded value of every ledger entry; it is not
// re-priced against live quotes.
func (s *TradeService) Portfolio(ctx context.Context, userID uuid.UUID) (*domain.Portfolio, error) {
	holdings, err := s.ledger.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	book, err := s.ledger.BookValue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Portfolio{
		Holdings: holdings,
		Cash:     user.Cash,
		NetWorth: domain.Cents(user.Cash.Add(book)),
	}, nil
}

func (s *TradeService) History(ctx context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error) {
	return s.ledger.GetByUserID(ctx, userID)
}

func (s *TradeService) SellableSymbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.ledger.SellableSymbols(ctx, userID)
}
