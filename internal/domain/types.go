package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartingCash is the balance granted to every new account.
var StartingCash = decimal.RequireFromString("10000.00")

// MaxCash is the largest balance the cash column (NUMERIC(14,2)) can hold.
var MaxCash = decimal.RequireFromString("999999999999.99")

type User struct {
	ID           uuid.UUID       `db:"id"            json:"id"`
	Username     string          `db:"username"      json:"username"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Cash         decimal.Decimal `db:"cash"          json:"cash"`
	CreatedAt    time.Time       `db:"created_at"    json:"created_at"`
}

// LedgerEntry is one immutable buy (Shares > 0) or sell (Shares < 0).
type LedgerEntry struct {
	ID         int64           `db:"id"          json:"id"`
	UserID     uuid.UUID       `db:"user_id"     json:"-"`
	Symbol     string          `db:"symbol"      json:"symbol"`
	Shares     int64           `db:"shares"      json:"shares"`
	Price      decimal.Decimal `db:"price"       json:"price"`
	ExecutedAt time.Time       `db:"executed_at" json:"executed_at"`
}

// Amount is the signed cash value of the entry at its recorded price.
func (e LedgerEntry) Amount() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(e.Shares))
}

// Holding is a (symbol, price) group of ledger entries with a non-zero share sum.
type Holding struct {
	Symbol string          `db:"symbol" json:"symbol"`
	Shares int64           `db:"shares" json:"shares"`
	Price  decimal.Decimal `db:"price"  json:"price"`
	Total  decimal.Decimal `db:"total"  json:"total"`
}

type Portfolio struct {
	Holdings []Holding       `json:"holdings"`
	Cash     decimal.Decimal `json:"cash"`
	NetWorth decimal.Decimal `json:"net_worth"`
}

type Quote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
}

type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeResult is returned by a successful buy or sell.
type TradeResult struct {
	Side  TradeSide       `json:"side"`
	Entry LedgerEntry     `json:"entry"`
	Cash  decimal.Decimal `json:"cash"`
}

// TradeExecuted is the event emitted after a trade commits.
type TradeExecuted struct {
	UserID     uuid.UUID       `json:"user_id"`
	EntryID    int64           `json:"entry_id"`
	Side       TradeSide       `json:"side"`
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	CashAfter  decimal.Decimal `json:"cash_after"`
	ExecutedAt time.Time       `json:"executed_at"`
}
