package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")

	// validation
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrInvalidShares    = errors.New("invalid share count")
	ErrSymbolRequired   = errors.New("must select symbol")
	ErrSharesRequired   = errors.New("must specify shares")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUsernameRequired = errors.New("must provide username")
	ErrPasswordRequired = errors.New("must provide password and confirmation")
	ErrPasswordMismatch = errors.New("passwords don't match")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrUsernameTaken    = errors.New("username already exists")

	// business rules
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrCashLimitExceeded  = errors.New("cash balance limit exceeded")
	ErrInvalidCredentials = errors.New("invalid username and/or password")
)
