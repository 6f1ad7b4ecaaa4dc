package quote

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yourorg/paper-broker/internal/domain"
)

// Cache stores recent quotes. Put is expected to also announce the quote to
// live subscribers.
type Cache interface {
	Get(ctx context.Context, symbol string) (*domain.Quote, error)
	Put(ctx context.Context, q domain.Quote) error
}

// Cached serves quotes from cache when fresh and falls through to next otherwise.
// Cache failures are logged and never fail a lookup.
type Cached struct {
	next   Provider
	cache  Cache
	logger *slog.Logger
}

func NewCached(next Provider, cache Cache, logger *slog.Logger) *Cached {
	return &Cached{next: next, cache: cache, logger: logger}
}

// Fresh returns a Provider that always asks next and writes the answer
// through to the cache.
func (c *Cached) Fresh() Provider {
	return freshLookup{c}
}

type freshLookup struct {
	c *Cached
}

func (f freshLookup) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNotFound
	}
	return f.c.fetch(ctx, symbol)
}

func (c *Cached) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNotFound
	}
	q, err := c.cache.Get(ctx, symbol)
	if err != nil {
		c.logger.Warn("quote cache read failed", "symbol", symbol, "err", err)
	}
	if q != nil {
		return q, nil
	}
	return c.fetch(ctx, symbol)
}

func (c *Cached) fetch(ctx context.Context, symbol string) (*domain.Quote, error) {
	q, err := c.next.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, *q); err != nil {
		c.logger.Warn("quote cache write failed", "symbol", symbol, "err", err)
	}
	return q, nil
}
