// Package ingestion keeps quotes fresh for symbols that live clients watch.
package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/paper-broker/internal/quote"
)

const maxBackoff = 5 * time.Minute

// Watchlist reports the symbols currently being watched.
type Watchlist interface {
	Symbols(ctx context.Context) []string
}

// Refresher periodically re-quotes every watched symbol and writes the result
// through the cache, which also announces it to stream subscribers.
type Refresher struct {
	provider quote.Provider
	cache    quote.Cache
	watch    Watchlist
	interval time.Duration
	logger   *slog.Logger
}

func NewRefresher(provider quote.Provider, cache quote.Cache, watch Watchlist, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		provider: provider,
		cache:    cache,
		watch:    watch,
		interval: interval,
		logger:   logger,
	}
}

// Run refreshes until ctx is done. When a whole round fails the wait doubles,
// up to maxBackoff, and resets after the next successful round.
func (r *Refresher) Run(ctx context.Context) {
	wait := r.interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		ok, failed := r.refresh(ctx)
		if failed > 0 && ok == 0 {
			wait *= 2
			if wait > maxBackoff {
				wait = maxBackoff
			}
			r.logger.Error("quote refresh failing", "failed", failed, "retrying_in", wait)
			continue
		}
		wait = r.interval
	}
}

func (r *Refresher) refresh(ctx context.Context) (ok, failed int) {
	for _, symbol := range r.watch.Symbols(ctx) {
		q, err := r.provider.Lookup(ctx, symbol)
		if err != nil {
			if !errors.Is(err, quote.ErrNotFound) {
				r.logger.Warn("quote refresh lookup failed", "symbol", symbol, "err", err)
			}
			failed++
			continue
		}
		if err := r.cache.Put(ctx, *q); err != nil {
			r.logger.Error("failed to publish quote", "symbol", symbol, "err", err)
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}
