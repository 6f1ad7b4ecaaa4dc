package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourorg/paper-broker/internal/domain"
)

// QuoteChannel is the pub/sub channel carrying fresh quotes for symbol.
func QuoteChannel(symbol string) string {
	return "quotes." + symbol
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

type QuoteRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuoteRepo(client *redis.Client, ttl time.Duration) *QuoteRepo {
	return &QuoteRepo{client: client, ttl: ttl}
}

// Put caches q and announces it to stream subscribers in one round trip.
func (r *QuoteRepo) Put(ctx context.Context, q domain.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, quoteKey(q.Symbol), data, r.ttl)
	pipe.Publish(ctx, QuoteChannel(q.Symbol), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put quote: %w", err)
	}
	return nil
}

// Get returns the cached quote, or nil when none is cached.
func (r *QuoteRepo) Get(ctx context.Context, symbol string) (*domain.Quote, error) {
	val, err := r.client.Get(ctx, quoteKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get quote: %w", err)
	}
	var q domain.Quote
	if err := json.Unmarshal(val, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Stream delivers raw quote payloads published for symbol until ctx is
// done, then closes the channel. It returns once the subscription is live.
func (r *QuoteRepo) Stream(ctx context.Context, symbol string) (<-chan []byte, error) {
	pubsub := r.client.Subscribe(ctx, QuoteChannel(symbol))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", symbol, err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
