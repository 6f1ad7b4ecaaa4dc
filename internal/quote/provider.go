// Package quote resolves ticker symbols to current prices.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourorg/paper-broker/internal/domain"
)

// ErrNotFound covers unknown symbols as well as provider failures and timeouts.
var ErrNotFound = errors.New("quote not found")

type Provider interface {
	Lookup(ctx context.Context, symbol string) (*domain.Quote, error)
}

// HTTPProvider queries an IEX-style endpoint: GET {base}/quote?symbol=SYM.
type HTTPProvider struct {
	baseURL string
	token   string
	client  *http.Client
	now     func() time.Time
}

func NewHTTPProvider(baseURL, token string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

type quoteResponse struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}

func (p *HTTPProvider) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNotFound
	}
	q := url.Values{"symbol": {symbol}}
	if p.token != "" {
		q.Set("token", p.token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrNotFound, symbol, resp.Status)
	}
	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrNotFound, err)
	}
	price := domain.Cents(body.LatestPrice)
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: %s has no price", ErrNotFound, symbol)
	}
	if body.Symbol == "" {
		body.Symbol = symbol
	}
	return &domain.Quote{
		Symbol:    strings.ToUpper(body.Symbol),
		Name:      body.CompanyName,
		Price:     price,
		FetchedAt: p.now().UTC(),
	}, nil
}
