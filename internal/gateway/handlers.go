package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourorg/paper-broker/internal/auth"
	"github.com/yourorg/paper-broker/internal/domain"
)

// Trader is the trading surface the handlers drive.
type Trader interface {
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
	Buy(ctx context.Context, userID uuid.UUID, symbol, shares string) (*domain.TradeResult, error)
	Sell(ctx context.Context, userID uuid.UUID, symbol, shares string) (*domain.TradeResult, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount string) (decimal.Decimal, error)
	Portfolio(ctx context.Context, userID uuid.UUID) (*domain.Portfolio, error)
	History(ctx context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error)
	SellableSymbols(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type Accounts interface {
	Register(ctx context.Context, username, password, confirmation string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

type SessionManager interface {
	auth.Resolver
	Establish(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	trader   Trader
	accounts Accounts
	sessions SessionManager
	checks   map[string]HealthCheck
	logger   *slog.Logger
}

func NewHandlers(
	trader Trader,
	accounts Accounts,
	sessions SessionManager,
	checks map[string]HealthCheck,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		trader:   trader,
		accounts: accounts,
		sessions: sessions,
		checks:   checks,
		logger:   logger,
	}
}

type formResponse struct {
	Form    string   `json:"form"`
	Method  string   `json:"method"`
	Action  string   `json:"action"`
	Fields  []string `json:"fields"`
	Symbols []string `json:"symbols,omitempty"`
}

func form(name string, fields ...string) formResponse {
	return formResponse{Form: name, Method: http.MethodPost, Action: "/" + name, Fields: fields}
}

type userView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Cash     string    `json:"cash"`
}

func newUserView(u *domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Cash: domain.USD(u.Cash)}
}

type messageResponse struct {
	Message string    `json:"message"`
	User    *userView `json:"user,omitempty"`
	Cash    string    `json:"cash,omitempty"`
}

type holdingView struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
	Price  string `json:"price"`
	Total  string `json:"total"`
}

type portfolioView struct {
	Holdings []holdingView `json:"holdings"`
	Cash     string        `json:"cash"`
	NetWorth string        `json:"net_worth"`
}

type entryView struct {
	Symbol     string    `json:"symbol"`
	Shares     int64     `json:"shares"`
	Price      string    `json:"price"`
	ExecutedAt time.Time `json:"transacted"`
}

type tradeView struct {
	Message string    `json:"message"`
	Side    string    `json:"side"`
	Entry   entryView `json:"entry"`
	Cash    string    `json:"cash"`
}

type quoteView struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Price  string `json:"price"`
}

func newEntryView(e domain.LedgerEntry) entryView {
	return entryView{Symbol: e.Symbol, Shares: e.Shares, Price: domain.USD(e.Price), ExecutedAt: e.ExecutedAt}
}

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	p, err := h.trader.Portfolio(r.Context(), auth.UserIDFromCtx(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view := portfolioView{
		Holdings: make([]holdingView, 0, len(p.Holdings)),
		Cash:     domain.USD(p.Cash),
		NetWorth: domain.USD(p.NetWorth),
	}
	for _, hd := range p.Holdings {
		view.Holdings = append(view.Holdings, holdingView{
			Symbol: hd.Symbol,
			Shares: hd.Shares,
			Price:  domain.USD(hd.Price),
			Total:  domain.USD(hd.Total),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.trader.History(r.Context(), auth.UserIDFromCtx(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryView(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) BuyForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, form("buy", "symbol", "shares"))
}

func (h *Handlers) Buy(w http.ResponseWriter, r *http.Request) {
	res, err := h.trader.Buy(r.Context(), auth.UserIDFromCtx(r.Context()), r.FormValue("symbol"), r.FormValue("shares"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTradeView("Bought!", res))
}

func (h *Handlers) SellForm(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.trader.SellableSymbols(r.Context(), auth.UserIDFromCtx(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f := form("sell", "symbol", "shares")
	f.Symbols = symbols
	if f.Symbols == nil {
		f.Symbols = []string{}
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handlers) Sell(w http.ResponseWriter, r *http.Request) {
	res, err := h.trader.Sell(r.Context(), auth.UserIDFromCtx(r.Context()), r.FormValue("symbol"), r.FormValue("shares"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTradeView("Sold!", res))
}

func newTradeView(msg string, res *domain.TradeResult) tradeView {
	return tradeView{
		Message: msg,
		Side:    string(res.Side),
		Entry:   newEntryView(res.Entry),
		Cash:    domain.USD(res.Cash),
	}
}

func (h *Handlers) QuoteForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, form("quote", "symbol"))
}

func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.trader.Quote(r.Context(), r.FormValue("symbol"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteView{Symbol: q.Symbol, Name: q.Name, Price: domain.USD(q.Price)})
}

func (h *Handlers) DepositForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, form("deposit", "cash"))
}

func (h *Handlers) Deposit(w http.ResponseWriter, r *http.Request) {
	cash, err := h.trader.Deposit(r.Context(), auth.UserIDFromCtx(r.Context()), r.FormValue("cash"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Deposited!", Cash: domain.USD(cash)})
}

func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, form("register", "username", "password", "confirmation"))
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Register(r.Context(), r.FormValue("username"), r.FormValue("password"), r.FormValue("confirmation"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.sessions.Establish(r.Context(), w, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("user registered", "user_id", user.ID)
	view := newUserView(user)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Registered!", User: &view})
}

func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, form("login", "username", "password"))
}

// Login drops whatever session the request carried before authenticating.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Warn("clear previous session", "err", err)
	}
	user, err := h.accounts.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, domain.ErrUsernameRequired) || errors.Is(err, domain.ErrPasswordRequired) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		h.fail(w, r, err)
		return
	}
	if err := h.sessions.Establish(r.Context(), w, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	view := newUserView(user)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged in", User: &view})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Warn("clear session", "err", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", "check", name, "err", err)
			status[name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, status)
}

// fail writes err with the status its kind maps to. Unknown errors are
// logged and hidden from the client.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrInvalidShares),
		errors.Is(err, domain.ErrSymbolRequired),
		errors.Is(err, domain.ErrSharesRequired),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUsernameRequired),
		errors.Is(err, domain.ErrPasswordRequired),
		errors.Is(err, domain.ErrPasswordMismatch),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrCashLimitExceeded),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
