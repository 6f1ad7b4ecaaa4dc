package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yourorg/paper-broker/internal/auth"
)

func NewRouter(h *Handlers, hub *Hub, origins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.sessions, "/login", logger))

		r.Get("/", h.Index)
		r.Get("/history", h.History)
		r.Get("/buy", h.BuyForm)
		r.Post("/buy", h.Buy)
		r.Get("/sell", h.SellForm)
		r.Post("/sell", h.Sell)
		r.Get("/quote", h.QuoteForm)
		r.Post("/quote", h.Quote)
		r.Get("/deposit", h.DepositForm)
		r.Post("/deposit", h.Deposit)
		r.Get("/logout", h.Logout)
		r.Get("/ws/quotes", ServeWS(hub, origins, logger))
	})

	return r
}
