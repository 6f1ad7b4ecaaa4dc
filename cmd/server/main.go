package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/paper-broker/internal/account"
	"github.com/yourorg/paper-broker/internal/auth"
	"github.com/yourorg/paper-broker/internal/config"
	"github.com/yourorg/paper-broker/internal/events/kafka"
	"github.com/yourorg/paper-broker/internal/execution"
	"github.com/yourorg/paper-broker/internal/gateway"
	"github.com/yourorg/paper-broker/internal/ingestion"
	"github.com/yourorg/paper-broker/internal/quote"
	pgRepo "github.com/yourorg/paper-broker/internal/repository/postgres"
	redisRepo "github.com/yourorg/paper-broker/internal/repository/redis"
)

func main() {
	config.LoadDotEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := pgRepo.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := pgRepo.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	redisClient, err := redisRepo.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("redis connected")

	userRepo := pgRepo.NewUserRepo(db)
	ledgerRepo := pgRepo.NewLedgerRepo(db)
	quoteRepo := redisRepo.NewQuoteRepo(redisClient, cfg.Quote.CacheTTL)
	sessionRepo := redisRepo.NewSessionRepo(redisClient, cfg.SessionTTL)

	liveQuotes := quote.NewHTTPProvider(cfg.Quote.BaseURL, cfg.Quote.APIToken, cfg.Quote.Timeout)
	quotes := quote.NewCached(liveQuotes, quoteRepo, logger)

	var events execution.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		events = publisher
		logger.Info("trade events enabled", "topic", cfg.Kafka.Topic)
	}

	tradeSvc := execution.NewTradeService(db, userRepo, ledgerRepo, quotes, quotes.Fresh(), events, logger)
	accountSvc, err := account.NewService(userRepo, cfg.BcryptCost)
	if err != nil {
		logger.Error("failed to init accounts", "err", err)
		os.Exit(1)
	}

	jwtSvc := auth.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	sessions := auth.NewSessions(jwtSvc, sessionRepo, cfg.SessionTTL, cfg.SecureCookies)

	hub := gateway.NewHub(quoteRepo, logger)

	checks := map[string]gateway.HealthCheck{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	handlers := gateway.NewHandlers(tradeSvc, accountSvc, sessions, checks, logger)
	router := gateway.NewRouter(handlers, hub, cfg.CORSOrigins, logger)

	go hub.Run(ctx)
	if cfg.Quote.RefreshInterval > 0 {
		refresher := ingestion.NewRefresher(liveQuotes, quoteRepo, hub, cfg.Quote.RefreshInterval, logger)
		go refresher.Run(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("server stopped")
}
