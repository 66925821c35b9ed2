// Package main runs the gating service: the Stripe webhook ingress and the
// entitlements summary endpoint behind a single HTTP listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fineprintai/gatekit/handler"
	"github.com/fineprintai/gatekit/pkg/billing"
	"github.com/fineprintai/gatekit/pkg/entitlement"
	"github.com/fineprintai/gatekit/pkg/logger"
)

type serverConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Subscription records live in Postgres when DATABASE_URL is set,
	// in Redis when only REDIS_URL is set, and in memory otherwise.
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// PriceTiers maps Stripe price IDs to tier names, e.g.
	// "price_1Abc:starter,price_2Def:professional".
	PriceTiers map[string]string `env:"STRIPE_PRICE_TIERS,required"`

	Environment string `env:"ENVIRONMENT" envDefault:"production"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("gatekitd exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// The .env file is optional; ignore the error.
	_ = godotenv.Load()

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse server config: %w", err)
	}

	logOpts := []logger.Option{logger.WithService("gatekitd")}
	if cfg.Environment == "development" {
		logOpts = append(logOpts, logger.WithDevelopment())
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	priceTiers := make(map[string]entitlement.Tier, len(cfg.PriceTiers))
	for price, tier := range cfg.PriceTiers {
		t := entitlement.Tier(tier)
		if !t.IsValid() {
			return fmt.Errorf("unknown tier %q for price %q", tier, price)
		}
		priceTiers[price] = t
	}

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	stripeCfg, err := billing.LoadStripeConfig()
	if err != nil {
		return err
	}
	provider, err := billing.NewStripeProvider(stripeCfg, priceTiers)
	if err != nil {
		return err
	}

	billingCfg, err := billing.LoadConfig()
	if err != nil {
		return err
	}
	client, err := billing.NewHTTPClient(billingCfg)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Mount("/billing", handler.Router(handler.RouterOptions{
		Webhook:      handler.NewWebhookHandler(provider, store, log),
		Entitlements: handler.NewEntitlementsHandler(client, nil, log),
	}))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("server stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

// newStore picks the subscription store backend from the environment.
func newStore(ctx context.Context, cfg serverConfig, log *slog.Logger) (billing.SubscriptionStore, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := billing.Migrate(ctx, pool, log); err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "using postgres subscription store")
		return billing.NewPostgresStore(pool), nil

	case cfg.RedisURL != "":
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.InfoContext(ctx, "using redis subscription store")
		return billing.NewRedisStore(rdb), nil

	default:
		log.WarnContext(ctx, "no DATABASE_URL or REDIS_URL set, subscription records will not survive restarts")
		return billing.NewMemoryStore(), nil
	}
}
