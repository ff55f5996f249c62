package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example/waxroom/internal/auth"
	"example/waxroom/internal/config"
	"example/waxroom/internal/database"
	"example/waxroom/internal/lock"
	"example/waxroom/internal/logger"
	"example/waxroom/internal/metrics"
	"example/waxroom/internal/notify"
	"example/waxroom/internal/payment"
	"example/waxroom/internal/repository"
	"example/waxroom/internal/server"
	"example/waxroom/internal/service"
	"example/waxroom/internal/telemetry"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"
)

const (
	checkoutLockTTL = 30 * time.Second
	notifyTimeout   = 15 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	logger.Init(cfg.Env)
	defer logger.Sync()
	log := logger.Named("main")

	if err != nil {
		log.Fatalw("Invalid configuration", "error", err)
	}
	log.Infow("Starting WAXROOM API", "env", cfg.Env, "db_driver", cfg.DBDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.OTELStdout)
	if err != nil {
		log.Fatalw("Failed to set up tracing", "error", err)
	}

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("Failed to initialize database", "error", err)
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatalw("Failed to migrate schema", "error", err)
	}
	if n, err := db.SeedCatalog(ctx, cfg.SeedFile); err != nil {
		log.Fatalw("Failed to seed catalog", "error", err)
	} else if n > 0 {
		log.Infow("Catalog seeded", "albums", n)
	}

	var closers []func() error

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.PaymentsEnabled() {
		gateway = payment.NewStripe(cfg.StripeSecretKey, cfg.StripePublishableKey)
		log.Infow("Stripe payments enabled")
	}

	notifiers := notify.Multi{}
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.FromEmail))
		log.Infow("Order confirmation email enabled", "from", cfg.FromEmail)
	} else {
		notifiers = append(notifiers, notify.LogNotifier{})
	}
	if cfg.KafkaBrokers != "" {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		notifiers = append(notifiers, kn)
		closers = append(closers, kn.Close)
		log.Infow("Publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	dispatcher := notify.NewDispatcher(notifiers, notifyTimeout)

	var guard lock.Guard = lock.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalw("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
		}
		guard = lock.NewRedis(rdb, checkoutLockTTL)
		closers = append(closers, rdb.Close)
		log.Infow("Checkout lock enabled", "redis_addr", cfg.RedisAddr)
	}

	m := metrics.New()
	repo := repository.New(db)
	srv := server.New(server.Services{
		Auth:     service.NewAuthService(repo, auth.NewTokens(cfg.JWTSecret)),
		Catalog:  service.NewCatalogService(repo),
		Cart:     service.NewCartService(repo),
		Checkout: service.NewCheckoutService(repo, gateway, guard, dispatcher, m),
	}, server.Options{
		EmailEnabled: cfg.EmailEnabled(),
		Metrics:      m,
	})

	httpServer := srv.HTTPServer(net.JoinHostPort("", cfg.Port))
	go func() {
		log.Infow("HTTP server starting", "port", cfg.Port, "ws", "/api/ws")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infow("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	dispatcher.Close()
	for _, c := range closers {
		err = multierr.Append(err, c())
	}
	err = multierr.Append(err, db.Close())
	err = multierr.Append(err, shutdownTracing(shutdownCtx))
	if err != nil {
		log.Errorw("Unclean shutdown", "error", err)
		return
	}
	log.Infow("Server stopped")
}
