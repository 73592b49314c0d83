package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/notification"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/repository/memory"
	"github.com/spec-kit/account-service/internal/repository/mongostore"
	"github.com/spec-kit/account-service/internal/repository/redisstore"
	"github.com/spec-kit/account-service/internal/service"
	"github.com/spec-kit/account-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open stores", zap.Error(err))
	}
	defer st.close()

	mailer, err := notification.NewMailer(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()
	if cfg.Kafka.Enabled() {
		sink := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer sink.Close() //nolint:errcheck
		events.SubscribeAll(dispatcher, sink.Handle)
		logger.Info("kafka event sink enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if purger, ok := st.codes.(worker.ExpiredCodePurger); ok {
		go worker.NewCodeSweeper(purger, cfg.OTP.SweepInterval, logger).Run(ctx)
	}

	metrics := observability.NewMetrics("account_service")

	accounts := service.NewAccountService(*cfg, service.AccountDependencies{
		Users:      st.users,
		Codes:      st.codes,
		Tickets:    st.tickets,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	authMiddleware := auth.NewAuthMiddleware(accounts.TokenManager(), st.users)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: !cfg.App.IsDevelopment(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, st.pingers),
		Auth:           handlers.NewAuthHandler(accounts),
		Users:          handlers.NewUserHandler(accounts),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics.Handler(),
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// stores holds the selected repository implementations and their connections.
type stores struct {
	users   repository.UserRepository
	codes   repository.CodeRepository
	tickets repository.ResetTicketRepository
	pingers map[string]repository.Pinger
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	st := &stores{pingers: map[string]repository.Pinger{}}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		if cfg.Postgres.RunMigrations {
			if err := persistence.NewMigrator(cfg.Postgres.DSN, logger).Up(ctx); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pg.Close)
		st.pingers["postgres"] = pg
		st.users = repository.NewUserRepository(pg.PoolHandle())
		st.codes = repository.NewCodeRepository(pg.PoolHandle())

	case config.StoreDriverMongo:
		mg, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, mg.Close)
		st.pingers["mongo"] = mg
		if st.users, err = mongostore.NewUserRepository(ctx, mg.Database); err != nil {
			st.close()
			return nil, err
		}
		if st.codes, err = mongostore.NewCodeRepository(ctx, mg.Database); err != nil {
			st.close()
			return nil, err
		}

	case config.StoreDriverMemory:
		logger.Warn("using in-memory stores; data is lost on restart")
		users := memory.NewUserRepository()
		st.users = users
		st.codes = memory.NewCodeRepository()
		st.tickets = memory.NewResetTicketRepository(nil)
		st.pingers["memory"] = users
		return st, nil
	}

	// Codes may move to Redis; reset tickets always live there for durable drivers.
	rd, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		st.close()
		return nil, err
	}
	st.closers = append(st.closers, rd.Close)
	st.pingers["redis"] = rd
	st.tickets = redisstore.NewResetTicketRepository(rd.Client)
	if cfg.Store.CodeStore == config.CodeStoreRedis {
		st.codes = redisstore.NewCodeRepository(rd.Client)
	}
	return st, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
