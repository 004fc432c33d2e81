package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/login-service/internal/api/http"
	"github.com/spec-kit/login-service/internal/api/http/handlers"
	"github.com/spec-kit/login-service/internal/auth"
	"github.com/spec-kit/login-service/internal/config"
	"github.com/spec-kit/login-service/internal/mail"
	"github.com/spec-kit/login-service/internal/observability"
	"github.com/spec-kit/login-service/internal/persistence"
	"github.com/spec-kit/login-service/internal/repository"
	"github.com/spec-kit/login-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var users repository.UserRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		users = repository.NewUserRepository(pg.Pool)
	} else {
		users = repository.NewMemoryUserRepository()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	users = repository.NewCachedUserRepository(users, redis.Client, cfg.Redis.UserCacheTTL(), logger)

	keys, err := auth.NewSigningKeys(cfg.Auth.SessionSecret, cfg.Auth.ResetSecret)
	if err != nil {
		logger.Fatal("invalid signing keys", zap.Error(err))
	}
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenService(keys, auth.WithIssueCounter(metrics))

	recovery := service.NewRecoveryService(service.RecoveryDependencies{
		Tokens:   tokens,
		Sender:   mail.NewSender(cfg.Mail, logger),
		ResetURL: cfg.Mail.ResetURL,
		Logger:   logger,
	})
	credentials := service.NewCredentialService(service.CredentialDependencies{
		Users:    users,
		Tokens:   tokens,
		Hasher:   auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Recovery: recovery,
		Logger:   logger,
	})

	var oidcLogin *auth.OIDCLogin
	if cfg.OAuth.Enabled() {
		oidcLogin, err = auth.NewOIDCLogin(ctx, cfg.OAuth, auth.NewOAuthBridge(tokens), logger)
		if err != nil {
			logger.Fatal("failed to configure oauth provider", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(credentials),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users, logger),
		Roles:          credentials,
		OIDC:           oidcLogin,
		Metrics:        metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
