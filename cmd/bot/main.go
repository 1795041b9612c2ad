package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-bot/internal/api/http"
	"github.com/spec-kit/storefront-bot/internal/api/http/handlers"
	"github.com/spec-kit/storefront-bot/internal/bot"
	"github.com/spec-kit/storefront-bot/internal/config"
	"github.com/spec-kit/storefront-bot/internal/events"
	"github.com/spec-kit/storefront-bot/internal/observability"
	"github.com/spec-kit/storefront-bot/internal/persistence"
	"github.com/spec-kit/storefront-bot/internal/repository"
	"github.com/spec-kit/storefront-bot/internal/service"
	"github.com/spec-kit/storefront-bot/internal/session"
	"github.com/spec-kit/storefront-bot/internal/telegram"
	"github.com/spec-kit/storefront-bot/internal/wizard"
)

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	var sessions session.Store
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		sessions = session.NewRedisStore(redis.Client, cfg.Session.TTL())
	default:
		memory := session.NewMemoryStore(cfg.Session.TTL())
		defer memory.Close()
		sessions = memory
	}

	client := telegram.NewClient(cfg.Bot.Token, cfg.Bot.PollTimeout(), logger)
	me, err := client.GetMe(ctx)
	if err != nil {
		logger.Fatal("failed to verify bot credentials", zap.Error(err))
	}
	logger.Info("authorized", zap.String("bot", me.Username))

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	catalogService := service.NewCatalogService(catalogRepo)
	ticketService := service.NewTicketService(ticketRepo, dispatcher)
	orderService := service.NewOrderService(orderRepo, catalogRepo, dispatcher)

	notifications := service.NewNotificationService(bot.NewSender(client), cfg.Bot, logger, metrics)
	notifications.RegisterHandlers(dispatcher)

	engine := wizard.NewEngine(sessions, logger)

	dispatcherBot, err := bot.New(bot.Dependencies{
		Client:  client,
		Engine:  engine,
		Users:   userRepo,
		Catalog: catalogService,
		Tickets: ticketService,
		Orders:  orderService,
		Config:  cfg.Bot,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Fatal("failed to build bot", zap.Error(err))
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	go func() {
		if err := dispatcherBot.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Fatal("bot loop stopped", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
