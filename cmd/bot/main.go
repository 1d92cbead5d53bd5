package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/chatstore-backend/api/routes"
	"github.com/angelmondragon/chatstore-backend/internal/bot"
	"github.com/angelmondragon/chatstore-backend/internal/bot/render"
	"github.com/angelmondragon/chatstore-backend/internal/bot/session"
	"github.com/angelmondragon/chatstore-backend/internal/cart"
	"github.com/angelmondragon/chatstore-backend/internal/catalog"
	"github.com/angelmondragon/chatstore-backend/internal/checkout"
	"github.com/angelmondragon/chatstore-backend/internal/coupons"
	"github.com/angelmondragon/chatstore-backend/internal/delivery"
	"github.com/angelmondragon/chatstore-backend/internal/ledger"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	"github.com/angelmondragon/chatstore-backend/internal/payments"
	"github.com/angelmondragon/chatstore-backend/internal/rewards"
	"github.com/angelmondragon/chatstore-backend/internal/settings"
	"github.com/angelmondragon/chatstore-backend/internal/tickets"
	"github.com/angelmondragon/chatstore-backend/internal/users"
	"github.com/angelmondragon/chatstore-backend/pkg/chatapi"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/db"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/migrate"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox"
	"github.com/angelmondragon/chatstore-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bot",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.NewFromAppConfig(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	chatClient, err := chatapi.NewClient(cfg.ChatAPI.BaseURL, cfg.ChatAPI.Token,
		chatapi.WithTimeout(cfg.ChatAPI.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create chat api client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	botMetrics := metrics.NewBotMetrics(registry)

	router, err := buildRouter(cfg, logg, dbClient, redisClient, chatClient, botMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, router, registry),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting bot server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "bot server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "shutdown did not complete cleanly", err)
		}
	}

	logg.Info(ctx, "bot server shutting down gracefully")
}

func buildRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	chatClient *chatapi.Client,
	botMetrics *metrics.BotMetrics,
) (*bot.Router, error) {
	gdb := dbClient.DB()

	usersRepo := users.NewRepository(gdb)
	usersSvc, err := users.NewService(usersRepo)
	if err != nil {
		return nil, err
	}

	catalogRepo := catalog.NewRepository(gdb)
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return nil, err
	}

	cartRepo := cart.NewRepository(gdb)
	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		return nil, err
	}

	couponsSvc, err := coupons.NewService(coupons.NewRepository(gdb))
	if err != nil {
		return nil, err
	}

	wallet, err := ledger.NewService(ledger.NewRepository(gdb))
	if err != nil {
		return nil, err
	}

	settingsSvc, err := settings.NewService(settings.NewRepository(gdb), cfg.Store)
	if err != nil {
		return nil, err
	}

	rewardsSvc, err := rewards.NewService(usersRepo, settingsSvc)
	if err != nil {
		return nil, err
	}

	events := outbox.NewService(outbox.NewRepository(gdb), logg)
	ordersRepo := orders.NewRepository(gdb)

	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Orders:   ordersRepo,
		Cart:     cartSvc,
		CartRepo: cartRepo,
		Catalog:  catalogRepo,
		Coupons:  couponsSvc,
		Wallet:   wallet,
		Rewards:  rewardsSvc,
		Settings: settingsSvc,
		Events:   events,
		Tx:       dbClient,
		Metrics:  botMetrics,
	})
	if err != nil {
		return nil, err
	}

	paymentsSvc, err := payments.NewService(payments.NewRepository(gdb), ordersRepo, wallet, events, dbClient, botMetrics)
	if err != nil {
		return nil, err
	}

	ticketsSvc, err := tickets.NewService(tickets.NewRepository(gdb), events, dbClient)
	if err != nil {
		return nil, err
	}

	transport, err := render.NewTransport(chatClient)
	if err != nil {
		return nil, err
	}

	deliverySvc, err := delivery.NewService(ordersRepo, catalogRepo, usersRepo, transport, events, dbClient, logg)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(redisClient, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}

	presenter, err := render.NewPresenter(chatClient)
	if err != nil {
		return nil, err
	}

	return bot.NewRouter(bot.Deps{
		Users:     usersSvc,
		Catalog:   catalogSvc,
		Cart:      cartSvc,
		Checkout:  checkoutSvc,
		Payments:  paymentsSvc,
		Tickets:   ticketsSvc,
		Wallet:    wallet,
		Settings:  settingsSvc,
		Delivery:  deliverySvc,
		Sessions:  sessions,
		Dedupe:    redisClient,
		Presenter: presenter,
		Bot:       cfg.Bot,
		Metrics:   botMetrics,
		Logg:      logg,
	})
}
