package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/rattanstore-backend/api/routes"
	"github.com/angelmondragon/rattanstore-backend/internal/cart"
	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	"github.com/angelmondragon/rattanstore-backend/internal/checkout"
	"github.com/angelmondragon/rattanstore-backend/internal/delivery"
	"github.com/angelmondragon/rattanstore-backend/internal/notifications"
	"github.com/angelmondragon/rattanstore-backend/internal/orders"
	"github.com/angelmondragon/rattanstore-backend/internal/pricing"
	"github.com/angelmondragon/rattanstore-backend/internal/wizard"
	"github.com/angelmondragon/rattanstore-backend/pkg/config"
	"github.com/angelmondragon/rattanstore-backend/pkg/db"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
	"github.com/angelmondragon/rattanstore-backend/pkg/metrics"
	"github.com/angelmondragon/rattanstore-backend/pkg/migrate"
	"github.com/angelmondragon/rattanstore-backend/pkg/redis"
	"github.com/angelmondragon/rattanstore-backend/pkg/telegram"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	// The order store starts in memory mode when the database is unreachable.
	var (
		primary  orders.Repository
		dbPinger db.Pinger
	)
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable, orders will be kept in memory", err)
	} else {
		closers = append(closers, dbClient.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
		primary = orders.NewRepository(dbClient.DB())
		dbPinger = dbClient
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	closers = append(closers, redisClient.Close)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)

	products, err := catalog.Load(cfg.Catalog.Path)
	requireResource(ctx, logg, "catalog", err)

	schedule, err := pricing.ScheduleFromConfig(cfg.Pricing)
	requireResource(ctx, logg, "price schedule", err)
	engine := pricing.NewEngine(schedule)

	bot, err := telegram.NewClient(cfg.Telegram.BotToken,
		telegram.WithBaseURL(cfg.Telegram.BaseURL),
		telegram.WithTimeout(cfg.Telegram.Timeout),
	)
	requireResource(ctx, logg, "telegram client", err)

	channel, err := delivery.NewTelegramChannel(bot, delivery.TelegramConfig{
		ChatID:       cfg.Telegram.ChatID,
		ParseMode:    cfg.Telegram.ParseMode,
		TestLanguage: orders.DefaultLanguage,
	})
	requireResource(ctx, logg, "delivery channel", err)

	inbox := notifications.NewInbox(0)
	sink := notifications.Fanout{notifications.NewLogSink(logg), inbox}
	noticeService, err := notifications.NewService(inbox)
	requireResource(ctx, logg, "notifications service", err)

	orderStore, err := orders.NewStore(orders.StoreParams{
		Primary: primary,
		Sink:    sink,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	requireResource(ctx, logg, "order store", err)

	cartService, err := cart.NewService(cart.NewRedisRepository(redisClient, cfg.Checkout.CartTTL), products, engine)
	requireResource(ctx, logg, "cart service", err)

	wizardManager, err := wizard.NewManager(wizard.ManagerParams{
		Discoverer: channel,
		TestSender: channel,
		TTL:        cfg.Wizard.SessionTTL,
		Metrics:    orderMetrics,
		Logger:     logg,
	})
	requireResource(ctx, logg, "channel wizard", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Builder:     orders.NewBuilder(engine),
		Channel:     channel,
		Store:       orderStore,
		Wizard:      wizardManager,
		Carts:       cartService,
		Sink:        sink,
		Metrics:     orderMetrics,
		Logger:      logg,
		SendTimeout: cfg.Checkout.SendTimeout,
	})
	requireResource(ctx, logg, "checkout service", err)

	params := routes.RouterParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbPinger,
		Redis:         redisClient,
		Catalog:       products,
		Carts:         cartService,
		Checkout:      checkoutService,
		Orders:        orderStore,
		Channel:       channel,
		Wizard:        wizardManager,
		Notifications: noticeService,
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"storage_mode": string(orderStore.StorageMode()),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := server.Shutdown(shutdownCtx)
	for _, closeFn := range closers {
		errs = multierr.Append(errs, closeFn())
	}
	if errs != nil {
		logg.Error(serverCtx, "shutdown finished with errors", errs)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
