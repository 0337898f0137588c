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
	"go.uber.org/multierr"

	"github.com/angelmondragon/pickupz-backend/api/routes"
	"github.com/angelmondragon/pickupz-backend/internal/analytics"
	"github.com/angelmondragon/pickupz-backend/internal/cron"
	"github.com/angelmondragon/pickupz-backend/internal/notifications"
	"github.com/angelmondragon/pickupz-backend/internal/orders"
	"github.com/angelmondragon/pickupz-backend/internal/pricing"
	"github.com/angelmondragon/pickupz-backend/internal/stores"
	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/angelmondragon/pickupz-backend/pkg/db"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
	"github.com/angelmondragon/pickupz-backend/pkg/metrics"
	"github.com/angelmondragon/pickupz-backend/pkg/migrate"
	"github.com/angelmondragon/pickupz-backend/pkg/redis"
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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	storeService, err := stores.NewService(stores.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create store service", err)
		os.Exit(1)
	}
	restoredStores, err := storeService.Restore(ctx)
	if err != nil {
		logg.Error(ctx, "failed to restore stores", err)
		os.Exit(1)
	}

	sink, closeSink, err := notifications.SinkFromConfig(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notification sink", err)
		os.Exit(1)
	}
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Sink:    sink,
		Logger:  logg,
		Metrics: metrics.NewNotificationMetrics(registry),
		Buffer:  cfg.Orders.NotificationBuffer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	rules, err := pricing.RulesFromConfig(cfg.Pricing)
	if err != nil {
		logg.Error(ctx, "invalid pricing configuration", err)
		os.Exit(1)
	}

	// the gauge reads the engine after construction
	var ordersService orders.Service
	orderMetrics := metrics.NewOrderMetrics(registry, func() float64 {
		if ordersService == nil {
			return 0
		}
		return float64(ordersService.ArmedCountdowns())
	})
	ordersService, err = orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(dbClient.DB()),
		Stores:   storeService,
		Notifier: dispatcher,
		Metrics:  orderMetrics,
		Logger:   logg,
		Settings: orders.Settings{
			AckWindow:           cfg.Orders.AckWindow,
			LowStockThreshold:   cfg.Orders.LowStockThreshold,
			LowStockWeightGrams: cfg.Orders.LowStockWeightGrams,
			MaxPickupAttempts:   cfg.Orders.PickupMaxAttempts,
			Pricing:             rules,
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}
	restoredOrders, err := ordersService.Restore(ctx)
	if err != nil {
		logg.Error(ctx, "failed to restore orders", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"stores":     restoredStores,
		"orders":     restoredOrders,
		"countdowns": ordersService.ArmedCountdowns(),
	}), "state restored")

	analyticsService, err := analytics.NewService(ordersService, storeService, nil)
	if err != nil {
		logg.Error(ctx, "failed to create analytics service", err)
		os.Exit(1)
	}

	cronDone := make(chan struct{})
	if cfg.Cron.Enabled {
		cronService, err := newCronService(cfg, logg, redisClient, registry, ordersService)
		if err != nil {
			logg.Error(ctx, "failed to create cron service", err)
			os.Exit(1)
		}
		go func() {
			defer close(cronDone)
			if err := cronService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "cron loop stopped unexpectedly", err)
			}
		}()
	} else {
		close(cronDone)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("HOSTNAME")
	if id == "" {
		id = "local"
	}
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, storeService, ordersService, analyticsService, rules),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	<-cronDone
	ordersService.Shutdown()
	err = multierr.Append(err, dispatcher.Close(shutdownCtx))
	err = multierr.Append(err, closeSink())
	if err != nil {
		logg.Error(serverCtx, "unclean shutdown", err)
		exitCode = 1
	}

	logg.Info(serverCtx, "api server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func newCronService(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, reg prometheus.Registerer, ordersService orders.Service) (*cron.Service, error) {
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron:"+env), cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}

	nudge, err := cron.NewPendingNudgeJob(cron.PendingNudgeJobParams{
		Logger: logg,
		Orders: ordersService,
		Before: cfg.Orders.NudgeBefore,
	})
	if err != nil {
		return nil, err
	}
	sweep, err := cron.NewExpirySweepJob(cron.ExpirySweepJobParams{
		Logger: logg,
		Orders: ordersService,
	})
	if err != nil {
		return nil, err
	}

	registry, err := cron.NewRegistry(nudge, sweep)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
}
