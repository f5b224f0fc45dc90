package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tableside/internal/api"
	"tableside/internal/config"
	"tableside/internal/database"
	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/google"
	"tableside/internal/logging"
	"tableside/internal/menu"
	"tableside/internal/metrics"
	"tableside/internal/models"
	"tableside/internal/notify"
	"tableside/internal/repository"
	"tableside/internal/service"
	"tableside/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	orders, customs, err := initStores(ctx, cfg, redisClient, &logger)
	if err != nil {
		return err
	}

	seedCustomItems(ctx, customs, &logger)

	archive, err := initArchive(cfg, &logger)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
	}

	bus := events.NewEventBus()
	publisher := initPublisher(cfg, bus, &logger)

	if notifier := initNotifier(cfg, &logger); notifier != nil {
		bus.Subscribe(events.EventOrderSubmitted, notifyHandler(notifier, &logger))
	}

	initSheets(ctx, cfg, bus, redisClient, orders, &logger)

	loader := menu.NewLoader(menuFetcher(cfg), customs, &logger)
	kitchen := service.NewKitchenDisplay(orders, archiver(archive), publisher, &logger)

	metrics.Register()
	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg, orders, customs, publisher, loader, kitchen, archive, &logger)

	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "server")

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Storage.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Storage.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Storage.Redis.Address).Msg("redis connected")
	return redisClient
}

// initStores picks the configured backend. Redis and postgres are wrapped in
// a failover to an in-memory store so an outage degrades instead of failing.
func initStores(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (domain.OrderStore, domain.MenuItemStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return repository.NewMemoryOrderStore(), repository.NewMemoryMenuItemStore(), nil

	case "file":
		fs, err := repository.NewFileStore(cfg.Storage.Dir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init file store: %w", err)
		}
		return fs.Orders(), fs.MenuItems(), nil

	case "redis":
		if redisClient == nil {
			logger.Warn().Msg("redis backend configured but unreachable, using memory store")
			return repository.NewMemoryOrderStore(), repository.NewMemoryMenuItemStore(), nil
		}
		primary := repository.NewRedisOrderStore(redisClient, logger)
		fallback := repository.NewMemoryOrderStore()
		return repository.NewFailoverOrderStore(primary, fallback, logger),
			repository.NewRedisMenuItemStore(redisClient, logger), nil

	case "postgres":
		pool, err := repository.NewPostgresPool(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		pg, err := repository.NewPostgresStore(ctx, pool, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		fallback := repository.NewMemoryOrderStore()
		return repository.NewFailoverOrderStore(pg.Orders(), fallback, logger), pg.MenuItems(), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

// seedCustomItems merges operator-provisioned items from an optional YAML
// file into the persisted custom item set on startup.
func seedCustomItems(ctx context.Context, customs domain.MenuItemStore, logger *zerolog.Logger) {
	seedPath := os.Getenv("CUSTOM_ITEMS_PATH")
	if seedPath == "" {
		return
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", seedPath).Msg("read custom items seed")
		return
	}

	var seed struct {
		Items []models.MenuItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Warn().Err(err).Str("path", seedPath).Msg("parse custom items seed")
		return
	}
	if len(seed.Items) == 0 {
		return
	}

	existing, err := customs.LoadAll(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("load custom items for seeding")
		return
	}

	known := make(map[models.MenuItem]bool, len(existing))
	for _, item := range existing {
		known[item] = true
	}
	added := 0
	for _, item := range seed.Items {
		if !known[item] {
			existing = append(existing, item)
			added++
		}
	}
	if added == 0 {
		return
	}
	if err := customs.SaveAll(ctx, existing); err != nil {
		logger.Warn().Err(err).Msg("persist seeded custom items")
		return
	}
	logger.Info().Int("added", added).Msg("custom items seeded")
}

func initArchive(cfg *config.Config, logger *zerolog.Logger) (*database.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	archive, err := database.NewArchive(cfg.Archive.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	return archive, nil
}

// archiver avoids handing a typed nil pointer to an interface field.
func archiver(archive *database.Archive) domain.OrderArchiver {
	if archive == nil {
		return nil
	}
	return archive
}

func initPublisher(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) domain.EventPublisher {
	if cfg.NATS.URL == "" {
		return bus
	}

	natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	if err != nil {
		logger.Warn().Err(err).Msg("nats connection failed, continuing with in-process events only")
		return bus
	}

	logger.Info().Str("url", cfg.NATS.URL).Msg("nats connected")
	return events.Fanout{bus, natsPublisher}
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) *notify.TelegramNotifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.KitchenChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return nil
	}
	return notifier
}

func notifyHandler(notifier domain.OrderNotifier, logger *zerolog.Logger) events.EventHandler {
	return func(event *events.Event) error {
		var order models.Order
		if err := json.Unmarshal(event.Payload, &order); err != nil {
			return err
		}
		if err := notifier.OrderSubmitted(order); err != nil {
			logger.Warn().Err(err).Msg("kitchen notification failed")
		}
		return nil
	}
}

func initSheets(ctx context.Context, cfg *config.Config, bus *events.EventBus, redisClient *redis.Client, orders domain.OrderStore, logger *zerolog.Logger) *worker.ExportWorker {
	if cfg.Google.CredentialsFile == "" || cfg.Google.OrdersSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.OrdersSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	logger.Info().Msg("google sheets connected")

	exportWorker := worker.NewExportWorker(sheetsService, orders, redisClient, worker.RetryPolicy{}, logger)
	go exportWorker.Run(ctx)

	bus.Subscribe(events.EventOrderSubmitted, func(event *events.Event) error {
		var order models.Order
		if err := json.Unmarshal(event.Payload, &order); err != nil {
			return err
		}
		exportWorker.Enqueue(ctx, order)
		return nil
	})

	// Completing an order shrinks the store, so rewrite the sheet to match.
	bus.Subscribe(events.EventOrderCompleted, func(event *events.Event) error {
		exportWorker.RequestReconcile()
		return nil
	})

	return exportWorker
}

func menuFetcher(cfg *config.Config) menu.Fetcher {
	if cfg.Server.MenuURL != "" {
		return &menu.HTTPFetcher{URL: cfg.Server.MenuURL}
	}
	return &menu.FileFetcher{Path: cfg.Server.MenuPath}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	port := cfg.Monitoring.PrometheusPort
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
