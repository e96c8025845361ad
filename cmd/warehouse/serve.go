package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/service"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply the schema before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New("warehouse-service")
	logging.Infof("Starting warehouse-service on port %d", cfg.Server.Port)

	db, err := initDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store := repository.NewPostgresStore(db, logger.With("repository"))

	if migrateOnStart || cfg.Features.AutoMigrate {
		if err := store.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	m := metrics.New()

	var cache repository.Cache
	if cfg.Features.EnableCaching {
		client := repository.NewRedisClient(cfg.Redis)
		defer client.Close()

		if err := client.Ping(cmd.Context()).Err(); err != nil {
			logger.Warn("Redis unreachable, reads will fall through to Postgres", logging.Fields{
				"error": err.Error(),
			})
		}
		cache = repository.NewRedisCache(client, cfg.Redis.TTL, logger.With("cache"))
	}

	var publisher service.EventPublisher
	if cfg.Features.EnableOrderEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logger.With("events"))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	productService := service.NewProductService(store, cache)
	orderService := service.NewOrderService(store, cache, publisher, m)

	h := handlers.NewHandlers(productService, orderService, store)
	srv := server.NewServer(cfg, h, m)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var consumer *events.ShipmentConsumer
	if cfg.Features.EnableShipmentEvents {
		consumer = events.NewShipmentConsumer(cfg.Kafka, orderService, logger.With("shipments"))
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Shipment consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                   cfg.Server.Port,
			"enable_caching":         cfg.Features.EnableCaching,
			"enable_order_events":    cfg.Features.EnableOrderEvents,
			"enable_shipment_events": cfg.Features.EnableShipmentEvents,
		})
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Warn("Shipment consumer close failed", logging.Fields{"error": err.Error()})
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
		return err
	}

	logger.Info("Server exited")
	return nil
}
