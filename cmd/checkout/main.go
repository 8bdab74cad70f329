package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/webhook"
)

func main() {
	cfg := config.Load()

	logger := logging.New("checkout-service")
	logger.Info("Starting checkout-service", logging.Fields{"port": cfg.Server.Port})

	db, err := initDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	if err := runMigrations(db, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", logging.Fields{"error": err.Error()})
	}

	cartStore := repository.NewPostgresCartStore(db, logger)
	orderStore := repository.NewPostgresOrderStore(db, logger)

	var orderCache service.OrderCache = repository.NoopOrderCache{}
	if cfg.Features.EnableOrderCaching {
		orderCache = repository.NewRedisOrderCache(cfg.Redis)
	}

	catalogClient := clients.NewHTTPCatalogClient(cfg.Catalog, logger)
	gateway := clients.NewHTTPPaymentGateway(cfg.Payment, logger)

	var publisher service.EventPublisher = events.NoopEventPublisher{}
	var kafkaPublisher *events.KafkaPublisher
	if cfg.Features.EnableOrderEvents {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Kafka)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	cartService := service.NewCartService(cartStore, catalogClient)
	checkoutService := service.NewCheckoutService(
		cartStore,
		orderStore,
		orderCache,
		gateway,
		publisher,
		cfg.Features.EnableOrderCaching,
		cfg.Features.EnableOrderEvents,
	)

	verifier := webhook.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.Tolerance)

	h := handlers.NewHandlers(cartService, checkoutService, verifier, cfg)

	srv := server.New(h, cfg)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                  cfg.Server.Port,
			"enable_order_caching":  cfg.Features.EnableOrderCaching,
			"enable_order_events":   cfg.Features.EnableOrderEvents,
			"enable_event_consumer": cfg.Features.EnablePaymentEventsConsumer,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var eventConsumer *events.KafkaConsumer
	if cfg.Features.EnablePaymentEventsConsumer {
		eventConsumer = events.NewKafkaConsumer(cfg.Kafka, checkoutService)
		go func() {
			if err := eventConsumer.Start(context.Background()); err != nil {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if eventConsumer != nil {
		eventConsumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config, logger *logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}

func runMigrations(db *sql.DB, path string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
