/**
 * @description
 * This is the main entry point for the account-service. Its responsibility
 * is to initialize all components and start the bus consumer that drives
 * the account sagas.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Constructs the in-memory ledger explicitly and injects it; there is no
 *   hidden global store, so the process owns exactly one ledger instance.
 * - Wires the lifecycle service, saga handlers and dispatcher together.
 * - Starts the configured bus transport (RabbitMQ or Redis Streams) and an
 *   HTTP server for health/readiness probes, and shuts both down gracefully.
 *
 * @notes
 * - The ledger is volatile: in-flight saga context and all accounts are
 *   lost on restart. Recovery is message redelivery on the durable bus.
 */
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dtupay/account-service/internal/api"
	"github.com/dtupay/account-service/internal/app"
	"github.com/dtupay/account-service/internal/config"
	"github.com/dtupay/account-service/internal/domain"
	"github.com/dtupay/account-service/internal/store"
	"github.com/dtupay/account-service/pkg/rabbitmq"
	"github.com/dtupay/account-service/pkg/redisbus"
)

// inboundEvents are the routing keys the service queue is bound to.
var inboundEvents = []string{
	domain.EventCreateCustomerAccount,
	domain.EventCreateMerchantAccount,
	domain.EventDeleteAccount,
	domain.EventExportBankAccounts,
	domain.EventCustomerTokensSupplied,
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	// Set up the core: ledger -> lifecycle service -> handlers -> dispatcher.
	ledger := store.NewInMemoryLedger()
	service := app.NewAccountService(ledger, logger)
	handler := app.NewAccountEventHandler(service, logger)
	dispatcher := app.NewDispatcher(logger)
	handler.RegisterHandlers(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var consuming atomic.Bool
	consumeErr := make(chan error, 1)

	switch cfg.BusDriver {
	case "redis":
		bus, err := redisbus.New(cfg.RedisURL, cfg.EventExchange, cfg.QueueName, hostname(), logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer bus.Close()

		processor := app.NewEventProcessor(dispatcher, bus, logger)
		go func() {
			logger.Info("starting redis consumer", "stream", cfg.EventExchange, "group", cfg.QueueName)
			consuming.Store(true)
			defer consuming.Store(false)
			consumeErr <- bus.Consume(ctx, processor.HandleMessage)
		}()

	case "rabbitmq":
		producer, err := rabbitmq.NewProducer(cfg.RabbitMQURL, cfg.EventExchange, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		processor := app.NewEventProcessor(dispatcher, producer, logger)
		go func() {
			logger.Info("starting rabbitmq consumer", "exchange", cfg.EventExchange, "queue", cfg.QueueName)
			consuming.Store(true)
			defer consuming.Store(false)
			consumeErr <- consumer.Consume(ctx, cfg.EventExchange, cfg.QueueName, inboundEvents, processor.HandleMessage)
		}()

	default:
		logger.Error("unknown bus driver", "driver", cfg.BusDriver)
		os.Exit(1)
	}

	// Operational HTTP surface: health and readiness probes only.
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.NewRouter(consuming.Load),
	}
	go func() {
		logger.Info("starting http server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()

	logger.Info("account service is running", "bus_driver", cfg.BusDriver)

	select {
	case <-ctx.Done():
		logger.Info("shutting down account-service")
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("account-service stopped")
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "account-service"
	}
	return name
}
