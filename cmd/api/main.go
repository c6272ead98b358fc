// Package main is the entry point for the bookshelf API server.
// It wires together configuration, logging, the book service, event
// publishing and the HTTP router.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/aoideee/bookshelf-api/internal/bookshelf"
	"github.com/aoideee/bookshelf-api/internal/config"
	"github.com/aoideee/bookshelf-api/internal/data"
	"github.com/aoideee/bookshelf-api/internal/events"
	"github.com/aoideee/bookshelf-api/internal/metrics"
	"github.com/aoideee/bookshelf-api/pkg/logger"
)

// appVersion is the current version of the API, shown in logs and /healthz.
const appVersion = "1.0.0"

const (
	eventQueueSize       = 256
	eventDeliveryTimeout = 10 * time.Second
)

// eventPublisher is satisfied by both the RabbitMQ publisher and events.Nop.
type eventPublisher interface {
	bookshelf.Publisher
	IsHealthy() bool
	Close() error
}

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config    config.Config
	logger    *zap.Logger
	books     *bookshelf.Service
	publisher eventPublisher
	metrics   *metrics.Metrics
}

func newApplication(cfg config.Config, log *zap.Logger, books *bookshelf.Service, publisher eventPublisher) *applicationDependencies {
	return &applicationDependencies{
		config:    cfg,
		logger:    log,
		books:     books,
		publisher: publisher,
		metrics:   metrics.New(books.Count),
	}
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

func run(cfg config.Config, log *zap.Logger) error {
	log.Info("Bookshelf service starting", zap.String("version", appVersion))

	publisher := openPublisher(cfg, log)
	defer publisher.Close()

	// The store lives for the whole process and is never persisted.
	books := bookshelf.New(data.NewStore(), log, bookshelf.WithPublisher(publisher))

	return newApplication(cfg, log, books, publisher).serve()
}

// openPublisher connects to RabbitMQ when a URL is configured. An unreachable
// broker disables events rather than preventing startup.
func openPublisher(cfg config.Config, log *zap.Logger) eventPublisher {
	if cfg.AMQPURL == "" {
		log.Info("No AMQP URL configured, book events disabled")
		return events.Nop{}
	}

	publisher, err := events.NewPublisher(cfg.AMQPURL, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, book events disabled", zap.Error(err))
		return events.Nop{}
	}
	return events.NewAsync(publisher, log, eventQueueSize, eventDeliveryTimeout)
}
