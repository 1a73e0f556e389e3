package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/rgd-inspector-go/internal/config"
	"github.com/anime-shed/rgd-inspector-go/internal/logger"
	"github.com/anime-shed/rgd-inspector-go/internal/observer"
	"github.com/anime-shed/rgd-inspector-go/internal/service"
	"github.com/anime-shed/rgd-inspector-go/internal/transport"
	"github.com/anime-shed/rgd-inspector-go/pkg/rating"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	publisher       observer.Subject
	metrics         *observer.MetricsObserver
	pool            *service.WorkerPool
	analysisService service.AnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Build dependency graph
	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	pool := service.NewWorkerPool(cfg.Workers)
	pool.Start()

	analysisService := service.NewAnalysisService(cfg.Analysis, rating.NewEngine(), publisher, pool, cfg.MaxBatchSize)
	handler := transport.NewHandler(analysisService, metrics.Handler(), cfg)

	return &Container{
		config:          cfg,
		publisher:       publisher,
		metrics:         metrics,
		pool:            pool,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// AnalysisService returns the trace replay service
func (c *Container) AnalysisService() service.AnalysisService {
	return c.analysisService
}

// Close stops the worker pool. Jobs already queued still run.
func (c *Container) Close() {
	c.pool.Close()
}
