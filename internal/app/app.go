// Package app initializes and holds long-lived audit services, acting as a
// dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/api"
	"github.com/Sgct97/truckingCompanyCrawler/internal/audit"
	"github.com/Sgct97/truckingCompanyCrawler/internal/checkpoint"
	"github.com/Sgct97/truckingCompanyCrawler/internal/classifier"
	"github.com/Sgct97/truckingCompanyCrawler/internal/clock/system"
	"github.com/Sgct97/truckingCompanyCrawler/internal/config"
	"github.com/Sgct97/truckingCompanyCrawler/internal/discovery"
	"github.com/Sgct97/truckingCompanyCrawler/internal/fetcher/headless"
	"github.com/Sgct97/truckingCompanyCrawler/internal/id/uuid"
	"github.com/Sgct97/truckingCompanyCrawler/internal/logging"
	"github.com/Sgct97/truckingCompanyCrawler/internal/pool"
	memorypublisher "github.com/Sgct97/truckingCompanyCrawler/internal/publisher/memory"
	pubsubpublisher "github.com/Sgct97/truckingCompanyCrawler/internal/publisher/pubsub"
	"github.com/Sgct97/truckingCompanyCrawler/internal/sitelist"
	gcsstorage "github.com/Sgct97/truckingCompanyCrawler/internal/storage/gcs"
	localstorage "github.com/Sgct97/truckingCompanyCrawler/internal/storage/local"
	memorystorage "github.com/Sgct97/truckingCompanyCrawler/internal/storage/memory"
)

// App holds the shared, long-lived services for one audit run. It is
// initialized once at startup and torn down via Close.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	runID      string
	sites      []audit.Site
	checkpoint *checkpoint.Store
	pool       *pool.Pool
	server     *http.Server

	closers []func() error
}

// New assembles all services from configuration. It fails fast when any
// backing service (GCS bucket, Pub/Sub topic, checkpoint file) cannot be
// reached, so a misconfigured run dies before the first site is touched.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	logger = logging.ForRun(logger, runID)
	a := &App{cfg: cfg, logger: logger, runID: runID}

	sites, skipped, err := sitelist.Load(cfg.SitesFile)
	if err != nil {
		return nil, fmt.Errorf("load site roster: %w", err)
	}
	for _, reason := range skipped {
		logger.Warn("Skipping roster entry", zap.String("reason", reason))
	}
	if cfg.Crawl.StartIndex > 0 {
		if cfg.Crawl.StartIndex >= len(sites) {
			return nil, fmt.Errorf("start_index %d is past the end of the %d-site roster", cfg.Crawl.StartIndex, len(sites))
		}
		sites = sites[cfg.Crawl.StartIndex:]
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("site roster %s contains no usable sites", cfg.SitesFile)
	}
	a.sites = sites

	if !cfg.Resume {
		if err := os.Remove(cfg.Checkpoint.Path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("discard checkpoint: %w", err)
		}
	}
	clk := system.New()
	store, err := checkpoint.Open(cfg.Checkpoint.Path, runID, clk, logging.ForComponent(logger, "checkpoint"))
	if err != nil {
		return nil, err
	}
	a.checkpoint = store
	a.closers = append(a.closers, store.Close)

	blobs, err := a.initBlobStore(ctx)
	if err != nil {
		return nil, err
	}
	pub, err := a.initPublisher(ctx)
	if err != nil {
		return nil, err
	}

	factory := headless.NewFactory(headless.Config{
		UserAgents:  cfg.Fetcher.UserAgents,
		PageTimeout: cfg.PageTimeout(),
		SettleDelay: cfg.SettleDelay(),
		ChromePath:  cfg.Fetcher.ChromePath,
		Headful:     cfg.Fetcher.Headful,
	}, logging.ForComponent(logger, "fetcher"))

	a.pool = pool.New(pool.Config{
		Workers:            cfg.Crawl.Workers,
		PageBudget:         cfg.Crawl.PageBudget,
		RequestDelay:       cfg.RequestDelay(),
		CheckpointInterval: cfg.Checkpoint.PageInterval,
		MaxSessionRestarts: cfg.Crawl.MaxSessionRestarts,
		Topic:              cfg.Publisher.Topic,
	}, pool.Deps{
		Factory:    factory,
		Discoverer: discovery.New(cfg.Discovery.UserAgent, cfg.DiscoveryTimeout(), logging.ForComponent(logger, "discovery")),
		Classifier: classifier.New(classifier.Config{
			AddressThreshold:   cfg.Classifier.AddressThreshold,
			ClickableThreshold: cfg.Classifier.ClickableThreshold,
			IndexLinkThreshold: cfg.Classifier.IndexLinkThreshold,
			ForeignPathPenalty: cfg.Classifier.ForeignPathPenalty,
		}),
		Checkpoint: store,
		Blobs:      blobs,
		Publisher:  pub,
		Retry:      audit.NewExponentialRetryPolicy(cfg.Crawl.MaxRetries),
		Clock:      clk,
		Logger:     logging.ForComponent(logger, "pool"),
		RunID:      runID,
	})

	if cfg.Server.Enabled {
		srv := api.NewServer(a.pool, logging.ForComponent(logger, "api"))
		a.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	logger.Info("Audit services initialized",
		zap.Int("sites", len(sites)),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("publisher", cfg.Publisher.Provider))
	return a, nil
}

func (a *App) initBlobStore(ctx context.Context) (audit.BlobStore, error) {
	switch a.cfg.Storage.Provider {
	case "gcs":
		a.logger.Info("Using GCS artifact store", zap.String("bucket", a.cfg.Storage.Bucket))
		store, err := gcsstorage.New(ctx, gcsstorage.Config{Bucket: a.cfg.Storage.Bucket})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs storage: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "local":
		a.logger.Info("Using local artifact store", zap.String("base_dir", a.cfg.Storage.BaseDir))
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("initialize local storage: %w", err)
		}
		return store, nil
	case "memory":
		a.logger.Info("Using in-memory artifact store; page HTML is discarded at exit")
		return memorystorage.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", a.cfg.Storage.Provider)
	}
}

func (a *App) initPublisher(ctx context.Context) (audit.Publisher, error) {
	switch a.cfg.Publisher.Provider {
	case "pubsub":
		a.logger.Info("Using Pub/Sub summary publisher",
			zap.String("project", a.cfg.Publisher.ProjectID),
			zap.String("topic", a.cfg.Publisher.Topic))
		pub, err := pubsubpublisher.New(ctx, a.cfg.Publisher.ProjectID, a.cfg.Publisher.Topic)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		return pub, nil
	case "memory":
		a.logger.Info("Using in-memory summary publisher; summaries appear in logs only")
		return memorypublisher.New(a.cfg.Publisher.Topic), nil
	default:
		return nil, fmt.Errorf("unknown publisher provider: %s", a.cfg.Publisher.Provider)
	}
}

// RunID returns the identifier assigned to this run.
func (a *App) RunID() string {
	return a.runID
}

// Sites returns the loaded roster after start-index slicing.
func (a *App) Sites() []audit.Site {
	return a.sites
}

// Pool exposes the worker pool, mainly for status inspection.
func (a *App) Pool() *pool.Pool {
	return a.pool
}

// Run executes the audit until every site reaches a terminal state or ctx is
// canceled. The status server, when enabled, serves for the duration of the
// run and drains afterward.
func (a *App) Run(ctx context.Context) error {
	if a.server != nil {
		go func() {
			a.logger.Info("Status server listening", zap.String("addr", a.server.Addr))
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("Status server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("Status server shutdown", zap.Error(err))
			}
		}()
	}

	err := a.pool.Run(ctx, a.sites)

	progress := a.pool.Status()
	a.logger.Info("Run finished",
		zap.Int("done", progress.Done),
		zap.Int("failed", progress.Failed),
		zap.Int("budget_exceeded", progress.BudgetExceeded),
		zap.Int("pending", progress.Pending))
	return err
}

// Close tears down all services in reverse initialization order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Error closing service", zap.Error(err))
		}
	}
	if err := a.logger.Sync(); err != nil {
		// Syncing stderr commonly fails on Linux; nothing useful to do.
		_ = err
	}
}
