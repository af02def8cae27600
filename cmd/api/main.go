package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/cbc-energia/fieldops-backend/api/routes"
	"github.com/cbc-energia/fieldops-backend/internal/ai"
	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	"github.com/cbc-energia/fieldops-backend/internal/connectivity"
	"github.com/cbc-energia/fieldops-backend/internal/identity"
	"github.com/cbc-energia/fieldops-backend/internal/markers"
	"github.com/cbc-energia/fieldops-backend/internal/routelog"
	"github.com/cbc-energia/fieldops-backend/internal/syncengine"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/auth/session"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/db"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
	"github.com/cbc-energia/fieldops-backend/pkg/metrics"
	"github.com/cbc-energia/fieldops-backend/pkg/migrate"
)

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

	store, cleanup, err := openStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open durable store", err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logg.Error(context.Background(), "error closing durable store", err)
		}
	}()

	registry := prometheus.NewRegistry()
	fieldMetrics := metrics.NewFieldMetrics(registry)

	sink := alerts.NewSink()
	monitor := connectivity.NewMonitor(cfg.Sync.ProbeURL == "")

	directory, err := identity.NewSeededDirectory(cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to seed identity directory", err)
		os.Exit(1)
	}

	identSvc, err := identity.NewService(identity.ServiceParams{
		Store:     store,
		Directory: directory,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	visitSvc, err := visits.NewService(visits.ServiceParams{
		Repo:         visits.NewRepository(store),
		Identity:     identSvc,
		Connectivity: monitor,
		Alerts:       sink,
		Metrics:      fieldMetrics,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create visit service", err)
		os.Exit(1)
	}

	routeSvc, err := routelog.NewService(routelog.ServiceParams{
		Store:   store,
		Config:  cfg.Route,
		Alerts:  sink,
		Metrics: fieldMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create route service", err)
		os.Exit(1)
	}

	markerSvc, err := markers.NewService(markers.ServiceParams{
		Store:  store,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create marker service", err)
		os.Exit(1)
	}

	sessions, err := session.NewManager(store, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := identSvc.Hydrate(ctx); err != nil {
		logg.Error(ctx, "failed to hydrate identity", err)
		os.Exit(1)
	}
	if err := visitSvc.Hydrate(ctx); err != nil {
		logg.Error(ctx, "failed to hydrate visit records", err)
		os.Exit(1)
	}
	if err := routeSvc.Hydrate(ctx, time.Now()); err != nil {
		logg.Error(ctx, "failed to hydrate route archive", err)
		os.Exit(1)
	}
	if err := markerSvc.Hydrate(ctx); err != nil {
		logg.Error(ctx, "failed to hydrate marker config", err)
		os.Exit(1)
	}

	var uploader syncengine.Uploader = syncengine.SimulatedUploader{Latency: cfg.Sync.UploadLatency}
	if cfg.Sync.TargetURL != "" {
		uploader, err = syncengine.NewHTTPUploader(cfg.Sync)
		if err != nil {
			logg.Error(ctx, "failed to create uploader", err)
			os.Exit(1)
		}
	}

	engine, err := syncengine.NewEngine(syncengine.EngineParams{
		Source:   visitSvc,
		Monitor:  monitor,
		Uploader: uploader,
		Metrics:  fieldMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sync engine", err)
		os.Exit(1)
	}
	visitSvc.SetChangeListener(engine.Notify)
	engine.Start(ctx)

	if prober := connectivity.NewProber(cfg.Sync, monitor, logg); prober != nil {
		go prober.Run(ctx)
	}

	var aiSvc ai.Service
	if cfg.AI.APIKey != "" {
		gen, err := ai.NewGenerator(ctx, cfg.AI)
		if err != nil {
			logg.Error(ctx, "failed to create ai generator", err)
			os.Exit(1)
		}
		aiSvc, err = ai.NewService(ai.ServiceParams{
			Generator:    gen,
			Connectivity: monitor,
			Config:       cfg.AI,
			Logger:       logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create ai service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "ai api key not set, analyze and report endpoints disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"store": cfg.Store.Driver,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			Store:          store,
			Sessions:       sessions,
			Identity:       identSvc,
			Visits:         visitSvc,
			Routes:         routeSvc,
			Markers:        markerSvc,
			AI:             aiSvc,
			Alerts:         sink,
			Monitor:        monitor,
			Engine:         engine,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logg.Info(runCtx, "shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(runCtx, "error shutting down server", err)
	}
	engine.Wait()
	logg.Info(runCtx, "api server stopped")
}

// openStore selects the durable backend from config. The returned cleanup
// closes the store and, for the sql driver, the underlying database.
func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (kv.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQL:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			closeErr := dbClient.Close()
			return nil, nil, multierr.Append(err, closeErr)
		}
		store := kv.NewSQLStore(dbClient.DB(), logg)
		return store, func() error {
			return multierr.Append(store.Close(), dbClient.Close())
		}, nil
	default:
		store, err := kv.NewBadgerStore(cfg.Store, logg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}
