package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	"github.com/cbc-energia/fieldops-backend/internal/connectivity"
	"github.com/cbc-energia/fieldops-backend/internal/gps"
	"github.com/cbc-energia/fieldops-backend/internal/identity"
	"github.com/cbc-energia/fieldops-backend/internal/routelog"
	"github.com/cbc-energia/fieldops-backend/internal/syncengine"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	"github.com/cbc-energia/fieldops-backend/pkg/db"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	"github.com/cbc-energia/fieldops-backend/pkg/kv"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
	"github.com/cbc-energia/fieldops-backend/pkg/metrics"
	"github.com/cbc-energia/fieldops-backend/pkg/migrate"
)

// identityGate adapts the identity service to the tracker's role gate.
type identityGate struct {
	svc identity.Service
}

func (g identityGate) CurrentRole() (enums.Role, bool) {
	user, ok := g.svc.Current()
	if !ok {
		return "", false
	}
	return user.Role, true
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	replayPath := flag.String("gps-replay", "", "NDJSON file of {lat,lng} fixes to pump into the route archive, - for stdin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
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

	if *replayPath != "" {
		source := gps.NewChannelSource(cfg.GPS.SampleBuffer)
		tracker, err := gps.NewTracker(gps.TrackerParams{
			Source: source,
			Routes: routeSvc,
			Gate:   identityGate{svc: identSvc},
			Logger: logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create gps tracker", err)
			os.Exit(1)
		}
		go tracker.Run(ctx)
		go replayFixes(ctx, *replayPath, source, logg)
	}

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"store": cfg.Store.Driver,
	})
	logg.Info(runCtx, "sync worker running")

	<-ctx.Done()
	engine.Wait()
	logg.Info(runCtx, "sync worker stopped")
}

// replayFixes pumps NDJSON {lat,lng} lines into the tracker source.
func replayFixes(ctx context.Context, path string, source *gps.ChannelSource, logg *logger.Logger) {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			logg.Error(ctx, "failed to open gps replay file", err)
			return
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var fix struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &fix); err != nil {
			source.Errs <- err
			continue
		}
		select {
		case source.Samples <- gps.Sample{Lat: fix.Lat, Lng: fix.Lng, At: time.Now()}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logg.Error(ctx, "gps replay read failed", err)
	}
}

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
