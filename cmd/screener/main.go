package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/conjunction-screener/core"
	"github.com/signalsfoundry/conjunction-screener/internal/config"
	"github.com/signalsfoundry/conjunction-screener/internal/logging"
	"github.com/signalsfoundry/conjunction-screener/internal/observability"
	"github.com/signalsfoundry/conjunction-screener/internal/pipeline"
	"github.com/signalsfoundry/conjunction-screener/internal/risk"
	"github.com/signalsfoundry/conjunction-screener/kb"
	"github.com/signalsfoundry/conjunction-screener/timectrl"
)

func main() {
	configPath := flag.String("config", "configs/screener.yaml", "Path to the screener configuration file")
	catalogPath := flag.String("catalog", "configs/catalog.json", "Path to the JSON object catalog")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	watch := flag.Bool("watch", false, "Re-screen periodically instead of a single run")
	watchInterval := flag.Duration("watch-interval", time.Minute, "Interval between runs in watch mode")
	epochFlag := flag.String("epoch", "", "Screening window start as RFC3339 (default: now)")
	debrisSeed := flag.String("debris-seed", "", "Object ID to synthesise a debris field around")
	debrisCount := flag.Int("debris-count", 8, "Number of debris objects to synthesise")
	debrisSpread := flag.Float64("debris-spread", 0.01, "Orbital jitter applied to synthesised debris")
	randSeed := flag.Int64("seed", 1, "Random seed for debris synthesis")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Metrics.ListenAddr = *metricsAddr
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewScreeningCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.Metrics.ListenAddr, collector, log)

	catalog := kb.NewCatalog()
	if err := loadCatalog(catalog, *catalogPath); err != nil {
		log.Error(ctx, "failed to load object catalog", logging.String("path", *catalogPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *debrisSeed != "" {
		if err := addDebrisField(catalog, *debrisSeed, *debrisCount, *debrisSpread, *randSeed); err != nil {
			log.Error(ctx, "failed to synthesise debris field", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}
	log.Info(ctx, "catalog loaded", logging.Int("objects", catalog.Count()))

	predictor, reloadable, err := buildPredictor(cfg)
	if err != nil {
		log.Error(ctx, "failed to load risk model", logging.String("error", err.Error()))
		os.Exit(1)
	}

	pipe, err := pipeline.New(catalog, predictor, pipeline.Config{
		DangerThresholdKm: cfg.Screening.DangerThresholdKm,
		SafetyMarginKm:    cfg.Maneuver.SafetyMarginKm,
		Cadence:           cfg.Screening.Cadence,
		Samples:           cfg.Screening.Samples,
		PlanManeuvers:     cfg.Maneuver.Enabled,
		SkipDebrisPairs:   !cfg.Screening.IncludeDebrisPairs,
	}, log, collector)
	if err != nil {
		log.Error(ctx, "failed to build pipeline", logging.String("error", err.Error()))
		os.Exit(1)
	}
	pipe.Planner().MaxDeltaVMs = cfg.Maneuver.MaxDeltaVMs
	pipe.Planner().MaxIterations = cfg.Maneuver.MaxIterations

	var clock timectrl.Clock = timectrl.WallClock{}
	if *epochFlag != "" {
		epoch, err := time.Parse(time.RFC3339, *epochFlag)
		if err != nil {
			log.Error(ctx, "invalid -epoch value", logging.String("error", err.Error()))
			os.Exit(1)
		}
		clock = timectrl.FixedClock{Epoch: epoch}
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if reloadable != nil && cfg.Model.WatchArtifact && *watch {
		go func() {
			if err := reloadable.Watch(stopCtx, cfg.Model.ArtifactPath, log); err != nil {
				log.Warn(ctx, "model artifact watch exited", logging.String("error", err.Error()))
			}
		}()
	}

	exitCode := 0
	if *watch {
		runWatch(stopCtx, pipe, clock, *watchInterval, log)
	} else {
		if _, err := pipe.Run(stopCtx, clock.Now()); err != nil {
			log.Error(ctx, "screening run failed", logging.String("error", err.Error()))
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	os.Exit(exitCode)
}

// runWatch re-screens on every controller tick until interrupted.
func runWatch(ctx context.Context, pipe *pipeline.Pipeline, clock timectrl.Clock, interval time.Duration, log logging.Logger) {
	controller := timectrl.NewController(clock.Now(), interval)
	controller.AddListener(func(epoch time.Time) {
		if _, err := pipe.Run(ctx, epoch); err != nil {
			log.Error(ctx, "screening run failed", logging.String("error", err.Error()))
		}
	})

	// First run immediately; the controller covers the rest.
	if _, err := pipe.Run(ctx, clock.Now()); err != nil {
		log.Error(ctx, "screening run failed", logging.String("error", err.Error()))
	}

	done := controller.Run(ctx)
	<-ctx.Done()
	<-done
}

func loadCatalog(catalog *kb.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	objects, err := core.LoadObjectCatalog(f)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if err := catalog.AddObject(obj); err != nil {
			return err
		}
	}
	return nil
}

func addDebrisField(catalog *kb.Catalog, seedID string, count int, spread float64, randSeed int64) error {
	seed := catalog.GetObject(seedID)
	if seed == nil {
		return fmt.Errorf("debris seed object %q not found in catalog", seedID)
	}
	rng := rand.New(rand.NewSource(randSeed))
	field, err := core.GenerateDebrisField(seed, count, spread, rng)
	if err != nil {
		return err
	}
	for _, obj := range field {
		if err := catalog.AddObject(obj); err != nil {
			return err
		}
	}
	return nil
}

// buildPredictor returns the forest artifact when configured, wrapped
// for reloading, and otherwise the rule-based fallback.
func buildPredictor(cfg *config.Config) (risk.Predictor, *risk.Reloadable, error) {
	if cfg.Model.ArtifactPath == "" {
		return risk.Heuristic{}, nil, nil
	}
	forest, err := risk.LoadForest(cfg.Model.ArtifactPath)
	if err != nil {
		return nil, nil, err
	}
	reloadable := risk.NewReloadable(forest)
	return reloadable, reloadable, nil
}

func serveMetrics(addr string, collector *observability.ScreeningCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
