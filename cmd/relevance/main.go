// The relevance worker replays curated search quality suites against
// the configured backend, once at startup and again whenever a
// dataset-loaded event arrives, persisting each fingerprinted run.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/evgraham/corpus-search/internal/bootstrap"
	"github.com/evgraham/corpus-search/internal/config"
	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/ports"
	"github.com/evgraham/corpus-search/internal/core/relevance"
	"github.com/evgraham/corpus-search/internal/infrastructure/repository/postgres"
	"github.com/evgraham/corpus-search/internal/observability/logging"
	"github.com/evgraham/corpus-search/internal/observability/metrics"
)

const serviceName = "corpus-search-relevance"

func main() {
	cfg := config.Load()
	logger := logging.New(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineMetrics := metrics.NewEngineMetrics()
	app, err := bootstrap.New(ctx, cfg, logger, engineMetrics)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	store := postgres.NewRunRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	workerMetrics := metrics.NewRelevanceMetrics(serviceName)
	workerMetrics.MustRegister(engineMetrics.Collectors()...)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		server := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: mux, ReadTimeout: 10 * time.Second}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	runAll := func(runCtx context.Context) {
		runSuites(runCtx, app, cfg.RelevanceSuitesDir, store, workerMetrics, logger)
	}

	runAll(ctx)

	logger.Info("subscribed to dataset events", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDatasetLoaded(ctx, func(handlerCtx context.Context, dataset string) error {
		logger.Info("dataset event received", "dataset", dataset)
		runCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()
		runAll(runCtx)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("subscribe error: %v", err)
	}
}

// runSuites walks the suites directory and replays each file against
// the engine its name targets: documents_*, passages_* or labels_*.
func runSuites(
	ctx context.Context,
	app *bootstrap.App,
	dir string,
	store relevance.RunStore,
	m *metrics.RelevanceMetrics,
	logger *slog.Logger,
) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		logger.Error("list suites", "dir", dir, "error", err)
		return
	}
	if len(paths) == 0 {
		logger.Warn("no suites found", "dir", dir)
		return
	}

	for _, path := range paths {
		name := filepath.Base(path)
		switch {
		case strings.HasPrefix(name, "documents_"):
			replaySuite(ctx, app.DocumentEngine, path, store, m, logger)
		case strings.HasPrefix(name, "passages_"):
			replaySuite(ctx, app.PassageEngine, path, store, m, logger)
		case strings.HasPrefix(name, "labels_"):
			replaySuite(ctx, app.LabelEngine, path, store, m, logger)
		default:
			logger.Warn("suite file has no target prefix, skipping", "file", name)
		}
	}
}

func replaySuite[T domain.Record](
	ctx context.Context,
	engine ports.SearchEngine[T],
	path string,
	store relevance.RunStore,
	m *metrics.RelevanceMetrics,
	logger *slog.Logger,
) {
	start := time.Now()

	cases, err := relevance.LoadSuite[T](path)
	if err != nil {
		logger.Error("load suite", "file", path, "error", err)
		m.FinishRun(serviceName, engine.Name(), time.Since(start), err)
		return
	}

	results, err := relevance.RunSuite(ctx, engine, cases, logger)
	if err != nil {
		logger.Error("run suite", "file", path, "error", err)
		m.FinishRun(serviceName, engine.Name(), time.Since(start), err)
		return
	}

	for _, r := range results {
		m.RecordCase(serviceName, engine.Name(), r.Category, r.Passed)
	}
	suiteMetrics := relevance.ComputeMetrics(results)
	m.SetPassRate(serviceName, engine.Name(), suiteMetrics.Overall.PassRate())

	record, err := relevance.NewRunRecord(engine.Name(), results, time.Now())
	if err != nil {
		logger.Error("fingerprint run", "file", path, "error", err)
		m.FinishRun(serviceName, engine.Name(), time.Since(start), err)
		return
	}

	inserted, err := store.SaveRun(ctx, record)
	if err != nil {
		logger.Error("persist run", "file", path, "error", err)
		m.FinishRun(serviceName, engine.Name(), time.Since(start), err)
		return
	}

	logger.Info("relevance_run_finished",
		"file", path,
		"engine", engine.Name(),
		"run_id", record.RunID,
		"cases", suiteMetrics.Overall.Total,
		"passed", suiteMetrics.Overall.Passed,
		"pass_rate", suiteMetrics.Overall.PassRate(),
		"new_run", inserted,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0)
	m.FinishRun(serviceName, engine.Name(), time.Since(start), nil)
}
