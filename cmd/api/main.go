package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/evgraham/corpus-search/internal/adapters/http"
	"github.com/evgraham/corpus-search/internal/bootstrap"
	"github.com/evgraham/corpus-search/internal/config"
	"github.com/evgraham/corpus-search/internal/observability/logging"
	"github.com/evgraham/corpus-search/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.New("corpus-search-api", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineMetrics := metrics.NewEngineMetrics()
	app, err := bootstrap.New(ctx, cfg, logger, engineMetrics)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics("corpus-search-api")
	httpMetrics.MustRegister(engineMetrics.Collectors()...)
	router := httpadapter.NewRouter(
		app.Documents,
		app.Passages,
		app.Labels,
		httpMetrics,
		cfg.APIRateLimitRPS,
		cfg.APIRateLimitBurst,
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort, "backend", cfg.SearchBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
