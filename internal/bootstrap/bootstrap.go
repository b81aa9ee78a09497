// Package bootstrap wires configuration into a running application:
// one search engine per record kind, chosen by SEARCH_BACKEND, behind
// the shared pagination service.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/evgraham/corpus-search/internal/config"
	"github.com/evgraham/corpus-search/internal/core/domain"
	"github.com/evgraham/corpus-search/internal/core/ports"
	"github.com/evgraham/corpus-search/internal/core/usecase"
	"github.com/evgraham/corpus-search/internal/infrastructure/engine/memory"
	"github.com/evgraham/corpus-search/internal/infrastructure/engine/sqlite"
	"github.com/evgraham/corpus-search/internal/infrastructure/engine/vespa"
	"github.com/evgraham/corpus-search/internal/infrastructure/queue/nats"
	"github.com/evgraham/corpus-search/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config
	Log    *slog.Logger

	DocumentEngine ports.DocumentSearchEngine
	PassageEngine  ports.PassageSearchEngine
	LabelEngine    ports.LabelSearchEngine

	Documents ports.RecordSearchService[domain.Document]
	Passages  ports.RecordSearchService[domain.Passage]
	Labels    ports.RecordSearchService[domain.Label]

	Queue *nats.Queue

	monitor vespa.Monitor
	closers []func()
}

// New wires the application. monitor may be nil; when set it observes
// engine health events from the remote backend.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, monitor vespa.Monitor) (*App, error) {
	app := &App{Config: cfg, Log: log, monitor: monitor}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, log, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.QueueConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init dataset queue: %w", err)
	}
	app.Queue = queue
	app.closers = append(app.closers, queue.Close)

	if err := app.buildEngines(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.Documents = usecase.NewSearchUseCase(app.DocumentEngine, log)
	app.Passages = usecase.NewSearchUseCase(app.PassageEngine, log)
	app.Labels = usecase.NewSearchUseCase(app.LabelEngine, log)
	return app, nil
}

func (a *App) buildEngines(ctx context.Context) error {
	switch a.Config.SearchBackend {
	case "memory":
		return a.buildMemoryEngines(ctx)
	case "sqlite":
		return a.buildSQLiteEngines(ctx)
	case "vespa":
		return a.buildVespaEngines(ctx)
	default:
		return fmt.Errorf("unknown search backend %q", a.Config.SearchBackend)
	}
}

func (a *App) buildMemoryEngines(ctx context.Context) error {
	docs, passages, err := a.loadCorpus(ctx)
	if err != nil {
		return err
	}

	documentEngine, err := memory.New(memory.DocumentSchema(), memory.Options[domain.Document]{Items: docs})
	if err != nil {
		return fmt.Errorf("build document engine: %w", err)
	}
	passageEngine, err := memory.New(memory.PassageSchema(), memory.Options[domain.Passage]{Items: passages})
	if err != nil {
		return fmt.Errorf("build passage engine: %w", err)
	}
	labelEngine, err := memory.New(memory.LabelSchema(), memory.Options[domain.Label]{Path: a.Config.LabelsPath})
	if err != nil {
		return fmt.Errorf("build label engine: %w", err)
	}

	a.DocumentEngine = documentEngine
	a.PassageEngine = passageEngine
	a.LabelEngine = labelEngine
	return nil
}

func (a *App) buildSQLiteEngines(ctx context.Context) error {
	if path := a.Config.SQLiteDBPath; path != "" {
		return a.openSQLiteEngines(
			sqlite.Options[domain.Document]{Path: path},
			sqlite.Options[domain.Passage]{Path: path},
			sqlite.Options[domain.Label]{Path: path},
		)
	}

	docs, passages, err := a.loadCorpus(ctx)
	if err != nil {
		return err
	}
	labels, err := loadRecords[domain.Label](a.Config.LabelsPath)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}
	return a.openSQLiteEngines(
		sqlite.Options[domain.Document]{Items: docs},
		sqlite.Options[domain.Passage]{Items: passages},
		sqlite.Options[domain.Label]{Items: labels},
	)
}

func (a *App) openSQLiteEngines(
	docOpts sqlite.Options[domain.Document],
	passageOpts sqlite.Options[domain.Passage],
	labelOpts sqlite.Options[domain.Label],
) error {
	documentEngine, err := sqlite.New(sqlite.DocumentTableSchema(), docOpts)
	if err != nil {
		return fmt.Errorf("build document engine: %w", err)
	}
	a.closers = append(a.closers, func() { _ = documentEngine.Close() })

	passageEngine, err := sqlite.New(sqlite.PassageTableSchema(), passageOpts)
	if err != nil {
		return fmt.Errorf("build passage engine: %w", err)
	}
	a.closers = append(a.closers, func() { _ = passageEngine.Close() })

	labelEngine, err := sqlite.New(sqlite.LabelTableSchema(), labelOpts)
	if err != nil {
		return fmt.Errorf("build label engine: %w", err)
	}
	a.closers = append(a.closers, func() { _ = labelEngine.Close() })

	a.DocumentEngine = documentEngine
	a.PassageEngine = passageEngine
	a.LabelEngine = labelEngine
	return nil
}

func (a *App) buildVespaEngines(_ context.Context) error {
	client := vespa.NewClient(a.Config.VespaURL, time.Duration(a.Config.VespaTimeoutSeconds)*time.Second)
	exec := resilience.NewExecutor(resilience.EngineConfig())

	documentEngine, err := vespa.NewBM25TitleDocumentEngine(client, exec, nil, a.Log, a.monitor)
	if err != nil {
		return fmt.Errorf("build document engine: %w", err)
	}
	passageEngine, err := vespa.NewHybridPassageEngine(client, exec, nil, a.Log, a.monitor)
	if err != nil {
		return fmt.Errorf("build passage engine: %w", err)
	}
	// Labels are not indexed remotely; serve them from the local file.
	labelEngine, err := memory.New(memory.LabelSchema(), memory.Options[domain.Label]{Path: a.Config.LabelsPath})
	if err != nil {
		return fmt.Errorf("build label engine: %w", err)
	}

	a.DocumentEngine = documentEngine
	a.PassageEngine = passageEngine
	a.LabelEngine = labelEngine
	return nil
}

// loadCorpus yields the document and passage collections, either
// derived from a raw ingest dataset or read from the canonical files.
func (a *App) loadCorpus(ctx context.Context) ([]domain.Document, []domain.Passage, error) {
	if a.Config.DatasetPath != "" {
		loader := usecase.NewLoadDatasetUseCase(a.Queue, a.Log)
		collections, err := loader.Load(ctx, a.Config.DatasetPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load dataset: %w", err)
		}
		return collections.Documents, collections.Passages, nil
	}

	docs, err := loadRecords[domain.Document](a.Config.DocumentsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load documents: %w", err)
	}
	passages, err := loadRecords[domain.Passage](a.Config.PassagesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load passages: %w", err)
	}
	return docs, passages, nil
}

func loadRecords[T domain.Record](path string) ([]T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return domain.UnmarshalJSONL[T](raw)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
