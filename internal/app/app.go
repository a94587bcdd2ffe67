// Package app wires the storage backend, job queue, generator and sinks into a running
// report service. The API server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/household-reports/internal/archive"
	"github.com/dvloznov/household-reports/internal/config"
	infraBQ "github.com/dvloznov/household-reports/internal/infra/bigquery"
	"github.com/dvloznov/household-reports/internal/infra/sqlite"
	"github.com/dvloznov/household-reports/internal/jobs/inmemory"
	"github.com/dvloznov/household-reports/internal/narrative"
	"github.com/dvloznov/household-reports/internal/notionsync"
	"github.com/dvloznov/household-reports/internal/pipeline"
	"github.com/dvloznov/household-reports/internal/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const userAgent = "household-reports"

// App holds the long-lived services of one process.
type App struct {
	Config       config.Config
	Logger       zerolog.Logger
	Store        storage.Store
	Jobs         *inmemory.Store
	Queue        *inmemory.Queue
	Orchestrator *pipeline.Orchestrator

	closers []func() error
}

// New builds every service from cfg. Nothing runs until Start is called.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	generator, err := NewGenerator(ctx, cfg.Generator, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	sinks, err := a.newSinks(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Jobs = inmemory.NewStore()
	a.Queue = inmemory.NewQueue(cfg.Queue.BufferSize, cfg.Queue.Workers, a.Jobs)
	a.Orchestrator = pipeline.NewOrchestrator(pipeline.Dependencies{
		Store:     store,
		Publisher: a.Queue,
		Generator: generator,
		Sinks:     sinks,
		Logger:    log,
	})

	return a, nil
}

// Start launches the queue workers. Runs use ctx for cancellation.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info().
		Int("workers", a.Config.Queue.Workers).
		Str("backend", a.Config.Storage.Backend).
		Msg("Starting job workers")
	return a.Queue.Start(ctx, a.Orchestrator.HandleJob)
}

// Shutdown stops the queue, waiting for in-flight runs until ctx expires, then closes
// the backends.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.Queue != nil {
		if stopErr := a.Queue.Stop(ctx); stopErr != nil {
			a.Logger.Error().Err(stopErr).Msg("Error stopping job queue")
			err = stopErr
		}
	}
	if closeErr := a.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close releases the backends in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// OpenStore opens the configured storage backend.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return store, nil
	case "bigquery":
		repo, err := infraBQ.NewRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, option.WithUserAgent(userAgent))
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("OpenStore: unknown storage backend %q", cfg.Backend)
	}
}

// NewGenerator returns the Gemini-backed generator, or the offline one without an API key.
func NewGenerator(ctx context.Context, cfg config.GeneratorConfig, log zerolog.Logger) (pipeline.NarrativeGenerator, error) {
	if cfg.APIKey == "" {
		log.Warn().Msg("No Gemini API key configured, using offline narratives")
		return narrative.Offline{}, nil
	}

	model, err := narrative.NewGeminiModel(ctx, narrative.GeminiConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("NewGenerator: %w", err)
	}
	return narrative.NewGenerator(model, cfg.Timeout.Duration), nil
}

func (a *App) newSinks(ctx context.Context) ([]pipeline.ReportSink, error) {
	var sinks []pipeline.ReportSink

	if a.Config.Archive.Bucket != "" {
		w, err := archive.NewGCSWriter(ctx, option.WithUserAgent(userAgent))
		if err != nil {
			return nil, fmt.Errorf("newSinks: %w", err)
		}
		a.closers = append(a.closers, w.Close)
		sinks = append(sinks, archive.NewSink(w, a.Config.Archive.Bucket, a.Config.Archive.Prefix))
		a.Logger.Info().Str("bucket", a.Config.Archive.Bucket).Msg("Archiving completed reports to GCS")
	}

	if a.Config.Notion.Token != "" {
		client := notionsync.NewNotionClient(a.Config.Notion.Token)
		sinks = append(sinks, notionsync.NewPublisher(client, a.Config.Notion.DatabaseID))
		a.Logger.Info().Str("database_id", a.Config.Notion.DatabaseID).Msg("Publishing completed reports to Notion")
	}

	return sinks, nil
}
