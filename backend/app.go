package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/repository"
	"github.com/SergeyShakirov/TaskGo/backend/service"
)

// app holds the wired services and the resources they own.
type app struct {
	generator *service.ContentGenerator
	exports   *service.ExportService
	tasks     *service.TaskService

	repo   repository.TaskRepository
	events service.EventPublisher
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	events, err := openEvents(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		events.Close()
		return nil, err
	}

	store, err := openArtifactStore(ctx, cfg)
	if err != nil {
		events.Close()
		repo.Close()
		return nil, err
	}

	return &app{
		generator: service.NewContentGenerator(&cfg.AI, nil, nil),
		exports:   newExportService(cfg, store, events),
		tasks:     service.NewTaskService(repo, events),
		repo:      repo,
		events:    events,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.repo.Close(), a.events.Close())
}

func newExportService(cfg *config.Config, store service.ArtifactStore, events service.EventPublisher) *service.ExportService {
	var pdfOpts []service.PDFOption
	if font := cfg.Export.PDFFont; font != "" {
		pdfOpts = append(pdfOpts, service.WithUTF8Font(filepath.Dir(font), filepath.Base(font)))
	} else if needsUTF8Font(cfg.Export.Locale) {
		slog.Warn("locale uses a non-Latin script but no PDF font is configured; PDF text outside Latin-1 will not render",
			"locale", cfg.Export.Locale)
	}
	return service.NewExportService(
		store,
		service.NewFormatter(cfg.Export.Locale, cfg.Export.Currency),
		events,
		service.NewDOCXRenderer(),
		service.NewPDFRenderer(pdfOpts...),
	)
}

// needsUTF8Font reports whether the locale's script falls outside the
// Latin-1 core PDF fonts.
func needsUTF8Font(locale string) bool {
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	script, conf := tag.Script()
	return conf != language.No && script != language.MustParseScript("Latn")
}

func openEvents(cfg config.KafkaConfig) (service.EventPublisher, error) {
	if !cfg.Enabled() {
		return service.NoopPublisher{}, nil
	}
	p, err := service.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, fmt.Errorf("connecting to kafka: %w", err)
	}
	slog.Info("publishing events to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return p, nil
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.TaskRepository, error) {
	var repo repository.TaskRepository
	if cfg.Database.Driver == config.DriverMemory {
		repo = repository.NewMemoryTaskRepository(0)
	} else {
		sqlRepo, err := repository.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		repo = sqlRepo
	}

	if err := repository.Seed(ctx, repo); err != nil {
		repo.Close()
		return nil, fmt.Errorf("seeding database: %w", err)
	}

	if !cfg.Redis.Enabled() {
		return repo, nil
	}
	cache, err := repository.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		repo.Close()
		return nil, err
	}
	slog.Info("task cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL())
	return repository.NewCachedTaskRepository(repo, cache, cfg.Redis.TTL()), nil
}

func openArtifactStore(ctx context.Context, cfg *config.Config) (service.ArtifactStore, error) {
	if cfg.Export.Backend != config.BackendMinio {
		store := service.NewLocalArtifactStore(cfg.Export.OutputDir)
		slog.Info("storing exports locally", "dir", store.Dir())
		return store, nil
	}
	store, err := service.NewMinioArtifactStore(&cfg.Minio)
	if err != nil {
		return nil, fmt.Errorf("initializing minio: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensuring minio bucket: %w", err)
	}
	return store, nil
}
