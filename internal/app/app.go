// Package app assembles the extraction stack from configuration. Both binaries use it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/llm/openai"
	"github.com/joseph-ayodele/docextract/internal/llm/openaisdk"
	"github.com/joseph-ayodele/docextract/internal/llm/schemafile"
	"github.com/joseph-ayodele/docextract/internal/pdftext"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/repository"
	"github.com/joseph-ayodele/docextract/internal/tasks"
)

// App holds the wired components. DB is nil when history is disabled.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Repo      repository.ExtractionRepository
	Provider  llm.Provider
	Processor *pipeline.Processor
	Schema    *llm.Schema
	Task      llm.Task
}

// NewLogger builds the JSON slog logger used by both binaries.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// LoadSchema returns the schema named by cfg, or the built-in document schema.
func LoadSchema(cfg *common.Config, logger *slog.Logger) (*llm.Schema, llm.Task, error) {
	if cfg.Extract.SchemaFile == "" {
		return tasks.DocumentSchema, tasks.DocumentTask, nil
	}
	s, task, err := schemafile.Load(cfg.Extract.SchemaFile, logger)
	if err != nil {
		return nil, llm.Task{}, common.NewAppError(common.CodeConfig, "SCHEMA_FILE could not be loaded", err)
	}
	return s, task, nil
}

// NewProvider builds the provider selected by LLM_PROVIDER.
func NewProvider(cfg *common.Config, logger *slog.Logger) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "sdk":
		return openaisdk.NewClient(openaisdk.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	default:
		opts := []openai.Option{
			openai.WithModel(cfg.LLM.Model),
			openai.WithTemperature(cfg.LLM.Temperature),
			openai.WithTimeout(cfg.LLM.Timeout),
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
		}
		return openai.NewClient(cfg.LLM.APIKey, logger, opts...)
	}
}

// OpenHistory opens the configured store, or returns a Discard repository for "none".
func OpenHistory(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repository.DB, repository.ExtractionRepository, error) {
	if cfg.Database.Driver == "none" {
		logger.Info("extraction history disabled")
		return nil, repository.Discard{}, nil
	}
	db, err := repository.Open(ctx, repository.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return db, repository.NewExtractionRepository(db, logger), nil
}

// New validates cfg and wires everything.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	schema, task, err := LoadSchema(cfg, logger)
	if err != nil {
		return nil, err
	}
	provider, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	mode := llm.ModeTool
	if cfg.Extract.Mode == "prompt" {
		mode = llm.ModePrompt
	}
	extractor := llm.NewExtractor(provider, logger, llm.WithMode(mode))

	db, repo, err := OpenHistory(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	text := pdftext.NewExtractor(pdftext.Config{MaxPages: cfg.Extract.MaxPages}, logger)
	proc := pipeline.NewProcessor(logger, text, extractor, repo, schema, task, cfg.LLM.Model)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Repo:      repo,
		Provider:  provider,
		Processor: proc,
		Schema:    schema,
		Task:      task,
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.Logger)
	}
}
