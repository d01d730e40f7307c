package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/config"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/database"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/enrichment"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/llm"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/prompts"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/repositories"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/services"
)

const conversationQueueSize = 100

// errMemoryStore is returned by prompt maintenance commands that need a database.
var errMemoryStore = errors.New("prompt_store.type is memory; configure sqlite, mysql or postgres to persist templates")

// app holds the components shared by the commands of one invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	store      *database.Store // nil with the memory prompt store
	promptRepo repositories.PromptRepository
	resolver   prompts.Resolver
	recorder   *llm.AsyncConversationRecorder
}

func newLogger(env string, verbose bool) (*zap.Logger, error) {
	if verbose || env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newApp loads configuration and builds the logger. Commands that resolve templates
// call openPromptStore next.
func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath, Version)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Env, opts.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.Named(cfg.App.Name)

	return &app{cfg: cfg, logger: logger}, nil
}

// openPromptStore connects the configured prompt store, applies migrations and seeds the
// default templates plus any seed file. The memory store serves the same set in process.
func (a *app) openPromptStore(ctx context.Context) error {
	var seed []models.Prompt
	if a.cfg.PromptStore.SeedFile != "" {
		var err error
		if seed, err = prompts.LoadSeedFile(a.cfg.PromptStore.SeedFile); err != nil {
			return err
		}
	}

	if a.cfg.UsesMemoryStore() {
		mem := prompts.NewMemoryResolver(prompts.Defaults())
		for _, p := range seed {
			mem.Set(p.Name, p.Template)
		}
		a.resolver = mem
		a.logger.Debug("Using in-memory prompt templates", zap.Strings("templates", mem.Names()))
		return nil
	}

	storeCfg, err := a.cfg.StoreConfig()
	if err != nil {
		return err
	}
	store, err := database.Open(ctx, &storeCfg, a.logger)
	if err != nil {
		return err
	}
	a.store = store

	if err := database.RunMigrations(store, a.logger); err != nil {
		return err
	}

	a.promptRepo = repositories.NewPromptRepository(store)
	a.resolver = prompts.NewStoreResolver(a.promptRepo)

	// Defaults never replace stored templates; the seed file does when seed_overwrite is set.
	written, err := prompts.Seed(ctx, a.promptRepo, prompts.DefaultPrompts(), false)
	if err != nil {
		return err
	}
	n, err := prompts.Seed(ctx, a.promptRepo, seed, a.cfg.PromptStore.SeedOverwrite)
	if err != nil {
		return err
	}
	if written+n > 0 {
		a.logger.Info("Seeded prompt templates", zap.Int("defaults", written), zap.Int("seed_file", n))
	}
	return nil
}

// newEngine builds the LLM client and the enrichment engine for one run.
func (a *app) newEngine() (*enrichment.Engine, error) {
	factory := llm.NewClientFactory(a.logger)
	if a.cfg.LLM.RecordConversations {
		if a.store == nil {
			a.logger.Warn("record_conversations needs a database prompt store, not recording")
		} else {
			a.recorder = llm.NewAsyncConversationRecorder(
				repositories.NewConversationRepository(a.store), a.logger, conversationQueueSize)
			factory.SetRecorder(a.recorder)
		}
	}

	runID := uuid.New()
	llmCfg := a.cfg.LLMClientConfig()
	client, err := factory.Create(&llmCfg, runID)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", llmCfg.Provider, err)
	}

	engine := enrichment.NewEngine(a.resolver, client, a.cfg.EnrichmentEngineConfig(), a.logger)
	if cbCfg, ok := a.cfg.CircuitBreakerConfig(); ok {
		engine.SetCircuitBreaker(llm.NewCircuitBreaker(cbCfg))
	}

	a.logger.Info("LLM client ready",
		zap.String("run_id", runID.String()),
		zap.String("provider", string(llmCfg.Provider)),
		zap.String("model", client.GetModel()),
		zap.String("endpoint", client.GetEndpoint()))
	return engine, nil
}

// newSchemaService wires the engine into the pipeline service.
func (a *app) newSchemaService() (services.SchemaDescriptionService, error) {
	engine, err := a.newEngine()
	if err != nil {
		return nil, err
	}
	return services.NewSchemaDescriptionService(engine, a.cfg.Enrichment.MaxDescriptionLength, a.logger), nil
}

// Close drains the conversation recorder and closes the prompt store.
func (a *app) Close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close prompt store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
