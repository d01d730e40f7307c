package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/database"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/ddl"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/enrichment"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/llm"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
)

// DefaultPath is read when no config file is given.
const DefaultPath = "config.yaml"

// PromptStoreMemory serves the built-in templates without a database.
const PromptStoreMemory = "memory"

// Config holds all configuration for a metadata run.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	App         AppConfig         `yaml:"app"`
	Files       FilesConfig       `yaml:"files"`
	BigQuery    BigQueryConfig    `yaml:"bigquery"`
	LLM         LLMConfig         `yaml:"llm"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment"`
	PromptStore PromptStoreConfig `yaml:"prompt_store"`
}

// AppConfig names the application in logs.
type AppConfig struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"llm-metadata"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
}

// FilesConfig holds input and output paths.
type FilesConfig struct {
	InputSchema  string `yaml:"input_schema" env:"INPUT_SCHEMA" env-default:""`
	OutputSchema string `yaml:"output_schema" env:"OUTPUT_SCHEMA" env-default:""`
	SQLOutput    string `yaml:"sql_output" env:"SQL_OUTPUT" env-default:""`
}

// BigQueryConfig identifies the target table.
type BigQueryConfig struct {
	ProjectID string `yaml:"project_id" env:"BIGQUERY_PROJECT_ID" env-default:""`
	DatasetID string `yaml:"dataset_id" env:"BIGQUERY_DATASET_ID" env-default:""`
	TableID   string `yaml:"table_id" env:"BIGQUERY_TABLE_ID" env-default:""`
	Location  string `yaml:"location" env:"BIGQUERY_LOCATION" env-default:"US"`
	// Mode selects CREATE OR REPLACE TABLE ("create") or ALTER TABLE statements ("alter").
	Mode string `yaml:"mode" env:"BIGQUERY_MODE" env-default:"create"`
}

// LLMConfig selects and tunes the text-generation provider.
type LLMConfig struct {
	Provider       string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Model          string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	Endpoint       string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	APIKey         string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.2"`
	MaxTokens      int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"0"`
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"300"`

	// RecordConversations stores every call in the prompt store's llm_conversations table.
	// Ignored with the memory prompt store.
	RecordConversations bool `yaml:"record_conversations" env:"LLM_RECORD_CONVERSATIONS" env-default:"false"`

	// CircuitBreakerThreshold is the number of consecutive provider failures that stop a run.
	// A negative value disables the breaker.
	CircuitBreakerThreshold    int `yaml:"circuit_breaker_threshold" env:"LLM_CIRCUIT_BREAKER_THRESHOLD" env-default:"5"`
	CircuitBreakerResetSeconds int `yaml:"circuit_breaker_reset_seconds" env:"LLM_CIRCUIT_BREAKER_RESET_SECONDS" env-default:"30"`
}

// EnrichmentConfig tunes chunked enrichment.
type EnrichmentConfig struct {
	ChunkSize            int    `yaml:"chunk_size" env:"ENRICHMENT_CHUNK_SIZE" env-default:"10"`
	MaxConcurrent        int    `yaml:"max_concurrent" env:"ENRICHMENT_MAX_CONCURRENT" env-default:"1"`
	MaxDescriptionLength int    `yaml:"max_description_length" env:"ENRICHMENT_MAX_DESCRIPTION_LENGTH" env-default:"1024"`
	LevelOfDetail        string `yaml:"level_of_detail" env:"ENRICHMENT_LEVEL_OF_DETAIL" env-default:"concise"`
	FallbackToOriginal   bool   `yaml:"fallback_to_original" env:"ENRICHMENT_FALLBACK_TO_ORIGINAL" env-default:"false"`
	SystemMessage        string `yaml:"system_message" env:"ENRICHMENT_SYSTEM_MESSAGE" env-default:""`
}

// PromptStoreConfig selects where prompt templates live.
type PromptStoreConfig struct {
	// Type is "memory", "sqlite", "mysql" or "postgres".
	Type     string `yaml:"type" env:"PROMPT_STORE_TYPE" env-default:"memory"`
	DSN      string `yaml:"dsn" env:"PROMPT_STORE_DSN" env-default:""`
	Password string `yaml:"-" env:"PROMPT_STORE_PASSWORD"` // Secret - not in YAML
	// SeedFile is a YAML list of prompts (name, template) stored on startup.
	SeedFile string `yaml:"seed_file" env:"PROMPT_STORE_SEED_FILE" env-default:""`
	// SeedOverwrite replaces stored templates with the seed's versions.
	SeedOverwrite bool `yaml:"seed_overwrite" env:"PROMPT_STORE_SEED_OVERWRITE" env-default:"false"`
}

// providerKeyEnv lists the provider-specific variables consulted when LLM_API_KEY is unset.
var providerKeyEnv = map[llm.Provider]string{
	llm.ProviderOpenAI:      "OPENAI_API_KEY",
	llm.ProviderAnthropic:   "ANTHROPIC_API_KEY",
	llm.ProviderHuggingFace: "HUGGINGFACEHUB_API_TOKEN",
}

// Load reads configuration from path with environment variable overrides.
// A .env file in the working directory is loaded first when present; variables already
// set in the environment win over it. The version is set on the returned Config.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if path != DefaultPath {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFallbacks fills values that depend on other settings.
func (c *Config) applyFallbacks() {
	if c.LLM.APIKey == "" {
		if p, err := llm.ParseProvider(c.LLM.Provider); err == nil {
			if name, ok := providerKeyEnv[p]; ok {
				c.LLM.APIKey = os.Getenv(name)
			}
		}
	}
	c.LLM.Endpoint = ResolveURLForDocker(c.LLM.Endpoint)
}

// Validate rejects unknown enumerations and non-positive sizes.
func (c *Config) Validate() error {
	var errs []error

	if _, err := llm.ParseProvider(c.LLM.Provider); err != nil {
		errs = append(errs, fmt.Errorf("llm.provider: %w", err))
	}
	if _, err := ddl.ParseMode(c.BigQuery.Mode); err != nil {
		errs = append(errs, fmt.Errorf("bigquery.mode: %w", err))
	}
	if _, err := enrichment.ParseLevelOfDetail(c.Enrichment.LevelOfDetail); err != nil {
		errs = append(errs, fmt.Errorf("enrichment.level_of_detail: %w", err))
	}
	if c.Enrichment.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("enrichment.chunk_size must be positive, got %d", c.Enrichment.ChunkSize))
	}
	if c.Enrichment.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("enrichment.max_concurrent must be positive, got %d", c.Enrichment.MaxConcurrent))
	}
	if c.Enrichment.MaxDescriptionLength <= 0 {
		errs = append(errs, fmt.Errorf("enrichment.max_description_length must be positive, got %d", c.Enrichment.MaxDescriptionLength))
	}
	if c.LLM.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds must not be negative, got %d", c.LLM.TimeoutSeconds))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature))
	}
	if !c.UsesMemoryStore() {
		if _, err := database.ParseDialect(c.PromptStore.Type); err != nil {
			errs = append(errs, fmt.Errorf("prompt_store.type: %w", err))
		} else if c.PromptStore.DSN == "" {
			errs = append(errs, fmt.Errorf("prompt_store.dsn is required for %s", c.PromptStore.Type))
		}
	}

	return errors.Join(errs...)
}

// FullTableName returns project.dataset.table, skipping empty parts.
func (c *Config) FullTableName() string {
	var parts []string
	for _, p := range []string{c.BigQuery.ProjectID, c.BigQuery.DatasetID, c.BigQuery.TableID} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// ResourceLabel returns the FHIR resource stored in the target table.
func (c *Config) ResourceLabel() string {
	return models.ResourceLabel(c.FullTableName())
}

// RenderMode returns the parsed bigquery.mode.
func (c *Config) RenderMode() ddl.Mode {
	m, err := ddl.ParseMode(c.BigQuery.Mode)
	if err != nil {
		return ddl.ModeCreate
	}
	return m
}

// UsesMemoryStore reports whether templates are served without a database.
func (c *Config) UsesMemoryStore() bool {
	t := strings.ToLower(strings.TrimSpace(c.PromptStore.Type))
	return t == "" || t == PromptStoreMemory
}

// LLMClientConfig converts the llm section for the client factory.
func (c *Config) LLMClientConfig() llm.Config {
	provider, _ := llm.ParseProvider(c.LLM.Provider)
	return llm.Config{
		Provider:  provider,
		Endpoint:  c.LLM.Endpoint,
		Model:     c.LLM.Model,
		APIKey:    c.LLM.APIKey,
		MaxTokens: c.LLM.MaxTokens,
		Timeout:   time.Duration(c.LLM.TimeoutSeconds) * time.Second,
	}
}

// CircuitBreakerConfig converts the breaker settings. ok is false when the breaker is disabled.
func (c *Config) CircuitBreakerConfig() (cfg llm.CircuitBreakerConfig, ok bool) {
	if c.LLM.CircuitBreakerThreshold <= 0 {
		return llm.CircuitBreakerConfig{}, false
	}
	return llm.CircuitBreakerConfig{
		Threshold:  c.LLM.CircuitBreakerThreshold,
		ResetAfter: time.Duration(c.LLM.CircuitBreakerResetSeconds) * time.Second,
	}, true
}

// EnrichmentEngineConfig converts the enrichment section for the engine.
func (c *Config) EnrichmentEngineConfig() enrichment.Config {
	level, _ := enrichment.ParseLevelOfDetail(c.Enrichment.LevelOfDetail)
	return enrichment.Config{
		ChunkSize:            c.Enrichment.ChunkSize,
		MaxConcurrent:        c.Enrichment.MaxConcurrent,
		MaxDescriptionLength: c.Enrichment.MaxDescriptionLength,
		Temperature:          c.LLM.Temperature,
		LevelOfDetail:        level,
		FallbackToOriginal:   c.Enrichment.FallbackToOriginal,
		SystemMessage:        c.Enrichment.SystemMessage,
	}
}

// StoreConfig converts the prompt_store section for database.Open.
// It fails for the memory store.
func (c *Config) StoreConfig() (database.Config, error) {
	if c.UsesMemoryStore() {
		return database.Config{}, fmt.Errorf("prompt store %q has no database", PromptStoreMemory)
	}
	dialect, err := database.ParseDialect(c.PromptStore.Type)
	if err != nil {
		return database.Config{}, err
	}
	return database.Config{
		Dialect:  dialect,
		DSN:      c.PromptStore.DSN,
		Password: c.PromptStore.Password,
	}, nil
}
