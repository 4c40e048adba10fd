package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL     string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMinConn int32  `envconfig:"DATABASE_MIN_CONNS" default:"1"`
	DatabaseMaxConn int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-large"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbeddingCacheSize  int    `envconfig:"EMBEDDING_CACHE_SIZE" default:"100"`

	SearchLimit          int     `envconfig:"SEARCH_LIMIT" default:"10"`
	SearchType           string  `envconfig:"SEARCH_TYPE" default:"hybrid"`
	HybridSemanticWeight float64 `envconfig:"HYBRID_SEMANTIC_WEIGHT" default:"0.7"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	BackfillInterval  time.Duration `envconfig:"BACKFILL_INTERVAL" default:"1m"`
	BackfillBatchSize int           `envconfig:"BACKFILL_BATCH_SIZE" default:"50"`

	SentryDSN         string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	SentrySampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"1.0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MCPTEAMS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
