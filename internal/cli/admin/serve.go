// Package admin contains the daemon-side commands for mcpteamsd.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aech-ai/mcp-teams/internal/api/handlers"
	"github.com/aech-ai/mcp-teams/internal/chunker"
	"github.com/aech-ai/mcp-teams/internal/config"
	"github.com/aech-ai/mcp-teams/internal/database"
	"github.com/aech-ai/mcp-teams/internal/embedding"
	"github.com/aech-ai/mcp-teams/internal/jobs"
	"github.com/aech-ai/mcp-teams/internal/openai"
	"github.com/aech-ai/mcp-teams/internal/repository"
	"github.com/aech-ai/mcp-teams/internal/server"
	"github.com/aech-ai/mcp-teams/internal/service"
	"github.com/aech-ai/mcp-teams/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the mcp-teams API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: cfg.SentrySampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DatabaseMaxConn,
		MinConns: cfg.DatabaseMinConn,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	contentRepo := repository.NewContentRepository(pool)
	searchRepo := repository.NewSearchRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var provider service.EmbeddingProvider
	var backfillWorker *jobs.Worker
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
		generator := embedding.NewGenerator(client, cfg.EmbeddingCacheSize)
		provider = generator

		processor := jobs.NewBackfillProcessor(contentRepo, generator, cfg.BackfillBatchSize)
		backfillWorker = jobs.NewWorker(processor, cfg.BackfillInterval)
		go backfillWorker.Start(ctx)
		log.Println("embedding backfill worker started")
	} else {
		log.Println("no OpenAI API key configured: content is indexed without embeddings and search degrades to full-text")
	}

	engine := service.NewSearchEngine(searchRepo, provider, cfg.HybridSemanticWeight)
	tools := service.NewToolsService(contentRepo, engine, provider, txRunner)

	// Message fetch is wired by the transport integration; the daemon
	// registers the adapter for its query transform only.
	tools.RegisterAdapter(service.NewTeamsAdapter(nil, tools, chunker.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}))

	router := server.NewRouter(server.RouterConfig{
		SearchHandler:  handlers.NewSearchHandler(tools),
		ContentHandler: handlers.NewContentHandler(tools),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if backfillWorker != nil {
		backfillWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && verr != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", verr)
	}

	switch {
	case verr == migrate.ErrNilVersion:
		log.Println("migrations: database is up to date (no migrations applied)")
	case dirty:
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	case err == migrate.ErrNoChange:
		log.Printf("migrations: database is up to date (version %d)", version)
	default:
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
