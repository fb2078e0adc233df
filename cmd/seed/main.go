package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"messagesearch/internal/config"
	"messagesearch/internal/domain/services"
	"messagesearch/internal/gateway"
	"messagesearch/internal/metrics"
	"messagesearch/internal/repository/postgres"
	"messagesearch/internal/service/backfill"
	serviceDocument "messagesearch/internal/service/document"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	seedDocs := flag.Bool("seed", false, "Seed sample documents through the service layer")
	runBackfill := flag.Bool("backfill", false, "Run one synchronous embedding backfill pass")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Preparing database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("Ensuring database schema is up to date...")
	if err := postgres.CreateSchema(ctx, pool, tables, cfg.EmbeddingDimensions); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	paragraphRepo := postgres.NewParagraphRepository(repoConfig)
	snapshotRepo := postgres.NewSnapshotRepository(repoConfig)
	auditRepo := postgres.NewAuditRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	documentService := serviceDocument.NewService(docRepo, paragraphRepo, snapshotRepo, auditRepo, txManager, logger)

	if *seedDocs {
		log.Println("Seeding sample documents...")
		created := 0
		for _, req := range sampleDocuments() {
			doc, err := documentService.Create(ctx, req)
			if err != nil {
				log.Printf("Warning: seed document %q failed: %v", req.Title, err)
				continue
			}
			created++
			log.Printf("Seeded %q (%s, state=%s)", doc.Title, doc.ID, doc.WorkflowState)
		}
		log.Printf("Seeded %d documents", created)
	}

	if *runBackfill {
		// One-shot run: metrics land in a throwaway registry.
		m := metrics.NewMetrics(prometheus.NewRegistry())
		embedder, _, err := gateway.Setup(cfg, m, logger)
		if err != nil {
			log.Fatalf("Failed to setup AI gateway: %v", err)
		}
		log.Println("Running embedding backfill pass...")
		worker := backfill.NewWorker(paragraphRepo, embedder, m, cfg.BackfillBatch, 0, logger)
		n, err := worker.RunOnce(ctx)
		if err != nil {
			log.Fatalf("Backfill pass failed: %v", err)
		}
		log.Printf("Backfilled %d embeddings", n)
	}

	log.Println("Done")
}

func sampleDocuments() []*services.CreateDocumentRequest {
	heading := func(s string) *string { return &s }

	return []*services.CreateDocumentRequest{
		{
			Title:        "Getting Started",
			LanguageCode: "en",
			ActorID:      "seed",
			Publish:      true,
			Paragraphs: []services.ParagraphInput{
				{Position: 0, Heading: heading("Welcome"), Body: "This guide walks you through creating your first document, submitting it for review and publishing it."},
				{Position: 1, Heading: heading("Search"), Body: "The quick brown fox jumps over the lazy dog. Search blends full-text ranking with semantic similarity over paragraph embeddings."},
				{Position: 2, Body: "Every publish and archive captures an immutable snapshot, and every transition lands in the audit trail."},
			},
		},
		{
			Title:        "Erste Schritte",
			LanguageCode: "de",
			ActorID:      "seed",
			Publish:      true,
			Paragraphs: []services.ParagraphInput{
				{Position: 0, Heading: heading("Willkommen"), Body: "Diese Anleitung zeigt, wie Dokumente erstellt, geprüft und veröffentlicht werden."},
				{Position: 1, Body: "Die Suche kombiniert Volltext-Ranking mit semantischer Ähnlichkeit über Absatz-Embeddings."},
			},
		},
		{
			Title:        "Release Notes Draft",
			LanguageCode: "en",
			ActorID:      "seed",
			Paragraphs: []services.ParagraphInput{
				{Position: 0, Body: "Draft notes for the next release. Not yet submitted for review."},
			},
		},
	}
}
