package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"messagesearch/internal/auth"
	"messagesearch/internal/config"
	"messagesearch/internal/gateway"
	"messagesearch/internal/handler"
	"messagesearch/internal/metrics"
	"messagesearch/internal/middleware"
	"messagesearch/internal/repository/postgres"
	"messagesearch/internal/searchcfg"
	"messagesearch/internal/service/backfill"
	serviceCollab "messagesearch/internal/service/collab"
	serviceDocument "messagesearch/internal/service/document"
	serviceSearch "messagesearch/internal/service/search"
	"messagesearch/internal/service/webhook"
	serviceWorkflow "messagesearch/internal/service/workflow"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verifier: HS256 by default, JWKS when a URL is configured
	jwtVerifier, err := auth.NewVerifier(cfg.JWKSURL, cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Root context cancels on SIGINT/SIGTERM, stopping the backfill worker
	// and driving the HTTP shutdown below.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	paragraphRepo := postgres.NewParagraphRepository(repoConfig)
	snapshotRepo := postgres.NewSnapshotRepository(repoConfig)
	auditRepo := postgres.NewAuditRepository(repoConfig)
	reviewRepo := postgres.NewReviewRepository(repoConfig)
	collabRepo := postgres.NewCollabRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Search registry (weights, pools, language -> FTS config map)
	registry, err := searchcfg.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load search registry: %v", err)
	}
	logger.Info("search registry initialized")

	// Metrics
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// AI gateway
	embedder, chat, err := gateway.Setup(cfg, m, logger)
	if err != nil {
		log.Fatalf("Failed to setup AI gateway: %v", err)
	}

	// Webhook dispatcher for transition events
	dispatcher := webhook.NewDispatcher(cfg.WebhookURLs, m, logger)

	// Services
	workflowService := serviceWorkflow.NewService(docRepo, paragraphRepo, snapshotRepo, auditRepo, reviewRepo, txManager, dispatcher, logger)
	documentService := serviceDocument.NewService(docRepo, paragraphRepo, snapshotRepo, auditRepo, txManager, logger)
	searchService := serviceSearch.NewService(paragraphRepo, embedder, chat, registry, logger)
	collabService := serviceCollab.NewService(collabRepo, docRepo, txManager, logger)

	// Embedding backfill worker
	worker := backfill.NewWorker(paragraphRepo, embedder, m, cfg.BackfillBatch, cfg.BackfillInterval, logger)
	go worker.Run(ctx)
	if cfg.BackfillInterval > 0 {
		logger.Info("embedding backfill worker started", "interval", cfg.BackfillInterval, "batch", cfg.BackfillBatch)
	}

	// Handlers
	docHandler := handler.NewDocumentHandler(documentService, logger)
	workflowHandler := handler.NewWorkflowHandler(workflowService, m, logger)
	searchHandler := handler.NewSearchHandler(searchService, m, logger)
	collabHandler := handler.NewCollabHandler(collabService, logger)

	// Setup routes with Go 1.22 method patterns
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Documents
	mux.HandleFunc("POST /v1/documents", docHandler.Create)
	mux.HandleFunc("POST /v1/documents:batch", docHandler.CreateBatch)
	mux.HandleFunc("GET /v1/documents", docHandler.List)
	mux.HandleFunc("GET /v1/documents/{id}", docHandler.Get)
	mux.HandleFunc("GET /v1/documents/{id}/snapshots", docHandler.ListSnapshots)
	mux.HandleFunc("GET /v1/documents/{id}/audit", docHandler.ListAudit)

	// Workflow transitions (expected version travels in If-Match)
	mux.HandleFunc("POST /v1/documents/{id}/review", workflowHandler.SubmitReview)
	mux.HandleFunc("POST /v1/documents/{id}/reviews/{reviewId}/approve", workflowHandler.Approve)
	mux.HandleFunc("POST /v1/documents/{id}/reviews/{reviewId}/request-changes", workflowHandler.RequestChanges)
	mux.HandleFunc("POST /v1/documents/{id}/reviews/{reviewId}/comments", workflowHandler.AddComment)
	mux.HandleFunc("GET /v1/documents/{id}/reviews/{reviewId}", workflowHandler.GetReview)
	mux.HandleFunc("POST /v1/documents/{id}/publish", workflowHandler.Publish)
	mux.HandleFunc("POST /v1/documents/{id}/archive", workflowHandler.Archive)
	mux.HandleFunc("POST /v1/documents/{id}/revert", workflowHandler.Revert)

	// Search & answer
	mux.HandleFunc("POST /v1/search", searchHandler.Search)
	mux.HandleFunc("POST /v1/answer", searchHandler.Answer)

	// Collaboration
	mux.HandleFunc("POST /v1/documents/{id}/collab/updates", collabHandler.AppendUpdate)
	mux.HandleFunc("GET /v1/documents/{id}/collab/updates", collabHandler.ListUpdates)
	mux.HandleFunc("PUT /v1/documents/{id}/collab/snapshot", collabHandler.PutSnapshot)
	mux.HandleFunc("GET /v1/documents/{id}/collab/snapshot", collabHandler.GetSnapshot)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Metrics → Auth → Routes
	httpHandler = middleware.Auth(jwtVerifier, logger)(httpHandler)
	httpHandler = middleware.Metrics(m)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "If-Match"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server, then drain in-flight requests on shutdown signal
	logger.Info("server listening", "port", cfg.Port)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining requests")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
