package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/auditops/auditops-backend/internal/api/middleware"
	"github.com/auditops/auditops-backend/internal/api/rest"
	"github.com/auditops/auditops-backend/internal/catalog"
	"github.com/auditops/auditops-backend/internal/config"
	"github.com/auditops/auditops-backend/internal/github"
	"github.com/auditops/auditops-backend/internal/orchestrator"
	"github.com/auditops/auditops-backend/internal/pkg/logger"
	"github.com/auditops/auditops-backend/internal/repository"
	"github.com/auditops/auditops-backend/internal/vault"
	"github.com/auditops/auditops-backend/internal/worker"
)

func main() {
	log.Println("🚀 AuditOps Backend starting...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	slogger := logger.StdLogger(cfg.LogLevel)

	log.Printf("📋 Configuration loaded: port=%d, db=%s", cfg.Port, cfg.DatabaseDriver)

	// Credential vault
	keyCfg, err := cfg.VaultKeyConfig()
	if err != nil {
		log.Fatalf("❌ Vault configuration error: %v", err)
	}
	if keyCfg.PrimaryKey == "" {
		// Dev mode only: an ephemeral key means ciphertext does not
		// survive a restart.
		keyCfg.PrimaryKey, err = vault.GenerateKey()
		if err != nil {
			log.Fatalf("❌ Failed to generate dev vault key: %v", err)
		}
		log.Println("⚠️  Dev mode: using an ephemeral vault key")
	}
	credVault, err := vault.New(keyCfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize credential vault: %v", err)
	}
	log.Println("🔐 Credential vault ready")

	// Initialize database
	log.Println("💾 Initializing database...")
	var store repository.Store
	switch cfg.DatabaseDriver {
	case "postgres":
		store, err = repository.NewPostgresStore(cfg.DatabaseURL)
	default:
		store, err = repository.NewSQLiteStore(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// Seed the compliance catalog
	checkCatalog := catalog.Default()
	if err := store.SeedQuestions(context.Background(), checkCatalog.Questions()); err != nil {
		log.Fatalf("❌ Failed to seed compliance questions: %v", err)
	}
	log.Printf("✅ Compliance catalog seeded (%d checks)", checkCatalog.Len())

	// Audit orchestrator and worker pool
	clientFactory := func(token string) orchestrator.GitHubClient {
		opts := []github.Option{
			github.WithTimeout(time.Duration(cfg.GitHubTimeoutSec) * time.Second),
			github.WithRateLimit(cfg.GitHubRateLimitPerSec, cfg.GitHubRateLimitBurst),
			github.WithLogger(slogger),
		}
		if cfg.GitHubAPIBaseURL != "" {
			opts = append(opts, github.WithBaseURL(cfg.GitHubAPIBaseURL))
		}
		return github.NewClient(token, opts...)
	}
	orch := orchestrator.New(store, credVault, checkCatalog, clientFactory,
		orchestrator.WithLogger(slogger),
		orchestrator.WithTimeout(time.Duration(cfg.AuditTimeoutSec)*time.Second),
	)
	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueDepth, orch.Run, slogger)
	log.Printf("⚙️  Worker pool started (%d workers, queue depth %d)", cfg.WorkerCount, cfg.WorkerQueueDepth)

	// Setup HTTP router
	router := mux.NewRouter()
	handler := rest.NewHandler(store, credVault, pool.Enqueue, slogger)
	rest.SetupRoutes(router, handler)
	router.Use(recoveryMiddleware)
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.MaxBodySize(middleware.DefaultStandardMaxBodyBytes, middleware.DefaultWebhookMaxBodyBytes))
	router.Use(middleware.RateLimit())

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	handlerWithCORS := c.Handler(router)

	requestTimeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handlerWithCORS,
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("🌐 Server listening on port %d", cfg.Port)
		log.Printf("📡 API available at http://localhost:%d/api/v1", cfg.Port)
		log.Printf("📊 Metrics at http://localhost:%d/metrics", cfg.Port)
		log.Printf("❤️  Health check at http://localhost:%d/health", cfg.Port)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("")
	log.Println("🛑 Shutting down server...")

	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Let in-flight audits reach a terminal status.
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Worker pool forced to shutdown: %v", err)
	} else {
		log.Println("✅ Worker pool drained")
	}

	log.Println("✅ Server exited gracefully")
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("💥 Panic recovered: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
