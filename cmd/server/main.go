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

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/polisgate/polisgate/internal/handlers"
	"github.com/polisgate/polisgate/internal/infrastructure/cache"
	"github.com/polisgate/polisgate/internal/infrastructure/config"
	"github.com/polisgate/polisgate/internal/infrastructure/database"
	"github.com/polisgate/polisgate/internal/infrastructure/metrics"
	pgrepo "github.com/polisgate/polisgate/internal/repositories/postgres"
	"github.com/polisgate/polisgate/internal/services/audit"
	"github.com/polisgate/polisgate/internal/services/rbac"
)

const defaultEnv = "dev"

func main() {
	// Get environment from ENV variable or use default
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	// Initialize configuration
	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(&cfg.Log)

	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	logger.Infof("Connected to database: %s@%s:%d/%s",
		cfg.Database.User,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database)

	// Initialize repositories
	roleRepo := pgrepo.NewPostgresRoleRepository(pg.DB)
	permissionRepo := pgrepo.NewPostgresPermissionRepository(pg.DB)
	assignmentRepo := pgrepo.NewPostgresAssignmentRepository(pg.DB)
	authorityRepo := pgrepo.NewPostgresAuthorityRepository(pg.DB)

	// Audit log: bounded in-memory buffer backed by the configured
	// durable sink. Retention only runs when there is a purgeable sink.
	auditLog, retention, err := buildAuditLog(cfg, pg, logger)
	if err != nil {
		logger.Fatalf("Failed to set up audit log: %v", err)
	}
	if retention != nil {
		if err := retention.Start(cfg.Audit.RetentionSchedule); err != nil {
			logger.Fatalf("Failed to start audit retention: %v", err)
		}
		defer retention.Stop()
	}

	m := metrics.New()
	auditLog.SetEvictionObserver(m.ObserveAuditEviction)

	// Initialize services
	var chains *cache.ChainCache
	if cfg.Cache.Enabled {
		chains = cache.NewChainCache(cfg.Cache.Size, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
		chains.SetObserver(m.ObserveChainCache)
	}
	registry := rbac.NewRoleService(roleRepo, permissionRepo, assignmentRepo, chains, logger)
	assignments := rbac.NewAssignmentService(assignmentRepo, permissionRepo, registry, logger)

	celEngine, err := rbac.NewCELEngine()
	if err != nil {
		logger.Fatalf("Failed to create CEL engine: %v", err)
	}
	conditions := rbac.NewConditionEvaluator(celEngine, logger)
	scopes := rbac.NewScopeResolver(nil)
	overlay := rbac.NewDomainValidator(authorityRepo, logger)

	engine := rbac.NewEngine(
		assignments,
		conditions,
		scopes,
		overlay,
		auditLog,
		logger,
		rbac.WithMetrics(m),
	)

	// Initialize handlers
	router := handlers.NewRouter(
		handlers.NewEvaluateHandler(engine),
		handlers.NewRoleHandler(registry, assignments),
		handlers.NewPermissionHandler(permissionRepo, celEngine),
		handlers.NewAuditHandler(auditLog),
		pg.HealthCheck,
		logger,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: promhttp.Handler(),
	}

	// Start servers in goroutines
	serverErrors := make(chan error, 2)
	go func() {
		logger.Infof("API server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("API server error: %w", err)
		}
	}()
	go func() {
		logger.Infof("Metrics server listening on %s", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		logger.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
		logger.Info("Initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Forcing API server stop: %v", err)
			server.Close()
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			metricsServer.Close()
		}

		if err := pg.Close(); err != nil {
			logger.Errorf("Error closing database connection: %v", err)
		}

		logger.Info("Shutdown complete")
	}
}

func newLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// buildAuditLog wires the in-memory audit buffer to the sink named in
// AUDIT_BACKEND. The retention job is non-nil only for purgeable sinks.
func buildAuditLog(cfg *config.Config, pg *database.Postgres, logger *logrus.Logger) (*audit.MemoryLog, *audit.Retention, error) {
	maxAge := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour

	switch cfg.Audit.Backend {
	case "postgres":
		sink, err := audit.NewPostgresSink(pg.DB)
		if err != nil {
			return nil, nil, err
		}
		retention := audit.NewRetention(sink, maxAge, logger)
		return audit.NewMemoryLog(cfg.Audit.MaxEntries, sink, logger), retention, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sink, err := audit.NewRedisSink(client, cfg.Redis.AuditKey)
		if err != nil {
			return nil, nil, err
		}
		return audit.NewMemoryLog(cfg.Audit.MaxEntries, sink, logger), nil, nil

	case "none", "":
		return audit.NewMemoryLog(cfg.Audit.MaxEntries, nil, logger), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown audit backend: %q", cfg.Audit.Backend)
	}
}
