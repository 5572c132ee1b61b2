package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"model-registry/internal/adapters/primary/http/handlers"
	"model-registry/internal/adapters/primary/http/middleware"
	"model-registry/internal/adapters/secondary/blob/cache"
	"model-registry/internal/adapters/secondary/blob/disk"
	blobs3 "model-registry/internal/adapters/secondary/blob/s3"
	"model-registry/internal/adapters/secondary/postgres"
	"model-registry/internal/config"
	"model-registry/internal/core/ports/output"
	"model-registry/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Create database pool
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("parse db config: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("create db pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("ping db: %v", err)
	}
	log.Info("database connection established")

	if err := postgres.Migrate(cfg.Database.MigrateURL()); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}
	log.Info("schema migrations applied")

	// Secondary Adapters (Output Ports)
	blobStore, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("init blob store: %v", err)
	}

	if cfg.Redis.Enabled {
		cached, err := cache.New(blobStore, cache.Config{URL: cfg.Redis.URL, TTL: cfg.Redis.TTL})
		if err != nil {
			log.Warnf("redis cache init failed (continuing without existence cache): %v", err)
		} else {
			blobStore = cached
			log.Info("redis existence cache enabled")
		}
	} else {
		log.Info("redis existence cache disabled")
	}

	artifactRepo := postgres.NewArtifactRepository(pool)
	provisioner := postgres.NewUserProvisioner(pool)

	// Core Services (Application Layer)
	registrySvc := services.NewRegistryService(artifactRepo, blobStore)
	credentialSvc := services.NewCredentialService(provisioner)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(registrySvc, credentialSvc)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/registry")
	api.Use(middleware.BasicAuth(cfg.Auth.Username, cfg.Auth.Password))
	h.RegisterRoutes(api)

	// Health check with DB ping
	router.GET("/healthz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func newBlobStore(cfg *config.Config) (ports.BlobStore, error) {
	switch cfg.Blob.Backend {
	case "disk":
		return disk.New(cfg.Blob.Root)
	case "s3":
		return blobs3.New(context.Background(), blobs3.Config{
			Endpoint:        cfg.Blob.S3.Endpoint,
			Region:          cfg.Blob.S3.Region,
			Bucket:          cfg.Blob.S3.Bucket,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}
