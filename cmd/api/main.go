package main

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/udhaya30012004/backend/internal/application"
	appcontracts "github.com/udhaya30012004/backend/internal/application/contracts"
	"github.com/udhaya30012004/backend/internal/config"
	domain "github.com/udhaya30012004/backend/internal/domain/contracts"
	domengine "github.com/udhaya30012004/backend/internal/domain/engine"
	"github.com/udhaya30012004/backend/internal/domain/enginefault"
	"github.com/udhaya30012004/backend/internal/infra/cache"
	mysqldb "github.com/udhaya30012004/backend/internal/infra/db/mysql"
	postgresdb "github.com/udhaya30012004/backend/internal/infra/db/postgres"
	"github.com/udhaya30012004/backend/internal/infra/engine/gemini"
	openaiclient "github.com/udhaya30012004/backend/internal/infra/engine/openai"
	"github.com/udhaya30012004/backend/internal/infra/httpserver"
	"github.com/udhaya30012004/backend/internal/infra/notify"
	minioStore "github.com/udhaya30012004/backend/internal/infra/storage"
	"github.com/udhaya30012004/backend/internal/middleware"
	"github.com/udhaya30012004/backend/internal/pkg/logger"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Log)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// connect record store
	var db *sql.DB
	var repo domain.Repository
	var faults enginefault.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			zlog.Fatal("postgres connect error", "err", err)
		}
		repo = postgresdb.NewContractRepository(db)
		faults = postgresdb.NewFaultRepository(db)
	default:
		db, err = mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			zlog.Fatal("mysql connect error", "err", err)
		}
		repo = mysqldb.NewContractRepository(db)
		faults = mysqldb.NewFaultRepository(db)
	}
	defer db.Close()

	// transient blob cache for uploaded files
	blobs, err := cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zlog.Fatal("redis init error", "err", err)
	}
	defer blobs.Close()

	// optional archive for uploaded originals
	var archive domain.ArchiveStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			zlog.Fatal("minio init error", "err", err)
		}
		archive = store
	}

	// analysis engine provider
	var engineClient domengine.Client
	var model string
	switch cfg.Engine.Provider {
	case "openai":
		model = cfg.Engine.OpenAI.Model
		engineClient = openaiclient.NewClient(cfg.Engine.OpenAI.APIKey, model)
	default:
		model = cfg.Engine.Gemini.Model
		if model == "" {
			model = "gemini-1.5-pro"
		}
		engineClient = gemini.NewClient(cfg.Engine.Gemini.APIKey, model)
	}

	// optional completion notifier
	var notifier domain.Notifier
	if cfg.Notify.Enabled {
		notifier = notify.NewResend(cfg.Notify.ResendAPIKey, cfg.Notify.From)
	}

	svc := &appcontracts.Service{
		Repo:            repo,
		Engine:          engineClient,
		Blobs:           blobs,
		Archive:         archive,
		Faults:          faults,
		Notify:          notifier,
		Clock:           application.SystemClock{},
		Log:             zlog,
		Provider:        cfg.Engine.Provider,
		Model:           model,
		AnalysisTimeout: time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
		ClassifyTimeout: time.Duration(cfg.Engine.ClassifyTimeoutSeconds) * time.Second,
	}

	// auth principals from config
	users := make(map[string]middleware.User, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users[u.APIKey] = middleware.User{ID: u.ID, Email: u.Email, Premium: u.Premium}
	}

	limiter := middleware.NewRateLimiter(30, 1)

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.Logging(zlog))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(users))
	mux.Use(limiter.Middleware)

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(svc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		zlog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", "err", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	zlog.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		zlog.Error("shutdown error", "err", err)
	}
}
