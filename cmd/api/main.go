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

	"github.com/rejlers/edrs-backend/internal/application"
	appanalysis "github.com/rejlers/edrs-backend/internal/application/analysis"
	appdiagrams "github.com/rejlers/edrs-backend/internal/application/diagrams"
	appprojects "github.com/rejlers/edrs-backend/internal/application/projects"
	"github.com/rejlers/edrs-backend/internal/config"
	"github.com/rejlers/edrs-backend/internal/domain/activity"
	analysisdomain "github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/dashboard"
	diagramsdomain "github.com/rejlers/edrs-backend/internal/domain/diagrams"
	projectsdomain "github.com/rejlers/edrs-backend/internal/domain/projects"
	"github.com/rejlers/edrs-backend/internal/infra/activitylog"
	openaiclient "github.com/rejlers/edrs-backend/internal/infra/ai/openai"
	"github.com/rejlers/edrs-backend/internal/infra/db"
	mysqldb "github.com/rejlers/edrs-backend/internal/infra/db/mysql"
	postgresdb "github.com/rejlers/edrs-backend/internal/infra/db/postgres"
	"github.com/rejlers/edrs-backend/internal/infra/httpserver"
	"github.com/rejlers/edrs-backend/internal/infra/storage"
	"github.com/rejlers/edrs-backend/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect SQL, driver dipilih dari config
	var (
		projectRepo projectsdomain.Repository
		diagramRepo diagramsdomain.Repository
		resultRepo  analysisdomain.ResultRepository
		sessionRepo analysisdomain.SessionRepository
		statsRepo   dashboard.Repository
		sqlDB       *sql.DB
	)
	switch cfg.Database.Driver {
	case "mysql":
		conn, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		if err := db.RunMigrations(conn, "mysql", "internal/infra/db/migrations"); err != nil {
			log.Fatalf("migrations error: %v", err)
		}
		projectRepo = mysqldb.NewProjectRepository(conn)
		diagramRepo = mysqldb.NewDiagramRepository(conn)
		resultRepo = mysqldb.NewResultRepository(conn)
		sessionRepo = mysqldb.NewSessionRepository(conn)
		statsRepo = mysqldb.NewStatsRepository(conn)
		sqlDB = conn
	default:
		conn, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		if err := db.RunMigrations(conn, "postgres", "internal/infra/db/migrations"); err != nil {
			log.Fatalf("migrations error: %v", err)
		}
		projectRepo = postgresdb.NewProjectRepository(conn)
		diagramRepo = postgresdb.NewDiagramRepository(conn)
		resultRepo = postgresdb.NewResultRepository(conn)
		sessionRepo = postgresdb.NewSessionRepository(conn)
		statsRepo = postgresdb.NewStatsRepository(conn)
		sqlDB = conn
	}
	defer sqlDB.Close()

	// file store: minio atau local
	var fileStore diagramsdomain.FileStore
	if cfg.Storage.Backend == "minio" || cfg.Storage.Backend == "s3" {
		fileStore, err = storage.NewMinio(ctx,
			cfg.Storage.Minio.Endpoint,
			cfg.Storage.Minio.Region,
			cfg.Storage.Minio.BucketName,
			cfg.Storage.Minio.AccessKey,
			cfg.Storage.Minio.SecretKey,
			cfg.Storage.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
	} else {
		fileStore, err = storage.NewLocal(cfg.Storage.Local.Root)
		if err != nil {
			log.Fatalf("local store init error: %v", err)
		}
	}

	// activity log, optional
	var recorder activity.Recorder = activitylog.NoopRecorder{}
	if cfg.Mongo.URI != "" {
		mongoRec, err := activitylog.NewMongoRecorder(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Printf("mongo init error, activity log disabled: %v", err)
		} else {
			recorder = mongoRec
		}
	}

	// AI client, key kosong berarti fallback path
	apiKey := ""
	if cfg.OpenAI.Enabled {
		apiKey = cfg.OpenAI.APIKey
	}
	aiClient := openaiclient.NewClient(
		apiKey,
		cfg.OpenAI.Model,
		*cfg.Analysis.Temperature,
		cfg.Analysis.MaxTokens,
		time.Duration(cfg.OpenAI.TimeoutSec*float64(time.Second)),
	)

	clock := application.SystemClock{}

	projectsSvc := &appprojects.Service{
		Repo:     projectRepo,
		Activity: recorder,
		Clock:    clock,
	}
	diagramsSvc := &appdiagrams.Service{
		Repo:     diagramRepo,
		Projects: projectRepo,
		Store:    fileStore,
		Activity: recorder,
		Clock:    clock,
	}
	analysisSvc := &appanalysis.Service{
		Diagrams:  diagramRepo,
		Projects:  projectRepo,
		Sessions:  sessionRepo,
		Repo:      resultRepo,
		Store:     fileStore,
		AI:        aiClient,
		Progress:  appanalysis.NewTracker(),
		Activity:  recorder,
		Clock:     clock,
		Model:     cfg.OpenAI.Model,
		Threshold: middleware.ValidateConfidenceThreshold(cfg.Analysis.ConfidenceThreshold),
		Fallback:  cfg.Analysis.FallbackEnabled,
	}
	pool := appanalysis.NewPool(analysisSvc, cfg.Analysis.Workers, cfg.Analysis.QueueSize)
	analysisSvc.Pool = pool

	// release diagrams left in processing by a crashed run
	if err := analysisSvc.Recover(ctx); err != nil {
		log.Fatalf("session recovery error: %v", err)
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: sqlDB},
	}
	if mongoRec, ok := recorder.(*activitylog.MongoRecorder); ok {
		checkers["mongo"] = middleware.CheckerFunc(mongoRec.Ping)
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Mount("/", httpserver.NewRouter(projectsSvc, diagramsSvc, analysisSvc, statsRepo, recorder, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s driver=%s storage=%s", addr, cfg.Database.Driver, cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	pool.Stop()
}
