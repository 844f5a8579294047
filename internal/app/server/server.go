package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mindwell/internal/domain/account"
	"mindwell/internal/domain/audit"
	"mindwell/internal/domain/auth"
	"mindwell/internal/domain/checkin"
	"mindwell/internal/domain/consent"
	"mindwell/internal/domain/deletionflow"
	"mindwell/internal/domain/export"
	"mindwell/internal/domain/survey"
	"mindwell/internal/platform/config"
	cryptoutil "mindwell/internal/platform/crypto"
	"mindwell/internal/platform/db"
	"mindwell/internal/platform/email"
	"mindwell/internal/platform/events"
	"mindwell/internal/platform/jobs"
	"mindwell/internal/platform/metrics"
	accounthandler "mindwell/internal/transport/http/handlers/account"
	activityhandler "mindwell/internal/transport/http/handlers/activity"
	authhandler "mindwell/internal/transport/http/handlers/auth"
	checkinhandler "mindwell/internal/transport/http/handlers/checkin"
	consenthandler "mindwell/internal/transport/http/handlers/consent"
	deletionflowhandler "mindwell/internal/transport/http/handlers/deletionflow"
	exporthandler "mindwell/internal/transport/http/handlers/export"
	surveyhandler "mindwell/internal/transport/http/handlers/survey"
	"mindwell/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Router   http.Handler
	Jobs     *jobs.Service
	Events   *events.Producer
	Metrics  *metrics.Collector
	Accounts *account.Service
}

// New wires the application without listening, so tests can drive the router
// directly.
func New(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	encryption, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}

	collector := metrics.New()
	producer := events.NewProducer(cfg)
	mailer := email.New(cfg)
	auditSvc := audit.New(pool)

	accountStore := account.NewStore(pool)
	accountSvc := account.NewService(accountStore, auditSvc, producer, mailer, collector, cfg.EmailFrom)

	consentStore := consent.NewStore(pool)
	consentSvc := consent.NewService(consentStore, producer)

	checkinStore := &checkin.Store{DB: pool, Crypto: encryption}
	checkinSvc := checkin.NewService(checkinStore)

	surveyStore := &survey.Store{DB: pool}
	surveySvc := survey.NewService(surveyStore, consentSvc)

	exportStore := &export.Store{DB: pool}
	exportSvc := export.NewService(exportStore, encryption, cfg.ExportDir, accountStore, consentStore, checkinStore, surveyStore)

	jobsSvc := jobs.New(pool, cfg, accountSvc, exportSvc)

	flowManager := deletionflow.NewManager(deletionflow.NewAccountBackend(accountSvc), auditSvc)

	idempotency := middleware.NewIdempotencyStore(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if !cfg.MetricsEnabled {
			http.NotFound(w, r)
			return
		}
		writeMetrics(w, collector)
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(auth.NewStore(pool), cfg.JWTSecret).RegisterRoutes(r)
		accounthandler.NewHandler(accountSvc, idempotency).RegisterRoutes(r)
		deletionflowhandler.NewHandler(flowManager).RegisterRoutes(r)
		consenthandler.NewHandler(consentSvc).RegisterRoutes(r)
		activityhandler.NewHandler(auditSvc).RegisterRoutes(r)
		checkinhandler.NewHandler(checkinSvc).RegisterRoutes(r)
		surveyhandler.NewHandler(surveySvc).RegisterRoutes(r)
		exporthandler.NewHandler(exportSvc, jobsSvc).RegisterRoutes(r)
	})

	return &App{
		Config:   cfg,
		DB:       pool,
		Router:   router,
		Jobs:     jobsSvc,
		Events:   producer,
		Metrics:  collector,
		Accounts: accountSvc,
	}, nil
}

func Run() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	app, err := New(ctx, cfg, pool)
	if err != nil {
		log.Fatalf("wiring failed: %v", err)
	}
	defer func() { _ = app.Events.Close() }()

	app.Jobs.Start(ctx)

	log.Printf("mindwell server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func writeMetrics(w http.ResponseWriter, collector *metrics.Collector) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(collector.Snapshot())
}
