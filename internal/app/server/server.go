package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gestimmo/internal/domain/audit"
	"gestimmo/internal/domain/auth"
	"gestimmo/internal/domain/core"
	"gestimmo/internal/domain/finance"
	"gestimmo/internal/domain/notifications"
	"gestimmo/internal/domain/payroll"
	"gestimmo/internal/domain/property"
	"gestimmo/internal/domain/workflow"
	"gestimmo/internal/platform/config"
	"gestimmo/internal/platform/db"
	"gestimmo/internal/platform/email"
	"gestimmo/internal/platform/jobs"
	"gestimmo/internal/platform/metrics"
	"gestimmo/internal/transport/http/api"
	audithandler "gestimmo/internal/transport/http/handlers/audit"
	authhandler "gestimmo/internal/transport/http/handlers/auth"
	corehandler "gestimmo/internal/transport/http/handlers/core"
	financehandler "gestimmo/internal/transport/http/handlers/finance"
	notificationshandler "gestimmo/internal/transport/http/handlers/notifications"
	payrollhandler "gestimmo/internal/transport/http/handlers/payroll"
	propertyhandler "gestimmo/internal/transport/http/handlers/property"
	"gestimmo/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	log := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
	}

	authStore := auth.NewStore(pool)
	authService := auth.NewService(authStore)
	coreStore := core.NewStore(pool)
	payrollStore := payroll.NewStore(pool)
	financeStore := finance.NewStore(pool)
	propertyStore := property.NewStore(pool)
	notificationStore := notifications.NewStore(pool)
	auditService := audit.New(pool, log)

	notificationService := notifications.New(notificationStore, email.New(cfg), log)
	notificationService.DefaultFrom = cfg.EmailFrom

	engine := workflow.NewEngine(authStore, db.NewPoolRunner(pool), log)
	engine.Register(workflow.EntityPayrollRun, payroll.NewAdapter(payrollStore))
	engine.Register(workflow.EntityTransaction, finance.NewTransactionAdapter(financeStore))
	engine.Register(workflow.EntityInvoice, finance.NewInvoiceAdapter(financeStore))
	engine.Register(workflow.EntityEmployee, core.NewAdapter(coreStore))

	// Terminal payment stages write their financial counterpart inside the
	// same transaction as the status change.
	engine.OnEnter(workflow.EntityPayrollRun, workflow.StatusPaid, finance.PayrollPaidEffect())
	engine.OnEnter(workflow.EntityInvoice, workflow.StatusPaid, finance.InvoicePaidEffect())

	auditService.Subscribe(engine)
	notifications.NewDispatcher(notificationService, authStore, log).Subscribe(engine)

	jobs.New(pool, log).Start(ctx, cfg.MaintenanceInterval)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log, collector))
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

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

	router.With(middleware.RequirePermission(auth.PermSystemAdmin, authStore)).
		Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService, cfg.JWTSecret, log).RegisterRoutes(r)
		corehandler.NewHandler(coreStore, engine, authStore).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollStore, engine, authStore).RegisterRoutes(r)
		financehandler.NewHandler(financeStore, engine, authStore).RegisterRoutes(r)
		propertyhandler.NewHandler(propertyStore, authStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationService).RegisterRoutes(r)
		audithandler.NewHandler(auditService, authStore).RegisterRoutes(r)
	})

	log.Info().Str("addr", cfg.Addr).Msg("server listening")
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Environment == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}
