package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolpay/internal/domain/audit"
	"schoolpay/internal/domain/auth"
	"schoolpay/internal/domain/payroll"
	"schoolpay/internal/domain/staff"
	"schoolpay/internal/platform/config"
	"schoolpay/internal/platform/crypto"
	"schoolpay/internal/platform/db"
	"schoolpay/internal/platform/ids"
	"schoolpay/internal/platform/jobs"
	"schoolpay/internal/platform/metrics"
	audithandler "schoolpay/internal/transport/http/handlers/audit"
	authhandler "schoolpay/internal/transport/http/handlers/auth"
	payrollhandler "schoolpay/internal/transport/http/handlers/payroll"
	staffhandler "schoolpay/internal/transport/http/handlers/staff"
	"schoolpay/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Metrics *metrics.Collector
	Router  http.Handler
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// New connects to the database, prepares the schema and wires every handler.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.NewSealer(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("data encryption key: %w", err)
	}
	idGen, err := ids.New(cfg.SnowflakeNode)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("id generator: %w", err)
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	authStore := auth.NewStore(pool)
	auditStore := audit.NewStore(pool)
	staffService := staff.NewService(staff.NewStore(pool))
	payrollService := payroll.NewService(
		payroll.NewStore(pool),
		staffService,
		idGen,
		payroll.WithJobRunner(jobs.NewRunner(jobs.NewPGRunStore(pool))),
		payroll.WithMetrics(collector),
		payroll.WithArchive(cfg.PayslipArchiveDir, sealer),
		payroll.WithDocumentInfo(payroll.DocumentInfo{SchoolName: cfg.SchoolName, Currency: cfg.PayslipCurrency}),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
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

	if collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg.JWTSecret).RegisterRoutes(r)
		staffhandler.NewHandler(staffService, auditStore, authStore).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, auditStore, authStore, middleware.NewIdempotencyStore(pool)).RegisterRoutes(r)
		audithandler.NewHandler(auditStore, authStore).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Metrics: collector, Router: router}, nil
}

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, config.Load())
	stop()
	if err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. The pool is closed before it returns.
func run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown failed", "err", err)
		}
	}()

	slog.Info("schoolpay server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
