package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Internect/internal/api/middleware"
	"Internect/internal/api/routes"
	"Internect/internal/app"
	"Internect/internal/config"
	"Internect/internal/metrics"
	"Internect/internal/telemetry"
)

const (
	serviceName    = "internect"
	serviceVersion = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer(serviceName, serviceVersion, os.Stdout)
		if err != nil {
			log.Fatal("Failed to initialize tracing:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownTracer(ctx)
		}()
		log.Println("Tracing enabled (stdout exporter)")
	}

	m := metrics.NewMetrics()
	services := app.New(cfg, m)

	log.Printf("PLC directory: %s", cfg.PLCDirectoryURL)
	log.Printf("AppView: %s (handle resolution: %s)", cfg.AppViewURL, cfg.HandleResolution)
	if cfg.AllowPrivateDIDWeb {
		log.Println("WARNING: private addresses allowed for did:web and PDS requests")
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.Metrics(m))
	r.Use(routes.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Rate limiting applies to lookups only; each one fans out upstream
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, 1*time.Minute, cfg.TrustProxyHeaders)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		routes.RegisterLookupRoutes(r, services.Lookup)
		routes.RegisterRepoRoutes(r, services.Repos)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Internect lookup service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
