package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"isolationd/internal/isolation/handler"
	isolationmetrics "isolationd/internal/isolation/metrics"
	"isolationd/internal/isolation/service"
	"isolationd/internal/platform/config"
	"isolationd/internal/platform/httpserver"
	"isolationd/internal/platform/logger"
	"isolationd/internal/platform/metrics"
	"isolationd/pkg/platform/httputil"
	"isolationd/pkg/platform/middleware/request"
	"isolationd/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and runs the
// background loops until a signal arrives. Business logic lives in
// internal/isolation.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("isolationd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	platformMetrics := metrics.New(reg)
	isolationMetrics := isolationmetrics.New(reg)

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	codec, err := newCodec(cfg.Storage, log)
	if err != nil {
		return err
	}

	policy, err := newPolicyCache(ctx, cfg.Policy, backend.Backend, log)
	if err != nil {
		return err
	}
	policy.Restore(ctx)

	sinks, err := newSinks(ctx, cfg.Kafka, isolationMetrics, log)
	if err != nil {
		return err
	}
	defer sinks.close()

	manager := service.NewManager(backend.Backend,
		service.WithManagerLogger(log),
		service.WithManagerCodec(codec),
		service.WithManagerConfiguration(policy),
		service.WithManagerLocation(cfg.Server.Timezone),
		service.WithManagerSignposter(sinks.signposter),
		service.WithManagerNotifier(sinks.notifier),
		service.WithManagerMetrics(isolationMetrics),
		service.WithTrackedReporter(platformMetrics.SetSubjectsTracked),
		service.WithWatchInterval(cfg.Watch.PollInterval),
	)
	loaded, err := manager.Load(ctx)
	if err != nil {
		log.WarnContext(ctx, "some isolation records failed to load", "error", err)
	}
	log.InfoContext(ctx, "isolation records loaded", "count", loaded, "driver", cfg.Storage.Driver)

	router := chi.NewRouter()
	router.Use(request.RequestID)
	router.Use(requesttime.Middleware)
	router.Use(request.Logger(log))
	router.Use(platformMetrics.Middleware)
	router.Handle("/metrics", metrics.Handler(reg))
	router.Get("/healthz", healthHandler(backend, sinks))
	handler.New(manager, log, cfg.Server.Timezone).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)
	// Event streams stay open; the write deadline would cut them off.
	srv.WriteTimeout = 0

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting isolationd", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return policy.Run(gctx)
	})
	g.Go(func() error {
		if err := manager.Run(gctx, cfg.Watch.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func healthHandler(backend *backend, sinks *sinks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{"storage": "ok"}
		code := http.StatusOK
		if err := backend.health(ctx); err != nil {
			status["storage"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if sinks.health != nil {
			status["kafka"] = "ok"
			if err := sinks.health(ctx); err != nil {
				status["kafka"] = err.Error()
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
