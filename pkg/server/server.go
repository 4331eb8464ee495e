package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/metrics"
)

type Config struct {
	Name            string
	HTTPPort        string
	GRPCHealthPort  string // empty disables the gRPC health endpoint
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig reads the listener settings shared by every service.
func LoadConfig(name, defaultPort string) Config {
	return Config{
		Name:            name,
		HTTPPort:        GetEnv("HTTP_PORT", defaultPort),
		GRPCHealthPort:  GetEnv("GRPC_HEALTH_PORT", ""),
		ReadTimeout:     GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// NewRouter returns a chi router with the common middleware stack, any extra
// middleware, and a /health endpoint already mounted.
func NewRouter(requestTimeout time.Duration, m *metrics.ServerMetrics, extra ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(extra...)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// Run listens on the configured ports and blocks until ctx is cancelled or a
// listener fails.
func Run(ctx context.Context, cfg Config, handler http.Handler, log *slog.Logger) error {
	httpLis, err := net.Listen("tcp", ":"+cfg.HTTPPort)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}

	var grpcLis net.Listener
	if cfg.GRPCHealthPort != "" {
		grpcLis, err = net.Listen("tcp", ":"+cfg.GRPCHealthPort)
		if err != nil {
			httpLis.Close()
			return fmt.Errorf("listen grpc health: %w", err)
		}
	}

	return Serve(ctx, cfg, httpLis, grpcLis, handler, log)
}

// Serve is Run with caller-provided listeners. grpcLis may be nil.
func Serve(ctx context.Context, cfg Config, httpLis, grpcLis net.Listener, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Handler:      otelhttp.NewHandler(handler, cfg.Name),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info("http server starting", slog.String("addr", httpLis.Addr().String()))
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var (
		grpcServer *grpc.Server
		healthSrv  *health.Server
	)
	if grpcLis != nil {
		grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		healthSrv = health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthSrv)
		reflection.Register(grpcServer)
		healthSrv.SetServingStatus(cfg.Name, healthpb.HealthCheckResponse_SERVING)

		go func() {
			log.Info("grpc health server starting", slog.String("addr", grpcLis.Addr().String()))
			if err := grpcServer.Serve(grpcLis); err != nil {
				errCh <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	log.Info("shutting down server...")
	if healthSrv != nil {
		healthSrv.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	log.Info("server exited")
	return runErr
}
