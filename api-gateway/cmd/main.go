package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	h "github.com/SantiagoAngel007/ecommerce-microservice-backend-app/api-gateway/internal/http"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/api-gateway/internal/routes"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/circuitbreaker"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/logger"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/metrics"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/server"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/telemetry"
)

type Config struct {
	Server          server.Config
	RoutesFile      string
	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration
	Breaker         circuitbreaker.Settings
}

func loadConfig() *Config {
	breaker := circuitbreaker.DefaultSettings()
	breaker.FailureThreshold = uint32(server.GetEnvInt("CB_FAILURE_THRESHOLD", int(breaker.FailureThreshold)))
	breaker.MinRequests = uint32(server.GetEnvInt("CB_MIN_REQUESTS", int(breaker.MinRequests)))
	breaker.FailureRatio = float64(server.GetEnvInt("CB_FAILURE_RATE_PERCENT", 50)) / 100
	breaker.Interval = server.GetEnvDuration("CB_WINDOW", breaker.Interval)
	breaker.OpenTimeout = server.GetEnvDuration("CB_OPEN_TIMEOUT", breaker.OpenTimeout)

	return &Config{
		Server:          server.LoadConfig("api-gateway", "8080"),
		RoutesFile:      server.GetEnv("GATEWAY_ROUTES_FILE", ""),
		RequestTimeout:  server.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		UpstreamTimeout: server.GetEnvDuration("UPSTREAM_TIMEOUT", 5*time.Second),
		Breaker:         breaker,
	}
}

func main() {
	cfg := loadConfig()
	logr := logger.New("api-gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "api-gateway")
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	table := routes.Default(server.GetEnv)
	if cfg.RoutesFile != "" {
		table, err = routes.Load(cfg.RoutesFile)
		if err != nil {
			log.Fatalf("Failed to load routes: %v", err)
		}
	}
	if err := routes.Validate(table); err != nil {
		log.Fatalf("Invalid route table: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srvMetrics := metrics.NewServerMetrics(reg, "gateway")
	breakers := circuitbreaker.NewRegistry(cfg.Breaker, circuitbreaker.NewPrometheusObserver(reg), logr)

	upstream := otelhttp.NewTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 2 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: cfg.UpstreamTimeout,
	})

	gateway := h.NewGateway(table, breakers, upstream, h.NewFallbackHandler(logr), logr)

	r := server.NewRouter(cfg.RequestTimeout, srvMetrics, h.RequestIDMiddleware)
	r.Handle("/metrics", metrics.Handler(reg))
	if err := gateway.Mount(r); err != nil {
		log.Fatalf("Failed to mount routes: %v", err)
	}

	for _, rt := range table {
		log.Printf("route %s %v -> %s", rt.Name, rt.Prefixes, rt.Target)
	}

	if err := server.Run(ctx, cfg.Server, r, logr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
