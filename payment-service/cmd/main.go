package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	paymenthttp "github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/http"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/service"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/logger"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/metrics"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/server"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/telemetry"
)

type Config struct {
	Server            server.Config
	DBPath            string
	MigrationsPath    string
	OrderServiceURL   string
	RemoteTimeout     time.Duration
	RequestTimeout    time.Duration
	EnrichConcurrency int
}

func loadConfig() *Config {
	return &Config{
		Server:            server.LoadConfig("payment-service", "8082"),
		DBPath:            server.GetEnv("DB_PATH", "./payments.db"),
		MigrationsPath:    server.GetEnv("MIGRATIONS_PATH", "./payment-service/internal/repository/migrations"),
		OrderServiceURL:   server.GetEnv("ORDER_SERVICE_URL", "http://localhost:8081"),
		RemoteTimeout:     server.GetEnvDuration("REMOTE_TIMEOUT", remote.DefaultTimeout),
		RequestTimeout:    server.GetEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		EnrichConcurrency: server.GetEnvInt("ENRICH_CONCURRENCY", 8),
	}
}

func main() {
	cfg := loadConfig()
	logr := logger.New("payment-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "payment-service")
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	repo, err := repository.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logr.Info("database migrations completed", "path", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	payments := service.NewPaymentService(repo, remote.NewClient(cfg.RemoteTimeout), cfg.OrderServiceURL, cfg.EnrichConcurrency, logr)
	handler := paymenthttp.NewPaymentsHandler(payments, cfg.RequestTimeout, logr)

	r := server.NewRouter(cfg.RequestTimeout, metrics.NewServerMetrics(reg, "payment"))
	r.Handle("/metrics", metrics.Handler(reg))
	handler.Routes(r)

	if err := server.Run(ctx, cfg.Server, r, logr); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logr.Info("payment service stopped")
}
