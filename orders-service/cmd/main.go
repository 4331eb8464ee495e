package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	ordershttp "github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/http"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/publisher"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/service"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/logger"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/metrics"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/server"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/telemetry"
)

type Config struct {
	Server         server.Config
	DB             repository.Credentials
	KafkaBrokers   []string
	RequestTimeout time.Duration
}

func loadConfig() *Config {
	var brokers []string
	if raw := server.GetEnv("KAFKA_BROKERS", ""); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return &Config{
		Server: server.LoadConfig("orders-service", "8081"),
		DB: repository.Credentials{
			Host:              server.GetEnv("DB_HOST", "localhost"),
			Port:              server.GetEnvInt("DB_PORT", 5432),
			User:              server.GetEnv("DB_USER", "postgres"),
			Password:          server.GetEnv("DB_PASSWORD", "postgres"),
			DBName:            server.GetEnv("DB_NAME", "orders"),
			MigrationsDirPath: server.GetEnv("MIGRATIONS_PATH", "./orders-service/internal/repository/migrations"),
		},
		KafkaBrokers:   brokers,
		RequestTimeout: server.GetEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
	}
}

func main() {
	cfg := loadConfig()
	logr := logger.New("orders-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "orders-service")
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logr.Info("database migrations completed")

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(repo, logr, cfg.KafkaBrokers...)
		defer poller.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
		logr.Info("outbox poller started", "brokers", cfg.KafkaBrokers, "topic", publisher.Topic)
	} else {
		logr.Warn("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orders := service.NewOrderService(repo, logr)
	handler := ordershttp.NewOrdersHandler(orders, cfg.RequestTimeout, logr)

	r := server.NewRouter(cfg.RequestTimeout, metrics.NewServerMetrics(reg, "orders"))
	r.Handle("/metrics", metrics.Handler(reg))
	handler.Routes(r)

	if err := server.Run(ctx, cfg.Server, r, logr); err != nil {
		log.Fatalf("server error: %v", err)
	}

	stop()
	wg.Wait()
	logr.Info("orders service stopped")
}
