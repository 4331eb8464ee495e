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
	"github.com/redis/go-redis/v9"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/logger"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/metrics"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/server"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/telemetry"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/consumer"
	shippinghttp "github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/http"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/service"
)

type Config struct {
	Server            server.Config
	Mongo             repository.MongoConfig
	ProductServiceURL string
	OrderServiceURL   string
	RedisAddr         string
	RedisPassword     string
	ProductCacheTTL   time.Duration
	KafkaBrokers      []string
	RemoteTimeout     time.Duration
	RequestTimeout    time.Duration
	EnrichConcurrency int
}

func loadConfig() *Config {
	var brokers []string
	if raw := server.GetEnv("KAFKA_BROKERS", ""); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	return &Config{
		Server:            server.LoadConfig("shipping-service", "8083"),
		ProductServiceURL: server.GetEnv("PRODUCT_SERVICE_URL", "http://localhost:8084"),
		OrderServiceURL:   server.GetEnv("ORDER_SERVICE_URL", "http://localhost:8081"),
		RedisAddr:         server.GetEnv("REDIS_ADDR", ""),
		RedisPassword:     server.GetEnv("REDIS_PASSWORD", ""),
		ProductCacheTTL:   server.GetEnvDuration("PRODUCT_CACHE_TTL", 5*time.Minute),
		KafkaBrokers:      brokers,
		RemoteTimeout:     server.GetEnvDuration("REMOTE_TIMEOUT", remote.DefaultTimeout),
		RequestTimeout:    server.GetEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		EnrichConcurrency: server.GetEnvInt("ENRICH_CONCURRENCY", 8),
		Mongo: repository.MongoConfig{
			URI:                    server.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:               server.GetEnv("MONGO_DB", "shipping"),
			AppName:                "shipping-service",
			ConnectTimeout:         server.GetEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			ServerSelectionTimeout: server.GetEnvDuration("MONGO_SERVER_SELECTION_TIMEOUT", 5*time.Second),
			MaxPoolSize:            uint64(max(server.GetEnvInt("MONGO_MAX_POOL_SIZE", 100), 1)),
			MinPoolSize:            uint64(max(server.GetEnvInt("MONGO_MIN_POOL_SIZE", 10), 0)),
		},
	}
}

func main() {
	cfg := loadConfig()
	logr := logger.New("shipping-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "shipping-service")
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := repository.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Client().Disconnect(context.Background())

	itemRepo := repository.NewOrderItemRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	if err := repository.CreateIndexes(ctx, itemRepo, shipmentRepo); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	client := remote.NewClient(cfg.RemoteTimeout)
	var products remote.Fetcher = client
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logr.Warn("redis ping failed, product cache will fall through", "addr", cfg.RedisAddr, "error", err)
		}
		products = remote.NewCachedFetcher(client, redisClient, cfg.ProductCacheTTL, logr)
		logr.Info("product cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ProductCacheTTL)
	}

	enricher := &service.Enricher{
		Products:   products,
		ProductURL: cfg.ProductServiceURL,
		Orders:     client,
		OrderURL:   cfg.OrderServiceURL,
		Log:        logr,
	}
	items := service.NewOrderItemService(itemRepo, enricher, cfg.EnrichConcurrency, logr)
	shipments := service.NewShipmentService(shipmentRepo, enricher, cfg.EnrichConcurrency, logr)

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		events := consumer.NewOrderEventsConsumer(shipments, items, logr, cfg.KafkaBrokers...)
		defer events.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			events.Run(ctx)
		}()
		logr.Info("order events consumer started", "brokers", cfg.KafkaBrokers, "topic", consumer.Topic)
	} else {
		logr.Warn("KAFKA_BROKERS not set, order lifecycle events are ignored")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := server.NewRouter(cfg.RequestTimeout, metrics.NewServerMetrics(reg, "shipping"))
	r.Handle("/metrics", metrics.Handler(reg))
	shippinghttp.NewOrderItemsHandler(items, cfg.RequestTimeout, logr).Routes(r)
	shippinghttp.NewShipmentsHandler(shipments, cfg.RequestTimeout, logr).Routes(r)

	if err := server.Run(ctx, cfg.Server, r, logr); err != nil {
		log.Fatalf("server error: %v", err)
	}

	stop()
	wg.Wait()
	logr.Info("shipping service stopped")
}
