package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/fulfillment-cli/internal/flow"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/logger"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/server"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/telemetry"
)

func main() {
	gateway := flag.String("gateway", server.GetEnv("GATEWAY_URL", "http://localhost:8080"), "API gateway base URL")
	timeout := flag.Duration("timeout", server.GetEnvDuration("STEP_TIMEOUT", 5*time.Second), "per-step HTTP timeout")
	userID := flag.Int64("user", 1, "user id owning the cart")
	productID := flag.Int64("product", 1, "product id to order")
	qty := flag.Int("qty", 1, "ordered quantity")
	desc := flag.String("desc", "fulfillment run", "order description")
	fee := flag.String("fee", "0", "order fee")
	amount := flag.String("amount", "0", "payment amount")
	address := flag.String("address", "", "shipping address")
	flag.Parse()

	feeDec, err := decimal.NewFromString(*fee)
	if err != nil {
		log.Fatalf("invalid -fee %q: %v", *fee, err)
	}
	amountDec, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatalf("invalid -amount %q: %v", *amount, err)
	}
	if *address == "" {
		log.Fatal("-address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "fulfillment-cli")
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}

	runner := flow.NewRunner(*gateway, *timeout, logger.NewWithWriter(os.Stderr, "fulfillment-cli", logger.ParseLevel(os.Getenv("LOG_LEVEL"))))
	res := runner.Run(ctx, flow.Request{
		UserID:          *userID,
		ProductID:       *productID,
		Quantity:        *qty,
		Description:     *desc,
		Fee:             feeDec,
		Amount:          amountDec,
		ShippingAddress: *address,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Printf("failed to write result: %v", err)
	}

	shutdownTracing(context.Background())
	if !res.OK() {
		os.Exit(1)
	}
}
