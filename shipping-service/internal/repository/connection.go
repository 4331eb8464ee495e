package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig carries the connection settings for the shipping database.
// Zero durations and pool sizes fall back to the defaults below.
type MongoConfig struct {
	URI                    string
	Database               string
	AppName                string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

const (
	defaultConnectTimeout         = 10 * time.Second
	defaultServerSelectionTimeout = 5 * time.Second
	defaultMaxPoolSize            = 100
)

func (c MongoConfig) clientOptions() *options.ClientOptions {
	connectTimeout := c.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	selectionTimeout := c.ServerSelectionTimeout
	if selectionTimeout <= 0 {
		selectionTimeout = defaultServerSelectionTimeout
	}
	maxPool := c.MaxPoolSize
	if maxPool == 0 {
		maxPool = defaultMaxPoolSize
	}
	minPool := min(c.MinPoolSize, maxPool)

	opts := options.Client().
		ApplyURI(c.URI).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(selectionTimeout).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(minPool)
	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	return opts
}

// ConnectMongoDB opens the client and pings the primary once, bounded by the
// connect timeout, so a bad URI fails startup instead of the first request.
func ConnectMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database name is empty")
	}
	opts := cfg.clientOptions()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, *opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(cfg.Database), nil
}
