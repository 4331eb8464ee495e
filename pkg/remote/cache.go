package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedFetcher is a cache-aside decorator for read-mostly collaborator data
// such as the product catalog. Redis problems are logged and bypassed so the
// cache can only ever make a fetch faster, never make it fail.
type CachedFetcher struct {
	next    Fetcher
	client  *redis.Client
	baseTTL time.Duration
	log     *slog.Logger
	sfg     singleflight.Group // collapses concurrent misses for one key
}

func NewCachedFetcher(next Fetcher, client *redis.Client, baseTTL time.Duration, log *slog.Logger) *CachedFetcher {
	if baseTTL <= 0 {
		baseTTL = 30 * time.Second
	}
	return &CachedFetcher{
		next:    next,
		client:  client,
		baseTTL: baseTTL,
		log:     log,
	}
}

// sharedFetchTimeout bounds a collapsed fetch, which no single caller owns.
const sharedFetchTimeout = 10 * time.Second

func (c *CachedFetcher) Fetch(ctx context.Context, baseURL, path string, target any) error {
	key := cacheKey(baseURL, path)

	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "cache get failed", slog.String("key", key), slog.Any("error", err))
		}

		var raw json.RawMessage
		if err := c.next.Fetch(ctx, baseURL, path, &raw); err != nil {
			return nil, err
		}

		jitter := time.Duration(rand.Int63n(int64(c.baseTTL/5) + 1))
		if errSet := c.client.Set(ctx, key, []byte(raw), c.baseTTL+jitter).Err(); errSet != nil {
			c.log.WarnContext(ctx, "cache set failed", slog.String("key", key), slog.Any("error", errSet))
		}
		return []byte(raw), nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}

	if err := json.Unmarshal(res.Val.([]byte), target); err != nil {
		return &FetchError{URL: key, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// Invalidate drops the cached copy of one entity.
func (c *CachedFetcher) Invalidate(ctx context.Context, baseURL, path string) error {
	if err := c.client.Del(ctx, cacheKey(baseURL, path)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(baseURL, path string) string {
	return fmt.Sprintf("remote:%s/%s", strings.TrimRight(baseURL, "/"), strings.TrimLeft(path, "/"))
}
