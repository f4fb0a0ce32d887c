package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Cache TTLs. Weather matches the upstream revalidation interval; place names
// change rarely and Nominatim asks clients to cache aggressively.
const (
	weatherCacheTTL = 30 * time.Minute
	geocodeCacheTTL = 24 * time.Hour
)

// getCachedOrFetch returns the cached value for key when present and decodable,
// otherwise calls fetch and stores its result. Cache failures are logged and
// never turn a successful fetch into an error; fetch errors are returned as is.
func getCachedOrFetch[T any](
	ctx context.Context,
	cache Cache,
	logger *slog.Logger,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (T, error),
) (T, error) {
	cached, err := cache.Get(ctx, key)
	if err == nil {
		var item T
		if jsonErr := json.Unmarshal([]byte(cached), &item); jsonErr == nil {
			logger.Debug("cache hit", "key", key)
			return item, nil
		} else {
			logger.Warn("invalid cache entry: unmarshal error", "key", key, "error", jsonErr)
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Warn("error reading cache", "key", key, "error", err)
	}

	item, err := fetch(ctx)
	if err != nil {
		return item, err
	}

	if cacheErr := cache.Set(ctx, key, item, ttl); cacheErr != nil {
		logger.Warn("error writing cache", "key", key, "error", cacheErr)
	} else {
		logger.Debug("set to cache", "key", key)
	}
	return item, nil
}

// coordinateKey rounds to four decimals, roughly eleven metres.
func coordinateKey(prefix string, lat, lon float64, extra ...string) string {
	key := fmt.Sprintf("%s:%.4f:%.4f", prefix, lat, lon)
	for _, e := range extra {
		key += ":" + e
	}
	return key
}
