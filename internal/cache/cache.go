// Package cache keeps public catalog lists in redis so repeated page loads skip the backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/otel"
)

// GetOrFetch returns the value cached under key, or calls fetch and caches its result for ttl.
// A cache failure never fails the call; only fetch errors are returned.
func GetOrFetch[T any](
	c context.Context,
	rdb *redis.Client,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (T, error),
) (T, error) {
	c, span := otel.Tracer.Start(c, "cache GetOrFetch")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "cache GetOrFetch").
		Str(constants.KEY_CACHE_KEY, key).
		Logger()

	var value T
	if rdb != nil {
		logger = logger.With().Str(constants.KEY_PROCESS, "finding value in cache").Logger()
		logger.Trace().Msg("finding value in cache")
		raw, err := rdb.Get(c, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &value); err == nil {
				logger.Debug().Msg("found value in cache")
				return value, nil
			}
			logger.Warn().Msg("discarding undecodable cache entry")
		case errors.Is(err, redis.Nil):
			logger.Debug().Msg("value not in cache")
		default:
			logger.Warn().Err(err).Msg("failed reading cache")
		}
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "fetching value").Logger()
	logger.Trace().Msg("fetching value")
	value, err := fetch(c)
	if err != nil {
		err = fmt.Errorf("failed fetching %s with error=%w", key, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return value, err
	}
	logger.Debug().Msg("fetched value")

	if rdb == nil {
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn().Err(err).Msg("failed encoding value for cache")
		return value, nil
	}
	if err := rdb.Set(c, key, raw, ttl).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed writing cache")
		return value, nil
	}
	logger.Trace().Msg("cached value")
	return value, nil
}

// Invalidate drops the given keys. Used after admin writes that change public lists.
func Invalidate(c context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	if err := rdb.Del(c, keys...).Err(); err != nil {
		return fmt.Errorf("failed invalidating cache with error=%w", err)
	}
	return nil
}
