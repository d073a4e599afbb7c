package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/otel"
)

const maxUpdateRetries = 10

type RedisStore struct {
	cache *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewRedisStore(cache *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl, now: time.Now}
}

func key(id string) string {
	return fmt.Sprintf(constants.CACHE_KEY_SESSION, id)
}

func decode(raw []byte) (Session, error) {
	s := Session{}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("failed unmarshaling session with error=%w", err)
	}
	if s.State.Cart == nil {
		s.State.Cart = []state.LineItem{}
	}
	if s.State.Wishlist == nil {
		s.State.Wishlist = []state.WishlistEntry{}
	}
	return s, nil
}

func (r *RedisStore) Load(c context.Context, id string) (Session, error) {
	c, span := otel.Tracer.Start(c, "RedisStore Load")
	defer span.End()

	cacheKey := key(id)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "RedisStore Load").
		Str(constants.KEY_SESSION_ID, id).
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding session in cache").Logger()
	logger.Trace().Msg("finding session in cache")
	raw, err := r.cache.Get(c, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		err = fmt.Errorf("failed finding session with error=%w", inErrors.ErrSessionNotFound)
		logger.Debug().Err(err).Msg(err.Error())
		return Session{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed finding session in cache with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, err
	}
	logger.Trace().Msg("found session in cache")

	logger = logger.With().Str(constants.KEY_PROCESS, "unmarshaling session").Logger()
	s, err := decode(raw)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Session{}, err
	}
	logger.Trace().Msg("unmarshaled session")

	return s, nil
}

func (r *RedisStore) Save(c context.Context, s Session) error {
	c, span := otel.Tracer.Start(c, "RedisStore Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "RedisStore Save").
		Str(constants.KEY_SESSION_ID, s.ID).
		Str(constants.KEY_PROCESS, "inserting session in cache").
		Logger()

	s.UpdatedAt = r.now()
	raw, err := json.Marshal(s)
	if err != nil {
		err = fmt.Errorf("failed marshaling session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger.Trace().Msg("inserting session in cache")
	if err := r.cache.Set(c, key(s.ID), raw, r.ttl).Err(); err != nil {
		err = fmt.Errorf("failed inserting session in cache with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("inserted session in cache")

	return nil
}

// Update reads the session under WATCH, applies fn and writes it back in a MULTI. A concurrent write to the
// same key aborts the transaction and fn is applied again to the fresh value.
func (r *RedisStore) Update(
	c context.Context,
	id string,
	fn func(s *Session) error,
) (Session, error) {
	c, span := otel.Tracer.Start(c, "RedisStore Update")
	defer span.End()

	cacheKey := key(id)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "RedisStore Update").
		Str(constants.KEY_SESSION_ID, id).
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Logger()

	var updated Session
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(c, cacheKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return inErrors.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		s, err := decode(raw)
		if err != nil {
			return err
		}
		if err := fn(&s); err != nil {
			return err
		}
		s.UpdatedAt = r.now()
		out, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed marshaling session with error=%w", err)
		}
		_, err = tx.TxPipelined(c, func(pipe redis.Pipeliner) error {
			pipe.Set(c, cacheKey, out, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = s
		return nil
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "updating session").Logger()
	for attempt := 1; attempt <= maxUpdateRetries; attempt++ {
		attemptLogger := logger.With().Int(constants.KEY_OP_ATTEMPTS, attempt).Logger()
		attemptLogger.Trace().Msg("updating session")
		err := r.cache.Watch(c, txf, cacheKey)
		if errors.Is(err, redis.TxFailedErr) {
			attemptLogger.Debug().Msg("session changed concurrently, retrying")
			continue
		}
		if err != nil {
			err = fmt.Errorf("failed updating session with error=%w", err)
			otel.RecordError(err, span)
			attemptLogger.Debug().Err(err).Msg(err.Error())
			return Session{}, err
		}
		attemptLogger.Trace().Msg("updated session")
		return updated, nil
	}

	err := fmt.Errorf("failed updating session after %d attempts with error=%w", maxUpdateRetries, redis.TxFailedErr)
	otel.RecordError(err, span)
	logger.Error().Err(err).Msg(err.Error())
	return Session{}, err
}

func (r *RedisStore) Delete(c context.Context, id string) error {
	c, span := otel.Tracer.Start(c, "RedisStore Delete")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "RedisStore Delete").
		Str(constants.KEY_SESSION_ID, id).
		Str(constants.KEY_PROCESS, "deleting session in cache").
		Logger()

	if err := r.cache.Del(c, key(id)).Err(); err != nil {
		err = fmt.Errorf("failed deleting session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("deleted session in cache")

	return nil
}
