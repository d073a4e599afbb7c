package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/constants"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

// Queue is a FIFO of pending ops per session plus the set of sessions that have any.
type Queue interface {
	Enqueue(c context.Context, op PendingOp) error
	Sessions(c context.Context, limit int64) ([]string, error)
	Peek(c context.Context, sessionID string) (PendingOp, bool, error)
	Ops(c context.Context, sessionID string) ([]PendingOp, error)
	Replace(c context.Context, op PendingOp) error
	Pop(c context.Context, sessionID string) error
	Discard(c context.Context, sessionID string) error
}

// popScript removes the head and drops the session from the index once its list is empty,
// in one step so a concurrent Enqueue cannot be orphaned.
var popScript = redis.NewScript(`
redis.call("LPOP", KEYS[1])
if redis.call("LLEN", KEYS[1]) == 0 then
	redis.call("SREM", KEYS[2], ARGV[1])
end
return 1
`)

type RedisQueue struct {
	cache *redis.Client
}

func NewRedisQueue(cache *redis.Client) *RedisQueue {
	return &RedisQueue{cache: cache}
}

func queueKey(sessionID string) string {
	return fmt.Sprintf(constants.CACHE_KEY_SYNC_QUEUE, sessionID)
}

func (q *RedisQueue) Enqueue(c context.Context, op PendingOp) error {
	c, span := otel.Tracer.Start(c, "RedisQueue Enqueue")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "RedisQueue Enqueue").
		Str(constants.KEY_SESSION_ID, op.SessionID).
		Object(constants.KEY_OP, op).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "marshaling op").Logger()
	raw, err := json.Marshal(op)
	if err != nil {
		err = fmt.Errorf("failed marshaling op with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "pushing op").Logger()
	logger.Trace().Msg("pushing op")
	_, err = q.cache.TxPipelined(c, func(pipe redis.Pipeliner) error {
		pipe.RPush(c, queueKey(op.SessionID), raw)
		pipe.SAdd(c, constants.CACHE_KEY_SYNC_SESSIONS, op.SessionID)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed pushing op with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Msg("pushed op")

	return nil
}

func (q *RedisQueue) Sessions(c context.Context, limit int64) ([]string, error) {
	c, span := otel.Tracer.Start(c, "RedisQueue Sessions")
	defer span.End()

	ids, err := q.cache.SRandMemberN(c, constants.CACHE_KEY_SYNC_SESSIONS, limit).Result()
	if err != nil {
		err = fmt.Errorf("failed listing sync sessions with error=%w", err)
		inOtel.RecordError(err, span)
		return nil, err
	}
	return ids, nil
}

func (q *RedisQueue) Peek(c context.Context, sessionID string) (PendingOp, bool, error) {
	c, span := otel.Tracer.Start(c, "RedisQueue Peek")
	defer span.End()

	raw, err := q.cache.LIndex(c, queueKey(sessionID), 0).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingOp{}, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed peeking op with error=%w", err)
		inOtel.RecordError(err, span)
		return PendingOp{}, false, err
	}
	op := PendingOp{}
	if err := json.Unmarshal(raw, &op); err != nil {
		err = fmt.Errorf("failed unmarshaling op with error=%w", err)
		inOtel.RecordError(err, span)
		return PendingOp{}, false, err
	}
	return op, true, nil
}

func (q *RedisQueue) Ops(c context.Context, sessionID string) ([]PendingOp, error) {
	c, span := otel.Tracer.Start(c, "RedisQueue Ops")
	defer span.End()

	raws, err := q.cache.LRange(c, queueKey(sessionID), 0, -1).Result()
	if err != nil {
		err = fmt.Errorf("failed listing ops with error=%w", err)
		inOtel.RecordError(err, span)
		return nil, err
	}
	ops := make([]PendingOp, 0, len(raws))
	for _, raw := range raws {
		op := PendingOp{}
		if err := json.Unmarshal([]byte(raw), &op); err != nil {
			err = fmt.Errorf("failed unmarshaling op with error=%w", err)
			inOtel.RecordError(err, span)
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Replace overwrites the head op, used to record attempts and the next retry time.
func (q *RedisQueue) Replace(c context.Context, op PendingOp) error {
	c, span := otel.Tracer.Start(c, "RedisQueue Replace")
	defer span.End()

	raw, err := json.Marshal(op)
	if err != nil {
		err = fmt.Errorf("failed marshaling op with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	if err := q.cache.LSet(c, queueKey(op.SessionID), 0, raw).Err(); err != nil {
		err = fmt.Errorf("failed replacing op with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	return nil
}

func (q *RedisQueue) Pop(c context.Context, sessionID string) error {
	c, span := otel.Tracer.Start(c, "RedisQueue Pop")
	defer span.End()

	err := popScript.Run(
		c,
		q.cache,
		[]string{queueKey(sessionID), constants.CACHE_KEY_SYNC_SESSIONS},
		sessionID,
	).Err()
	if err != nil {
		err = fmt.Errorf("failed popping op with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	return nil
}

func (q *RedisQueue) Discard(c context.Context, sessionID string) error {
	c, span := otel.Tracer.Start(c, "RedisQueue Discard")
	defer span.End()

	_, err := q.cache.TxPipelined(c, func(pipe redis.Pipeliner) error {
		pipe.Del(c, queueKey(sessionID))
		pipe.SRem(c, constants.CACHE_KEY_SYNC_SESSIONS, sessionID)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed discarding ops with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}
	return nil
}
