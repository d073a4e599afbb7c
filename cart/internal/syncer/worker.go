package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

const maxBackoff = time.Minute

// errNotInServerCart is permanent: the item an update refers to never reached the server cart.
var errNotInServerCart = errors.New("item is not in the server cart")

// CartBackend is the part of the backend client the worker replays ops against.
type CartBackend interface {
	AddCartItem(c context.Context, token string, idempotencyKey string, param backend.AddCartItem) error
	UpdateCartItem(
		c context.Context,
		token string,
		idempotencyKey string,
		itemID string,
		param backend.UpdateCartItem,
	) error
	RemoveCartItem(c context.Context, token string, idempotencyKey string, itemID string) error
	ClearCart(c context.Context, token string, idempotencyKey string) error
	Cart(c context.Context, token string) (backend.Cart, error)
}

type Worker struct {
	queue   Queue
	store   session.Store
	backend CartBackend
	limiter *rate.Limiter
	metrics *Metrics
	now     func() time.Time
	cfg     config.Sync
}

func NewWorker(
	queue Queue,
	store session.Store,
	backend CartBackend,
	metrics *Metrics,
	cfg config.Sync,
) *Worker {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Worker{
		queue:   queue,
		store:   store,
		backend: backend,
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Start drains the queue every interval until c is cancelled.
func (w *Worker) Start(c context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "Worker Start").
		Str(constants.KEY_APP_NAME, constants.APP_CART_SYNC_WORKER).
		Logger()
	logger.Info().Dur("interval", w.cfg.Interval).Msg("starting cart sync worker")

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("stopped cart sync worker")
			return
		case <-ticker.C:
			requestID := uuid.NewString()
			lg := logger.With().Str(constants.KEY_REQUEST_ID, requestID).Logger()
			tc := log.AttachRequestIDToContext(lg.WithContext(c), requestID)
			if err := w.RunOnce(tc); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error().Err(err).Msg(err.Error())
			}
		}
	}
}

// RunOnce makes one pass over the sessions that have queued ops.
func (w *Worker) RunOnce(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Worker RunOnce")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "Worker RunOnce").
		Str(constants.KEY_PROCESS, "listing sessions").
		Logger()

	sessionIDs, err := w.queue.Sessions(c, int64(w.cfg.BatchSize))
	if err != nil {
		err = fmt.Errorf("failed listing sessions with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	w.metrics.pending.Set(float64(len(sessionIDs)))
	if len(sessionIDs) == 0 {
		return nil
	}
	logger.Debug().Int("sessions", len(sessionIDs)).Msg("listed sessions with pending ops")

	for _, id := range sessionIDs {
		if c.Err() != nil {
			return c.Err()
		}
		sc := logger.With().Str(constants.KEY_SESSION_ID, id).Logger().WithContext(c)
		if err := w.drainSession(sc, id); err != nil {
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Str(constants.KEY_SESSION_ID, id).Msg(err.Error())
		}
	}
	return nil
}

// drainSession sends ops from the head of the session queue until it is empty or the head is
// waiting for its retry time. A waiting head blocks the ops behind it.
func (w *Worker) drainSession(c context.Context, sessionID string) error {
	c, span := otel.Tracer.Start(c, "Worker drainSession")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "Worker drainSession").
		Str(constants.KEY_SESSION_ID, sessionID).
		Logger()

	for {
		op, ok, err := w.queue.Peek(c, sessionID)
		if err != nil {
			return fmt.Errorf("failed peeking op with error=%w", err)
		}
		if !ok {
			return nil
		}
		lg := logger.With().Object(constants.KEY_OP, op).Logger()
		if w.now().Before(op.NextAttemptAt) {
			lg.Trace().Msg("head op waiting for retry")
			return nil
		}

		sess, err := w.store.Load(c, sessionID)
		if errors.Is(err, inErrors.ErrSessionNotFound) {
			lg.Warn().Msg("session expired, discarding pending ops")
			w.metrics.ops.WithLabelValues(resultDropped).Inc()
			return w.queue.Discard(c, sessionID)
		}
		if err != nil {
			return fmt.Errorf("failed loading session with error=%w", err)
		}
		if !sess.Authenticated() {
			lg.Warn().Msg("session is anonymous, discarding pending ops")
			w.metrics.ops.WithLabelValues(resultDropped).Inc()
			return w.queue.Discard(c, sessionID)
		}

		if err := w.limiter.Wait(c); err != nil {
			return err
		}

		lg.Debug().Msg("sending op")
		err = w.send(c, sess, op)
		switch {
		case err == nil:
			lg.Debug().Msg("sent op")
			if err := w.queue.Pop(c, sessionID); err != nil {
				return err
			}
			w.metrics.ops.WithLabelValues(resultSynced).Inc()
			if err := w.markIfSettled(c, sessionID, op.ItemID, state.SyncSynced); err != nil {
				return err
			}
		case backend.IsUnauthorized(err):
			lg.Warn().Err(err).Msg("backend rejected token, downgrading session")
			w.metrics.ops.WithLabelValues(resultUnauthorized).Inc()
			if _, err := w.store.Update(c, sessionID, func(s *session.Session) error {
				s.Downgrade()
				return nil
			}); err != nil {
				return fmt.Errorf("failed downgrading session with error=%w", err)
			}
			return w.queue.Discard(c, sessionID)
		case backend.IsRetryable(err) && op.Attempts+1 < w.cfg.MaxAttempts:
			op.Attempts++
			op.NextAttemptAt = w.now().Add(Backoff(w.cfg.BaseBackoff, op.Attempts, maxBackoff))
			lg.Info().
				Err(err).
				Int(constants.KEY_OP_ATTEMPTS, op.Attempts).
				Time("nextAttemptAt", op.NextAttemptAt).
				Msg("op failed, scheduling retry")
			w.metrics.ops.WithLabelValues(resultRetry).Inc()
			return w.queue.Replace(c, op)
		default:
			lg.Warn().
				Err(err).
				Int(constants.KEY_OP_ATTEMPTS, op.Attempts+1).
				Msg("cart change could not be saved, marking item failed")
			if err := w.queue.Pop(c, sessionID); err != nil {
				return err
			}
			w.metrics.ops.WithLabelValues(resultFailed).Inc()
			if err := w.mark(c, sessionID, op.ItemID, state.SyncFailed); err != nil {
				return err
			}
		}
	}
}

// serverItemID finds the backend cart-item id for op. Items added locally only learn it from the server cart.
func (w *Worker) serverItemID(c context.Context, sess session.Session, op PendingOp) (string, bool, error) {
	if op.ServerItemID != "" {
		return op.ServerItemID, true, nil
	}
	if item, ok := sess.State.Item(op.ItemID); ok && item.ServerID != "" {
		return item.ServerID, true, nil
	}
	cart, err := w.backend.Cart(c, sess.Token)
	if err != nil {
		return "", false, err
	}
	for _, item := range state.FromBackendCart(cart) {
		if item.ID == op.ItemID {
			return item.ServerID, item.ServerID != "", nil
		}
	}
	return "", false, nil
}

func (w *Worker) send(c context.Context, sess session.Session, op PendingOp) error {
	start := w.now()
	defer func() { w.metrics.sendDuration.Observe(w.now().Sub(start).Seconds()) }()

	token := sess.Token
	if op.Kind == KindUpdate || op.Kind == KindRemove {
		serverID, ok, err := w.serverItemID(c, sess, op)
		if err != nil {
			return err
		}
		if !ok {
			if op.Kind == KindRemove {
				return nil
			}
			return fmt.Errorf("failed resolving item=%s with error=%w", op.ItemID, errNotInServerCart)
		}
		op.ItemID = serverID
	}

	switch op.Kind {
	case KindAdd:
		return w.backend.AddCartItem(c, token, op.ID, backend.AddCartItem{
			Type:      string(op.ItemType),
			ProductID: op.ProductID,
			ServiceID: op.ServiceID,
			Quantity:  op.Quantity,
		})
	case KindUpdate:
		return w.backend.UpdateCartItem(c, token, op.ID, op.ItemID, backend.UpdateCartItem{Quantity: op.Quantity})
	case KindRemove:
		return w.backend.RemoveCartItem(c, token, op.ID, op.ItemID)
	case KindClear:
		return w.backend.ClearCart(c, token, op.ID)
	}
	return fmt.Errorf("failed sending op with unknown kind=%s", op.Kind)
}

// markIfSettled marks the item only when no later op for it is still queued.
func (w *Worker) markIfSettled(c context.Context, sessionID string, itemID string, status state.SyncStatus) error {
	if itemID == "" {
		return nil
	}
	ops, err := w.queue.Ops(c, sessionID)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if op.ItemID == itemID || op.Kind == KindClear {
			return nil
		}
	}
	return w.mark(c, sessionID, itemID, status)
}

func (w *Worker) mark(c context.Context, sessionID string, itemID string, status state.SyncStatus) error {
	if itemID == "" {
		return nil
	}
	_, err := w.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.MarkCartSync{ID: itemID, Status: status})
		return nil
	})
	if errors.Is(err, inErrors.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed marking item sync status with error=%w", err)
	}
	return nil
}
