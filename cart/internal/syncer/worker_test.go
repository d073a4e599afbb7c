package syncer

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/session"
)

type memoryQueue struct {
	mu  sync.Mutex
	ops map[string][]PendingOp
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{ops: map[string][]PendingOp{}}
}

func (q *memoryQueue) Enqueue(c context.Context, op PendingOp) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops[op.SessionID] = append(q.ops[op.SessionID], op)
	return nil
}

func (q *memoryQueue) Sessions(c context.Context, limit int64) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := []string{}
	for id, ops := range q.ops {
		if len(ops) > 0 && int64(len(ids)) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (q *memoryQueue) Peek(c context.Context, sessionID string) (PendingOp, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops[sessionID]
	if len(ops) == 0 {
		return PendingOp{}, false, nil
	}
	return ops[0], true, nil
}

func (q *memoryQueue) Ops(c context.Context, sessionID string) ([]PendingOp, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PendingOp{}, q.ops[sessionID]...), nil
}

func (q *memoryQueue) Replace(c context.Context, op PendingOp) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops[op.SessionID][0] = op
	return nil
}

func (q *memoryQueue) Pop(c context.Context, sessionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops[sessionID]) > 0 {
		q.ops[sessionID] = q.ops[sessionID][1:]
	}
	if len(q.ops[sessionID]) == 0 {
		delete(q.ops, sessionID)
	}
	return nil
}

func (q *memoryQueue) Discard(c context.Context, sessionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.ops, sessionID)
	return nil
}

func (q *memoryQueue) len(sessionID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops[sessionID])
}

type call struct {
	kind           Kind
	itemID         string
	idempotencyKey string
	token          string
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []call
	errs  []error
	cart  backend.Cart
}

func (f *fakeBackend) next(k Kind, token, key, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: k, itemID: itemID, idempotencyKey: key, token: token})
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeBackend) AddCartItem(c context.Context, token, key string, param backend.AddCartItem) error {
	return f.next(KindAdd, token, key, param.ProductID+param.ServiceID)
}

func (f *fakeBackend) UpdateCartItem(c context.Context, token, key, itemID string, param backend.UpdateCartItem) error {
	return f.next(KindUpdate, token, key, itemID)
}

func (f *fakeBackend) RemoveCartItem(c context.Context, token, key, itemID string) error {
	return f.next(KindRemove, token, key, itemID)
}

func (f *fakeBackend) ClearCart(c context.Context, token, key string) error {
	return f.next(KindClear, token, key, "")
}

func (f *fakeBackend) Cart(c context.Context, token string) (backend.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart, nil
}

type fixture struct {
	worker  *Worker
	queue   *memoryQueue
	store   *session.MemoryStore
	backend *fakeBackend
	session session.Session
	now     time.Time
}

func newFixture(t *testing.T, errs ...error) *fixture {
	t.Helper()
	f := &fixture{
		queue: newMemoryQueue(),
		store: session.NewMemoryStore(),
		backend: &fakeBackend{errs: errs, cart: backend.Cart{Items: []backend.CartItem{
			{ID: "ci-1", Type: "product", ProductID: "p1", Quantity: 1},
			{ID: "ci-2", Type: "product", ProductID: "p2", Quantity: 1},
		}}},
		now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	f.worker = NewWorker(f.queue, f.store, f.backend, nil, config.Sync{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		BatchSize:   10,
	})
	f.worker.now = func() time.Time { return f.now }

	f.session = session.New(f.now)
	f.session.Login("tok", state.SetUser{User: backend.User{ID: "u1"}})
	f.session.Dispatch(state.AddToCart{Item: state.LineItem{
		ID:         "p1",
		Type:       state.ItemProduct,
		ProductID:  "p1",
		Price:      decimal.NewFromInt(100),
		SyncStatus: state.SyncPending,
	}})
	require.NoError(t, f.store.Save(context.Background(), f.session))
	return f
}

func (f *fixture) item(t *testing.T, id string) state.LineItem {
	t.Helper()
	s, err := f.store.Load(context.Background(), f.session.ID)
	require.NoError(t, err)
	it, ok := s.State.Item(id)
	require.True(t, ok)
	return it
}

func TestWorkerMarksSyncedOnSuccess(t *testing.T) {
	f := newFixture(t)
	op := AddOp(f.session.ID, f.session.State.Cart[0], f.now)
	require.NoError(t, f.queue.Enqueue(context.Background(), op))

	require.NoError(t, f.worker.RunOnce(context.Background()))

	require.Len(t, f.backend.calls, 1)
	assert.Equal(t, op.ID, f.backend.calls[0].idempotencyKey)
	assert.Equal(t, "tok", f.backend.calls[0].token)
	assert.Equal(t, 0, f.queue.len(f.session.ID))
	assert.Equal(t, state.SyncSynced, f.item(t, "p1").SyncStatus)
}

func TestWorkerKeepsOrderAndPendingUntilLastOp(t *testing.T) {
	f := newFixture(t, nil, &backend.Error{Status: http.StatusServiceUnavailable, Message: "down"})
	c := context.Background()
	require.NoError(t, f.queue.Enqueue(c, AddOp(f.session.ID, f.session.State.Cart[0], f.now)))
	require.NoError(t, f.queue.Enqueue(c, UpdateOp(f.session.ID, f.session.State.Cart[0], 3, f.now)))
	require.NoError(t, f.queue.Enqueue(c, RemoveOp(f.session.ID, state.LineItem{ID: "p2", Type: state.ItemProduct}, f.now)))

	require.NoError(t, f.worker.RunOnce(c))

	require.Len(t, f.backend.calls, 2)
	assert.Equal(t, KindAdd, f.backend.calls[0].kind)
	assert.Equal(t, KindUpdate, f.backend.calls[1].kind)
	assert.Equal(t, "ci-1", f.backend.calls[1].itemID, "update goes to the server cart-item id")
	assert.Equal(t, 2, f.queue.len(f.session.ID), "retrying head blocks later ops")
	assert.Equal(t, state.SyncPending, f.item(t, "p1").SyncStatus)

	head, ok, err := f.queue.Peek(c, f.session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, head.Attempts)
	assert.Equal(t, f.now.Add(time.Second), head.NextAttemptAt)

	require.NoError(t, f.worker.RunOnce(c))
	assert.Len(t, f.backend.calls, 2, "head not due yet")

	f.now = f.now.Add(time.Second)
	require.NoError(t, f.worker.RunOnce(c))
	require.Len(t, f.backend.calls, 4)
	assert.Equal(t, KindUpdate, f.backend.calls[2].kind)
	assert.Equal(t, head.ID, f.backend.calls[2].idempotencyKey, "retry reuses idempotency key")
	assert.Equal(t, KindRemove, f.backend.calls[3].kind)
	assert.Equal(t, "ci-2", f.backend.calls[3].itemID)
	assert.Equal(t, 0, f.queue.len(f.session.ID))
	assert.Equal(t, state.SyncSynced, f.item(t, "p1").SyncStatus)
}

func TestWorkerMarksFailedAfterMaxAttempts(t *testing.T) {
	unavailable := &backend.UnavailableError{Cause: context.DeadlineExceeded}
	f := newFixture(t, unavailable, unavailable, unavailable)
	c := context.Background()
	require.NoError(t, f.queue.Enqueue(c, AddOp(f.session.ID, f.session.State.Cart[0], f.now)))

	for i := 0; i < 3; i++ {
		require.NoError(t, f.worker.RunOnce(c))
		f.now = f.now.Add(time.Hour)
	}

	assert.Len(t, f.backend.calls, 3)
	assert.Equal(t, 0, f.queue.len(f.session.ID))
	assert.Equal(t, state.SyncFailed, f.item(t, "p1").SyncStatus)

	s, err := f.store.Load(c, f.session.ID)
	require.NoError(t, err)
	assert.True(t, s.State.HasSyncFailures())
	assert.Equal(t, 1, s.State.CartCount, "failed change is kept locally")
}

func TestWorkerMarksFailedOnPermanentError(t *testing.T) {
	f := newFixture(t, &backend.Error{Status: http.StatusBadRequest, Message: "out of stock"})
	c := context.Background()
	require.NoError(t, f.queue.Enqueue(c, AddOp(f.session.ID, f.session.State.Cart[0], f.now)))

	require.NoError(t, f.worker.RunOnce(c))

	assert.Len(t, f.backend.calls, 1)
	assert.Equal(t, state.SyncFailed, f.item(t, "p1").SyncStatus)
}

func TestWorkerDowngradesOnUnauthorized(t *testing.T) {
	f := newFixture(t, &backend.Error{Status: http.StatusUnauthorized, Message: "expired"})
	c := context.Background()
	require.NoError(t, f.queue.Enqueue(c, AddOp(f.session.ID, f.session.State.Cart[0], f.now)))
	require.NoError(t, f.queue.Enqueue(c, RemoveOp(f.session.ID, f.session.State.Cart[0], f.now)))

	require.NoError(t, f.worker.RunOnce(c))

	assert.Len(t, f.backend.calls, 1)
	assert.Equal(t, 0, f.queue.len(f.session.ID))
	s, err := f.store.Load(c, f.session.ID)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.State.User)
	assert.Equal(t, 1, s.State.CartCount)
}

func TestWorkerDropsOpsOfMissingOrAnonymousSessions(t *testing.T) {
	f := newFixture(t)
	c := context.Background()
	require.NoError(t, f.queue.Enqueue(c, ClearOp("gone", f.now)))

	anon := session.New(f.now)
	require.NoError(t, f.store.Save(c, anon))
	require.NoError(t, f.queue.Enqueue(c, ClearOp(anon.ID, f.now)))

	require.NoError(t, f.worker.RunOnce(c))

	assert.Empty(t, f.backend.calls)
	assert.Equal(t, 0, f.queue.len("gone"))
	assert.Equal(t, 0, f.queue.len(anon.ID))
}

func TestWorkerResolvesServerItemIDs(t *testing.T) {
	f := newFixture(t)
	c := context.Background()
	known := state.LineItem{ID: "p9", ServerID: "ci-9", Type: state.ItemProduct, ProductID: "p9"}
	require.NoError(t, f.queue.Enqueue(c, RemoveOp(f.session.ID, known, f.now)))
	require.NoError(t, f.queue.Enqueue(c, RemoveOp(f.session.ID, state.LineItem{ID: "p7"}, f.now)))
	require.NoError(t, f.queue.Enqueue(c, UpdateOp(f.session.ID, state.LineItem{ID: "p8"}, 2, f.now)))

	require.NoError(t, f.worker.RunOnce(c))

	require.Len(t, f.backend.calls, 1, "a remove of an item the server never had is not sent")
	assert.Equal(t, "ci-9", f.backend.calls[0].itemID)
	assert.Equal(t, 0, f.queue.len(f.session.ID))
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		expected time.Duration
	}{
		{attempts: 0, expected: time.Second},
		{attempts: 1, expected: time.Second},
		{attempts: 2, expected: 2 * time.Second},
		{attempts: 4, expected: 8 * time.Second},
		{attempts: 10, expected: time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Backoff(time.Second, tt.attempts, time.Minute))
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.worker.cfg.Interval = 10 * time.Millisecond
	c, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go f.worker.Start(c, &wg)
	cancel()
	wg.Wait()
}
