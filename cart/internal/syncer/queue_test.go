package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Alturino/storefront/cart/pkg/state"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	c := context.Background()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}
	redisClient := redis.NewClient(redisOpt)
	t.Cleanup(func() { redisClient.Close() })
	return redisClient
}

func TestRedisQueue(t *testing.T) {
	c := context.Background()
	queue := NewRedisQueue(setupRedis(t))
	now := time.Now().UTC().Truncate(time.Second)

	item := state.LineItem{ID: "p1", Type: state.ItemProduct, ProductID: "p1"}
	first := AddOp("s1", item, now)
	second := UpdateOp("s1", item, 3, now)
	require.NoError(t, queue.Enqueue(c, first))
	require.NoError(t, queue.Enqueue(c, second))
	require.NoError(t, queue.Enqueue(c, ClearOp("s2", now)))

	sessions, err := queue.Sessions(c, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, sessions)

	head, ok, err := queue.Peek(c, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, head.ID)

	head.Attempts = 2
	head.NextAttemptAt = now.Add(time.Minute)
	require.NoError(t, queue.Replace(c, head))
	ops, err := queue.Ops(c, "s1")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, 2, ops[0].Attempts)
	assert.Equal(t, second.ID, ops[1].ID)

	require.NoError(t, queue.Pop(c, "s1"))
	require.NoError(t, queue.Pop(c, "s1"))
	_, ok, err = queue.Peek(c, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	sessions, err = queue.Sessions(c, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, sessions, "drained session leaves the index")

	require.NoError(t, queue.Discard(c, "s2"))
	sessions, err = queue.Sessions(c, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
