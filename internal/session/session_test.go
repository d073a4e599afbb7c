package session

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/backend"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestDowngradeKeepsCart(t *testing.T) {
	s := New(time.Now())
	s.Login("tok", state.SetUser{User: backend.User{ID: "u1", Role: "admin"}})
	s.Dispatch(state.AddToCart{Item: state.LineItem{ID: "p1", Price: decimal.NewFromInt(3)}})
	assert.True(t, s.Authenticated())
	assert.True(t, s.IsAdmin("admin"))

	s.Downgrade()
	assert.False(t, s.Authenticated())
	assert.False(t, s.IsAdmin("admin"))
	assert.Nil(t, s.State.User)
	assert.Equal(t, 1, s.State.CartCount)
}

func TestLogoutClearsState(t *testing.T) {
	s := New(time.Now())
	s.Login("tok", state.SetUser{User: backend.User{ID: "u1"}})
	s.Dispatch(
		state.AddToCart{Item: state.LineItem{ID: "p1", Price: decimal.NewFromInt(3)}},
		state.AddToWishlist{Entry: state.WishlistEntry{ID: "w1"}},
		state.SetSearchQuery{Query: "sofa"},
	)
	s.BookingID = "b1"

	s.Logout()
	assert.False(t, s.Authenticated())
	assert.Equal(t, 0, s.State.CartCount)
	assert.Empty(t, s.State.Wishlist)
	assert.Empty(t, s.State.SearchQuery)
	assert.Empty(t, s.BookingID)
}

func TestContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, inErrors.ErrSessionMissing)

	s := New(time.Now())
	got, err := FromContext(AttachToContext(context.Background(), s))
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	c := context.Background()
	s := New(time.Now())
	require.NoError(t, store.Save(c, s))

	updated, err := store.Update(c, s.ID, func(s *Session) error {
		s.Dispatch(state.AddToCart{Item: state.LineItem{ID: "p1", Price: decimal.NewFromInt(2)}})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.State.CartCount)

	loaded, err := store.Load(c, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.State.CartCount)

	require.NoError(t, store.Delete(c, s.ID))
	_, err = store.Load(c, s.ID)
	assert.ErrorIs(t, err, inErrors.ErrSessionNotFound)
}

func TestRotate(t *testing.T) {
	store := NewMemoryStore()
	s := New(time.Now())
	s.Dispatch(state.AddToCart{Item: state.LineItem{ID: "p1", Price: decimal.NewFromInt(3)}})
	require.NoError(t, store.Save(context.Background(), s))

	rotated, err := Rotate(context.Background(), store, s.ID, func(sess *Session) error {
		sess.Login("tok")
		return nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, rotated.ID)
	assert.Equal(t, "tok", rotated.Token)

	_, err = store.Load(context.Background(), s.ID)
	assert.ErrorIs(t, err, inErrors.ErrSessionNotFound)
	loaded, err := store.Load(context.Background(), rotated.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.State.CartCount)

	_, err = Rotate(context.Background(), store, "gone", func(sess *Session) error { return nil })
	assert.ErrorIs(t, err, inErrors.ErrSessionNotFound)
}
