package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/backend"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/session"
)

type fakeBackend struct {
	bookings map[string]backend.Booking
	err      error
	updates  []backend.BookingStatus
}

func (f *fakeBackend) Bookings(c context.Context, token string) ([]backend.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []backend.Booking{}
	for _, b := range f.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBackend) Booking(c context.Context, token string, id string) (backend.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return backend.Booking{}, &backend.Error{Status: http.StatusNotFound, Message: "booking not found"}
	}
	return b, nil
}

func (f *fakeBackend) UpdateBookingStatus(
	c context.Context,
	token string,
	id string,
	status backend.BookingStatus,
) (backend.Booking, error) {
	f.updates = append(f.updates, status)
	b := f.bookings[id]
	b.Status = status
	f.bookings[id] = b
	return b, nil
}

func (f *fakeBackend) Orders(c context.Context, token string) ([]backend.Order, error) {
	return []backend.Order{{ID: "o1", BookingID: "b1"}}, f.err
}

func (f *fakeBackend) Order(c context.Context, token string, id string) (backend.Order, error) {
	return backend.Order{ID: id}, f.err
}

func newService(t *testing.T, fb *fakeBackend) (*BookingService, session.Store, string) {
	t.Helper()
	store := session.NewMemoryStore()
	s := session.New(time.Now())
	s.Login("tok", state.SetUser{User: backend.User{ID: "u1"}})
	require.NoError(t, store.Save(context.Background(), s))
	return NewBookingService(fb, store), store, s.ID
}

func TestCancel(t *testing.T) {
	fb := &fakeBackend{bookings: map[string]backend.Booking{
		"b1": {ID: "b1", Status: backend.BookingPending},
		"b2": {ID: "b2", Status: backend.BookingConfirmed},
	}}
	svc, _, id := newService(t, fb)

	booking, err := svc.Cancel(context.Background(), id, "b1")
	require.NoError(t, err)
	assert.Equal(t, backend.BookingCancelled, booking.Status)

	_, err = svc.Cancel(context.Background(), id, "b2")
	assert.ErrorIs(t, err, inErrors.ErrInvalidTransition)

	_, err = svc.Cancel(context.Background(), id, "b1")
	assert.ErrorIs(t, err, inErrors.ErrInvalidTransition, "already cancelled")

	assert.Equal(t, []backend.BookingStatus{backend.BookingCancelled}, fb.updates)
}

func TestBookingNotFound(t *testing.T) {
	svc, _, id := newService(t, &fakeBackend{bookings: map[string]backend.Booking{}})

	_, err := svc.Booking(context.Background(), id, "missing")
	assert.True(t, backend.IsNotFound(err))
}

func TestBookingsDowngradesOnUnauthorized(t *testing.T) {
	fb := &fakeBackend{err: &backend.Error{Status: http.StatusUnauthorized, Message: "expired"}}
	svc, store, id := newService(t, fb)

	_, err := svc.Bookings(context.Background(), id)
	require.Error(t, err)

	loaded, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
}

func TestOrders(t *testing.T) {
	svc, _, id := newService(t, &fakeBackend{})

	orders, err := svc.Orders(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "b1", orders[0].BookingID)

	order, err := svc.Order(context.Background(), id, "o9")
	require.NoError(t, err)
	assert.Equal(t, "o9", order.ID)
}
