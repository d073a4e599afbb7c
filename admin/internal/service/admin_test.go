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
	users    map[string]backend.User
	banners  map[string]backend.Banner
	bookings map[string]backend.Booking
	tokens   []string
	updates  []backend.BookingStatus
	err      error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:    map[string]backend.User{},
		banners:  map[string]backend.Banner{},
		bookings: map[string]backend.Booking{},
	}
}

func (f *fakeBackend) Users(c context.Context, token string) ([]backend.User, error) {
	f.tokens = append(f.tokens, token)
	out := []backend.User{}
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, f.err
}

func (f *fakeBackend) User(c context.Context, token string, id string) (backend.User, error) {
	u, ok := f.users[id]
	if !ok {
		return backend.User{}, &backend.Error{Status: http.StatusNotFound, Message: "user not found"}
	}
	return u, nil
}

func (f *fakeBackend) CreateUser(c context.Context, token string, param backend.UserInput) (backend.User, error) {
	u := backend.User{ID: "u1", Name: param.Name, Email: param.Email, Role: param.Role}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeBackend) UpdateUser(c context.Context, token string, id string, param backend.UserInput) (backend.User, error) {
	u := backend.User{ID: id, Name: param.Name, Email: param.Email, Role: param.Role}
	f.users[id] = u
	return u, nil
}

func (f *fakeBackend) DeleteUser(c context.Context, token string, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeBackend) Banners(c context.Context, token string) ([]backend.Banner, error) {
	out := []backend.Banner{}
	for _, b := range f.banners {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBackend) CreateBanner(c context.Context, token string, param backend.BannerInput) (backend.Banner, error) {
	b := backend.Banner{ID: "bn1", Title: param.Title, Image: param.Image, IsActive: param.IsActive}
	f.banners[b.ID] = b
	return b, nil
}

func (f *fakeBackend) UpdateBanner(
	c context.Context,
	token string,
	id string,
	param backend.BannerInput,
) (backend.Banner, error) {
	b := backend.Banner{ID: id, Title: param.Title, Image: param.Image, IsActive: param.IsActive}
	f.banners[id] = b
	return b, nil
}

func (f *fakeBackend) DeleteBanner(c context.Context, token string, id string) error {
	delete(f.banners, id)
	return nil
}

func (f *fakeBackend) Bookings(c context.Context, token string) ([]backend.Booking, error) {
	out := []backend.Booking{}
	for _, b := range f.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBackend) Booking(c context.Context, token string, id string) (backend.Booking, error) {
	return f.bookings[id], nil
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

func newService(t *testing.T, fb *fakeBackend) (*AdminService, session.Store, string) {
	t.Helper()
	store := session.NewMemoryStore()
	s := session.New(time.Now())
	s.Login("admin-token", state.SetUser{User: backend.User{ID: "a1", Role: "admin"}})
	require.NoError(t, store.Save(context.Background(), s))
	return NewAdminService(fb, store, nil), store, s.ID
}

func TestUsersCRUD(t *testing.T) {
	fb := newFakeBackend()
	svc, _, id := newService(t, fb)
	c := context.Background()

	created, err := svc.CreateUser(c, id, backend.UserInput{Name: "Asha", Email: "asha@example.com", Role: "customer"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(c, id, created.ID, backend.UserInput{Name: "Asha K", Email: "asha@example.com", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", updated.Role)

	users, err := svc.Users(c, id)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, []string{"admin-token"}, fb.tokens)

	require.NoError(t, svc.DeleteUser(c, id, created.ID))
	_, err = svc.User(c, id, created.ID)
	assert.True(t, backend.IsNotFound(err))
}

func TestUsersDowngradesOnUnauthorized(t *testing.T) {
	fb := newFakeBackend()
	fb.err = &backend.Error{Status: http.StatusUnauthorized, Message: "expired"}
	svc, store, id := newService(t, fb)

	_, err := svc.Users(context.Background(), id)
	require.Error(t, err)

	loaded, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
}

func TestBannersCRUD(t *testing.T) {
	fb := newFakeBackend()
	svc, _, id := newService(t, fb)
	c := context.Background()

	banner, err := svc.CreateBanner(c, id, backend.BannerInput{Title: "Monsoon sale", Image: "https://cdn/x.png", IsActive: true})
	require.NoError(t, err)

	_, err = svc.UpdateBanner(c, id, banner.ID, backend.BannerInput{Title: "Monsoon sale", Image: "https://cdn/x.png"})
	require.NoError(t, err)
	banners, err := svc.Banners(c, id)
	require.NoError(t, err)
	require.Len(t, banners, 1)
	assert.False(t, banners[0].IsActive)

	require.NoError(t, svc.DeleteBanner(c, id, banner.ID))
	banners, err = svc.Banners(c, id)
	require.NoError(t, err)
	assert.Empty(t, banners)
}

func TestUpdateBookingStatus(t *testing.T) {
	fb := newFakeBackend()
	fb.bookings["b1"] = backend.Booking{ID: "b1", Status: backend.BookingPending}
	svc, _, id := newService(t, fb)
	c := context.Background()

	_, err := svc.UpdateBookingStatus(c, id, "b1", backend.BookingCompleted)
	assert.ErrorIs(t, err, inErrors.ErrInvalidTransition)

	booking, err := svc.UpdateBookingStatus(c, id, "b1", backend.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, backend.BookingConfirmed, booking.Status)

	booking, err = svc.UpdateBookingStatus(c, id, "b1", backend.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, backend.BookingCompleted, booking.Status)

	_, err = svc.UpdateBookingStatus(c, id, "b1", backend.BookingCancelled)
	assert.ErrorIs(t, err, inErrors.ErrInvalidTransition)

	assert.Equal(t, []backend.BookingStatus{backend.BookingConfirmed, backend.BookingCompleted}, fb.updates)
}
