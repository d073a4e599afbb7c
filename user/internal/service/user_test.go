package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/backend"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/user/pkg/request"
)

type fakeBackend struct {
	loginResult backend.AuthResult
	loginErr    error
	me          backend.User
	meErr       error
	cart        backend.Cart
	cartErr     error
	newToken    string
	loggedOut   []string
}

func (f *fakeBackend) Register(c context.Context, param backend.Registration) (backend.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) Login(c context.Context, param backend.Credentials) (backend.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) AdminLogin(c context.Context, param backend.Credentials) (backend.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) Logout(c context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeBackend) Me(c context.Context, token string) (backend.User, error) {
	return f.me, f.meErr
}

func (f *fakeBackend) UpdateDetails(c context.Context, token string, param backend.ProfileDetails) (backend.User, error) {
	return backend.User{ID: "u1", Name: param.Name, Email: param.Email}, nil
}

func (f *fakeBackend) UpdatePassword(c context.Context, token string, param backend.PasswordChange) (string, error) {
	return f.newToken, nil
}

func (f *fakeBackend) Cart(c context.Context, token string) (backend.Cart, error) {
	return f.cart, f.cartErr
}

type fakeDiscarder struct {
	discarded []string
}

func (f *fakeDiscarder) Discard(c context.Context, sessionID string) error {
	f.discarded = append(f.discarded, sessionID)
	return nil
}

func newAnonymousWithCart(t *testing.T, store session.Store) session.Session {
	t.Helper()
	s := session.New(time.Now())
	s.Dispatch(state.AddToCart{Item: state.LineItem{ID: "local", ProductID: "local", Price: decimal.NewFromInt(10)}})
	s.Dispatch(state.AddToWishlist{Entry: state.WishlistEntry{ID: "w1"}})
	require.NoError(t, store.Save(context.Background(), s))
	return s
}

func TestLoginReplacesCartWithServerCart(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{
		loginResult: backend.AuthResult{Token: "tok", User: &backend.User{ID: "u1", Role: "customer"}},
		cart: backend.Cart{Items: []backend.CartItem{
			{ID: "p1", Type: "product", ProductID: "p1", Price: decimal.NewFromInt(250), Quantity: 2},
		}},
	}
	pending := &fakeDiscarder{}
	svc := NewUserService(fb, store, pending)

	sess, err := svc.Login(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	assert.True(t, sess.Authenticated())
	require.NotNil(t, sess.State.User)
	assert.Equal(t, "u1", sess.State.User.ID)
	require.Len(t, sess.State.Cart, 1)
	assert.Equal(t, "p1", sess.State.Cart[0].ID)
	assert.Equal(t, "500", sess.State.CartTotal.String())
	assert.Len(t, sess.State.Wishlist, 1, "wishlist survives login")
	assert.Equal(t, []string{s.ID}, pending.discarded)
}

func TestLoginRotatesSessionID(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{loginResult: backend.AuthResult{Token: "tok", User: &backend.User{ID: "u1", Role: "customer"}}}
	svc := NewUserService(fb, store, &fakeDiscarder{})

	sess, err := svc.Login(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, sess.ID)

	_, err = store.Load(context.Background(), s.ID)
	assert.ErrorIs(t, err, inErrors.ErrSessionNotFound, "pre-login id no longer resolves")

	loaded, err := store.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", loaded.Token)
	assert.Len(t, loaded.State.Wishlist, 1)
}

func TestLoginKeepsLocalCartWhenServerCartUnavailable(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{
		loginResult: backend.AuthResult{Token: "tok"},
		me:          backend.User{ID: "u1"},
		cartErr:     &backend.UnavailableError{Cause: errors.New("timeout")},
	}
	svc := NewUserService(fb, store, &fakeDiscarder{})

	sess, err := svc.Login(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.State.User.ID, "user fetched from /auth/me")
	assert.Equal(t, 1, sess.State.CartCount)
}

func TestLoginFailureLeavesSessionAnonymous(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{loginErr: &backend.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}}
	svc := NewUserService(fb, store, &fakeDiscarder{})

	_, err := svc.Login(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "bad"})
	assert.True(t, backend.IsUnauthorized(err))

	loaded, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
	assert.Equal(t, 1, loaded.State.CartCount)
}

func TestAdminLoginRejectsCustomer(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{loginResult: backend.AuthResult{Token: "tok", User: &backend.User{ID: "u1", Role: "customer"}}}
	svc := NewUserService(fb, store, &fakeDiscarder{})

	_, err := svc.AdminLogin(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "pw"})
	assert.ErrorIs(t, err, inErrors.ErrForbidden)

	loaded, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated(), "customer token never reaches the session")
	assert.Nil(t, loaded.State.User)
	assert.Equal(t, 1, loaded.State.CartCount)
}

func TestAdminLoginRejectsTokenWithoutAdminRole(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{loginResult: backend.AuthResult{Token: "tok"}, me: backend.User{ID: "u1"}}
	pending := &fakeDiscarder{}
	svc := NewUserService(fb, store, pending)

	_, err := svc.AdminLogin(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "pw"})
	assert.ErrorIs(t, err, inErrors.ErrForbidden)
	assert.Empty(t, pending.discarded)

	loaded, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
}

func TestAdminLogin(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{loginResult: backend.AuthResult{Token: "tok", User: &backend.User{ID: "a1", Role: "admin"}}}
	svc := NewUserService(fb, store, &fakeDiscarder{})

	sess, err := svc.AdminLogin(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin("admin"))
	assert.Equal(t, 1, sess.State.CartCount, "admin login leaves the cart alone")
}

func TestLogoutClearsEverything(t *testing.T) {
	store := session.NewMemoryStore()
	s := newAnonymousWithCart(t, store)
	fb := &fakeBackend{loginResult: backend.AuthResult{Token: "tok", User: &backend.User{ID: "u1"}}}
	pending := &fakeDiscarder{}
	svc := NewUserService(fb, store, pending)
	loggedIn, err := svc.Login(context.Background(), s.ID, request.LoginRequest{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	sess, err := svc.Logout(context.Background(), loggedIn.ID)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.State.User)
	assert.Empty(t, sess.State.Cart)
	assert.Empty(t, sess.State.Wishlist)
	assert.Equal(t, []string{"tok"}, fb.loggedOut)
	assert.Len(t, pending.discarded, 2)
}

func TestProfileDowngradesOnUnauthorized(t *testing.T) {
	store := session.NewMemoryStore()
	s := session.New(time.Now())
	s.Login("tok", state.SetUser{User: backend.User{ID: "u1"}})
	require.NoError(t, store.Save(context.Background(), s))
	fb := &fakeBackend{meErr: &backend.Error{Status: http.StatusUnauthorized, Message: "expired"}}
	svc := NewUserService(fb, store, &fakeDiscarder{})

	_, err := svc.Profile(context.Background(), s.ID)
	require.Error(t, err)

	loaded, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
}

func TestProfileRefreshesKYCStatus(t *testing.T) {
	store := session.NewMemoryStore()
	s := session.New(time.Now())
	s.Login("tok", state.SetUser{User: backend.User{ID: "u1", KYCStatus: backend.KYCPending}})
	require.NoError(t, store.Save(context.Background(), s))
	fb := &fakeBackend{me: backend.User{ID: "u1", KYCStatus: backend.KYCVerified}}
	svc := NewUserService(fb, store, &fakeDiscarder{})

	user, err := svc.Profile(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, backend.KYCVerified, user.KYCStatus)

	loaded, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, backend.KYCVerified, loaded.State.User.KYCStatus)
}

func TestUpdatePasswordStoresNewToken(t *testing.T) {
	store := session.NewMemoryStore()
	s := session.New(time.Now())
	s.Login("old", state.SetUser{User: backend.User{ID: "u1"}})
	require.NoError(t, store.Save(context.Background(), s))
	svc := NewUserService(&fakeBackend{newToken: "new"}, store, &fakeDiscarder{})

	err := svc.UpdatePassword(context.Background(), s.ID, request.UpdatePassword{
		CurrentPassword: "pw",
		NewPassword:     "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.Token)
}
