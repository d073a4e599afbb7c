package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/internal/syncer"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/session"
)

type catalogBackend struct {
	products map[string]backend.Product
}

func (b catalogBackend) Product(c context.Context, id string) (backend.Product, error) {
	p, ok := b.products[id]
	if !ok {
		return backend.Product{}, fmt.Errorf("failed finding product=%s with error=%w", id, inErrors.ErrNotFound)
	}
	return p, nil
}

func (b catalogBackend) Service(c context.Context, id string) (backend.Service, error) {
	return backend.Service{}, inErrors.ErrNotFound
}

func (b catalogBackend) Cart(c context.Context, token string) (backend.Cart, error) {
	return backend.Cart{}, nil
}

type noopQueue struct{}

func (noopQueue) Enqueue(c context.Context, op syncer.PendingOp) error { return nil }
func (noopQueue) Sessions(c context.Context, limit int64) ([]string, error) {
	return nil, nil
}

func (noopQueue) Peek(c context.Context, sessionID string) (syncer.PendingOp, bool, error) {
	return syncer.PendingOp{}, false, nil
}

func (noopQueue) Ops(c context.Context, sessionID string) ([]syncer.PendingOp, error) {
	return nil, nil
}
func (noopQueue) Replace(c context.Context, op syncer.PendingOp) error { return nil }
func (noopQueue) Pop(c context.Context, sessionID string) error        { return nil }
func (noopQueue) Discard(c context.Context, sessionID string) error    { return nil }

type envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Data       struct {
		Cart struct {
			Items []struct {
				ID       string          `json:"id"`
				Quantity int             `json:"quantity"`
				Subtotal decimal.Decimal `json:"subtotal"`
			} `json:"items"`
			Total decimal.Decimal `json:"total"`
			Count int             `json:"count"`
		} `json:"cart"`
	} `json:"data"`
}

type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func newClient(t *testing.T) *client {
	store := session.NewMemoryStore()
	products := catalogBackend{products: map[string]backend.Product{
		"p1": {ID: "p1", Name: "Camera", Price: decimal.RequireFromString("1499.99")},
		"p2": {ID: "p2", Name: "Tripod", Price: decimal.RequireFromString("250")},
	}}

	router := mux.NewRouter()
	router.Use(middleware.Sessions(store, config.Application{CookieName: "sid", SessionTTL: time.Hour}))
	AttachCartController(router, service.NewCartService(store, noopQueue{}, products))
	return &client{t: t, router: router}
}

func (cl *client) do(method string, path string, body string) (int, envelope) {
	cl.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	rec := httptest.NewRecorder()
	cl.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sid" {
			cl.cookie = ck
		}
	}

	env := envelope{}
	require.NoError(cl.t, json.NewDecoder(rec.Body).Decode(&env))
	return rec.Code, env
}

func TestCartKeepsItemsAcrossRequests(t *testing.T) {
	cl := newClient(t)

	code, env := cl.do(http.MethodPost, "/cart/items", `{"type":"product","id":"p1"}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, cl.cookie)
	assert.Equal(t, 1, env.Data.Cart.Count)

	cl.do(http.MethodPost, "/cart/items", `{"type":"product","id":"p1"}`)
	cl.do(http.MethodPost, "/cart/items", `{"type":"product","id":"p2"}`)

	code, env = cl.do(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, env.Data.Cart.Count)
	require.Len(t, env.Data.Cart.Items, 2)
	assert.Equal(t, 2, env.Data.Cart.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("3249.98").Equal(env.Data.Cart.Total))
}

func TestCartZeroQuantityRemovesItem(t *testing.T) {
	cl := newClient(t)
	cl.do(http.MethodPost, "/cart/items", `{"type":"product","id":"p1"}`)

	code, env := cl.do(http.MethodPatch, "/cart/items/p1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Data.Cart.Items)
	assert.True(t, env.Data.Cart.Total.IsZero())
}

func TestCartRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{name: "unknown type", body: `{"type":"bundle","id":"p1"}`, expected: http.StatusUnprocessableEntity},
		{name: "missing id", body: `{"type":"product"}`, expected: http.StatusUnprocessableEntity},
		{name: "malformed json", body: `{"type":`, expected: http.StatusBadRequest},
		{name: "unknown product", body: `{"type":"product","id":"nope"}`, expected: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := newClient(t)
			code, env := cl.do(http.MethodPost, "/cart/items", tt.body)
			assert.Equal(t, tt.expected, code)
			assert.Equal(t, tt.expected, env.StatusCode)
		})
	}
}
